package genesis

import (
	"context"
	"errors"
	"fmt"

	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/campaignmanager"
	"voucherchain/native/issuance"
	"voucherchain/native/localcoin"
	"voucherchain/native/registry"
)

// DeploymentMetadataKey is the host metadata record holding the genesis
// deployment.
const DeploymentMetadataKey = "genesis/deployment"

// ErrAlreadyApplied is returned when the store already holds a deployment.
var ErrAlreadyApplied = errors.New("genesis: already applied")

// DeployedToken is a token issued at genesis.
type DeployedToken struct {
	Symbol  string
	Address [20]byte
}

// Deployment records where genesis placed every contract.
type Deployment struct {
	SuperAdmin      [20]byte
	Registry        [20]byte
	Issuance        [20]byte
	CampaignManager [20]byte
	StableCoin      [20]byte
	Tokens          []DeployedToken
	Ledger          uint64
}

// Apply deploys and wires the voucher contracts described by spec in one
// transaction. The contract codes must already be registered on h.
func Apply(ctx context.Context, h *host.Host, spec *GenesisSpec) (*Deployment, error) {
	if spec == nil {
		return nil, fmt.Errorf("genesis spec must not be nil")
	}
	admin := spec.superAdmin
	deployment := &Deployment{SuperAdmin: admin}
	err := h.Execute(ctx, [][20]byte{admin}, func(env *host.Env) error {
		var existing Deployment
		if ok, err := env.Metadata(DeploymentMetadataKey, &existing); err != nil {
			return err
		} else if ok {
			return ErrAlreadyApplied
		}
		if err := deployCore(env, admin, deployment); err != nil {
			return err
		}
		if err := wire(env, spec, deployment); err != nil {
			return err
		}
		deployment.Ledger = env.Ledger()
		return env.SetMetadata(DeploymentMetadataKey, deployment)
	})
	if err != nil {
		return nil, err
	}
	return deployment, nil
}

func deployCore(env *host.Env, admin [20]byte, d *Deployment) error {
	targets := []struct {
		name string
		dest *[20]byte
	}{
		{registry.CodeName, &d.Registry},
		{issuance.CodeName, &d.Issuance},
		{campaignmanager.CodeName, &d.CampaignManager},
		{localcoin.CodeName, &d.StableCoin},
	}
	for _, target := range targets {
		addr, err := env.Deploy(admin, host.CodeHash(target.name), crypto.LabelSalt("genesis/"+target.name))
		if err != nil {
			return fmt.Errorf("deploy %s: %w", target.name, err)
		}
		*target.dest = addr
	}
	return nil
}

func wire(env *host.Env, spec *GenesisSpec, d *Deployment) error {
	reg, err := registry.Dial(env, d.Registry)
	if err != nil {
		return err
	}
	if err := reg.Initialize(d.SuperAdmin); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := reg.SetIssuanceManagement(d.Issuance); err != nil {
		return fmt.Errorf("registry: %w", err)
	}
	if err := reg.SetCampaignManagement(d.CampaignManager); err != nil {
		return fmt.Errorf("registry: %w", err)
	}

	iss, err := issuance.Dial(env, d.Issuance)
	if err != nil {
		return err
	}
	if err := iss.Initialize(d.Registry); err != nil {
		return fmt.Errorf("issuance: %w", err)
	}
	if err := iss.SetCampaignManagement(d.CampaignManager); err != nil {
		return fmt.Errorf("issuance: %w", err)
	}

	manager, err := campaignmanager.Dial(env, d.CampaignManager)
	if err != nil {
		return err
	}
	if err := manager.Initialize(d.Registry); err != nil {
		return fmt.Errorf("campaign management: %w", err)
	}
	if err := manager.SetStableCoinAddress(d.StableCoin); err != nil {
		return fmt.Errorf("campaign management: %w", err)
	}

	stable, err := localcoin.Dial(env, d.StableCoin)
	if err != nil {
		return err
	}
	coin := spec.StableCoin
	if err := stable.Initialize(d.SuperAdmin, coin.Decimals, coin.Name, coin.Symbol); err != nil {
		return fmt.Errorf("stable coin: %w", err)
	}
	for _, a := range spec.alloc {
		if err := stable.Mint(a.account, a.amount); err != nil {
			return fmt.Errorf("alloc %s: %w", crypto.FormatAccount(a.account), err)
		}
	}

	for _, m := range spec.Merchants {
		profile := registry.Profile{
			Proprietor: m.Proprietor,
			PhoneNo:    m.PhoneNo,
			StoreName:  m.StoreName,
			Location:   m.Location,
		}
		if err := reg.MerchantRegistration(m.account, profile); err != nil {
			return fmt.Errorf("merchant %s: %w", m.Address, err)
		}
		if !m.Verified {
			continue
		}
		if err := reg.VerifyMerchant(m.account); err != nil {
			return fmt.Errorf("merchant %s: %w", m.Address, err)
		}
	}

	for _, t := range spec.Tokens {
		addr, err := iss.IssueNewToken(t.Decimals, t.Name, t.Symbol, t.Items, t.merchants)
		if err != nil {
			return fmt.Errorf("token %s: %w", t.Symbol, err)
		}
		d.Tokens = append(d.Tokens, DeployedToken{Symbol: t.Symbol, Address: addr})
	}
	return nil
}

// LoadDeployment returns the deployment recorded by Apply.
func LoadDeployment(h *host.Host) (*Deployment, bool, error) {
	var d Deployment
	ok, err := h.Metadata(DeploymentMetadataKey, &d)
	if err != nil || !ok {
		return nil, false, err
	}
	return &d, true, nil
}
