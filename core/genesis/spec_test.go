// core/genesis/spec_test.go
package genesis

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/campaignmanager"
	"voucherchain/native/issuance"
	"voucherchain/native/localcoin"
	"voucherchain/native/protocol"
	"voucherchain/native/registry"
	"voucherchain/storage"
)

var (
	adminAccount    = crypto.AccountFromSeed("genesis-admin")
	donorAccount    = crypto.AccountFromSeed("genesis-donor")
	grocerAccount   = crypto.AccountFromSeed("genesis-grocer")
	pharmacyAccount = crypto.AccountFromSeed("genesis-pharmacy")
)

func manifest() string {
	return fmt.Sprintf(`superAdmin: %s
stableCoin:
  name: USD Coin
  symbol: USDC
  decimals: 7
alloc:
  %s: "5000000000"
merchants:
  - address: %s
    proprietor: Ada
    phoneNo: "+234800000000"
    storeName: Corner Grocer
    location: Lagos
    verified: true
  - address: %s
    storeName: Night Pharmacy
tokens:
  - name: Food Coin
    symbol: FOOD
    decimals: 7
    items: [bread, rice]
    merchants:
      - %s
`,
		crypto.FormatAccount(adminAccount),
		crypto.FormatAccount(donorAccount),
		crypto.FormatAccount(grocerAccount),
		crypto.FormatAccount(pharmacyAccount),
		crypto.FormatAccount(grocerAccount),
	)
}

func TestLoadGenesisSpec(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "genesis.yaml")
	if err := os.WriteFile(path, []byte(manifest()), 0o644); err != nil {
		t.Fatalf("write spec: %v", err)
	}
	spec, err := LoadGenesisSpec(path)
	if err != nil {
		t.Fatalf("load spec: %v", err)
	}
	if spec.SuperAdminAccount() != adminAccount {
		t.Fatalf("unexpected super admin %x", spec.SuperAdminAccount())
	}
	if len(spec.alloc) != 1 || spec.alloc[0].amount.Cmp(big.NewInt(5_000_000_000)) != 0 {
		t.Fatalf("unexpected alloc %+v", spec.alloc)
	}
	if len(spec.Tokens) != 1 || len(spec.Tokens[0].merchants) != 1 || spec.Tokens[0].merchants[0] != grocerAccount {
		t.Fatalf("token merchants not resolved: %+v", spec.Tokens)
	}
}

func TestParseGenesisSpecValidation(t *testing.T) {
	cases := map[string]struct {
		mutate func(string) string
		want   string
	}{
		"unknown field": {
			mutate: func(s string) string { return s + "validators: []\n" },
			want:   "field validators not found",
		},
		"bad admin": {
			mutate: func(s string) string {
				return strings.Replace(s, crypto.FormatAccount(adminAccount), "nhb1notanaddress", 1)
			},
			want: "superAdmin",
		},
		"duplicate symbol": {
			mutate: func(s string) string { return strings.Replace(s, "symbol: FOOD", "symbol: usdc", 1) },
			want:   "duplicate symbol",
		},
		"unverified token merchant": {
			mutate: func(s string) string {
				idx := strings.LastIndex(s, crypto.FormatAccount(grocerAccount))
				return s[:idx] + crypto.FormatAccount(pharmacyAccount) + s[idx+len(crypto.FormatAccount(grocerAccount)):]
			},
			want: "not a verified genesis merchant",
		},
		"negative alloc": {
			mutate: func(s string) string { return strings.Replace(s, `"5000000000"`, `"-1"`, 1) },
			want:   "must not be negative",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseGenesisSpec([]byte(tc.mutate(manifest())))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected %q in %v", tc.want, err)
			}
		})
	}
}

func newGenesisHost(t *testing.T) *host.Host {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { _ = db.Close() })
	h := host.New(db, host.Config{})
	protocol.Register(h)
	return h
}

func TestApplyWiresDeployment(t *testing.T) {
	spec, err := ParseGenesisSpec([]byte(manifest()))
	if err != nil {
		t.Fatalf("parse spec: %v", err)
	}
	h := newGenesisHost(t)
	deployment, err := Apply(context.Background(), h, spec)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(deployment.Tokens) != 1 || deployment.Tokens[0].Symbol != "FOOD" {
		t.Fatalf("unexpected tokens %+v", deployment.Tokens)
	}

	stored, ok, err := LoadDeployment(h)
	if err != nil || !ok {
		t.Fatalf("load deployment: ok=%v err=%v", ok, err)
	}
	if stored.CampaignManager != deployment.CampaignManager || stored.Tokens[0].Address != deployment.Tokens[0].Address {
		t.Fatalf("stored deployment mismatch: %+v vs %+v", stored, deployment)
	}

	err = h.View(context.Background(), func(env *host.Env) error {
		reg, err := registry.Dial(env, deployment.Registry)
		if err != nil {
			return err
		}
		verified, err := reg.VerifiedMerchants()
		if err != nil {
			return err
		}
		unverified, err := reg.UnverifiedMerchants()
		if err != nil {
			return err
		}
		if len(verified) != 1 || verified[0] != grocerAccount {
			return fmt.Errorf("verified merchants %x", verified)
		}
		if len(unverified) != 1 || unverified[0] != pharmacyAccount {
			return fmt.Errorf("unverified merchants %x", unverified)
		}
		manager, err := reg.CampaignManagement()
		if err != nil || manager != deployment.CampaignManager {
			return fmt.Errorf("campaign management %x: %v", manager, err)
		}

		iss, err := issuance.Dial(env, deployment.Issuance)
		if err != nil {
			return err
		}
		food, ok, err := iss.TokenBySymbol("FOOD")
		if err != nil || !ok || food != deployment.Tokens[0].Address {
			return fmt.Errorf("token by symbol: %x ok=%v err=%v", food, ok, err)
		}

		cm, err := campaignmanager.Dial(env, deployment.CampaignManager)
		if err != nil {
			return err
		}
		stableAddr, err := cm.StableCoin()
		if err != nil || stableAddr != deployment.StableCoin {
			return fmt.Errorf("stable coin %x: %v", stableAddr, err)
		}
		balance, err := cm.BalanceOfStableCoin(donorAccount)
		if err != nil {
			return err
		}
		if balance.Cmp(big.NewInt(5_000_000_000)) != 0 {
			return fmt.Errorf("donor balance %s", balance)
		}

		token, err := localcoin.Dial(env, food)
		if err != nil {
			return err
		}
		admin, err := token.Admin()
		if err != nil || admin != deployment.CampaignManager {
			return fmt.Errorf("token admin %x: %v", admin, err)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("inspect deployment: %v", err)
	}
}

func TestApplyTwiceFails(t *testing.T) {
	spec, err := ParseGenesisSpec([]byte(manifest()))
	if err != nil {
		t.Fatalf("parse spec: %v", err)
	}
	h := newGenesisHost(t)
	if _, err := Apply(context.Background(), h, spec); err != nil {
		t.Fatalf("apply: %v", err)
	}
	ledger, err := h.Ledger()
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if _, err := Apply(context.Background(), h, spec); !errors.Is(err, ErrAlreadyApplied) {
		t.Fatalf("expected ErrAlreadyApplied, got %v", err)
	}
	after, err := h.Ledger()
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if after != ledger {
		t.Fatalf("failed apply advanced the ledger: %d -> %d", ledger, after)
	}
}
