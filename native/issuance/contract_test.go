package issuance

import (
	"context"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"voucherchain/core/events"
	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/localcoin"
	"voucherchain/native/registry"
	"voucherchain/storage"
)

type capturingEmitter struct {
	events []events.Event
}

func (c *capturingEmitter) Emit(e events.Event) {
	c.events = append(c.events, e)
}

type issuanceFixture struct {
	host     *host.Host
	emitter  *capturingEmitter
	admin    [20]byte
	manager  [20]byte
	registry [20]byte
	issuance [20]byte
	verified [20]byte
	pending  [20]byte
}

func newIssuanceFixture(t *testing.T) *issuanceFixture {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { _ = db.Close() })
	h := host.New(db, host.Config{})
	emitter := &capturingEmitter{}
	h.SetEmitter(emitter)
	regCode := h.RegisterCode(registry.CodeName, registry.New())
	issCode := h.RegisterCode(CodeName, New())
	h.RegisterCode(localcoin.CodeName, localcoin.New())

	f := &issuanceFixture{
		host:     h,
		emitter:  emitter,
		admin:    crypto.AccountFromSeed("super-admin"),
		manager:  crypto.AccountFromSeed("campaign-management"),
		verified: crypto.AccountFromSeed("merchant-verified"),
		pending:  crypto.AccountFromSeed("merchant-pending"),
	}
	err := h.Execute(context.Background(), [][20]byte{f.admin}, func(env *host.Env) error {
		var err error
		if f.registry, err = env.Deploy(f.admin, regCode, crypto.CounterSalt(100)); err != nil {
			return err
		}
		if f.issuance, err = env.Deploy(f.admin, issCode, crypto.CounterSalt(101)); err != nil {
			return err
		}
		reg, err := registry.Dial(env, f.registry)
		if err != nil {
			return err
		}
		if err := reg.Initialize(f.admin); err != nil {
			return err
		}
		if err := reg.SetIssuanceManagement(f.issuance); err != nil {
			return err
		}
		if err := reg.SetCampaignManagement(f.manager); err != nil {
			return err
		}
		for _, m := range [][20]byte{f.verified, f.pending} {
			if err := reg.MerchantRegistration(m, registry.Profile{StoreName: "Store"}); err != nil {
				return err
			}
		}
		if err := reg.VerifyMerchant(f.verified); err != nil {
			return err
		}
		iss, err := Dial(env, f.issuance)
		if err != nil {
			return err
		}
		if err := iss.Initialize(f.registry); err != nil {
			return err
		}
		return iss.SetCampaignManagement(f.manager)
	})
	require.NoError(t, err)
	return f
}

func (f *issuanceFixture) exec(signers [][20]byte, fn func(env *host.Env, iss *Client) error) error {
	return f.host.Execute(context.Background(), signers, func(env *host.Env) error {
		iss, err := Dial(env, f.issuance)
		if err != nil {
			return err
		}
		return fn(env, iss)
	})
}

func (f *issuanceFixture) issue(t *testing.T, symbol string, merchants [][20]byte) [20]byte {
	t.Helper()
	var token [20]byte
	require.NoError(t, f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		var err error
		token, err = iss.IssueNewToken(7, symbol+" coin", symbol, []string{"food"}, merchants)
		return err
	}))
	return token
}

func TestIssueNewTokenDeploysAndBinds(t *testing.T) {
	f := newIssuanceFixture(t)
	token := f.issue(t, "FOOD", [][20]byte{f.verified})

	expected := crypto.ContractAddress(f.admin, crypto.CounterSalt(0), host.CodeHash(localcoin.CodeName))
	require.Equal(t, expected, token)

	require.NoError(t, f.host.View(context.Background(), func(env *host.Env) error {
		coin, err := localcoin.Dial(env, token)
		require.NoError(t, err)
		admin, err := coin.Admin()
		require.NoError(t, err)
		require.Equal(t, f.manager, admin, "campaign management administers issued tokens")
		bound, err := coin.IssuanceManagement()
		require.NoError(t, err)
		require.Equal(t, f.issuance, bound)

		reg, err := registry.Dial(env, f.registry)
		require.NoError(t, err)
		tokens, err := reg.AvailableTokens()
		require.NoError(t, err)
		require.Equal(t, [][20]byte{token}, tokens)

		iss, err := Dial(env, f.issuance)
		require.NoError(t, err)
		merchants, err := iss.MerchantsAssociated(token)
		require.NoError(t, err)
		require.Equal(t, [][20]byte{f.verified}, merchants)
		items, err := iss.ItemsAssociated(token)
		require.NoError(t, err)
		require.Equal(t, []string{"food"}, items)
		bySymbol, ok, err := iss.TokenBySymbol("food")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, token, bySymbol)
		salt, err := iss.SaltCounter()
		require.NoError(t, err)
		require.Equal(t, uint32(1), salt)
		return nil
	}))

	second := f.issue(t, "RENT", nil)
	require.NotEqual(t, token, second, "salt counter yields distinct addresses")
}

func TestIssueNewTokenGuards(t *testing.T) {
	f := newIssuanceFixture(t)
	f.issue(t, "FOOD", nil)

	err := f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		_, err := iss.IssueNewToken(7, "Again", "FOOD", nil, nil)
		return err
	})
	require.ErrorIs(t, err, ErrSymbolTaken)

	err = f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		_, err := iss.IssueNewToken(7, "Rent", "RENT", nil, [][20]byte{f.verified, f.pending})
		return err
	})
	require.ErrorIs(t, err, ErrUnverifiedMerchant)

	err = f.exec([][20]byte{f.pending}, func(_ *host.Env, iss *Client) error {
		_, err := iss.IssueNewToken(7, "Rent", "RENT", nil, nil)
		return err
	})
	require.ErrorIs(t, err, host.ErrAuthFailed)

	err = f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		_, err := iss.IssueNewToken(7, "Blank", "  ", nil, nil)
		return err
	})
	require.EqualError(t, err, "Token symbol required.")

	require.NoError(t, f.host.View(context.Background(), func(env *host.Env) error {
		iss, err := Dial(env, f.issuance)
		require.NoError(t, err)
		salt, err := iss.SaltCounter()
		require.NoError(t, err)
		require.Equal(t, uint32(1), salt, "failed issuances do not consume salts")
		return nil
	}))
}

func TestAddTokenItemsAndMerchants(t *testing.T) {
	f := newIssuanceFixture(t)
	token := f.issue(t, "FOOD", nil)

	require.NoError(t, f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		return iss.AddTokenItems(token, []string{"bread", "milk"})
	}))
	err := f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		return iss.AddTokenItems(token, []string{"rice", "milk"})
	})
	require.ErrorIs(t, err, ErrItemExists)

	err = f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		return iss.AddTokenItems(crypto.AccountFromSeed("unknown"), []string{"x"})
	})
	require.ErrorIs(t, err, ErrTokenNotFound)

	err = f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		return iss.AddTokenMerchants(token, [][20]byte{f.pending})
	})
	require.ErrorIs(t, err, ErrUnverifiedMerchant)

	require.NoError(t, f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		return iss.AddTokenMerchants(token, [][20]byte{f.verified})
	}))
	err = f.exec([][20]byte{f.admin}, func(_ *host.Env, iss *Client) error {
		return iss.AddTokenMerchants(token, [][20]byte{f.verified})
	})
	require.ErrorIs(t, err, ErrMerchantExists)

	require.NoError(t, f.host.View(context.Background(), func(env *host.Env) error {
		iss, err := Dial(env, f.issuance)
		require.NoError(t, err)
		items, err := iss.ItemsAssociated(token)
		require.NoError(t, err)
		require.Equal(t, []string{"food", "bread", "milk"}, items)
		return nil
	}))
}

func TestMerchantRestrictedTransferThroughIssuance(t *testing.T) {
	f := newIssuanceFixture(t)
	token := f.issue(t, "FOOD", [][20]byte{f.verified})
	recipient := crypto.AccountFromSeed("recipient")

	require.NoError(t, f.host.Execute(context.Background(), [][20]byte{f.manager}, func(env *host.Env) error {
		coin, err := localcoin.Dial(env, token)
		if err != nil {
			return err
		}
		return coin.Mint(recipient, big.NewInt(100))
	}))

	transfer := func(to [20]byte) error {
		return f.host.Execute(context.Background(), [][20]byte{recipient}, func(env *host.Env) error {
			coin, err := localcoin.Dial(env, token)
			if err != nil {
				return err
			}
			return coin.RecipientToMerchantTransfer(recipient, to, big.NewInt(40))
		})
	}
	require.ErrorIs(t, transfer(f.pending), localcoin.ErrMerchantNotAccepted)
	require.NoError(t, transfer(f.verified))

	require.NoError(t, f.host.View(context.Background(), func(env *host.Env) error {
		iss, err := Dial(env, f.issuance)
		require.NoError(t, err)
		rows, err := iss.BalanceOfBatch(recipient)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, token, rows[0].Token)
		require.Equal(t, "FOOD", rows[0].Symbol)
		require.Equal(t, big.NewInt(60), rows[0].Balance)

		empty, err := iss.BalanceOfBatch(crypto.AccountFromSeed("nobody"))
		require.NoError(t, err)
		require.Empty(t, empty)
		return nil
	}))
}

func TestInitializeTwice(t *testing.T) {
	f := newIssuanceFixture(t)
	err := f.exec(nil, func(_ *host.Env, iss *Client) error {
		return iss.Initialize(crypto.AccountFromSeed("other"))
	})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}
