package indexer

import (
	"context"
	"errors"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"voucherchain/core/events"
	"voucherchain/core/host"
	"voucherchain/crypto"
	"voucherchain/native/localcoin"
	"voucherchain/storage"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndFilter(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	tokenA := crypto.AccountFromSeed("token-a")
	tokenB := crypto.AccountFromSeed("token-b")
	holder := crypto.AccountFromSeed("holder")

	_, err := store.Append(ctx, events.Envelope{TxID: "t1", Ledger: 1, Contract: tokenA,
		Payload: events.LocalCoinMint{To: holder, Amount: big.NewInt(10)}})
	require.NoError(t, err)
	_, err = store.Append(ctx, events.Envelope{TxID: "t2", Ledger: 2, Contract: tokenB,
		Payload: events.LocalCoinMint{To: holder, Amount: big.NewInt(20)}})
	require.NoError(t, err)
	_, err = store.Append(ctx, events.Envelope{TxID: "t3", Ledger: 3, Contract: tokenA,
		Payload: events.LocalCoinBurn{From: holder, Amount: big.NewInt(5)}})
	require.NoError(t, err)

	all, err := store.List(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"t1", "t2", "t3"}, []string{all[0].TxID, all[1].TxID, all[2].TxID})
	require.Equal(t, uint64(2), all[1].Ledger)
	require.Equal(t, "20", all[1].Attributes["amount"])
	require.NotContains(t, all[1].Attributes, "txId")

	mints, err := store.List(ctx, Filter{Type: events.TypeLocalCoinMint})
	require.NoError(t, err)
	require.Len(t, mints, 2)

	byContract, err := store.List(ctx, Filter{Contract: crypto.FormatAccount(tokenA)})
	require.NoError(t, err)
	require.Len(t, byContract, 2)
	require.Equal(t, crypto.FormatAccount(tokenA), byContract[1].Contract)

	page, err := store.List(ctx, Filter{AfterID: all[0].ID, Limit: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	require.Equal(t, "t2", page[0].TxID)

	_, err = store.List(ctx, Filter{Contract: "not-an-address"})
	require.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	require.Equal(t, DefaultLimit, clampLimit(0))
	require.Equal(t, DefaultLimit, clampLimit(-3))
	require.Equal(t, 7, clampLimit(7))
	require.Equal(t, MaxLimit, clampLimit(MaxLimit+1))
}

func TestStoreIndexesCommittedTransactionsOnly(t *testing.T) {
	store := newStore(t)
	db := storage.NewMemDB()
	t.Cleanup(func() { _ = db.Close() })
	h := host.New(db, host.Config{})
	h.SetEmitter(store)
	code := h.RegisterCode(localcoin.CodeName, localcoin.New())
	admin := crypto.AccountFromSeed("admin")
	holder := crypto.AccountFromSeed("holder")
	ctx := context.Background()

	var token [20]byte
	require.NoError(t, h.Execute(ctx, [][20]byte{admin}, func(env *host.Env) error {
		var err error
		if token, err = env.Deploy(admin, code, crypto.CounterSalt(0)); err != nil {
			return err
		}
		coin, err := localcoin.Dial(env, token)
		if err != nil {
			return err
		}
		if err := coin.Initialize(admin, 2, "Stable", "USDC"); err != nil {
			return err
		}
		return coin.Mint(holder, big.NewInt(500))
	}))

	boom := errors.New("boom")
	err := h.Execute(ctx, [][20]byte{admin}, func(env *host.Env) error {
		coin, err := localcoin.Dial(env, token)
		if err != nil {
			return err
		}
		if err := coin.Mint(holder, big.NewInt(1)); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	mints, err := store.List(ctx, Filter{Type: events.TypeLocalCoinMint})
	require.NoError(t, err)
	require.Len(t, mints, 1)
	require.Equal(t, "500", mints[0].Attributes["amount"])
	require.Equal(t, crypto.FormatAccount(token), mints[0].Contract)
	require.NotEmpty(t, mints[0].TxID)

	withFile, err := Open(filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	require.NoError(t, withFile.Close())
}
