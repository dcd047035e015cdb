package state

import (
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"voucherchain/storage"
)

func newOverlay(t *testing.T) (*Overlay, *storage.MemDB) {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(func() { _ = db.Close() })
	return NewOverlay(db), db
}

func TestStoreInstanceRoundTrip(t *testing.T) {
	ov, _ := newOverlay(t)
	var contract [20]byte
	contract[0] = 1
	st := NewStore(ov, contract, Instance, 1, 10)

	var addr [20]byte
	addr[19] = 0xAA
	require.NoError(t, st.Set(Key("Admin"), addr))

	var got [20]byte
	ok, err := st.Get(Key("Admin"), &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, addr, got)

	ok, err = st.Has(Key("Missing"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Remove(Key("Admin")))
	ok, err = st.Has(Key("Admin"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestStoreKeyspacesAreIsolated(t *testing.T) {
	ov, _ := newOverlay(t)
	var a, b [20]byte
	a[0], b[0] = 1, 2
	require.NoError(t, NewStore(ov, a, Instance, 1, 10).Set(Key("Owner"), "alice"))

	ok, err := NewStore(ov, b, Instance, 1, 10).Has(Key("Owner"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = NewStore(ov, a, Persistent, 1, 10).Has(Key("Owner"))
	require.NoError(t, err)
	require.False(t, ok, "classes must not share entries")
}

func TestOverlayCommitAndDiscard(t *testing.T) {
	ov, db := newOverlay(t)
	var contract [20]byte
	st := NewStore(ov, contract, Instance, 1, 10)
	require.NoError(t, st.Set(Key("Counter"), uint32(3)))
	require.Equal(t, 0, db.Len())

	ov.Discard()
	ok, err := st.Has(Key("Counter"))
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, st.Set(Key("Counter"), uint32(4)))
	require.NoError(t, ov.Commit())
	require.Equal(t, 1, db.Len())

	fresh := NewStore(NewOverlay(db), contract, Instance, 1, 10)
	var counter uint32
	ok, err = fresh.Get(Key("Counter"), &counter)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(4), counter)
}

func TestPersistentEntriesExpireAndExtend(t *testing.T) {
	ov, _ := newOverlay(t)
	var contract [20]byte
	key := Key("Balance", []byte{1})

	st := NewStore(ov, contract, Persistent, 100, 10)
	require.NoError(t, st.Set(key, big.NewInt(5)))
	liveUntil, ok, err := st.TTL(key)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(110), liveUntil)

	// Above the threshold nothing changes.
	require.NoError(t, st.ExtendTTL(key, 5, 50))
	liveUntil, _, _ = st.TTL(key)
	require.Equal(t, uint64(110), liveUntil)

	later := NewStore(ov, contract, Persistent, 106, 10)
	require.NoError(t, later.ExtendTTL(key, 5, 50))
	liveUntil, _, _ = later.TTL(key)
	require.Equal(t, uint64(156), liveUntil)

	expired := NewStore(ov, contract, Persistent, 157, 10)
	_, err = expired.Get(key, new(big.Int))
	require.True(t, errors.Is(err, ErrArchived))
}

func TestRestoreRevivesArchivedEntry(t *testing.T) {
	ov, _ := newOverlay(t)
	contract := [20]byte{7}
	key := Key("Balance", []byte("alice"))

	st := NewStore(ov, contract, Persistent, 100, 10)
	require.NoError(t, st.Set(key, big.NewInt(42)))

	live := NewStore(ov, contract, Persistent, 105, 10)
	restored, err := live.Restore(key)
	require.NoError(t, err)
	require.False(t, restored, "live entries are left alone")

	expired := NewStore(ov, contract, Persistent, 200, 10)
	require.ErrorIs(t, expired.Set(key, big.NewInt(1)), ErrArchived)
	restored, err = expired.Restore(key)
	require.NoError(t, err)
	require.True(t, restored)

	value := new(big.Int)
	ok, err := expired.Get(key, value)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(42), value.Int64(), "restoring keeps the archived value")
	liveUntil, _, err := expired.TTL(key)
	require.NoError(t, err)
	require.Equal(t, uint64(210), liveUntil)

	restored, err = expired.Restore(Key("Balance", []byte("nobody")))
	require.NoError(t, err)
	require.False(t, restored)
}

func TestStoreRejectsEmptyKey(t *testing.T) {
	ov, _ := newOverlay(t)
	st := NewStore(ov, [20]byte{}, Instance, 1, 10)
	require.Error(t, st.Set(nil, uint32(1)))
}

func TestKeyLayout(t *testing.T) {
	require.Equal(t, []byte("Balance:ab"), Key("Balance", []byte("ab")))
	require.Equal(t, []byte("Admin"), Key("Admin"))
}
