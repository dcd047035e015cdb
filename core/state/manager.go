package state

import (
	"errors"
	"fmt"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"voucherchain/storage"
)

// ErrArchived is returned when a persistent entry is read after its
// time-to-live elapsed.
var ErrArchived = errors.New("entry archived")

// Class selects the durability class of a contract storage entry.
type Class byte

const (
	// Instance entries live as long as the contract instance does.
	Instance Class = 'i'
	// Persistent entries carry their own time-to-live that callers extend.
	Persistent Class = 'p'
)

func (c Class) String() string {
	switch c {
	case Instance:
		return "instance"
	case Persistent:
		return "persistent"
	default:
		return fmt.Sprintf("class(%d)", byte(c))
	}
}

// Overlay buffers writes and deletes on top of a database so a transaction
// can be flushed in one batch or thrown away as a whole.
//
// Overlay is not safe for concurrent use.
type Overlay struct {
	db      storage.Database
	writes  map[string][]byte
	deletes map[string]struct{}
}

// NewOverlay creates an empty overlay reading through to db.
func NewOverlay(db storage.Database) *Overlay {
	return &Overlay{
		db:      db,
		writes:  make(map[string][]byte),
		deletes: make(map[string]struct{}),
	}
}

// Get returns the value visible through the overlay.
func (o *Overlay) Get(key []byte) ([]byte, bool, error) {
	k := string(key)
	if _, deleted := o.deletes[k]; deleted {
		return nil, false, nil
	}
	if value, ok := o.writes[k]; ok {
		return value, true, nil
	}
	value, err := o.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if len(value) == 0 {
		return nil, false, nil
	}
	return value, true, nil
}

// Put records a write.
func (o *Overlay) Put(key, value []byte) {
	k := string(key)
	delete(o.deletes, k)
	o.writes[k] = append([]byte(nil), value...)
}

// Delete records a removal.
func (o *Overlay) Delete(key []byte) {
	k := string(key)
	delete(o.writes, k)
	o.deletes[k] = struct{}{}
}

// Dirty reports the number of pending mutations.
func (o *Overlay) Dirty() int {
	return len(o.writes) + len(o.deletes)
}

// Commit flushes every pending mutation through one storage batch in a
// deterministic key order and resets the overlay.
func (o *Overlay) Commit() error {
	if o.Dirty() == 0 {
		return nil
	}
	keys := make([]string, 0, o.Dirty())
	for k := range o.writes {
		keys = append(keys, k)
	}
	for k := range o.deletes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := o.db.NewBatch()
	for _, k := range keys {
		if value, ok := o.writes[k]; ok {
			batch.Put([]byte(k), value)
			continue
		}
		batch.Delete([]byte(k))
	}
	if err := batch.Write(); err != nil {
		return err
	}
	o.Discard()
	return nil
}

// Discard drops every pending mutation.
func (o *Overlay) Discard() {
	o.writes = make(map[string][]byte)
	o.deletes = make(map[string]struct{})
}

// Key builds a tagged-variant storage key such as Key("Balance", addr[:]).
func Key(tag string, args ...[]byte) []byte {
	size := len(tag)
	for _, arg := range args {
		size += 1 + len(arg)
	}
	buf := make([]byte, 0, size)
	buf = append(buf, tag...)
	for _, arg := range args {
		buf = append(buf, ':')
		buf = append(buf, arg...)
	}
	return buf
}

type persistentEntry struct {
	Data      []byte
	LiveUntil uint64
}

// Store exposes one durability class of one contract's keyspace. Values are
// RLP encoded and keys are hashed with keccak256 together with the owning
// contract address, so a contract can never address a peer's entries.
type Store struct {
	ov       *Overlay
	contract [20]byte
	class    Class
	ledger   uint64
	minTTL   uint32
}

// NewStore returns a store bound to the contract keyspace. ledger is the
// sequence the enclosing transaction executes at and minTTL the lifetime given
// to newly created persistent entries.
func NewStore(ov *Overlay, contract [20]byte, class Class, ledger uint64, minTTL uint32) *Store {
	return &Store{ov: ov, contract: contract, class: class, ledger: ledger, minTTL: minTTL}
}

// Class returns the durability class of the store.
func (s *Store) Class() Class { return s.class }

func (s *Store) hashed(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("kv: key must not be empty")
	}
	return ethcrypto.Keccak256(s.contract[:], []byte{byte(s.class)}, key), nil
}

func (s *Store) load(key []byte) ([]byte, *persistentEntry, bool, error) {
	hashed, err := s.hashed(key)
	if err != nil {
		return nil, nil, false, err
	}
	raw, ok, err := s.ov.Get(hashed)
	if err != nil || !ok {
		return nil, nil, false, err
	}
	if s.class != Persistent {
		return raw, nil, true, nil
	}
	entry := new(persistentEntry)
	if err := rlp.DecodeBytes(raw, entry); err != nil {
		return nil, nil, false, err
	}
	if entry.LiveUntil < s.ledger {
		return nil, entry, true, fmt.Errorf("%w: %q", ErrArchived, key)
	}
	return entry.Data, entry, true, nil
}

func (s *Store) storeEntry(key []byte, entry *persistentEntry) error {
	hashed, err := s.hashed(key)
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(entry)
	if err != nil {
		return err
	}
	s.ov.Put(hashed, encoded)
	return nil
}

// Get decodes the value stored under key into out. The boolean reports
// whether the key existed.
func (s *Store) Get(key []byte, out interface{}) (bool, error) {
	data, _, ok, err := s.load(key)
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, fmt.Errorf("kv: decode %q: %w", key, err)
	}
	return true, nil
}

// Has reports whether a live value exists under key.
func (s *Store) Has(key []byte) (bool, error) {
	return s.Get(key, nil)
}

// Set stores value under key. Persistent entries keep their current lifetime
// or receive the minimum lifetime when created.
func (s *Store) Set(key []byte, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return fmt.Errorf("kv: encode %q: %w", key, err)
	}
	if s.class != Persistent {
		hashed, err := s.hashed(key)
		if err != nil {
			return err
		}
		s.ov.Put(hashed, encoded)
		return nil
	}
	_, existing, ok, err := s.load(key)
	if err != nil {
		return err
	}
	liveUntil := s.ledger + uint64(s.minTTL)
	if ok && existing.LiveUntil > liveUntil {
		liveUntil = existing.LiveUntil
	}
	return s.storeEntry(key, &persistentEntry{Data: encoded, LiveUntil: liveUntil})
}

// Remove deletes key.
func (s *Store) Remove(key []byte) error {
	hashed, err := s.hashed(key)
	if err != nil {
		return err
	}
	s.ov.Delete(hashed)
	return nil
}

// ExtendTTL extends a persistent entry so it lives until ledger+extendTo when
// its remaining lifetime is at or below threshold. Missing keys and instance
// entries are left untouched.
func (s *Store) ExtendTTL(key []byte, threshold, extendTo uint32) error {
	if s.class != Persistent {
		return nil
	}
	data, entry, ok, err := s.load(key)
	if err != nil || !ok {
		return err
	}
	remaining := entry.LiveUntil - s.ledger
	if remaining > uint64(threshold) {
		return nil
	}
	target := s.ledger + uint64(extendTo)
	if target <= entry.LiveUntil {
		return nil
	}
	return s.storeEntry(key, &persistentEntry{Data: data, LiveUntil: target})
}

// Restore revives an archived persistent entry, giving it the minimum
// lifetime from the current ledger. It reports whether the entry was archived;
// live entries, missing keys and instance entries are left untouched.
func (s *Store) Restore(key []byte) (bool, error) {
	if s.class != Persistent {
		return false, nil
	}
	_, entry, _, err := s.load(key)
	if !errors.Is(err, ErrArchived) {
		return false, err
	}
	entry.LiveUntil = s.ledger + uint64(s.minTTL)
	if err := s.storeEntry(key, entry); err != nil {
		return false, err
	}
	return true, nil
}

// TTL returns the last ledger a persistent entry is live at.
func (s *Store) TTL(key []byte) (uint64, bool, error) {
	if s.class != Persistent {
		return 0, false, nil
	}
	_, entry, ok, err := s.load(key)
	if err != nil || !ok {
		return 0, false, err
	}
	return entry.LiveUntil, true, nil
}
