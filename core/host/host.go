package host

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"lukechampine.com/blake3"

	"voucherchain/core/events"
	"voucherchain/core/state"
	"voucherchain/crypto"
	"voucherchain/observability"
	"voucherchain/storage"
)

const maxCallDepth = 32

// Config carries the lifetime knobs of the host, expressed in ledgers.
type Config struct {
	// InstanceTTL is the lifetime a contract instance is extended to whenever
	// it is invoked and its remaining lifetime is at or below
	// InstanceThreshold.
	InstanceTTL       uint32
	InstanceThreshold uint32
	// PersistentMinTTL is the lifetime given to newly created persistent
	// entries.
	PersistentMinTTL uint32
}

// DefaultConfig mirrors a five second ledger close: instances live a week and
// are bumped when less than six days remain.
func DefaultConfig() Config {
	return Config{
		InstanceTTL:       7 * DayInLedgers,
		InstanceThreshold: 6 * DayInLedgers,
		PersistentMinTTL:  DayInLedgers,
	}
}

// DayInLedgers is the number of ledgers closed per day.
const DayInLedgers = 17280

// Instance is the host record of a deployed contract.
type Instance struct {
	Code      [32]byte
	Deployer  [20]byte
	Salt      [32]byte
	LiveUntil uint64
}

type codeEntry struct {
	name string
	impl interface{}
}

var (
	ledgerKey      = ethcrypto.Keccak256([]byte("host:ledger"))
	instancePrefix = []byte("host:instance:")
	metaPrefix     = []byte("host:meta:")
)

func instanceKey(addr [20]byte) []byte {
	return ethcrypto.Keccak256(instancePrefix, addr[:])
}

func metaKey(name string) []byte {
	return ethcrypto.Keccak256(metaPrefix, []byte(name))
}

// Host executes contract calls as atomic, serialised transactions over a
// key/value database. Contracts are stateless Go values registered by code
// hash; all of their state lives in per-instance keyspaces.
type Host struct {
	mu      sync.Mutex
	db      storage.Database
	cfg     Config
	codesMu sync.RWMutex
	codes   map[[32]byte]codeEntry
	emitter events.Emitter
	logger  *slog.Logger
	tracer  trace.Tracer
}

// New creates a host over db.
func New(db storage.Database, cfg Config) *Host {
	defaults := DefaultConfig()
	if cfg.InstanceTTL == 0 {
		cfg.InstanceTTL = defaults.InstanceTTL
	}
	if cfg.InstanceThreshold == 0 || cfg.InstanceThreshold > cfg.InstanceTTL {
		cfg.InstanceThreshold = cfg.InstanceTTL
	}
	if cfg.PersistentMinTTL == 0 {
		cfg.PersistentMinTTL = defaults.PersistentMinTTL
	}
	return &Host{
		db:      db,
		cfg:     cfg,
		codes:   make(map[[32]byte]codeEntry),
		emitter: events.NoopEmitter{},
		logger:  slog.Default(),
		tracer:  otel.Tracer("voucherchain/core/host"),
	}
}

// SetEmitter configures where committed events are published. Passing nil
// resets the emitter to a no-op implementation.
func (h *Host) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		h.emitter = events.NoopEmitter{}
		return
	}
	h.emitter = emitter
}

// SetLogger overrides the structured logger.
func (h *Host) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	h.logger = logger
}

// Config returns the lifetime configuration in use.
func (h *Host) Config() Config { return h.cfg }

// CodeHash returns the hash a code name registers under.
func CodeHash(name string) [32]byte {
	return blake3.Sum256([]byte(name))
}

// RegisterCode makes impl deployable under the hash of name and returns that
// hash. Registering the same name again replaces the implementation.
func (h *Host) RegisterCode(name string, impl interface{}) [32]byte {
	hash := CodeHash(name)
	h.codesMu.Lock()
	h.codes[hash] = codeEntry{name: name, impl: impl}
	h.codesMu.Unlock()
	return hash
}

func (h *Host) code(hash [32]byte) (codeEntry, bool) {
	h.codesMu.RLock()
	defer h.codesMu.RUnlock()
	entry, ok := h.codes[hash]
	return entry, ok
}

// CodeName returns the registered name for a code hash.
func (h *Host) CodeName(hash [32]byte) (string, bool) {
	entry, ok := h.code(hash)
	return entry.name, ok
}

// Ledger returns the sequence of the last committed transaction.
func (h *Host) Ledger() (uint64, error) {
	if h == nil {
		return 0, ErrNilHost
	}
	return h.loadLedger(state.NewOverlay(h.db))
}

func (h *Host) loadLedger(ov *state.Overlay) (uint64, error) {
	raw, ok, err := ov.Get(ledgerKey)
	if err != nil || !ok {
		return 0, err
	}
	var ledger uint64
	if err := rlp.DecodeBytes(raw, &ledger); err != nil {
		return 0, err
	}
	return ledger, nil
}

func putLedger(ov *state.Overlay, ledger uint64) error {
	encoded, err := rlp.EncodeToBytes(ledger)
	if err != nil {
		return err
	}
	ov.Put(ledgerKey, encoded)
	return nil
}

// AdvanceLedger moves the ledger sequence forward without executing
// anything, modelling ledgers closed by other activity.
func (h *Host) AdvanceLedger(n uint64) error {
	if h == nil {
		return ErrNilHost
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	ov := state.NewOverlay(h.db)
	ledger, err := h.loadLedger(ov)
	if err != nil {
		return err
	}
	if err := putLedger(ov, ledger+n); err != nil {
		return err
	}
	return ov.Commit()
}

// Instance returns the record of the contract deployed at addr.
func (h *Host) Instance(addr [20]byte) (*Instance, bool, error) {
	if h == nil {
		return nil, false, ErrNilHost
	}
	return loadInstance(state.NewOverlay(h.db), addr)
}

func loadInstance(ov *state.Overlay, addr [20]byte) (*Instance, bool, error) {
	raw, ok, err := ov.Get(instanceKey(addr))
	if err != nil || !ok {
		return nil, false, err
	}
	inst := new(Instance)
	if err := rlp.DecodeBytes(raw, inst); err != nil {
		return nil, false, err
	}
	return inst, true, nil
}

func storeInstance(ov *state.Overlay, addr [20]byte, inst *Instance) error {
	encoded, err := rlp.EncodeToBytes(inst)
	if err != nil {
		return err
	}
	ov.Put(instanceKey(addr), encoded)
	return nil
}

// Metadata decodes a host-level metadata record written by Env.SetMetadata.
func (h *Host) Metadata(name string, out interface{}) (bool, error) {
	if h == nil {
		return false, ErrNilHost
	}
	raw, ok, err := state.NewOverlay(h.db).Get(metaKey(name))
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}

// Execute runs fn as one transaction signed by signers. Either every write
// made by fn (including writes made by the contracts it calls) is committed
// and its events are published, or nothing is.
func (h *Host) Execute(ctx context.Context, signers [][20]byte, fn func(env *Env) error) error {
	if h == nil || h.db == nil {
		return ErrNilHost
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	ov := state.NewOverlay(h.db)
	last, err := h.loadLedger(ov)
	if err != nil {
		return err
	}
	tx := newTxn(h, ov, last+1, signers)
	ctx, span := h.tracer.Start(ctx, "host.execute", trace.WithAttributes(
		attribute.String("tx.id", tx.id),
		attribute.Int64("ledger", int64(tx.ledger)),
		attribute.Int("signers", len(signers)),
	))
	defer span.End()
	tx.ctx = ctx

	if err := run(fn, tx.root()); err != nil {
		ov.Discard()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.Contracts().RecordTransaction(false)
		h.logger.Warn("transaction reverted",
			slog.String("txId", tx.id),
			slog.Uint64("ledger", tx.ledger),
			slog.String("error", err.Error()))
		return err
	}
	if err := putLedger(ov, tx.ledger); err != nil {
		ov.Discard()
		return err
	}
	if err := ov.Commit(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("host: commit: %w", err)
	}
	observability.Contracts().RecordTransaction(true)
	for _, envelope := range tx.events {
		h.emitter.Emit(envelope)
	}
	h.logger.Info("transaction committed",
		slog.String("txId", tx.id),
		slog.Uint64("ledger", tx.ledger),
		slog.Int("events", len(tx.events)))
	return nil
}

// View runs fn against the latest committed state and discards anything it
// writes. No events are published.
func (h *Host) View(ctx context.Context, fn func(env *Env) error) error {
	if h == nil || h.db == nil {
		return ErrNilHost
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	ov := state.NewOverlay(h.db)
	last, err := h.loadLedger(ov)
	if err != nil {
		return err
	}
	tx := newTxn(h, ov, last, nil)
	tx.ctx = ctx
	defer ov.Discard()
	return run(fn, tx.root())
}

// Restore revives the archived instances among addrs in one unsigned
// transaction. Live instances are left untouched; unknown addresses fail the
// whole transaction.
func (h *Host) Restore(ctx context.Context, addrs ...[20]byte) error {
	return h.Execute(ctx, nil, func(env *Env) error {
		for _, addr := range addrs {
			restored, err := env.RestoreInstance(addr)
			if err != nil {
				return err
			}
			if restored {
				h.logger.Info("instance restored",
					slog.String("txId", env.TxID()),
					slog.String("address", crypto.FormatAccount(addr)))
			}
		}
		return nil
	})
}

func run(fn func(env *Env) error, env *Env) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrContractPanic, r)
		}
	}()
	return fn(env)
}

type txn struct {
	id      string
	ctx     context.Context
	host    *Host
	ov      *state.Overlay
	ledger  uint64
	signers map[[20]byte]struct{}
	events  []events.Envelope
}

func newTxn(h *Host, ov *state.Overlay, ledger uint64, signers [][20]byte) *txn {
	set := make(map[[20]byte]struct{}, len(signers))
	for _, s := range signers {
		set[s] = struct{}{}
	}
	return &txn{
		id:      uuid.NewString(),
		host:    h,
		ov:      ov,
		ledger:  ledger,
		signers: set,
	}
}

func (t *txn) root() *Env {
	return &Env{tx: t}
}
