package host

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"voucherchain/core/events"
	"voucherchain/core/state"
	"voucherchain/crypto"
)

// Env is the execution environment handed to a contract for one frame of a
// transaction. The root frame belongs to the transaction itself and has no
// current contract.
type Env struct {
	tx       *txn
	self     [20]byte
	invoker  [20]byte
	contract bool
	nested   bool
	depth    int
}

// Context returns the transaction context.
func (e *Env) Context() context.Context { return e.tx.ctx }

// TxID returns the identifier assigned to the enclosing transaction.
func (e *Env) TxID() string { return e.tx.id }

// Ledger returns the sequence the transaction executes at.
func (e *Env) Ledger() uint64 { return e.tx.ledger }

// CurrentContract returns the address of the executing contract.
func (e *Env) CurrentContract() [20]byte { return e.self }

// Invoker returns the contract that called into this frame. The boolean is
// false for frames invoked directly by the transaction.
func (e *Env) Invoker() ([20]byte, bool) { return e.invoker, e.nested }

// RequireAuth succeeds when addr signed the transaction or is the contract
// that directly invoked the current frame.
func (e *Env) RequireAuth(addr [20]byte) error {
	if _, ok := e.tx.signers[addr]; ok {
		return nil
	}
	if e.nested && e.invoker == addr {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrAuthFailed, crypto.FormatAccount(addr))
}

// Instance returns the instance-durability storage of the current contract.
func (e *Env) Instance() *state.Store {
	return state.NewStore(e.tx.ov, e.self, state.Instance, e.tx.ledger, e.tx.host.cfg.PersistentMinTTL)
}

// Persistent returns the persistent-durability storage of the current
// contract.
func (e *Env) Persistent() *state.Store {
	return state.NewStore(e.tx.ov, e.self, state.Persistent, e.tx.ledger, e.tx.host.cfg.PersistentMinTTL)
}

// Emit buffers an event on behalf of the current contract. Buffered events
// are published only if the transaction commits.
func (e *Env) Emit(ev events.Event) {
	if ev == nil {
		return
	}
	e.tx.events = append(e.tx.events, events.Envelope{
		TxID:     e.tx.id,
		Ledger:   e.tx.ledger,
		Contract: e.self,
		Payload:  ev,
	})
}

// Call resolves the contract deployed at target and returns its
// implementation together with the frame it must execute in. The invoked
// instance has its lifetime extended when it runs low.
func (e *Env) Call(target [20]byte) (interface{}, *Env, error) {
	if e.depth+1 > maxCallDepth {
		return nil, nil, ErrCallDepth
	}
	inst, ok, err := loadInstance(e.tx.ov, target)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrContractNotFound, crypto.FormatAccount(target))
	}
	if inst.LiveUntil < e.tx.ledger {
		return nil, nil, fmt.Errorf("%w: instance %s", ErrEntryArchived, crypto.FormatAccount(target))
	}
	entry, ok := e.tx.host.code(inst.Code)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %x", ErrUnknownCode, inst.Code[:8])
	}
	cfg := e.tx.host.cfg
	if inst.LiveUntil-e.tx.ledger <= uint64(cfg.InstanceThreshold) {
		inst.LiveUntil = e.tx.ledger + uint64(cfg.InstanceTTL)
		if err := storeInstance(e.tx.ov, target, inst); err != nil {
			return nil, nil, err
		}
	}
	child := &Env{
		tx:       e.tx,
		self:     target,
		invoker:  e.self,
		contract: true,
		nested:   e.contract,
		depth:    e.depth + 1,
	}
	return entry.impl, child, nil
}

// Deploy instantiates the code registered under code at the address derived
// from deployer and salt. The deployer must authorise the deployment.
func (e *Env) Deploy(deployer [20]byte, code [32]byte, salt [32]byte) ([20]byte, error) {
	var zero [20]byte
	if err := e.RequireAuth(deployer); err != nil {
		return zero, err
	}
	if _, ok := e.tx.host.code(code); !ok {
		return zero, fmt.Errorf("%w: %x", ErrUnknownCode, code[:8])
	}
	addr := crypto.ContractAddress(deployer, salt, code)
	if _, exists, err := loadInstance(e.tx.ov, addr); err != nil {
		return zero, err
	} else if exists {
		return zero, fmt.Errorf("%w: %s", ErrAddressInUse, crypto.FormatAccount(addr))
	}
	inst := &Instance{
		Code:      code,
		Deployer:  deployer,
		Salt:      salt,
		LiveUntil: e.tx.ledger + uint64(e.tx.host.cfg.InstanceTTL),
	}
	if err := storeInstance(e.tx.ov, addr, inst); err != nil {
		return zero, err
	}
	e.tx.host.logger.Debug("contract deployed",
		"txId", e.tx.id,
		"address", crypto.FormatAccount(addr),
		"deployer", crypto.FormatAccount(deployer))
	return addr, nil
}

// UpdateCurrentContractCode swaps the code of the executing contract while
// keeping its address and storage.
func (e *Env) UpdateCurrentContractCode(code [32]byte) error {
	if !e.contract {
		return ErrNotAContract
	}
	if _, ok := e.tx.host.code(code); !ok {
		return fmt.Errorf("%w: %x", ErrUnknownCode, code[:8])
	}
	inst, ok, err := loadInstance(e.tx.ov, e.self)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrContractNotFound, crypto.FormatAccount(e.self))
	}
	inst.Code = code
	return storeInstance(e.tx.ov, e.self, inst)
}

// RestoreInstance revives the archived contract instance at addr with a full
// instance lifetime. Anyone may restore an instance. It reports whether the
// instance was archived.
func (e *Env) RestoreInstance(addr [20]byte) (bool, error) {
	inst, ok, err := loadInstance(e.tx.ov, addr)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrContractNotFound, crypto.FormatAccount(addr))
	}
	if inst.LiveUntil >= e.tx.ledger {
		return false, nil
	}
	inst.LiveUntil = e.tx.ledger + uint64(e.tx.host.cfg.InstanceTTL)
	if err := storeInstance(e.tx.ov, addr, inst); err != nil {
		return false, err
	}
	return true, nil
}

// RestorePersistent revives an archived persistent entry of the contract at
// addr. Anyone may restore an entry.
func (e *Env) RestorePersistent(addr [20]byte, key []byte) (bool, error) {
	store := state.NewStore(e.tx.ov, addr, state.Persistent, e.tx.ledger, e.tx.host.cfg.PersistentMinTTL)
	return store.Restore(key)
}

// InstanceOf returns the host record of the contract at addr.
func (e *Env) InstanceOf(addr [20]byte) (*Instance, bool, error) {
	return loadInstance(e.tx.ov, addr)
}

// SetMetadata writes a host-level record outside every contract keyspace.
func (e *Env) SetMetadata(name string, value interface{}) error {
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	e.tx.ov.Put(metaKey(name), encoded)
	return nil
}

// Metadata reads a host-level record visible to the current transaction.
func (e *Env) Metadata(name string, out interface{}) (bool, error) {
	raw, ok, err := e.tx.ov.Get(metaKey(name))
	if err != nil || !ok {
		return false, err
	}
	if err := rlp.DecodeBytes(raw, out); err != nil {
		return false, err
	}
	return true, nil
}
