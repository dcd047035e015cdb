package events

import (
	"strconv"

	"voucherchain/core/types"
	"voucherchain/crypto"
)

// Event represents a structured state change emitted by a contract.
type Event interface {
	EventType() string
}

// Renderer is implemented by events that can be flattened into the canonical
// attribute form consumed by indexers.
type Renderer interface {
	Event() *types.Event
}

// Emitter broadcasts events to downstream subscribers (e.g. indexers, metrics).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter is a helper that satisfies the Emitter interface while discarding
// all events. It is useful when a component wants to optionally expose events.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// MultiEmitter fans every event out to each configured emitter in order.
type MultiEmitter []Emitter

// Emit implements the Emitter interface.
func (m MultiEmitter) Emit(e Event) {
	for _, emitter := range m {
		if emitter == nil {
			continue
		}
		emitter.Emit(e)
	}
}

// Envelope wraps a contract event with the transaction context it was
// committed in. The host only publishes envelopes for committed transactions.
type Envelope struct {
	TxID     string
	Ledger   uint64
	Contract [20]byte
	Payload  Event
}

// EventType implements Event.
func (e Envelope) EventType() string {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.EventType()
}

// Event renders the payload and decorates it with the envelope metadata.
func (e Envelope) Event() *types.Event {
	var rendered *types.Event
	if r, ok := e.Payload.(Renderer); ok {
		rendered = r.Event()
	}
	if rendered == nil {
		rendered = types.NewEvent(e.EventType())
	}
	out := types.NewEvent(rendered.Type)
	for k, v := range rendered.Attributes {
		out.Attributes[k] = v
	}
	out.Set("contract", crypto.FormatAccount(e.Contract))
	out.Set("txId", e.TxID)
	out.Set("ledger", strconv.FormatUint(e.Ledger, 10))
	return out
}
