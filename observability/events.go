package observability

import (
	"math/big"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"voucherchain/core/events"
)

// SettlementEventType is the event whose amount feeds the settled-volume
// counter.
const SettlementEventType = "campaigns.settlement.requested"

type contractMetrics struct {
	transactions *prometheus.CounterVec
	events       *prometheus.CounterVec
	settled      *prometheus.CounterVec
}

var (
	contractMetricsOnce sync.Once
	contractRegistry    *contractMetrics
)

// Contracts returns the metrics registry tracking contract execution.
func Contracts() *contractMetrics {
	contractMetricsOnce.Do(func() {
		contractRegistry = &contractMetrics{
			transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "voucher",
				Subsystem: "host",
				Name:      "transactions_total",
				Help:      "Count of executed transactions segmented by outcome.",
			}, []string{"outcome"}),
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "voucher",
				Subsystem: "events",
				Name:      "emitted_total",
				Help:      "Count of committed contract events segmented by type.",
			}, []string{"type"}),
			settled: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "voucher",
				Subsystem: "campaigns",
				Name:      "settled_amount_total",
				Help:      "Campaign token amounts redeemed by merchants, in base units, segmented by token.",
			}, []string{"token"}),
		}
		prometheus.MustRegister(
			contractRegistry.transactions,
			contractRegistry.events,
			contractRegistry.settled,
		)
	})
	return contractRegistry
}

// RecordTransaction increments the committed or reverted counter.
func (m *contractMetrics) RecordTransaction(committed bool) {
	if m == nil {
		return
	}
	outcome := "committed"
	if !committed {
		outcome = "reverted"
	}
	m.transactions.WithLabelValues(outcome).Inc()
}

// RecordEvent increments the counter for the supplied event type.
func (m *contractMetrics) RecordEvent(eventType string) {
	if m == nil {
		return
	}
	normalized := strings.TrimSpace(eventType)
	if normalized == "" {
		normalized = "unknown"
	}
	m.events.WithLabelValues(normalized).Inc()
}

// RecordSettlement adds a redeemed amount for the supplied token.
func (m *contractMetrics) RecordSettlement(token string, amount *big.Int) {
	if m == nil || amount == nil || amount.Sign() <= 0 {
		return
	}
	if token == "" {
		token = "unknown"
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.settled.WithLabelValues(token).Add(value)
}

// EventMetrics is an emitter that feeds the contract metrics from committed
// events.
type EventMetrics struct{}

// Emit implements events.Emitter.
func (EventMetrics) Emit(e events.Event) {
	if e == nil {
		return
	}
	metrics := Contracts()
	metrics.RecordEvent(e.EventType())
	if e.EventType() != SettlementEventType {
		return
	}
	renderer, ok := e.(events.Renderer)
	if !ok {
		return
	}
	rendered := renderer.Event()
	if rendered == nil {
		return
	}
	amount, ok := new(big.Int).SetString(rendered.Attributes["amount"], 10)
	if !ok {
		return
	}
	metrics.RecordSettlement(rendered.Attributes["token"], amount)
}
