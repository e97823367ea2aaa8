package events

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Type names an order lifecycle event
type Type string

const (
	OrderPlaced     Type = "order.placed"
	OrderCanceled   Type = "order.canceled"
	OrderRemoved    Type = "order.removed"
	StopLossTrigger Type = "stoploss.triggered"
	OrderExecuted   Type = "order.executed"
	ExecutionFailed Type = "order.execution_failed"
	MonitorTick     Type = "monitor.tick"
)

// Event is published to every configured sink
type Event struct {
	Type      Type                       `json:"type"`
	OrderID   string                     `json:"orderId,omitempty"`
	Pair      string                     `json:"pair,omitempty"`
	Status    string                     `json:"status,omitempty"`
	Price     *decimal.Decimal           `json:"price,omitempty"`
	Prices    map[string]decimal.Decimal `json:"prices,omitempty"`
	Error     string                     `json:"error,omitempty"`
	Timestamp time.Time                  `json:"timestamp"`
}

// Sink receives events. Publish must not block for long.
type Sink interface {
	Publish(ctx context.Context, event Event)
}

// Nop discards events
type Nop struct{}

// Publish does nothing
func (Nop) Publish(ctx context.Context, event Event) {}

// Fanout publishes to several sinks in order
type Fanout struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewFanout creates a fanout over sinks
func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

// Add registers another sink
func (f *Fanout) Add(sink Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, sink)
}

// Publish stamps the event and forwards it
func (f *Fanout) Publish(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	f.mu.RLock()
	sinks := append([]Sink(nil), f.sinks...)
	f.mu.RUnlock()

	for _, sink := range sinks {
		sink.Publish(ctx, event)
	}
}

// Recorder keeps published events; useful for tests and the CLI
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event
func (r *Recorder) Publish(ctx context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType returns recorded events of type t
func (r *Recorder) OfType(t Type) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Event, 0)
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
