// Package filter decides which stream events qualify for forwarding.
package filter

import (
	"github.com/aqslabs/forwarder/internal/core/amount"
	"github.com/aqslabs/forwarder/internal/core/domain"
)

// Config holds the filter's fixed inputs.
type Config struct {
	// Distributor is the watched account; only payments into it qualify.
	Distributor string

	// MinIncoming is the minimum qualifying amount in stroops (0 = no floor).
	MinIncoming int64
}

// Filter is a pure predicate plus projection over payment events.
type Filter struct {
	cfg Config
}

// New creates a filter.
func New(cfg Config) *Filter {
	return &Filter{cfg: cfg}
}

// Evaluate reports whether the event qualifies for forwarding and, when it
// does, the parsed incoming amount in stroops. An event qualifies iff it is
// a settled simple payment of the native asset into the distributor account,
// from someone other than the distributor, of at least the configured
// minimum. Unparseable amounts never qualify.
func (f *Filter) Evaluate(ev domain.PaymentEvent) (int64, bool) {
	if ev.Type != domain.OpTypePayment {
		return 0, false
	}
	if !ev.TxSuccessful {
		return 0, false
	}
	if ev.AssetType != domain.AssetTypeNative {
		return 0, false
	}
	if ev.To != f.cfg.Distributor {
		return 0, false
	}
	// The forwarding dispatch itself originates from the distributor and is
	// re-observed on the stream; without this check it would loop.
	if ev.From == f.cfg.Distributor {
		return 0, false
	}

	incoming, err := amount.ParseLumens(ev.Amount)
	if err != nil {
		return 0, false
	}
	if incoming < f.cfg.MinIncoming {
		return 0, false
	}
	return incoming, true
}
