// Package pipeline runs the forwarding stream loop.
//
// A single goroutine reads the payment stream; for every event the cursor
// is persisted first, then the event flows through filter, calculator and
// dispatcher synchronously. No event is read while a forward is retrying,
// which is what keeps forwarding strictly serialized.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/aqslabs/forwarder/internal/core/amount"
	"github.com/aqslabs/forwarder/internal/core/cursor"
	"github.com/aqslabs/forwarder/internal/core/domain"
	"github.com/aqslabs/forwarder/internal/core/ledger"
	"github.com/aqslabs/forwarder/internal/forwarding/dispatch"
	"github.com/aqslabs/forwarder/internal/forwarding/filter"
	"github.com/aqslabs/forwarder/internal/forwarding/metrics"
	"github.com/aqslabs/forwarder/internal/forwarding/result"
)

// Config holds the pipeline's collaborators and tuning.
type Config struct {
	Account  string // distributor address being watched
	Receiver string // fixed forward destination

	Gateway    ledger.Gateway
	Tracker    *cursor.Tracker
	Filter     *filter.Filter
	Calculator *amount.Calculator
	Dispatcher *dispatch.Dispatcher
	Results    *result.Logger

	// ReconnectDelay is the backoff after a stream-level failure.
	ReconnectDelay time.Duration
}

// Status is a snapshot of the pipeline for the ops surface.
type Status struct {
	Running     bool      `json:"running"`
	Cursor      string    `json:"cursor"`
	LastEventAt time.Time `json:"last_event_at"`
	Reconnects  uint64    `json:"reconnects"`
}

// Pipeline is the stream loop.
type Pipeline struct {
	cfg Config
	log *slog.Logger

	running    atomic.Bool
	lastEvent  atomic.Int64
	reconnects atomic.Uint64
	cancel     context.CancelFunc
}

// New creates a pipeline.
func New(cfg Config) *Pipeline {
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = 5 * time.Second
	}
	return &Pipeline{
		cfg: cfg,
		log: slog.Default(),
	}
}

// Start loads the cursor and runs the stream loop until the context is
// cancelled or Stop is called. Stream-level errors are never fatal: the
// stream reopens from the last in-memory cursor after a fixed backoff.
func (p *Pipeline) Start(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("pipeline already running")
	}
	defer p.running.Store(false)

	ctx, p.cancel = context.WithCancel(ctx)
	defer p.cancel()

	cur, err := p.cfg.Tracker.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cursor: %w", err)
	}
	p.log.Info("Listening for incoming payments", "account", p.cfg.Account, "cursor", cur)

	for {
		err := p.cfg.Gateway.StreamPayments(ctx, p.cfg.Account, p.cfg.Tracker.Current(), p.handleEvent)
		if ctx.Err() != nil {
			return nil
		}

		metrics.StreamReconnects.Inc()
		p.reconnects.Add(1)
		p.log.Warn("Payment stream error, reconnecting",
			"error", err, "cursor", p.cfg.Tracker.Current(), "delay", p.cfg.ReconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.cfg.ReconnectDelay):
		}
	}
}

// Stop cancels the stream loop.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
}

// Status returns a snapshot for health reporting.
func (p *Pipeline) Status() Status {
	return Status{
		Running:     p.running.Load(),
		Cursor:      p.cfg.Tracker.Current(),
		LastEventAt: time.Unix(p.lastEvent.Load(), 0).UTC(),
		Reconnects:  p.reconnects.Load(),
	}
}

// handleEvent processes one stream event. The cursor advances before the
// filter runs, so position moves on rejected events too.
func (p *Pipeline) handleEvent(ctx context.Context, ev domain.PaymentEvent) {
	metrics.PaymentsObserved.Inc()
	p.lastEvent.Store(time.Now().Unix())

	p.cfg.Tracker.Advance(ctx, ev.PagingToken)

	incoming, ok := p.cfg.Filter.Evaluate(ev)
	if !ok {
		p.log.Debug("Event did not qualify", "type", ev.Type, "from", ev.From, "cursor", ev.PagingToken)
		return
	}
	metrics.PaymentsQualified.Inc()

	send := p.cfg.Calculator.Compute(incoming)
	if send <= 0 {
		p.log.Debug("Computed share is zero, skipping",
			"incoming", ev.Amount, "from", ev.From, "cursor", ev.PagingToken)
		return
	}

	p.log.Info("Incoming payment",
		"from", ev.From, "amount", ev.Amount, "forwarding", amount.FormatStroops(send))

	outcome := p.cfg.Dispatcher.Forward(ctx, domain.ForwardInstruction{
		Destination: p.cfg.Receiver,
		Stroops:     send,
		SourceToken: ev.PagingToken,
	})

	p.cfg.Results.Record(outcome.InvocationID, p.cfg.Receiver, send, outcome.Success, outcome.Reason)
	if outcome.Success {
		metrics.ForwardsSucceeded.Inc()
	} else {
		metrics.ForwardsFailed.WithLabelValues(outcome.Class).Inc()
	}
}
