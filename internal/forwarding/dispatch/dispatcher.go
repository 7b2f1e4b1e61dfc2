// Package dispatch owns submission of forward payments: the retry loop,
// the failure-classification handling and the fee-escalation policy.
//
// One invocation of Forward handles one qualifying payment, strictly
// serialized by the stream loop, so at most one outbound transaction is
// ever in flight and account sequence numbers need no coordination.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/aqslabs/forwarder/internal/core/domain"
	"github.com/aqslabs/forwarder/internal/core/ledger"
	"github.com/aqslabs/forwarder/internal/forwarding/metrics"
)

// Config holds dispatcher tuning.
type Config struct {
	// Source is the distributor account whose state is reloaded each attempt.
	Source string

	// FeeFloor is the starting fee per operation in stroops.
	FeeFloor int64

	// FeeCap bounds fee escalation; reaching it terminates the invocation.
	FeeCap int64

	// MaxAttempts bounds the whole invocation, including purely-transient
	// retries, so a sustained network failure cannot loop forever.
	MaxAttempts int

	// TimeoutDelay is the wait after a gateway timeout.
	TimeoutDelay time.Duration

	// RetryDelay is the wait after every other retryable failure.
	RetryDelay time.Duration
}

// Failure classes for terminal outcomes. Bounded set, used as a metrics label.
const (
	ClassFeeCap       = "fee_cap"
	ClassUnderfunded  = "underfunded"
	ClassRetryBudget  = "retry_budget"
	ClassCancelled    = "cancelled"
	ClassUnclassified = "unclassified"
)

// Outcome is the terminal result of one forward invocation.
type Outcome struct {
	InvocationID string
	Success      bool
	Class        string // failure class, empty on success
	Reason       string // human-readable reason on failure
	TxHash       string
	Fee          int64 // final fee per operation offered
	Attempts     int
}

// Dispatcher drives the submission state machine against a ledger gateway.
type Dispatcher struct {
	cfg Config
	gw  ledger.Gateway
	log *slog.Logger
}

// New creates a dispatcher, applying defaults for unset tuning.
func New(cfg Config, gw ledger.Gateway) *Dispatcher {
	if cfg.FeeFloor <= 0 {
		cfg.FeeFloor = 100
	}
	if cfg.FeeCap <= 0 {
		cfg.FeeCap = 2000
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 10
	}
	if cfg.TimeoutDelay <= 0 {
		cfg.TimeoutDelay = 5 * time.Second
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	return &Dispatcher{
		cfg: cfg,
		gw:  gw,
		log: slog.Default(),
	}
}

// Forward submits one payment until it reaches a terminal state. The fee
// starts at the configured floor and only ever doubles on insufficient-fee
// responses; transient retries leave it untouched.
func (d *Dispatcher) Forward(ctx context.Context, instr domain.ForwardInstruction) Outcome {
	rs := RetryState{
		Fee:         d.cfg.FeeFloor,
		Destination: instr.Destination,
		Stroops:     instr.Stroops,
	}
	id := uuid.NewString()
	log := d.log.With("invocation", id, "destination", rs.Destination, "stroops", rs.Stroops)

	state := StateIdle
	d.transition(log, &state, StateSubmitting)

	for {
		if rs.Attempts >= d.cfg.MaxAttempts {
			return d.fail(log, &state, rs, id, ClassRetryBudget, "retry budget exhausted")
		}
		rs.Attempts++

		res, submitErr := d.attempt(ctx, log, &rs)
		if submitErr != nil {
			if ctx.Err() != nil {
				return d.fail(log, &state, rs, id, ClassCancelled, "cancelled: "+ctx.Err().Error())
			}
			// Never reached submission (build/sign failure). Terminal.
			metrics.SubmissionAttempts.WithLabelValues(string(domain.FailureUnclassified)).Inc()
			return d.fail(log, &state, rs, id, ClassUnclassified, submitErr.Error())
		}

		if res.Successful {
			metrics.SubmissionAttempts.WithLabelValues("success").Inc()
			d.transition(log, &state, StateSucceeded)
			log.Info("Forward succeeded", "tx_hash", res.TxHash, "attempts", rs.Attempts, "fee", rs.Fee)
			return Outcome{
				InvocationID: id,
				Success:      true,
				TxHash:       res.TxHash,
				Fee:          rs.Fee,
				Attempts:     rs.Attempts,
			}
		}

		metrics.SubmissionAttempts.WithLabelValues(string(res.Code)).Inc()

		var delay time.Duration
		switch res.Code {
		case domain.FailureTimeout:
			delay = d.cfg.TimeoutDelay
		case domain.FailureBadSequence, domain.FailureTooLate:
			// Fresh account load on the next attempt resolves these.
			delay = d.cfg.RetryDelay
		case domain.FailureInsufficientFee:
			if rs.Fee >= d.cfg.FeeCap {
				return d.fail(log, &state, rs, id, ClassFeeCap,
					fmt.Sprintf("network busy: fee cap %d exceeded", d.cfg.FeeCap))
			}
			rs.Fee *= 2
			delay = d.cfg.RetryDelay
		case domain.FailureUnderfunded:
			return d.fail(log, &state, rs, id, ClassUnderfunded, "insufficient XLM balance in distributor account")
		default:
			return d.fail(log, &state, rs, id, ClassUnclassified, res.Diagnostic)
		}

		d.transition(log, &state, StateRetrying)
		log.Warn("Submission failed, retrying",
			"classification", res.Code, "attempt", rs.Attempts, "fee", rs.Fee, "delay", delay)

		select {
		case <-ctx.Done():
			return d.fail(log, &state, rs, id, ClassCancelled, "cancelled: "+ctx.Err().Error())
		case <-time.After(delay):
		}
		d.transition(log, &state, StateSubmitting)
	}
}

// attempt executes one Submitting pass: fresh account load, effective fee
// computation, submission.
func (d *Dispatcher) attempt(
	ctx context.Context,
	log *slog.Logger,
	rs *RetryState,
) (domain.SubmissionResult, error) {
	account, err := d.gw.LoadAccount(ctx, d.cfg.Source)
	if err != nil {
		if ctx.Err() != nil {
			return domain.SubmissionResult{}, err
		}
		// A failed account load is the same network being unreachable.
		log.Warn("Failed to load account, treating as timeout", "error", err)
		return domain.SubmissionResult{
			Code:       domain.FailureTimeout,
			Diagnostic: err.Error(),
		}, nil
	}

	base, err := d.gw.BaseFee(ctx)
	if err != nil {
		log.Warn("Failed to fetch base fee, using floor", "error", err)
		base = d.cfg.FeeFloor
	}
	fee := base
	if rs.Fee > fee {
		fee = rs.Fee
	}
	metrics.FeePerOperation.Set(float64(fee))

	return d.gw.Submit(ctx, account, rs.Destination, rs.Stroops, fee)
}

func (d *Dispatcher) fail(
	log *slog.Logger,
	state *State,
	rs RetryState,
	id string,
	class string,
	reason string,
) Outcome {
	d.transition(log, state, StatePermanentlyFailed)
	log.Error("Forward permanently failed", "reason", reason, "attempts", rs.Attempts, "fee", rs.Fee)
	return Outcome{
		InvocationID: id,
		Class:        class,
		Reason:       reason,
		Fee:          rs.Fee,
		Attempts:     rs.Attempts,
	}
}

func (d *Dispatcher) transition(log *slog.Logger, state *State, to State) {
	if !CanTransition(*state, to) {
		log.Error("Invalid dispatcher transition", "from", *state, "to", to)
	}
	log.Debug("Dispatcher state", "from", *state, "to", to)
	*state = to
}
