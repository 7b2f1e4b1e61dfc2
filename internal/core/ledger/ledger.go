// Package ledger defines the seam between the forwarding core and the
// ledger network. The core only ever sees these interfaces; transaction
// construction, signing and streaming live behind them in infra.
package ledger

import (
	"context"

	"github.com/aqslabs/forwarder/internal/core/domain"
)

// AccountState is a snapshot of the distributor account, loaded fresh for
// each submission attempt so the transaction carries a current sequence
// number. Opaque to the core.
type AccountState interface {
	AccountID() string
}

// EventHandler consumes one payment event from the stream. Called strictly
// sequentially; the stream does not advance until the handler returns.
type EventHandler func(ctx context.Context, ev domain.PaymentEvent)

// Gateway is the ledger collaborator consumed by the dispatcher and the
// stream loop.
type Gateway interface {
	// LoadAccount fetches the current state of an account.
	LoadAccount(ctx context.Context, address string) (AccountState, error)

	// BaseFee returns the network-reported minimum fee per operation in stroops.
	BaseFee(ctx context.Context) (int64, error)

	// Submit builds, signs and submits one native-asset payment. A classified
	// failure is reported inside the SubmissionResult; the error return is
	// reserved for attempts that never reached submission (build/sign failure,
	// cancelled context).
	Submit(
		ctx context.Context,
		account AccountState,
		destination string,
		amountStroops int64,
		feePerOp int64,
	) (domain.SubmissionResult, error)

	// StreamPayments opens the account's payment stream at the given cursor
	// and invokes the handler for every event. Blocks until the stream fails
	// or the context is cancelled.
	StreamPayments(ctx context.Context, account, cursor string, handler EventHandler) error
}
