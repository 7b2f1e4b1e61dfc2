package stellar

import (
	"context"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/protocols/horizon/operations"

	"github.com/aqslabs/forwarder/internal/core/domain"
	"github.com/aqslabs/forwarder/internal/core/ledger"
)

// StreamPayments opens the account's payment stream at the given cursor and
// feeds every operation through the handler as a PaymentEvent. Blocks until
// the stream fails or the context is cancelled.
func (g *Gateway) StreamPayments(
	ctx context.Context,
	account, cursor string,
	handler ledger.EventHandler,
) error {
	req := horizonclient.OperationRequest{
		ForAccount: account,
		Cursor:     cursor,
	}
	return g.client.StreamPayments(ctx, req, func(op operations.Operation) {
		handler(ctx, toEvent(op))
	})
}

// toEvent converts a Horizon operation into the domain event. Non-payment
// operations still carry their paging token so the cursor keeps advancing;
// the filter rejects them by type.
func toEvent(op operations.Operation) domain.PaymentEvent {
	ev := domain.PaymentEvent{
		Type:         op.GetType(),
		PagingToken:  op.PagingToken(),
		TxSuccessful: op.IsTransactionSuccessful(),
		TxHash:       op.GetTransactionHash(),
	}
	if p, ok := op.(operations.Payment); ok {
		ev.AssetType = p.Asset.Type
		ev.From = p.From
		ev.To = p.To
		ev.Amount = p.Amount
	}
	return ev
}
