package domain

// FailureCode is the closed classification of a failed submission attempt.
// The ledger gateway's adapter layer maps library/network error shapes into
// these codes so the dispatcher never inspects raw errors.
type FailureCode string

const (
	// FailureTimeout is a gateway/network timeout (HTTP 504 equivalent).
	FailureTimeout FailureCode = "gateway_timeout"

	// FailureBadSequence means the transaction carried a stale sequence number.
	FailureBadSequence FailureCode = "bad_sequence"

	// FailureTooLate means the transaction's timebounds expired before inclusion.
	FailureTooLate FailureCode = "too_late"

	// FailureInsufficientFee means the offered fee was below the network's floor.
	FailureInsufficientFee FailureCode = "insufficient_fee"

	// FailureUnderfunded means the source account cannot cover the payment.
	FailureUnderfunded FailureCode = "underfunded"

	// FailureUnclassified covers every other submission failure.
	FailureUnclassified FailureCode = "unclassified"
)

// SubmissionResult is the outcome of one submission attempt.
type SubmissionResult struct {
	Successful bool
	Code       FailureCode // empty on success
	Diagnostic string      // raw diagnostic text on failure
	TxHash     string      // set on success
}
