package domain

// ForwardInstruction is the computed order to send a share of one incoming
// payment to the configured receiver. Transient, never persisted.
type ForwardInstruction struct {
	Destination string
	Stroops     int64  // amount in stroops (1 XLM = 10^7 stroops)
	SourceToken string // paging token of the payment that triggered it
}
