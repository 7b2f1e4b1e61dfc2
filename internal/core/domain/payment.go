package domain

// PaymentEvent is one operation observed on the account's payment stream.
// Produced by the ledger gateway, consumed read-only by the filter.
type PaymentEvent struct {
	Type         string `json:"type"`
	AssetType    string `json:"asset_type"`
	From         string `json:"from"`
	To           string `json:"to"`
	Amount       string `json:"amount"` // exact decimal string as reported by the ledger
	PagingToken  string `json:"paging_token"`
	TxSuccessful bool   `json:"transaction_successful"`
	TxHash       string `json:"transaction_hash"`
}

const (
	// OpTypePayment is the operation type of a simple payment.
	OpTypePayment = "payment"

	// AssetTypeNative is the asset type of the network's native asset (XLM).
	AssetTypeNative = "native"
)
