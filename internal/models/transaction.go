package models

// Transaction is one wallet ledger entry. The list on the record is
// newest-first and append-only from the local side.
type Transaction struct {
	ID     int64   `json:"id"`
	Type   string  `json:"type"`
	Detail string  `json:"detail"`
	Amount float64 `json:"amount"`
	Time   string  `json:"time"`
}

const (
	TransactionTypePurchase = "Purchase"
	TransactionTypeTopUp    = "Top-Up"
	TransactionTypeReward   = "Reward"
)
