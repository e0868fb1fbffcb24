package model

import "time"

// PaymentRecord is one entry in a member's append-only payment ledger.
// Records are immutable once appended.
type PaymentRecord struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Amount        string    `json:"amount"` // currency-prefixed, e.g. "Rs. 600"
	Method        string    `json:"method"`
	TransactionID string    `json:"transaction_id"`
}

// Payment methods recorded by the ledger. Payments are recorded, not
// processed online.
const (
	MethodCash   = "cash"
	MethodUPI    = "upi"
	MethodCard   = "card"
	MethodOnline = "online"
)

// ParseAmount extracts the integer amount from a currency-prefixed string
// such as "Rs. 600" or "INR 1200". Malformed entries contribute zero; the
// ledger never fails an aggregation over bad data.
func ParseAmount(s string) int {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}
	n := 0
	for _, r := range s[start:] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
