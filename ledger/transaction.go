package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// BaseFee is the fee a newly constructed transaction is stamped with
// (spec.md §4.2).
const BaseFee = 0.01

// Transaction moves amount from sender to recipient, authorized by a
// signature over its canonical Hash.
type Transaction struct {
	Sender    string  `json:"sender"`
	Recipient string  `json:"recipient"`
	Amount    float64 `json:"amount"`
	Fee       float64 `json:"fee"`
	Signature string  `json:"signature"`
}

// NewTransaction builds a transaction with the base fee; callers sign
// it afterward via wallet.Wallet.Sign.
func NewTransaction(sender, recipient string, amount float64, signature string) *Transaction {
	return &Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Fee:       BaseFee,
		Signature: signature,
	}
}

// Hash returns the transaction's canonical hash: SHA-256 over
// sender, recipient, amount, and fee, rendered as lowercase hex. This
// is what the signature covers (spec.md §3).
func (tx *Transaction) Hash() string {
	h := sha256.New()
	h.Write([]byte(tx.Sender))
	h.Write([]byte(tx.Recipient))
	h.Write([]byte(formatAmount(tx.Amount)))
	h.Write([]byte(formatAmount(tx.Fee)))
	return hex.EncodeToString(h.Sum(nil))
}

// IsValid is the structural check of spec.md §3: a positive amount, a
// non-negative fee, and non-empty sender/recipient. It does not touch
// balances or signatures — that's the ledger's job at admission time.
func (tx *Transaction) IsValid() bool {
	return tx.Amount > 0 && tx.Fee >= 0 && tx.Sender != "" && tx.Recipient != ""
}

// TotalCost is the amount the sender's balance must cover to admit
// this transaction.
func (tx *Transaction) TotalCost() float64 {
	return tx.Amount + tx.Fee
}

// formatAmount renders a float the way Go's fmt would via %v; it
// feeds the amount and fee into the canonical hash. The block's
// debug-form payload formats transactions with %+v, which renders
// float fields the same way.
func formatAmount(f float64) string {
	return fmt.Sprintf("%v", f)
}
