package ledger

import "github.com/pkg/errors"

// Admission rejection reasons for AddTransaction (spec.md §4.4). These
// are reported, not raised: callers log them and move on, per spec.md
// §7's validation error kind.
var (
	ErrInvalidTransaction = errors.New("structurally invalid transaction")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrBadSignature       = errors.New("invalid transaction signature")
)
