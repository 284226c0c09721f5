package services

import (
	"github.com/shopspring/decimal"

	"github.com/trustbooks/backend/internal/models"
)

// NewBalance computes the ledger balance after applying a transaction of the
// given type. Deposits and interest add, withdrawals and fees subtract.
// All arithmetic is fixed-point decimal; amounts must already be validated
// as positive.
func NewBalance(current decimal.Decimal, txType string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !models.ValidType(txType) {
		return decimal.Zero, ErrInvalidType
	}
	if models.IsCredit(txType) {
		return current.Add(amount), nil
	}
	return current.Sub(amount), nil
}
