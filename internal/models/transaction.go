package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types. Deposits and interest credit a ledger, withdrawals
// and fees debit it.
const (
	TypeDeposit    = "DEPOSIT"
	TypeWithdrawal = "WITHDRAWAL"
	TypeInterest   = "INTEREST"
	TypeFee        = "FEE"
)

const (
	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
)

// Transaction is an immutable record of one balance-affecting event on a
// client ledger. BalanceAfter is the ledger balance immediately following
// this transaction; replaying the log from zero must reproduce it for every
// row. Corrections are made with new offsetting transactions, never by
// editing history.
type Transaction struct {
	ID              string          `json:"id" db:"id"`
	TrustAccountID  string          `json:"trust_account_id" db:"trust_account_id"`
	ClientLedgerID  string          `json:"client_ledger_id" db:"client_ledger_id"`
	Type            string          `json:"type" db:"type"`
	Amount          decimal.Decimal `json:"amount" db:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after" db:"balance_after"`
	Description     string          `json:"description,omitempty" db:"description"`
	ReferenceNumber string          `json:"reference_number,omitempty" db:"reference_number"`
	Status          string          `json:"status" db:"status"`
	CreatedBy       string          `json:"created_by,omitempty" db:"created_by"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
}

// IsCredit reports whether the given transaction type increases a ledger
// balance.
func IsCredit(txType string) bool {
	return txType == TypeDeposit || txType == TypeInterest
}

// ValidType reports whether txType is one of the four transaction kinds.
func ValidType(txType string) bool {
	switch txType {
	case TypeDeposit, TypeWithdrawal, TypeInterest, TypeFee:
		return true
	}
	return false
}
