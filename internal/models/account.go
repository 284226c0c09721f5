package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	StatusActive = "ACTIVE"
	StatusClosed = "CLOSED"
)

// TrustAccount is one pooled IOLTA bank account held by a firm.
// Its total balance must equal the sum of its client ledger balances.
type TrustAccount struct {
	ID                string          `json:"id" db:"id"`
	MerchantID        string          `json:"merchant_id" db:"merchant_id"`
	AccountName       string          `json:"account_name" db:"account_name"`
	BankAccountNumber string          `json:"bank_account_number" db:"bank_account_number"`
	TotalBalance      decimal.Decimal `json:"total_balance" db:"total_balance"`
	Status            string          `json:"status" db:"status"`
	Version           int             `json:"version" db:"version"` // for optimistic locking
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// ClientLedger is a sub-balance within a trust account for one client/matter.
// Balances only change through the ledger service; rows are never deleted
// while the balance is non-zero.
type ClientLedger struct {
	ID                string          `json:"id" db:"id"`
	TrustAccountID    string          `json:"trust_account_id" db:"trust_account_id"`
	ClientID          string          `json:"client_id" db:"client_id"`
	MatterID          *string         `json:"matter_id,omitempty" db:"matter_id"`
	CurrentBalance    decimal.Decimal `json:"current_balance" db:"current_balance"`
	Status            string          `json:"status" db:"status"`
	Version           int             `json:"version" db:"version"`
	LastTransactionAt *time.Time      `json:"last_transaction_at,omitempty" db:"last_transaction_at"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}
