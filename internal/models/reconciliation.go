package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReconciliationDraft    = "DRAFT"
	ReconciliationReviewed = "REVIEWED"
)

// Reconciliation records one comparison of a trust account's book balance
// against a bank statement balance for a period. Draft records await human
// review; reviewed records are read-only. The engine never auto-corrects
// ledgers from a reconciliation.
type Reconciliation struct {
	ID             string          `json:"id" db:"id"`
	TrustAccountID string          `json:"trust_account_id" db:"trust_account_id"`
	PeriodStart    time.Time       `json:"period_start" db:"period_start"`
	PeriodEnd      time.Time       `json:"period_end" db:"period_end"`
	BankBalance    decimal.Decimal `json:"bank_balance" db:"bank_balance"`
	BookBalance    decimal.Decimal `json:"book_balance" db:"book_balance"`
	Difference     decimal.Decimal `json:"difference" db:"difference"`
	IsBalanced     bool            `json:"is_balanced" db:"is_balanced"`
	// IsProvisional is set when pending (uncleared) transactions fall inside
	// the period and were reversed out of the book balance.
	IsProvisional bool      `json:"is_provisional" db:"is_provisional"`
	ReconciledBy  string    `json:"reconciled_by,omitempty" db:"reconciled_by"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// BankStatement is a captured closing balance from the trust account's bank,
// used as the external side of a reconciliation.
type BankStatement struct {
	ID             string          `json:"id" db:"id"`
	TrustAccountID string          `json:"trust_account_id" db:"trust_account_id"`
	StatementDate  time.Time       `json:"statement_date" db:"statement_date"`
	ClosingBalance decimal.Decimal `json:"closing_balance" db:"closing_balance"`
	Reference      string          `json:"reference,omitempty" db:"reference"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
