package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trustbooks/backend/internal/audit"
	"github.com/trustbooks/backend/internal/models"
)

// ReconciliationService compares a trust account's book balance against a
// bank statement balance. It reports; it never corrects ledgers.
type ReconciliationService struct {
	db        *sql.DB
	accounts  *AccountService
	audit     *audit.Logger
	validator *ValidationHelper
}

func NewReconciliationService(db *sql.DB, accounts *AccountService) *ReconciliationService {
	return &ReconciliationService{
		db:        db,
		accounts:  accounts,
		audit:     audit.NewLogger(),
		validator: NewValidationHelper(),
	}
}

// Reconcile computes the book balance for the period, compares it with the
// supplied bank balance and stores a draft reconciliation. Pending
// disbursements inside the period are outstanding items the bank has not
// seen; their effect is reversed out of the book balance and the record is
// flagged provisional.
func (rs *ReconciliationService) Reconcile(trustAccountID string, periodStart, periodEnd time.Time, bankBalance decimal.Decimal, reconciledBy string) (*models.Reconciliation, error) {
	var status string
	err := rs.db.QueryRow(`SELECT status FROM trust_accounts WHERE id = $1`, trustAccountID).Scan(&status)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "trust account lookup", Err: err}
	}

	bookBalance, err := rs.accounts.BookBalance(trustAccountID)
	if err != nil {
		return nil, err
	}

	adjustment, pendingCount, err := rs.pendingAdjustment(trustAccountID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	bookBalance = bookBalance.Add(adjustment)

	difference := bankBalance.Sub(bookBalance)
	recon := &models.Reconciliation{
		ID:             uuid.New().String(),
		TrustAccountID: trustAccountID,
		PeriodStart:    periodStart,
		PeriodEnd:      periodEnd,
		BankBalance:    bankBalance,
		BookBalance:    bookBalance,
		Difference:     difference,
		IsBalanced:     difference.IsZero(),
		IsProvisional:  pendingCount > 0,
		ReconciledBy:   reconciledBy,
		Status:         models.ReconciliationDraft,
		CreatedAt:      time.Now(),
	}

	_, err = rs.db.Exec(`
		INSERT INTO iolta_reconciliations
		(id, trust_account_id, period_start, period_end, bank_balance, book_balance, difference, is_balanced, is_provisional, reconciled_by, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		recon.ID, recon.TrustAccountID, recon.PeriodStart, recon.PeriodEnd,
		recon.BankBalance, recon.BookBalance, recon.Difference, recon.IsBalanced,
		recon.IsProvisional, recon.ReconciledBy, recon.Status, recon.CreatedAt)
	if err != nil {
		return nil, &PersistenceError{Op: "insert reconciliation", Err: err}
	}

	rs.audit.LogReconciliation(recon.ID, trustAccountID, difference, recon.IsBalanced)
	return recon, nil
}

// pendingAdjustment sums the reversal of every pending transaction in the
// period: uncleared debits are added back, uncleared credits taken out.
func (rs *ReconciliationService) pendingAdjustment(trustAccountID string, periodStart, periodEnd time.Time) (decimal.Decimal, int, error) {
	rows, err := rs.db.Query(`
		SELECT type, amount
		FROM iolta_transactions
		WHERE trust_account_id = $1 AND status = $2
		  AND created_at >= $3 AND created_at <= $4`,
		trustAccountID, models.TxStatusPending, periodStart, periodEnd)
	if err != nil {
		return decimal.Zero, 0, &PersistenceError{Op: "pending transactions", Err: err}
	}
	defer rows.Close()

	adjustment := decimal.Zero
	count := 0
	for rows.Next() {
		var txType string
		var amount decimal.Decimal
		if err := rows.Scan(&txType, &amount); err != nil {
			return decimal.Zero, 0, &PersistenceError{Op: "pending transactions", Err: err}
		}
		if models.IsCredit(txType) {
			adjustment = adjustment.Sub(amount)
		} else {
			adjustment = adjustment.Add(amount)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return decimal.Zero, 0, &PersistenceError{Op: "pending transactions", Err: err}
	}
	return adjustment, count, nil
}

// RunReconciliation runs a reconciliation for a period
// @Summary Run a reconciliation
// @Description Compare the trust account's book balance against a bank statement balance and store a draft for review
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param reconciliation body object{trust_account_id=string,period_start=string,period_end=string,bank_balance=string,reconciled_by=string} true "Reconciliation request"
// @Success 201 {object} models.Reconciliation
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /reconciliations [post]
func (rs *ReconciliationService) RunReconciliation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrustAccountID string `json:"trust_account_id" validate:"required"`
		PeriodStart    string `json:"period_start" validate:"required,datetime=2006-01-02"`
		PeriodEnd      string `json:"period_end" validate:"required,datetime=2006-01-02"`
		BankBalance    string `json:"bank_balance" validate:"required"`
		ReconciledBy   string `json:"reconciled_by" validate:"max=100"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if err := rs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	bankBalance, err := decimal.NewFromString(req.BankBalance)
	if err != nil {
		SendLedgerError(w, ErrInvalidAmount)
		return
	}

	periodStart, _ := time.Parse("2006-01-02", req.PeriodStart)
	periodEnd, _ := time.Parse("2006-01-02", req.PeriodEnd)
	// Run the period through end of day so same-day transactions count.
	periodEnd = periodEnd.Add(24*time.Hour - time.Nanosecond)
	if periodEnd.Before(periodStart) {
		SendErrorResponse(w, "period_end must not precede period_start", http.StatusBadRequest, nil)
		return
	}

	recon, err := rs.Reconcile(req.TrustAccountID, periodStart, periodEnd, bankBalance, req.ReconciledBy)
	if err != nil {
		log.Printf("[RECONCILIATION] Failed for trust account %s: %v", req.TrustAccountID, err)
		SendLedgerError(w, err)
		return
	}

	log.Printf("[RECONCILIATION] %s: book=%s bank=%s difference=%s balanced=%t provisional=%t",
		recon.ID, recon.BookBalance.StringFixed(2), recon.BankBalance.StringFixed(2),
		recon.Difference.StringFixed(2), recon.IsBalanced, recon.IsProvisional)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(recon)
}

// GetReconciliation returns one reconciliation record
// @Summary Get a reconciliation
// @Tags reconciliation
// @Produce json
// @Param reconId path string true "Reconciliation ID"
// @Success 200 {object} models.Reconciliation
// @Failure 404 {object} ErrorResponse
// @Router /reconciliations/{reconId} [get]
func (rs *ReconciliationService) GetReconciliation(w http.ResponseWriter, r *http.Request) {
	reconID := chi.URLParam(r, "reconId")

	recon := &models.Reconciliation{}
	err := rs.db.QueryRow(`
		SELECT id, trust_account_id, period_start, period_end, bank_balance, book_balance,
		       difference, is_balanced, is_provisional, reconciled_by, status, created_at
		FROM iolta_reconciliations
		WHERE id = $1`, reconID).Scan(
		&recon.ID, &recon.TrustAccountID, &recon.PeriodStart, &recon.PeriodEnd,
		&recon.BankBalance, &recon.BookBalance, &recon.Difference, &recon.IsBalanced,
		&recon.IsProvisional, &recon.ReconciledBy, &recon.Status, &recon.CreatedAt)
	if err == sql.ErrNoRows {
		SendLedgerError(w, ErrNotFound)
		return
	}
	if err != nil {
		log.Printf("[RECONCILIATION] Failed to fetch %s: %v", reconID, err)
		SendErrorResponse(w, "Failed to fetch reconciliation", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(recon)
}

// ReviewReconciliation marks a draft reconciliation as reviewed
// @Summary Review a reconciliation
// @Description Mark a draft reconciliation reviewed; reviewed records are read-only
// @Tags reconciliation
// @Produce json
// @Param reconId path string true "Reconciliation ID"
// @Success 200 {object} object{success=bool,status=string}
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /reconciliations/{reconId}/review [put]
func (rs *ReconciliationService) ReviewReconciliation(w http.ResponseWriter, r *http.Request) {
	reconID := chi.URLParam(r, "reconId")

	result, err := rs.db.Exec(`
		UPDATE iolta_reconciliations
		SET status = $1
		WHERE id = $2 AND status = $3`,
		models.ReconciliationReviewed, reconID, models.ReconciliationDraft)
	if err != nil {
		log.Printf("[RECONCILIATION] Failed to review %s: %v", reconID, err)
		SendErrorResponse(w, "Failed to review reconciliation", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		var exists bool
		if err := rs.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM iolta_reconciliations WHERE id = $1)`, reconID).Scan(&exists); err == nil && exists {
			SendErrorResponse(w, "Reconciliation already reviewed", http.StatusConflict, nil)
			return
		}
		SendLedgerError(w, ErrNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"status":  models.ReconciliationReviewed,
	})
}

// RecordBankStatement captures a bank statement closing balance
// @Summary Record a bank statement
// @Description Store a statement closing balance to reconcile against
// @Tags reconciliation
// @Accept json
// @Produce json
// @Param statement body object{trust_account_id=string,statement_date=string,closing_balance=string,reference=string} true "Bank statement"
// @Success 201 {object} models.BankStatement
// @Failure 400 {object} ErrorResponse
// @Router /bank-statements [post]
func (rs *ReconciliationService) RecordBankStatement(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrustAccountID string `json:"trust_account_id" validate:"required"`
		StatementDate  string `json:"statement_date" validate:"required,datetime=2006-01-02"`
		ClosingBalance string `json:"closing_balance" validate:"required"`
		Reference      string `json:"reference" validate:"max=50"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if err := rs.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	closingBalance, err := decimal.NewFromString(req.ClosingBalance)
	if err != nil {
		SendLedgerError(w, ErrInvalidAmount)
		return
	}

	statementDate, _ := time.Parse("2006-01-02", req.StatementDate)
	statement := models.BankStatement{
		ID:             uuid.New().String(),
		TrustAccountID: req.TrustAccountID,
		StatementDate:  statementDate,
		ClosingBalance: closingBalance,
		Reference:      req.Reference,
		CreatedAt:      time.Now(),
	}

	_, err = rs.db.Exec(`
		INSERT INTO iolta_bank_statements
		(id, trust_account_id, statement_date, closing_balance, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		statement.ID, statement.TrustAccountID, statement.StatementDate,
		statement.ClosingBalance, statement.Reference, statement.CreatedAt)
	if err != nil {
		log.Printf("[RECONCILIATION] Failed to record bank statement: %v", err)
		SendErrorResponse(w, "Failed to record bank statement", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(statement)
}
