package services

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trustbooks/backend/internal/models"
)

// TransactionService exposes the ledger engine over HTTP: submit a
// transaction, read the log, confirm disbursement clearing.
type TransactionService struct {
	db         *sql.DB
	ledger     *TrustLedgerService
	settlement *SettlementService
	validator  *ValidationHelper
}

func NewTransactionService(db *sql.DB, ledger *TrustLedgerService, settlement *SettlementService) *TransactionService {
	return &TransactionService{
		db:         db,
		ledger:     ledger,
		settlement: settlement,
		validator:  NewValidationHelper(),
	}
}

// SubmitTransaction validates and applies one trust transaction
// @Summary Submit a transaction
// @Description Apply a deposit, withdrawal, interest or fee against a client ledger
// @Tags transactions
// @Accept json
// @Produce json
// @Param transaction body TransactionRequest true "Transaction request"
// @Success 201 {object} object{success=bool,transaction=models.Transaction}
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /transactions [post]
func (ts *TransactionService) SubmitTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest

	if !decodeJSON(w, r, &req) {
		return
	}

	if err := ts.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	// Idempotency: a reference number that already produced a transaction
	// returns the stored row instead of double-posting.
	if req.ReferenceNumber != "" {
		if existing, err := ts.findByReference(req.ClientLedgerID, req.ReferenceNumber); err == nil {
			log.Printf("[TRANSACTION] Duplicate reference %s on ledger %s", req.ReferenceNumber, req.ClientLedgerID)
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"success":     true,
				"transaction": existing,
				"message":     "Transaction already processed",
			})
			return
		}
	}

	vt, err := ts.ledger.Validate(&req)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	txn, err := ts.ledger.Apply(vt)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	// Pending disbursements go to the settlement queue after commit; a queue
	// failure never rolls back a committed transaction.
	if txn.Status == models.TxStatusPending {
		if err := ts.settlement.QueueDisbursement(txn); err != nil {
			log.Printf("[TRANSACTION] Failed to queue disbursement %s: %v", txn.ID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"transaction": txn,
	})
}

// GetTransaction retrieves a specific transaction
// @Summary Get transaction by ID
// @Tags transactions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} models.Transaction
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId} [get]
func (ts *TransactionService) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txId")

	txn, err := ts.ledger.GetTransaction(txID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txn)
}

// ListLedgerTransactions lists a ledger's transaction log
// @Summary List ledger transactions
// @Description Page through a client ledger's transactions in posting order; resume with the returned cursor
// @Tags transactions
// @Produce json
// @Param ledgerId path string true "Client ledger ID"
// @Param cursor query string false "Resume cursor from a previous page"
// @Param limit query int false "Page size"
// @Success 200 {object} object{transactions=[]models.Transaction,next_cursor=string,has_more=bool,count=int}
// @Failure 500 {object} ErrorResponse
// @Router /ledgers/{ledgerId}/transactions [get]
func (ts *TransactionService) ListLedgerTransactions(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "ledgerId")
	cursor := r.URL.Query().Get("cursor")

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	transactions, nextCursor, hasMore, err := ts.ledger.ListTransactions(ledgerID, cursor, limit)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			SendLedgerError(w, err)
			return
		}
		log.Printf("[TRANSACTION] Failed to list transactions for ledger %s: %v", ledgerID, err)
		SendErrorResponse(w, "Failed to fetch transactions", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": transactions,
		"next_cursor":  nextCursor,
		"has_more":     hasMore,
		"count":        len(transactions),
	})
}

// SettleTransaction marks a pending disbursement as cleared
// @Summary Settle a pending disbursement
// @Description Confirm that the bank cleared a pending withdrawal or fee
// @Tags transactions
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} object{success=bool,transaction=models.Transaction}
// @Failure 404 {object} ErrorResponse
// @Router /transactions/{txId}/settle [post]
func (ts *TransactionService) SettleTransaction(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txId")

	if err := ts.ledger.Settle(txID); err != nil {
		SendLedgerError(w, err)
		return
	}

	txn, err := ts.ledger.GetTransaction(txID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	if err := ts.settlement.SendStatusReport(txn, "ACSC"); err != nil {
		log.Printf("[TRANSACTION] Failed to send settlement status for %s: %v", txID, err)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"transaction": txn,
	})
}

// VerifyLedger replays a ledger's transaction log
// @Summary Verify a ledger's balance history
// @Description Replay the transaction log from zero and report the first stored balance_after that disagrees
// @Tags transactions
// @Produce json
// @Param ledgerId path string true "Client ledger ID"
// @Success 200 {object} object{valid=bool,first_mismatch=string}
// @Failure 500 {object} ErrorResponse
// @Router /ledgers/{ledgerId}/verify [get]
func (ts *TransactionService) VerifyLedger(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "ledgerId")

	valid, mismatchID, err := ts.ledger.VerifyLedger(ledgerID)
	if err != nil {
		log.Printf("[TRANSACTION] Ledger verification failed for %s: %v", ledgerID, err)
		SendErrorResponse(w, "Failed to verify ledger", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"valid":          valid,
		"first_mismatch": mismatchID,
	})
}

func (ts *TransactionService) findByReference(ledgerID, reference string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	err := ts.db.QueryRow(`
		SELECT id, trust_account_id, client_ledger_id, type, amount, balance_after,
		       description, reference_number, status, created_by, created_at
		FROM iolta_transactions
		WHERE client_ledger_id = $1 AND reference_number = $2`,
		ledgerID, reference).Scan(
		&txn.ID, &txn.TrustAccountID, &txn.ClientLedgerID, &txn.Type, &txn.Amount,
		&txn.BalanceAfter, &txn.Description, &txn.ReferenceNumber, &txn.Status,
		&txn.CreatedBy, &txn.CreatedAt)
	if err != nil {
		return nil, err
	}
	return txn, nil
}
