package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trustbooks/backend/internal/config"
	"github.com/trustbooks/backend/internal/models"
)

// ErrLedgerNotEmpty rejects closing a client ledger that still holds funds.
var ErrLedgerNotEmpty = errors.New("ledger balance must be zero before closing")

// ErrAccountNotEmpty rejects closing a trust account that still holds funds
// or open client ledgers.
var ErrAccountNotEmpty = errors.New("trust account must hold no funds and no open ledgers before closing")

// AccountService onboards trust accounts and client ledgers. Balance
// mutation is not its job; that belongs to TrustLedgerService alone.
type AccountService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
	cfg       *config.LedgerConfig
}

func NewAccountService(db *sql.DB, redisClient *redis.Client, cfg *config.LedgerConfig) *AccountService {
	if cfg == nil {
		cfg = config.LoadLedgerConfig()
	}
	return &AccountService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
		cfg:       cfg,
	}
}

// CreateTrustAccount opens a pooled trust account
// @Summary Open a trust account
// @Description Register a pooled IOLTA bank account for a merchant
// @Tags accounts
// @Accept json
// @Produce json
// @Param account body object{merchant_id=string,account_name=string,bank_account_number=string} true "Trust account details"
// @Success 201 {object} models.TrustAccount
// @Failure 400 {object} ErrorResponse
// @Router /trust-accounts [post]
func (s *AccountService) CreateTrustAccount(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MerchantID        string `json:"merchant_id" validate:"required,max=50"`
		AccountName       string `json:"account_name" validate:"required,max=100"`
		BankAccountNumber string `json:"bank_account_number" validate:"required,max=34"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	account := models.TrustAccount{
		ID:                uuid.New().String(),
		MerchantID:        req.MerchantID,
		AccountName:       req.AccountName,
		BankAccountNumber: req.BankAccountNumber,
		TotalBalance:      decimal.Zero,
		Status:            models.StatusActive,
		Version:           1,
		CreatedAt:         time.Now(),
	}
	account.UpdatedAt = account.CreatedAt

	_, err := s.db.Exec(`
		INSERT INTO trust_accounts
		(id, merchant_id, account_name, bank_account_number, total_balance, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		account.ID, account.MerchantID, account.AccountName, account.BankAccountNumber,
		account.TotalBalance, account.Status, account.Version, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to create trust account: %v", err)
		SendErrorResponse(w, "Failed to create trust account", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[ACCOUNT] Trust account %s opened for merchant %s", account.ID, account.MerchantID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(account)
}

// CreateClientLedger opens a client sub-ledger
// @Summary Open a client ledger
// @Description Create a zero-balance sub-ledger for a client/matter within a trust account
// @Tags accounts
// @Accept json
// @Produce json
// @Param ledger body object{trust_account_id=string,client_id=string,matter_id=string} true "Client ledger details"
// @Success 201 {object} models.ClientLedger
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /ledgers [post]
func (s *AccountService) CreateClientLedger(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrustAccountID string `json:"trust_account_id" validate:"required"`
		ClientID       string `json:"client_id" validate:"required,max=50"`
		MatterID       string `json:"matter_id" validate:"max=50"`
	}

	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var status string
	err := s.db.QueryRow(`SELECT status FROM trust_accounts WHERE id = $1`, req.TrustAccountID).Scan(&status)
	if err == sql.ErrNoRows {
		SendLedgerError(w, ErrNotFound)
		return
	}
	if err != nil {
		log.Printf("[ACCOUNT] Trust account lookup failed: %v", err)
		SendErrorResponse(w, "Failed to create ledger", http.StatusInternalServerError, nil)
		return
	}
	if status != models.StatusActive {
		SendLedgerError(w, ErrAccountClosed)
		return
	}

	ledger := models.ClientLedger{
		ID:             uuid.New().String(),
		TrustAccountID: req.TrustAccountID,
		ClientID:       req.ClientID,
		CurrentBalance: decimal.Zero,
		Status:         models.StatusActive,
		Version:        1,
		CreatedAt:      time.Now(),
	}
	if req.MatterID != "" {
		ledger.MatterID = &req.MatterID
	}

	_, err = s.db.Exec(`
		INSERT INTO iolta_client_ledgers
		(id, trust_account_id, client_id, matter_id, current_balance, status, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		ledger.ID, ledger.TrustAccountID, ledger.ClientID, ledger.MatterID,
		ledger.CurrentBalance, ledger.Status, ledger.Version, ledger.CreatedAt)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to create client ledger: %v", err)
		SendErrorResponse(w, "Failed to create ledger", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[ACCOUNT] Client ledger %s opened under trust account %s", ledger.ID, ledger.TrustAccountID)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ledger)
}

// GetClientLedger returns one client ledger
// @Summary Get a client ledger
// @Tags accounts
// @Produce json
// @Param ledgerId path string true "Client ledger ID"
// @Success 200 {object} models.ClientLedger
// @Failure 404 {object} ErrorResponse
// @Router /ledgers/{ledgerId} [get]
func (s *AccountService) GetClientLedger(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "ledgerId")

	ledger, err := s.fetchClientLedger(ledgerID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ledger)
}

// CloseClientLedger closes an emptied client ledger
// @Summary Close a client ledger
// @Description Close a ledger whose balance has been fully disbursed. Non-zero ledgers cannot be closed.
// @Tags accounts
// @Produce json
// @Param ledgerId path string true "Client ledger ID"
// @Success 200 {object} models.ClientLedger
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /ledgers/{ledgerId}/close [put]
func (s *AccountService) CloseClientLedger(w http.ResponseWriter, r *http.Request) {
	ledgerID := chi.URLParam(r, "ledgerId")

	result, err := s.db.Exec(`
		UPDATE iolta_client_ledgers
		SET status = $1, version = version + 1
		WHERE id = $2 AND status = $3 AND current_balance = 0`,
		models.StatusClosed, ledgerID, models.StatusActive)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to close ledger %s: %v", ledgerID, err)
		SendErrorResponse(w, "Failed to close ledger", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		// Distinguish a missing ledger from one still holding funds.
		ledger, err := s.fetchClientLedger(ledgerID)
		if err != nil {
			SendLedgerError(w, err)
			return
		}
		if !ledger.CurrentBalance.IsZero() {
			SendErrorResponse(w, ErrLedgerNotEmpty.Error(), http.StatusUnprocessableEntity, nil)
			return
		}
		SendLedgerError(w, ErrAccountClosed)
		return
	}

	log.Printf("[ACCOUNT] Client ledger %s closed", ledgerID)
	ledger, err := s.fetchClientLedger(ledgerID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ledger)
}

// GetTrustAccount returns a trust account with its aggregate balance
// @Summary Get a trust account
// @Tags accounts
// @Produce json
// @Param accountId path string true "Trust account ID"
// @Success 200 {object} models.TrustAccount
// @Failure 404 {object} ErrorResponse
// @Router /trust-accounts/{accountId} [get]
func (s *AccountService) GetTrustAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	account, err := s.fetchTrustAccount(accountID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

// CloseTrustAccount closes an emptied trust account
// @Summary Close a trust account
// @Description Close a trust account once every client ledger is closed and the pooled balance is zero
// @Tags accounts
// @Produce json
// @Param accountId path string true "Trust account ID"
// @Success 200 {object} models.TrustAccount
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /trust-accounts/{accountId}/close [put]
func (s *AccountService) CloseTrustAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "accountId")

	result, err := s.db.Exec(`
		UPDATE trust_accounts
		SET status = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND status = $3 AND total_balance = 0
		  AND NOT EXISTS (
			SELECT 1 FROM iolta_client_ledgers
			WHERE trust_account_id = $2 AND status = $3
		  )`,
		models.StatusClosed, accountID, models.StatusActive)
	if err != nil {
		log.Printf("[ACCOUNT] Failed to close trust account %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to close trust account", http.StatusInternalServerError, nil)
		return
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		// Distinguish a missing account from one not yet emptied.
		account, err := s.fetchTrustAccount(accountID)
		if err != nil {
			SendLedgerError(w, err)
			return
		}
		if account.Status != models.StatusActive {
			SendLedgerError(w, ErrAccountClosed)
			return
		}
		SendErrorResponse(w, ErrAccountNotEmpty.Error(), http.StatusUnprocessableEntity, nil)
		return
	}

	log.Printf("[ACCOUNT] Trust account %s closed", accountID)
	account, err := s.fetchTrustAccount(accountID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(account)
}

func (s *AccountService) fetchTrustAccount(accountID string) (*models.TrustAccount, error) {
	account := &models.TrustAccount{}
	err := s.db.QueryRow(`
		SELECT id, merchant_id, account_name, bank_account_number, total_balance, status, version, created_at, updated_at
		FROM trust_accounts
		WHERE id = $1`, accountID).Scan(
		&account.ID, &account.MerchantID, &account.AccountName, &account.BankAccountNumber,
		&account.TotalBalance, &account.Status, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "fetch trust account", Err: err}
	}
	return account, nil
}

// BookBalance sums the client ledger balances under a trust account. The
// result is cached briefly in redis; the ledger service invalidates the key
// on every apply.
func (s *AccountService) BookBalance(trustAccountID string) (decimal.Decimal, error) {
	if s.redis != nil {
		cached, err := s.redis.Get(context.Background(), bookBalanceKey(trustAccountID)).Result()
		if err == nil {
			if balance, perr := decimal.NewFromString(cached); perr == nil {
				return balance, nil
			}
		}
	}

	var balance decimal.Decimal
	err := s.db.QueryRow(`
		SELECT COALESCE(SUM(current_balance), 0)
		FROM iolta_client_ledgers
		WHERE trust_account_id = $1`, trustAccountID).Scan(&balance)
	if err != nil {
		return decimal.Zero, &PersistenceError{Op: "book balance", Err: err}
	}

	if s.redis != nil {
		if err := s.redis.Set(context.Background(), bookBalanceKey(trustAccountID), balance.String(), s.cfg.BalanceCacheTTL).Err(); err != nil {
			log.Printf("[ACCOUNT] Failed to cache book balance for %s: %v", trustAccountID, err)
		}
	}
	return balance, nil
}

func (s *AccountService) fetchClientLedger(ledgerID string) (*models.ClientLedger, error) {
	ledger := &models.ClientLedger{}
	err := s.db.QueryRow(`
		SELECT id, trust_account_id, client_id, matter_id, current_balance, status, version, last_transaction_at, created_at
		FROM iolta_client_ledgers
		WHERE id = $1`, ledgerID).Scan(
		&ledger.ID, &ledger.TrustAccountID, &ledger.ClientID, &ledger.MatterID,
		&ledger.CurrentBalance, &ledger.Status, &ledger.Version,
		&ledger.LastTransactionAt, &ledger.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "fetch client ledger", Err: err}
	}
	return ledger, nil
}

// decodeJSON applies the shared request body rules: 1 MB cap, unknown fields
// rejected, exactly one JSON object.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}
