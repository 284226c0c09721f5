package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/trustbooks/backend/internal/audit"
	"github.com/trustbooks/backend/internal/config"
	"github.com/trustbooks/backend/internal/models"
)

// TrustLedgerService is the single mutation path for client ledger balances.
// Every balance change goes through Apply; nothing else writes balances.
type TrustLedgerService struct {
	db    *sql.DB
	redis *redis.Client
	audit *audit.Logger
	cfg   *config.LedgerConfig
}

func NewTrustLedgerService(db *sql.DB, redisClient *redis.Client, cfg *config.LedgerConfig) *TrustLedgerService {
	if cfg == nil {
		cfg = config.LoadLedgerConfig()
	}
	return &TrustLedgerService{
		db:    db,
		redis: redisClient,
		audit: audit.NewLogger(),
		cfg:   cfg,
	}
}

// TransactionRequest is a caller-supplied transaction. Amounts travel as
// decimal strings so currency math never touches floating point.
type TransactionRequest struct {
	TrustAccountID  string `json:"trust_account_id" validate:"required"`
	ClientLedgerID  string `json:"client_ledger_id" validate:"required"`
	Type            string `json:"type" validate:"required"`
	Amount          string `json:"amount" validate:"required"`
	Description     string `json:"description" validate:"max=200"`
	ReferenceNumber string `json:"reference_number" validate:"max=50"`
	CreatedBy       string `json:"created_by" validate:"max=100"`
}

// ValidatedTransaction is a request that passed validation and is safe to
// hand to Apply.
type ValidatedTransaction struct {
	TrustAccountID  string
	ClientLedgerID  string
	Type            string
	Amount          decimal.Decimal
	Description     string
	ReferenceNumber string
	CreatedBy       string
}

// Validate checks a proposed transaction against the business rules:
// positive decimal amount, known type, existing and active trust account and
// ledger, and sufficient funds for debits. It reads but never writes.
func (s *TrustLedgerService) Validate(req *TransactionRequest) (*ValidatedTransaction, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if !models.ValidType(req.Type) {
		return nil, ErrInvalidType
	}

	var acctStatus string
	err = s.db.QueryRow(`
		SELECT status FROM trust_accounts WHERE id = $1
	`, req.TrustAccountID).Scan(&acctStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "trust account lookup", Err: err}
	}
	if acctStatus != models.StatusActive {
		return nil, ErrAccountClosed
	}

	var balance decimal.Decimal
	var ledgerStatus string
	err = s.db.QueryRow(`
		SELECT current_balance, status FROM iolta_client_ledgers
		WHERE id = $1 AND trust_account_id = $2
	`, req.ClientLedgerID, req.TrustAccountID).Scan(&balance, &ledgerStatus)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "client ledger lookup", Err: err}
	}
	if ledgerStatus != models.StatusActive {
		return nil, ErrAccountClosed
	}

	// Trust funds can never go negative; a debit past the ledger balance is
	// a regulatory violation, not a retryable condition.
	if !models.IsCredit(req.Type) && amount.GreaterThan(balance) {
		return nil, ErrInsufficientFunds
	}

	return &ValidatedTransaction{
		TrustAccountID:  req.TrustAccountID,
		ClientLedgerID:  req.ClientLedgerID,
		Type:            req.Type,
		Amount:          amount,
		Description:     req.Description,
		ReferenceNumber: req.ReferenceNumber,
		CreatedBy:       req.CreatedBy,
	}, nil
}

// Apply appends the transaction and moves the ledger and trust account
// balances in one atomic unit. Version conflicts are retried up to the
// configured bound before ErrConcurrentModification is surfaced.
func (s *TrustLedgerService) Apply(vt *ValidatedTransaction) (*models.Transaction, error) {
	var txn *models.Transaction
	var err error
	for attempt := 0; ; attempt++ {
		txn, err = s.applyOnce(vt)
		if err == nil || !errors.Is(err, ErrConcurrentModification) {
			break
		}
		if attempt >= s.cfg.ApplyMaxRetries {
			log.Printf("[LEDGER] Apply gave up after %d attempts for ledger %s", attempt+1, vt.ClientLedgerID)
			break
		}
		time.Sleep(s.cfg.RetryBackoff * time.Duration(attempt+1))
	}

	if err != nil {
		s.audit.LogRejection(vt.ClientLedgerID, vt.Type, vt.Amount, err)
		return nil, err
	}

	s.audit.LogTransaction(txn.ID, txn.ClientLedgerID, txn.Type, txn.Amount, txn.BalanceAfter, txn.Status)
	s.invalidateBookBalance(vt.TrustAccountID)
	return txn, nil
}

func (s *TrustLedgerService) applyOnce(vt *ValidatedTransaction) (*models.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, &PersistenceError{Op: "begin", Err: err}
	}
	defer tx.Rollback()

	// Lock parent before child so concurrent appliers on the same trust
	// account cannot deadlock.
	account, err := s.lockTrustAccount(tx, vt.TrustAccountID)
	if err != nil {
		return nil, err
	}
	if account.Status != models.StatusActive {
		return nil, ErrAccountClosed
	}

	ledger, err := s.lockClientLedger(tx, vt.ClientLedgerID, vt.TrustAccountID)
	if err != nil {
		return nil, err
	}
	if ledger.Status != models.StatusActive {
		return nil, ErrAccountClosed
	}

	// Re-validate against the locked balance; the pre-flight read may be
	// stale by now.
	if !models.IsCredit(vt.Type) && vt.Amount.GreaterThan(ledger.CurrentBalance) {
		return nil, ErrInsufficientFunds
	}

	balanceAfter, err := NewBalance(ledger.CurrentBalance, vt.Type, vt.Amount)
	if err != nil {
		return nil, err
	}
	accountTotal, err := NewBalance(account.TotalBalance, vt.Type, vt.Amount)
	if err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		ID:              uuid.New().String(),
		TrustAccountID:  vt.TrustAccountID,
		ClientLedgerID:  vt.ClientLedgerID,
		Type:            vt.Type,
		Amount:          vt.Amount,
		BalanceAfter:    balanceAfter,
		Description:     vt.Description,
		ReferenceNumber: vt.ReferenceNumber,
		Status:          initialStatus(vt.Type),
		CreatedBy:       vt.CreatedBy,
		CreatedAt:       time.Now(),
	}

	if err := s.insertTransaction(tx, txn); err != nil {
		return nil, err
	}

	if err := s.updateLedgerBalance(tx, ledger.ID, balanceAfter, ledger.Version, txn.CreatedAt); err != nil {
		return nil, err
	}

	if err := s.updateTrustAccountTotal(tx, account.ID, accountTotal, account.Version); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, &PersistenceError{Op: "commit", Err: err}
	}

	return txn, nil
}

// initialStatus returns PENDING for debits, which represent disbursements
// the bank has not cleared yet, and COMPLETED for credits.
func initialStatus(txType string) string {
	if models.IsCredit(txType) {
		return models.TxStatusCompleted
	}
	return models.TxStatusPending
}

func (s *TrustLedgerService) lockTrustAccount(tx *sql.Tx, accountID string) (*models.TrustAccount, error) {
	var account models.TrustAccount
	err := tx.QueryRow(`
		SELECT id, total_balance, status, version
		FROM trust_accounts
		WHERE id = $1
		FOR UPDATE`, accountID).Scan(&account.ID, &account.TotalBalance, &account.Status, &account.Version)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "lock trust account", Err: err}
	}
	return &account, nil
}

func (s *TrustLedgerService) lockClientLedger(tx *sql.Tx, ledgerID, accountID string) (*models.ClientLedger, error) {
	var ledger models.ClientLedger
	err := tx.QueryRow(`
		SELECT id, current_balance, status, version
		FROM iolta_client_ledgers
		WHERE id = $1 AND trust_account_id = $2
		FOR UPDATE`, ledgerID, accountID).Scan(&ledger.ID, &ledger.CurrentBalance, &ledger.Status, &ledger.Version)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "lock client ledger", Err: err}
	}
	return &ledger, nil
}

func (s *TrustLedgerService) insertTransaction(tx *sql.Tx, txn *models.Transaction) error {
	_, err := tx.Exec(`
		INSERT INTO iolta_transactions
		(id, trust_account_id, client_ledger_id, type, amount, balance_after, description, reference_number, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		txn.ID, txn.TrustAccountID, txn.ClientLedgerID, txn.Type, txn.Amount,
		txn.BalanceAfter, txn.Description, txn.ReferenceNumber, txn.Status,
		txn.CreatedBy, txn.CreatedAt)
	if err != nil {
		return &PersistenceError{Op: "insert transaction", Err: err}
	}
	return nil
}

func (s *TrustLedgerService) updateLedgerBalance(tx *sql.Tx, ledgerID string, newBalance decimal.Decimal, version int, at time.Time) error {
	result, err := tx.Exec(`
		UPDATE iolta_client_ledgers
		SET current_balance = $1, version = version + 1, last_transaction_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, at, ledgerID, version)
	if err != nil {
		return &PersistenceError{Op: "update ledger balance", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return &PersistenceError{Op: "update ledger balance", Err: err}
	}
	if rowsAffected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func (s *TrustLedgerService) updateTrustAccountTotal(tx *sql.Tx, accountID string, newTotal decimal.Decimal, version int) error {
	result, err := tx.Exec(`
		UPDATE trust_accounts
		SET total_balance = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3`,
		newTotal, accountID, version)
	if err != nil {
		return &PersistenceError{Op: "update trust account total", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return &PersistenceError{Op: "update trust account total", Err: err}
	}
	if rowsAffected == 0 {
		return ErrConcurrentModification
	}
	return nil
}

// Settle marks a pending disbursement as cleared by the bank. Only the
// status moves; amounts and balance_after are immutable once written.
func (s *TrustLedgerService) Settle(transactionID string) error {
	result, err := s.db.Exec(`
		UPDATE iolta_transactions
		SET status = $1
		WHERE id = $2 AND status = $3`,
		models.TxStatusCompleted, transactionID, models.TxStatusPending)
	if err != nil {
		return &PersistenceError{Op: "settle transaction", Err: err}
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return &PersistenceError{Op: "settle transaction", Err: err}
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	log.Printf("[LEDGER] Transaction %s cleared", transactionID)
	return nil
}

// GetTransaction fetches one transaction by id.
func (s *TrustLedgerService) GetTransaction(transactionID string) (*models.Transaction, error) {
	txn := &models.Transaction{}
	err := s.db.QueryRow(`
		SELECT id, trust_account_id, client_ledger_id, type, amount, balance_after,
		       description, reference_number, status, created_by, created_at
		FROM iolta_transactions
		WHERE id = $1`, transactionID).Scan(
		&txn.ID, &txn.TrustAccountID, &txn.ClientLedgerID, &txn.Type, &txn.Amount,
		&txn.BalanceAfter, &txn.Description, &txn.ReferenceNumber, &txn.Status,
		&txn.CreatedBy, &txn.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &PersistenceError{Op: "fetch transaction", Err: err}
	}
	return txn, nil
}

// ListTransactions returns one ascending page of a ledger's transaction log
// plus the cursor the caller resumes from. The cursor is the seq of the last
// row returned, so an interrupted reader can restart without missing or
// repeating rows.
func (s *TrustLedgerService) ListTransactions(ledgerID, cursor string, limit int) ([]models.Transaction, string, bool, error) {
	if limit <= 0 || limit > s.cfg.MaxListPageSize {
		limit = s.cfg.ListPageSize
	}

	afterSeq := int64(0)
	if cursor != "" {
		parsed, err := strconv.ParseInt(cursor, 10, 64)
		if err != nil {
			return nil, "", false, ErrInvalidCursor
		}
		afterSeq = parsed
	}

	rows, err := s.db.Query(`
		SELECT seq, id, trust_account_id, client_ledger_id, type, amount, balance_after,
		       description, reference_number, status, created_by, created_at
		FROM iolta_transactions
		WHERE client_ledger_id = $1 AND seq > $2
		ORDER BY seq ASC
		LIMIT $3`, ledgerID, afterSeq, limit+1)
	if err != nil {
		return nil, "", false, &PersistenceError{Op: "list transactions", Err: err}
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	seqs := []int64{}
	for rows.Next() {
		var txn models.Transaction
		var seq int64
		err := rows.Scan(&seq, &txn.ID, &txn.TrustAccountID, &txn.ClientLedgerID,
			&txn.Type, &txn.Amount, &txn.BalanceAfter, &txn.Description,
			&txn.ReferenceNumber, &txn.Status, &txn.CreatedBy, &txn.CreatedAt)
		if err != nil {
			return nil, "", false, &PersistenceError{Op: "list transactions", Err: err}
		}
		transactions = append(transactions, txn)
		seqs = append(seqs, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, "", false, &PersistenceError{Op: "list transactions", Err: err}
	}

	hasMore := false
	if len(transactions) > limit {
		transactions = transactions[:limit]
		hasMore = true
	}
	nextCursor := ""
	if len(transactions) > 0 {
		nextCursor = strconv.FormatInt(seqs[len(transactions)-1], 10)
	}

	return transactions, nextCursor, hasMore, nil
}

// VerifyLedger replays a ledger's transaction log from zero and reports the
// first row whose stored balance_after disagrees with the replayed balance.
// It never patches history; gaps are corrected with offsetting transactions.
func (s *TrustLedgerService) VerifyLedger(ledgerID string) (bool, string, error) {
	rows, err := s.db.Query(`
		SELECT id, type, amount, balance_after
		FROM iolta_transactions
		WHERE client_ledger_id = $1
		ORDER BY seq ASC`, ledgerID)
	if err != nil {
		return false, "", &PersistenceError{Op: "verify ledger", Err: err}
	}
	defer rows.Close()

	running := decimal.Zero
	for rows.Next() {
		var id, txType string
		var amount, balanceAfter decimal.Decimal
		if err := rows.Scan(&id, &txType, &amount, &balanceAfter); err != nil {
			return false, "", &PersistenceError{Op: "verify ledger", Err: err}
		}
		running, err = NewBalance(running, txType, amount)
		if err != nil {
			return false, id, err
		}
		if !running.Equal(balanceAfter) {
			return false, id, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, "", &PersistenceError{Op: "verify ledger", Err: err}
	}
	return true, "", nil
}

func (s *TrustLedgerService) invalidateBookBalance(trustAccountID string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(context.Background(), bookBalanceKey(trustAccountID)).Err(); err != nil {
		log.Printf("[LEDGER] Failed to invalidate book balance cache for %s: %v", trustAccountID, err)
	}
}

func bookBalanceKey(trustAccountID string) string {
	return "book_balance:" + trustAccountID
}
