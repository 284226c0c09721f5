package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/trustbooks/backend/internal/models"
)

func newReconciliationFixture(t *testing.T) (*ReconciliationService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	accounts := NewAccountService(db, nil, testLedgerConfig())
	service := NewReconciliationService(db, accounts)
	return service, mock, func() { db.Close() }
}

func expectReconcileReads(mock sqlmock.Sqlmock, bookBalance string, pending *sqlmock.Rows, periodStart, periodEnd time.Time) {
	mock.ExpectQuery("SELECT status FROM trust_accounts WHERE id = \\$1").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow(models.StatusActive))
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(current_balance\\), 0\\)").
		WithArgs("acct-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(bookBalance))
	mock.ExpectQuery("SELECT type, amount").
		WithArgs("acct-1", models.TxStatusPending, periodStart, periodEnd).
		WillReturnRows(pending)
}

func TestReconcile(t *testing.T) {
	periodStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 2, 28, 23, 59, 59, 0, time.UTC)

	t.Run("balanced period", func(t *testing.T) {
		service, mock, closeDB := newReconciliationFixture(t)
		defer closeDB()

		expectReconcileReads(mock, "1500.00",
			sqlmock.NewRows([]string{"type", "amount"}), periodStart, periodEnd)
		mock.ExpectExec("INSERT INTO iolta_reconciliations").
			WillReturnResult(sqlmock.NewResult(1, 1))

		recon, err := service.Reconcile("acct-1", periodStart, periodEnd, dec("1500.00"), "bookkeeper")
		assert.NoError(t, err)
		assert.True(t, recon.Difference.IsZero())
		assert.True(t, recon.IsBalanced)
		assert.False(t, recon.IsProvisional)
		assert.Equal(t, models.ReconciliationDraft, recon.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unbalanced period reports the difference", func(t *testing.T) {
		service, mock, closeDB := newReconciliationFixture(t)
		defer closeDB()

		expectReconcileReads(mock, "1500.00",
			sqlmock.NewRows([]string{"type", "amount"}), periodStart, periodEnd)
		mock.ExpectExec("INSERT INTO iolta_reconciliations").
			WillReturnResult(sqlmock.NewResult(1, 1))

		recon, err := service.Reconcile("acct-1", periodStart, periodEnd, dec("1400.00"), "bookkeeper")
		assert.NoError(t, err)
		assert.True(t, recon.Difference.Equal(dec("-100.00")))
		assert.False(t, recon.IsBalanced)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("outstanding disbursements are added back and flagged", func(t *testing.T) {
		service, mock, closeDB := newReconciliationFixture(t)
		defer closeDB()

		// Book balance is 1200 after a 300 withdrawal the bank has not
		// cleared; the statement still shows 1500.
		expectReconcileReads(mock, "1200.00",
			sqlmock.NewRows([]string{"type", "amount"}).
				AddRow(models.TypeWithdrawal, "300.00"),
			periodStart, periodEnd)
		mock.ExpectExec("INSERT INTO iolta_reconciliations").
			WillReturnResult(sqlmock.NewResult(1, 1))

		recon, err := service.Reconcile("acct-1", periodStart, periodEnd, dec("1500.00"), "bookkeeper")
		assert.NoError(t, err)
		assert.True(t, recon.BookBalance.Equal(dec("1500.00")))
		assert.True(t, recon.IsBalanced)
		assert.True(t, recon.IsProvisional)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown trust account", func(t *testing.T) {
		service, mock, closeDB := newReconciliationFixture(t)
		defer closeDB()

		mock.ExpectQuery("SELECT status FROM trust_accounts WHERE id = \\$1").
			WithArgs("acct-1").
			WillReturnRows(sqlmock.NewRows([]string{"status"}))

		_, err := service.Reconcile("acct-1", periodStart, periodEnd, dec("1500.00"), "bookkeeper")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRunReconciliation(t *testing.T) {
	service, mock, closeDB := newReconciliationFixture(t)
	defer closeDB()

	router := chi.NewRouter()
	router.Post("/reconciliations", service.RunReconciliation)

	t.Run("stores a draft for the period", func(t *testing.T) {
		periodStart := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		periodEnd := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC).
			Add(24*time.Hour - time.Nanosecond)

		expectReconcileReads(mock, "1500.00",
			sqlmock.NewRows([]string{"type", "amount"}), periodStart, periodEnd)
		mock.ExpectExec("INSERT INTO iolta_reconciliations").
			WillReturnResult(sqlmock.NewResult(1, 1))

		body := `{"trust_account_id":"acct-1","period_start":"2026-02-01","period_end":"2026-02-28","bank_balance":"1500.00","reconciled_by":"bookkeeper"}`
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reconciliations", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var recon models.Reconciliation
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&recon))
		assert.True(t, recon.IsBalanced)
	})

	t.Run("rejects a reversed period", func(t *testing.T) {
		body := `{"trust_account_id":"acct-1","period_start":"2026-02-28","period_end":"2026-02-01","bank_balance":"1500.00"}`
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reconciliations", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a malformed bank balance", func(t *testing.T) {
		body := `{"trust_account_id":"acct-1","period_start":"2026-02-01","period_end":"2026-02-28","bank_balance":"lots"}`
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reconciliations", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("rejects a malformed date", func(t *testing.T) {
		body := `{"trust_account_id":"acct-1","period_start":"02/01/2026","period_end":"2026-02-28","bank_balance":"1500.00"}`
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/reconciliations", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewReconciliation(t *testing.T) {
	service, mock, closeDB := newReconciliationFixture(t)
	defer closeDB()

	router := chi.NewRouter()
	router.Put("/reconciliations/{reconId}/review", service.ReviewReconciliation)

	t.Run("marks a draft reviewed", func(t *testing.T) {
		mock.ExpectExec("UPDATE iolta_reconciliations").
			WithArgs(models.ReconciliationReviewed, "recon-1", models.ReconciliationDraft).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/reconciliations/recon-1/review", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("reviewed records are immutable", func(t *testing.T) {
		mock.ExpectExec("UPDATE iolta_reconciliations").
			WithArgs(models.ReconciliationReviewed, "recon-1", models.ReconciliationDraft).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("recon-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/reconciliations/recon-1/review", nil))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("unknown reconciliation", func(t *testing.T) {
		mock.ExpectExec("UPDATE iolta_reconciliations").
			WithArgs(models.ReconciliationReviewed, "recon-missing", models.ReconciliationDraft).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("recon-missing").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPut, "/reconciliations/recon-missing/review", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordBankStatement(t *testing.T) {
	service, mock, closeDB := newReconciliationFixture(t)
	defer closeDB()

	router := chi.NewRouter()
	router.Post("/bank-statements", service.RecordBankStatement)

	t.Run("stores the closing balance", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO iolta_bank_statements").
			WithArgs(sqlmock.AnyArg(), "acct-1", sqlmock.AnyArg(), dec("1500.00"), "FEB-2026", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		body := `{"trust_account_id":"acct-1","statement_date":"2026-02-28","closing_balance":"1500.00","reference":"FEB-2026"}`
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/bank-statements", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var statement models.BankStatement
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&statement))
		assert.True(t, statement.ClosingBalance.Equal(dec("1500.00")))
	})

	t.Run("rejects a malformed closing balance", func(t *testing.T) {
		body := `{"trust_account_id":"acct-1","statement_date":"2026-02-28","closing_balance":"about 1500"}`
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/bank-statements", bytes.NewBufferString(body)))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
