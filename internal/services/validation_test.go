package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStruct(t *testing.T) {
	vh := NewValidationHelper()

	t.Run("complete request passes", func(t *testing.T) {
		req := TransactionRequest{
			TrustAccountID: "acct-1",
			ClientLedgerID: "ledger-1",
			Type:           "DEPOSIT",
			Amount:         "100.00",
		}
		assert.NoError(t, vh.ValidateStruct(&req))
	})

	t.Run("missing required fields fail", func(t *testing.T) {
		req := TransactionRequest{Type: "DEPOSIT"}
		assert.Error(t, vh.ValidateStruct(&req))
	})

	t.Run("oversized description fails", func(t *testing.T) {
		long := make([]byte, 201)
		for i := range long {
			long[i] = 'x'
		}
		req := TransactionRequest{
			TrustAccountID: "acct-1",
			ClientLedgerID: "ledger-1",
			Type:           "DEPOSIT",
			Amount:         "100.00",
			Description:    string(long),
		}
		assert.Error(t, vh.ValidateStruct(&req))
	})
}

func TestSendLedgerError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"invalid amount", ErrInvalidAmount, http.StatusBadRequest},
		{"invalid type", ErrInvalidType, http.StatusBadRequest},
		{"invalid cursor", ErrInvalidCursor, http.StatusBadRequest},
		{"insufficient funds", ErrInsufficientFunds, http.StatusUnprocessableEntity},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"account closed", ErrAccountClosed, http.StatusForbidden},
		{"concurrent modification", ErrConcurrentModification, http.StatusConflict},
		{"wrapped persistence failure", &PersistenceError{Op: "commit", Err: errors.New("connection reset")}, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			SendLedgerError(rr, tc.err)

			assert.Equal(t, tc.code, rr.Code)
			assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))

			var resp ErrorResponse
			assert.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
			assert.NotEmpty(t, resp.Error)
		})
	}
}
