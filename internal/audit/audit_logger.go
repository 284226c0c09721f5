package audit

import (
	"encoding/json"
	"log"
	"time"

	"github.com/shopspring/decimal"
)

type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	EventType      string    `json:"event_type"`
	TransactionID  string    `json:"transaction_id,omitempty"`
	ClientLedgerID string    `json:"client_ledger_id,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	Status         string    `json:"status"`
	Details        any       `json:"details,omitempty"`
}

// Logger emits one JSON audit line per balance-affecting event. Trust
// accounting requires every balance change and every rejection to leave a
// trace.
type Logger struct{}

func NewLogger() *Logger {
	return &Logger{}
}

func (a *Logger) LogTransaction(transactionID, ledgerID, txType string, amount decimal.Decimal, balanceAfter decimal.Decimal, status string) {
	event := Event{
		Timestamp:      time.Now(),
		EventType:      txType,
		TransactionID:  transactionID,
		ClientLedgerID: ledgerID,
		Amount:         amount.StringFixed(2),
		Status:         status,
		Details: map[string]string{
			"balance_after": balanceAfter.StringFixed(2),
		},
	}
	a.log(event)
}

func (a *Logger) LogRejection(ledgerID, txType string, amount decimal.Decimal, err error) {
	event := Event{
		Timestamp:      time.Now(),
		EventType:      "REJECTED_" + txType,
		ClientLedgerID: ledgerID,
		Amount:         amount.StringFixed(2),
		Status:         "REJECTED",
		Details:        map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *Logger) LogError(transactionID, ledgerID string, err error) {
	event := Event{
		Timestamp:      time.Now(),
		EventType:      "ERROR",
		TransactionID:  transactionID,
		ClientLedgerID: ledgerID,
		Status:         "FAILED",
		Details:        map[string]string{"error": err.Error()},
	}
	a.log(event)
}

func (a *Logger) LogReconciliation(reconciliationID, trustAccountID string, difference decimal.Decimal, balanced bool) {
	status := "UNBALANCED"
	if balanced {
		status = "BALANCED"
	}
	event := Event{
		Timestamp:     time.Now(),
		EventType:     "RECONCILIATION",
		TransactionID: reconciliationID,
		Status:        status,
		Details: map[string]string{
			"trust_account_id": trustAccountID,
			"difference":       difference.StringFixed(2),
		},
	}
	a.log(event)
}

func (a *Logger) log(event Event) {
	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))
}
