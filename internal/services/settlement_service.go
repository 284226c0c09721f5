package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"

	"github.com/trustbooks/backend/internal/config"
	"github.com/trustbooks/backend/internal/models"
)

// SettlementService turns pending disbursements into ISO 20022 payment
// messages for the firm's bank and queues them for the settlement worker.
type SettlementService struct {
	db    *sql.DB
	redis *redis.Client
	cfg   *config.LedgerConfig
}

func NewSettlementService(db *sql.DB, redisClient *redis.Client, cfg *config.LedgerConfig) *SettlementService {
	if cfg == nil {
		cfg = config.LoadLedgerConfig()
	}
	return &SettlementService{
		db:    db,
		redis: redisClient,
		cfg:   cfg,
	}
}

// QueueDisbursement pushes a committed pending disbursement onto the redis
// settlement queue. Without redis the disbursement is only logged; clearing
// can still be confirmed manually.
func (s *SettlementService) QueueDisbursement(txn *models.Transaction) error {
	if s.redis == nil {
		log.Printf("[SETTLEMENT] No queue configured, disbursement %s awaits manual clearing", txn.ID)
		return nil
	}

	data, err := json.Marshal(txn)
	if err != nil {
		return err
	}
	return s.redis.RPush(context.Background(), s.cfg.SettlementQueue, data).Err()
}

// DisbursementAdvice renders a pacs.008 credit transfer for a pending disbursement
// @Summary Get disbursement advice
// @Description Render the ISO 20022 pacs.008 message for a pending withdrawal or fee
// @Tags settlement
// @Produce json
// @Param txId path string true "Transaction ID"
// @Success 200 {object} object{status=string,messageType=string,xml=string}
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Router /transactions/{txId}/disbursement-advice [get]
func (s *SettlementService) DisbursementAdvice(w http.ResponseWriter, r *http.Request) {
	txID := chi.URLParam(r, "txId")

	txn, account, err := s.fetchDisbursement(txID)
	if err != nil {
		SendLedgerError(w, err)
		return
	}
	if models.IsCredit(txn.Type) {
		SendErrorResponse(w, "Only withdrawals and fees produce disbursement advice", http.StatusUnprocessableEntity, nil)
		return
	}

	doc, err := s.BuildPacs008(txn, account)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	xmlData, err := s.ConvertToXML(doc)
	if err != nil {
		SendErrorResponse(w, err.Error(), http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "generated",
		"messageType": "pacs.008.001.08",
		"xml":         xmlData,
	})
}

// BuildPacs008 creates a pacs.008 FIToFICustomerCreditTransfer for one
// disbursement out of the pooled trust account.
func (s *SettlementService) BuildPacs008(txn *models.Transaction, account *models.TrustAccount) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	msgId := uuid.New().String()
	creDtTm := time.Now()
	settlementDate := time.Now()
	amount := txn.Amount.InexactFloat64()

	payee := txn.Description
	if payee == "" {
		payee = txn.ReferenceNumber
	}

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
			NbOfTxs: "1",
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode("USD"),
				Value: amount,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    &[]common.Max35Text{common.Max35Text(txn.ID)}[0],
					EndToEndId: common.Max35Text(txn.ReferenceNumber),
					TxId:       &[]common.Max35Text{common.Max35Text(txn.ID)}[0],
				},
				IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
					Ccy:   common.ActiveCurrencyCode("USD"),
					Value: amount,
				},
				IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
				ChrgBr:        "SLEV",
				DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier("TRUSTBKS")}[0],
					},
				},
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(account.AccountName)}[0],
				},
				CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
					FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
						ClrSysMmbId: &pacs_v08.ClearingSystemMemberIdentification2{
							MmbId: common.Max35Text(account.BankAccountNumber),
						},
					},
				},
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: &[]common.Max140Text{common.Max140Text(payee)}[0],
				},
			},
		},
	}

	return doc, nil
}

// BuildPacs002 creates a pacs.002 status report confirming what the bank did
// with a queued disbursement.
func (s *SettlementService) BuildPacs002(txn *models.Transaction, status string) (*pacs_v08.FIToFIPaymentStatusReportV08, error) {
	msgId := uuid.New().String()
	creDtTm := time.Now()

	doc := &pacs_v08.FIToFIPaymentStatusReportV08{
		GrpHdr: pacs_v08.GroupHeader53{
			MsgId:   common.Max35Text(msgId),
			CreDtTm: common.ISODateTime(creDtTm),
		},
		TxInfAndSts: []pacs_v08.PaymentTransaction80{
			{
				OrgnlInstrId:    &[]common.Max35Text{common.Max35Text(txn.ID)}[0],
				OrgnlEndToEndId: &[]common.Max35Text{common.Max35Text(txn.ReferenceNumber)}[0],
				OrgnlTxId:       &[]common.Max35Text{common.Max35Text(txn.ID)}[0],
				TxSts:           &[]pacs_v08.ExternalPaymentTransactionStatus1Code{pacs_v08.ExternalPaymentTransactionStatus1Code(status)}[0],
			},
		},
	}

	return doc, nil
}

// SendStatusReport emits the pacs.002 for a cleared disbursement.
func (s *SettlementService) SendStatusReport(txn *models.Transaction, status string) error {
	doc, err := s.BuildPacs002(txn, status)
	if err != nil {
		return err
	}

	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal XML: %w", err)
	}

	// TODO: deliver to the bank's settlement endpoint once one is agreed
	log.Printf("[SETTLEMENT] Status report for %s: %s", txn.ID, string(xmlData))
	return nil
}

// ConvertToXML converts an ISO 20022 document to an XML string.
func (s *SettlementService) ConvertToXML(doc interface{}) (string, error) {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return xml.Header + string(xmlData), nil
}

func (s *SettlementService) fetchDisbursement(txID string) (*models.Transaction, *models.TrustAccount, error) {
	txn := &models.Transaction{}
	account := &models.TrustAccount{}
	err := s.db.QueryRow(`
		SELECT t.id, t.trust_account_id, t.client_ledger_id, t.type, t.amount, t.balance_after,
		       t.description, t.reference_number, t.status, t.created_by, t.created_at,
		       a.account_name, a.bank_account_number
		FROM iolta_transactions t
		JOIN trust_accounts a ON a.id = t.trust_account_id
		WHERE t.id = $1`, txID).Scan(
		&txn.ID, &txn.TrustAccountID, &txn.ClientLedgerID, &txn.Type, &txn.Amount,
		&txn.BalanceAfter, &txn.Description, &txn.ReferenceNumber, &txn.Status,
		&txn.CreatedBy, &txn.CreatedAt,
		&account.AccountName, &account.BankAccountNumber)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, &PersistenceError{Op: "fetch disbursement", Err: err}
	}
	account.ID = txn.TrustAccountID
	return txn, account, nil
}
