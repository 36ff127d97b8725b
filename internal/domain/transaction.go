package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionKind classifies a ledger entry by the gateway operation that
// produced it.
type TransactionKind string

const (
	TransactionKindAuth    TransactionKind = "AUTH"
	TransactionKindCapture TransactionKind = "CAPTURE"
	TransactionKindRefund  TransactionKind = "REFUND"
	TransactionKindVoid    TransactionKind = "VOID"
)

// Transaction is one append-only ledger entry belonging to exactly one
// Payment. Rows are never updated or deleted; failed attempts are recorded for
// auditability just like successful ones.
type Transaction struct {
	ID             uuid.UUID
	PaymentID      uuid.UUID
	Kind           TransactionKind
	Amount         decimal.Decimal
	Currency       string
	Success        bool
	ActionRequired bool

	// GatewayTransactionID is the provider-assigned reference for this
	// operation, or the client token when the provider call failed outright.
	GatewayTransactionID string
	Error                *string
	RawResponse          json.RawMessage

	CreatedAt time.Time
}

func NewTransaction(paymentID uuid.UUID, kind TransactionKind, amount decimal.Decimal, currency string) *Transaction {
	return &Transaction{
		ID:        uuid.New(),
		PaymentID: paymentID,
		Kind:      kind,
		Amount:    amount,
		Currency:  currency,
		CreatedAt: time.Now(),
	}
}
