package application

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

// PaymentRepository persists the Payment aggregate and its append-only
// transaction ledger.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	// FindByIDForUpdate locks the payment row for the duration of the
	// surrounding transaction. Orchestrator operations serialize on it.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error)
	FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error)
	Update(ctx context.Context, payment *domain.Payment) error

	CreateTransaction(ctx context.Context, transaction *domain.Transaction) error
	ListTransactions(ctx context.Context, paymentID uuid.UUID) ([]*domain.Transaction, error)
	// SumSuccessfulAmounts totals the successful ledger entries of one kind.
	SumSuccessfulAmounts(ctx context.Context, paymentID uuid.UUID, kind domain.TransactionKind) (decimal.Decimal, error)
	// LastSuccessfulTransaction returns nil when the ledger has no successful
	// entry of the kind.
	LastSuccessfulTransaction(ctx context.Context, paymentID uuid.UUID, kind domain.TransactionKind) (*domain.Transaction, error)

	// WithTx executes fn within one database transaction.
	WithTx(ctx context.Context, fn func(PaymentRepository) error) error
}

// ErrDuplicateIdempotencyKey signals a key that already exists.
var ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

// IdempotencyRecord guards one mutation request at the HTTP boundary.
// FailureMessage holds the provider's decline message when the guarded call
// wrote its ledger entry but failed, so a replay can answer with the same
// outcome as the original request.
type IdempotencyRecord struct {
	Key            string
	RequestHash    string
	PaymentID      *uuid.UUID
	FailureMessage *string
	LockedAt       time.Time
	CompletedAt    *time.Time
}

type IdempotencyRepository interface {
	Create(ctx context.Context, record *IdempotencyRecord) error
	Find(ctx context.Context, key string) (*IdempotencyRecord, error)
	Complete(ctx context.Context, key string, paymentID uuid.UUID, failureMessage *string) error
	Delete(ctx context.Context, key string) error
}

// GatewayResolver resolves a gateway name to its adapter and call-time
// configuration. Implemented by the plugin manager.
type GatewayResolver interface {
	GetGateway(ctx context.Context, name string) (gateway.Gateway, gateway.Config, error)
}
