package services_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

// memoryPaymentRepository is an in-memory PaymentRepository. WithTx runs the
// callback against the same store; the tests only assert orchestration
// semantics, not isolation.
type memoryPaymentRepository struct {
	mu           sync.Mutex
	payments     map[uuid.UUID]domain.Payment
	transactions []domain.Transaction
}

func newMemoryPaymentRepository() *memoryPaymentRepository {
	return &memoryPaymentRepository{payments: map[uuid.UUID]domain.Payment{}}
}

func (r *memoryPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments[payment.ID] = *payment
	return nil
}

func (r *memoryPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	clone := p
	return &clone, nil
}

func (r *memoryPaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	return r.FindByID(ctx, id)
}

func (r *memoryPaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.payments {
		if p.OrderID == orderID {
			clone := p
			return &clone, nil
		}
	}
	return nil, domain.ErrPaymentNotFound
}

func (r *memoryPaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.payments[payment.ID]; !ok {
		return domain.ErrPaymentNotFound
	}
	r.payments[payment.ID] = *payment
	return nil
}

func (r *memoryPaymentRepository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = append(r.transactions, *txn)
	return nil
}

func (r *memoryPaymentRepository) ListTransactions(ctx context.Context, paymentID uuid.UUID) ([]*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Transaction
	for i := range r.transactions {
		if r.transactions[i].PaymentID == paymentID {
			clone := r.transactions[i]
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memoryPaymentRepository) SumSuccessfulAmounts(ctx context.Context, paymentID uuid.UUID, kind domain.TransactionKind) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := decimal.Zero
	for _, t := range r.transactions {
		if t.PaymentID == paymentID && t.Kind == kind && t.Success {
			total = total.Add(t.Amount)
		}
	}
	return total, nil
}

func (r *memoryPaymentRepository) LastSuccessfulTransaction(ctx context.Context, paymentID uuid.UUID, kind domain.TransactionKind) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.transactions) - 1; i >= 0; i-- {
		t := r.transactions[i]
		if t.PaymentID == paymentID && t.Kind == kind && t.Success {
			return &t, nil
		}
	}
	return nil, nil
}

func (r *memoryPaymentRepository) WithTx(ctx context.Context, fn func(application.PaymentRepository) error) error {
	return fn(r)
}

// memoryIdempotencyRepository is an in-memory IdempotencyRepository.
type memoryIdempotencyRepository struct {
	mu      sync.Mutex
	records map[string]application.IdempotencyRecord
}

func newMemoryIdempotencyRepository() *memoryIdempotencyRepository {
	return &memoryIdempotencyRepository{records: map[string]application.IdempotencyRecord{}}
}

func (r *memoryIdempotencyRepository) Create(ctx context.Context, record *application.IdempotencyRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.Key]; ok {
		return application.ErrDuplicateIdempotencyKey
	}
	r.records[record.Key] = *record
	return nil
}

func (r *memoryIdempotencyRepository) Find(ctx context.Context, key string) (*application.IdempotencyRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[key]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	clone := record
	return &clone, nil
}

func (r *memoryIdempotencyRepository) Complete(ctx context.Context, key string, paymentID uuid.UUID, failureMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record := r.records[key]
	now := time.Now()
	record.PaymentID = &paymentID
	record.FailureMessage = failureMessage
	record.CompletedAt = &now
	r.records[key] = record
	return nil
}

func (r *memoryIdempotencyRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, key)
	return nil
}

// staticResolver hands out one gateway and configuration for every name.
type staticResolver struct {
	gw     gateway.Gateway
	config gateway.Config
}

func (r *staticResolver) GetGateway(ctx context.Context, name string) (gateway.Gateway, gateway.Config, error) {
	return r.gw, r.config, nil
}

// scriptedGateway answers every operation with a fixed response.
type scriptedGateway struct {
	response gateway.Response
}

func (g *scriptedGateway) Authorize(ctx context.Context, p gateway.PaymentData, c gateway.Config) (gateway.Response, error) {
	return g.response, nil
}

func (g *scriptedGateway) Capture(ctx context.Context, p gateway.PaymentData, c gateway.Config) (gateway.Response, error) {
	return g.response, nil
}

func (g *scriptedGateway) Confirm(ctx context.Context, p gateway.PaymentData, c gateway.Config) (gateway.Response, error) {
	return g.response, nil
}

func (g *scriptedGateway) Refund(ctx context.Context, p gateway.PaymentData, c gateway.Config) (gateway.Response, error) {
	return g.response, nil
}

func (g *scriptedGateway) Void(ctx context.Context, p gateway.PaymentData, c gateway.Config) (gateway.Response, error) {
	return g.response, nil
}

func (g *scriptedGateway) ProcessPayment(ctx context.Context, p gateway.PaymentData, c gateway.Config) (gateway.Response, error) {
	return g.response, nil
}

func (g *scriptedGateway) ListClientSources(ctx context.Context, c gateway.Config, customerID string) ([]gateway.CustomerSource, error) {
	return nil, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
