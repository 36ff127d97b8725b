// Package postgres implements the repositories over pgx.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/infrastructure/persistence"
)

const paymentColumns = `id, gateway, total, currency, captured_amount, charge_status, is_active,
		       order_id, token, billing, customer_email, customer_ip_address, customer_id,
		       created_at, updated_at`

const transactionColumns = `id, payment_id, kind, amount, currency, success, action_required,
		       gateway_transaction_id, error, raw_response, created_at`

type PaymentRepository struct {
	db *persistence.DB
	q  persistence.Executor
}

func NewPaymentRepository(db *persistence.DB) *PaymentRepository {
	return &PaymentRepository{db: db, q: db.Pool}
}

func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	billing, err := marshalBilling(payment.Billing)
	if err != nil {
		return err
	}

	_, err = r.q.Exec(ctx, query,
		payment.ID,
		payment.Gateway,
		payment.Total,
		payment.Currency,
		payment.CapturedAmount,
		payment.ChargeStatus,
		payment.IsActive,
		payment.OrderID,
		payment.Token,
		billing,
		payment.CustomerEmail,
		payment.CustomerIPAddress,
		payment.CustomerID,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.q.QueryRow(ctx, query, id))
}

// FindByIDForUpdate locks the payment row until the surrounding transaction
// ends. Outside a transaction the lock is released immediately, so callers
// that rely on it must go through WithTx.
func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	return scanPayment(r.q.QueryRow(ctx, query, id))
}

func (r *PaymentRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return scanPayment(r.q.QueryRow(ctx, query, orderID))
}

func (r *PaymentRepository) Update(ctx context.Context, payment *domain.Payment) error {
	query := `
		UPDATE payments
		SET captured_amount = $2, charge_status = $3, is_active = $4,
		    customer_id = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		payment.ID,
		payment.CapturedAmount,
		payment.ChargeStatus,
		payment.IsActive,
		payment.CustomerID,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPaymentNotFound
	}
	return nil
}

func (r *PaymentRepository) CreateTransaction(ctx context.Context, txn *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.q.Exec(ctx, query,
		txn.ID,
		txn.PaymentID,
		txn.Kind,
		txn.Amount,
		txn.Currency,
		txn.Success,
		txn.ActionRequired,
		txn.GatewayTransactionID,
		txn.Error,
		txn.RawResponse,
		txn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *PaymentRepository) ListTransactions(ctx context.Context, paymentID uuid.UUID) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE payment_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.q.Query(ctx, query, paymentID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}

	results, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Transaction, error) {
		return scanTransaction(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan transactions: %w", err)
	}
	return results, nil
}

func (r *PaymentRepository) SumSuccessfulAmounts(ctx context.Context, paymentID uuid.UUID, kind domain.TransactionKind) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE payment_id = $1 AND kind = $2 AND success
	`

	var total decimal.Decimal
	if err := r.q.QueryRow(ctx, query, paymentID, kind).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum %s transactions: %w", kind, err)
	}
	return total, nil
}

func (r *PaymentRepository) LastSuccessfulTransaction(ctx context.Context, paymentID uuid.UUID, kind domain.TransactionKind) (*domain.Transaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE payment_id = $1 AND kind = $2 AND success
		ORDER BY created_at DESC
		LIMIT 1
	`

	txn, err := scanTransaction(r.q.QueryRow(ctx, query, paymentID, kind))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// WithTx executes fn within one database transaction, switching the executor
// to the transaction for every repository call fn makes.
func (r *PaymentRepository) WithTx(ctx context.Context, fn func(application.PaymentRepository) error) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	repoWithTx := &PaymentRepository{db: r.db, q: tx}
	if err := fn(repoWithTx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanPayment(row pgx.Row) (*domain.Payment, error) {
	var p domain.Payment
	var billing []byte

	err := row.Scan(
		&p.ID,
		&p.Gateway,
		&p.Total,
		&p.Currency,
		&p.CapturedAmount,
		&p.ChargeStatus,
		&p.IsActive,
		&p.OrderID,
		&p.Token,
		&billing,
		&p.CustomerEmail,
		&p.CustomerIPAddress,
		&p.CustomerID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan payment: %w", err)
	}

	if len(billing) > 0 {
		var addr domain.AddressData
		if err := json.Unmarshal(billing, &addr); err != nil {
			return nil, fmt.Errorf("decode billing address: %w", err)
		}
		p.Billing = &addr
	}
	return &p, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var t domain.Transaction
	err := row.Scan(
		&t.ID,
		&t.PaymentID,
		&t.Kind,
		&t.Amount,
		&t.Currency,
		&t.Success,
		&t.ActionRequired,
		&t.GatewayTransactionID,
		&t.Error,
		&t.RawResponse,
		&t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	return &t, nil
}

func marshalBilling(billing *domain.AddressData) ([]byte, error) {
	if billing == nil {
		return nil, nil
	}
	raw, err := json.Marshal(billing)
	if err != nil {
		return nil, fmt.Errorf("encode billing address: %w", err)
	}
	return raw, nil
}

var _ application.PaymentRepository = (*PaymentRepository)(nil)
