package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/infrastructure/persistence"
)

// IdempotencyRepository stores the per-key request guards. The primary key on
// the key column makes concurrent first writes race safely: the loser gets a
// unique violation and replays against the winner's record.
type IdempotencyRepository struct {
	db *persistence.DB
}

func NewIdempotencyRepository(db *persistence.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

func (r *IdempotencyRepository) Create(ctx context.Context, record *application.IdempotencyRecord) error {
	query := `
		INSERT INTO idempotency_keys (key, request_hash, payment_id, failure_message, locked_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		record.Key,
		record.RequestHash,
		record.PaymentID,
		record.FailureMessage,
		record.LockedAt,
		record.CompletedAt,
	)
	if persistence.IsUniqueViolation(err) {
		return application.ErrDuplicateIdempotencyKey
	}
	if err != nil {
		return fmt.Errorf("failed to create idempotency key: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) Find(ctx context.Context, key string) (*application.IdempotencyRecord, error) {
	query := `
		SELECT key, request_hash, payment_id, failure_message, locked_at, completed_at
		FROM idempotency_keys WHERE key = $1
	`

	var record application.IdempotencyRecord
	err := r.db.Pool.QueryRow(ctx, query, key).Scan(
		&record.Key,
		&record.RequestHash,
		&record.PaymentID,
		&record.FailureMessage,
		&record.LockedAt,
		&record.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("idempotency key not found: %s", key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find idempotency key: %w", err)
	}
	return &record, nil
}

func (r *IdempotencyRepository) Complete(ctx context.Context, key string, paymentID uuid.UUID, failureMessage *string) error {
	query := `
		UPDATE idempotency_keys
		SET payment_id = $2, failure_message = $3, completed_at = $4
		WHERE key = $1
	`

	if _, err := r.db.Pool.Exec(ctx, query, key, paymentID, failureMessage, time.Now()); err != nil {
		return fmt.Errorf("failed to complete idempotency key: %w", err)
	}
	return nil
}

func (r *IdempotencyRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE key = $1`, key); err != nil {
		return fmt.Errorf("failed to delete idempotency key: %w", err)
	}
	return nil
}

var _ application.IdempotencyRepository = (*IdempotencyRepository)(nil)
