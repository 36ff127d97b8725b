// Package services orchestrates payment operations: every mutation validates
// legality against the current ledger state under a row lock, invokes the
// resolved gateway adapter, appends exactly one transaction reflecting the
// outcome and mutates the payment aggregate only on success.
package services

import (
	"log/slog"

	"github.com/storefront-core/payment-service/internal/application"
)

type PaymentService struct {
	repo        application.PaymentRepository
	idempotency application.IdempotencyRepository
	gateways    application.GatewayResolver
	logger      *slog.Logger
}

func NewPaymentService(
	repo application.PaymentRepository,
	idempotency application.IdempotencyRepository,
	gateways application.GatewayResolver,
	logger *slog.Logger,
) *PaymentService {
	return &PaymentService{
		repo:        repo,
		idempotency: idempotency,
		gateways:    gateways,
		logger:      logger,
	}
}
