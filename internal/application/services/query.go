package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

func (s *PaymentService) GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, application.FromError(err)
	}
	return payment, nil
}

func (s *PaymentService) GetPaymentByOrder(ctx context.Context, orderID string) (*domain.Payment, error) {
	payment, err := s.repo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, application.FromError(err)
	}
	return payment, nil
}

// ListTransactions returns the payment's full ledger, oldest first.
func (s *PaymentService) ListTransactions(ctx context.Context, paymentID uuid.UUID) ([]*domain.Transaction, error) {
	if _, err := s.repo.FindByID(ctx, paymentID); err != nil {
		return nil, application.FromError(err)
	}

	transactions, err := s.repo.ListTransactions(ctx, paymentID)
	if err != nil {
		return nil, application.NewInternalError(err)
	}
	return transactions, nil
}

// ListPaymentSources lists the reusable payment methods a provider has stored
// for a customer.
func (s *PaymentService) ListPaymentSources(ctx context.Context, gatewayName, customerID string) ([]gateway.CustomerSource, error) {
	if customerID == "" {
		return nil, application.NewValidationError("customer_id", "A customer ID is required.")
	}

	gw, config, err := s.gateways.GetGateway(ctx, gatewayName)
	if err != nil {
		return nil, application.FromError(err)
	}

	sources, err := gw.ListClientSources(ctx, config, customerID)
	if err != nil {
		return nil, application.FromError(fmt.Errorf("list sources via %s: %w", gatewayName, err))
	}
	return sources, nil
}
