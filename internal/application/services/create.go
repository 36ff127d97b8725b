package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
)

// CreatePaymentCommand carries everything needed to open a payment against a
// checkout. CheckoutTotal, when set, must equal Amount: the service rejects
// partial payments.
type CreatePaymentCommand struct {
	Gateway           string              `json:"gateway"`
	Token             string              `json:"token"`
	Amount            decimal.Decimal     `json:"amount"`
	Currency          string              `json:"currency"`
	CheckoutTotal     decimal.Decimal     `json:"checkout_total"`
	OrderID           string              `json:"order_id"`
	CustomerEmail     string              `json:"customer_email"`
	CustomerIPAddress string              `json:"customer_ip_address"`
	Billing           *domain.AddressData `json:"billing"`
}

// CreatePayment opens a new payment in NOT_CHARGED. No gateway call is made;
// money only moves through the explicit operations that follow.
func (s *PaymentService) CreatePayment(ctx context.Context, cmd CreatePaymentCommand) (*domain.Payment, error) {
	if cmd.CheckoutTotal.IsPositive() && !cmd.Amount.Equal(cmd.CheckoutTotal) {
		return nil, application.NewValidationError("amount",
			"Partial payments are not allowed, amount should be equal checkout's total.")
	}

	// Resolving the gateway up front rejects unknown or inactive gateways at
	// creation instead of on the first charge attempt.
	if _, _, err := s.gateways.GetGateway(ctx, cmd.Gateway); err != nil {
		return nil, application.FromError(err)
	}

	payment, err := domain.NewPayment(
		cmd.Gateway,
		cmd.Token,
		cmd.Amount,
		cmd.Currency,
		cmd.OrderID,
		cmd.CustomerEmail,
		cmd.CustomerIPAddress,
		cmd.Billing,
	)
	if err != nil {
		return nil, application.FromError(err)
	}

	if err := s.repo.Create(ctx, payment); err != nil {
		return nil, application.NewInternalError(err)
	}

	s.logger.Info("payment created",
		"payment_id", payment.ID,
		"gateway", payment.Gateway,
		"amount", payment.Total,
		"currency", payment.Currency,
	)
	return payment, nil
}
