package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

// ProcessPayment is the one-call checkout entry point. Intent-based providers
// may perform an authorize-and-capture in one step or halt with an
// action-required transaction that a later Confirm resolves.
func (s *PaymentService) ProcessPayment(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*domain.Payment, error) {
	type request struct {
		Operation string    `json:"operation"`
		PaymentID uuid.UUID `json:"payment_id"`
	}

	return s.withIdempotency(ctx, idempotencyKey, request{"process", paymentID}, func() (*domain.Payment, error) {
		var payment *domain.Payment
		var failure string
		var failed bool

		err := s.repo.WithTx(ctx, func(tx application.PaymentRepository) error {
			p, err := tx.FindByIDForUpdate(ctx, paymentID)
			if err != nil {
				return err
			}
			if err := p.CanAuthorize(); err != nil {
				return err
			}

			gw, config, err := s.gateways.GetGateway(ctx, p.Gateway)
			if err != nil {
				return err
			}

			resp, err := gw.ProcessPayment(ctx, paymentData(p, p.Total, p.Token), config)
			if err != nil {
				return fmt.Errorf("process via %s: %w", p.Gateway, err)
			}

			txn := transactionFromResponse(p, gateway.AuthorizeKind(config), resp)
			if err := tx.CreateTransaction(ctx, txn); err != nil {
				return err
			}

			switch {
			case resp.Success && resp.ActionRequired:
				// The provider-side customer is created on this first call and
				// never reported again; store it even though the charge status
				// must wait for the customer action.
				p.ApplyAuthorize(resp.CustomerID)
				if err := tx.Update(ctx, p); err != nil {
					return err
				}
				s.logger.Info("payment needs customer action",
					"payment_id", p.ID, "transaction_id", txn.GatewayTransactionID)
			case resp.Success:
				p.ApplyAuthorize(resp.CustomerID)
				if txn.Kind == domain.TransactionKindCapture {
					p.ApplyCapture(txn.Amount)
				}
				if err := tx.Update(ctx, p); err != nil {
					return err
				}
			default:
				failed, failure = true, resp.Error
			}

			payment = p
			return nil
		})
		if err != nil {
			return nil, application.FromError(err)
		}
		if failed {
			s.logger.Warn("payment processing declined", "payment_id", paymentID, "reason", failure)
			return payment, application.NewGatewayError(failure)
		}

		s.logger.Info("payment processed", "payment_id", paymentID, "status", payment.ChargeStatus)
		return payment, nil
	})
}
