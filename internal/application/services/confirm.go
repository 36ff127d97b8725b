package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
)

// Confirm finishes a payment that was halted waiting for a customer-side
// action, such as a 3-D Secure challenge. The provider is asked for the
// intent's current state first, so a challenge the customer already completed
// is not confirmed twice.
func (s *PaymentService) Confirm(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*domain.Payment, error) {
	type request struct {
		Operation string    `json:"operation"`
		PaymentID uuid.UUID `json:"payment_id"`
	}

	return s.withIdempotency(ctx, idempotencyKey, request{"confirm", paymentID}, func() (*domain.Payment, error) {
		var payment *domain.Payment
		var failure string
		var failed bool

		err := s.repo.WithTx(ctx, func(tx application.PaymentRepository) error {
			p, err := tx.FindByIDForUpdate(ctx, paymentID)
			if err != nil {
				return err
			}
			if err := p.CanConfirm(); err != nil {
				return err
			}

			token, err := chargeToken(ctx, tx, p, domain.TransactionKindAuth)
			if err != nil {
				return err
			}

			gw, config, err := s.gateways.GetGateway(ctx, p.Gateway)
			if err != nil {
				return err
			}

			resp, err := gw.Confirm(ctx, paymentData(p, p.UncapturedAmount(), token), config)
			if err != nil {
				return fmt.Errorf("confirm via %s: %w", p.Gateway, err)
			}

			txn := transactionFromResponse(p, domain.TransactionKindCapture, resp)
			if err := tx.CreateTransaction(ctx, txn); err != nil {
				return err
			}

			switch {
			case resp.Success && resp.ActionRequired:
				p.ApplyAuthorize(resp.CustomerID)
				if err := tx.Update(ctx, p); err != nil {
					return err
				}
				s.logger.Info("confirmation still pending customer action", "payment_id", p.ID)
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
			s.logger.Warn("confirmation declined", "payment_id", paymentID, "reason", failure)
			return payment, application.NewGatewayError(failure)
		}

		s.logger.Info("payment confirmed", "payment_id", paymentID, "status", payment.ChargeStatus)
		return payment, nil
	})
}
