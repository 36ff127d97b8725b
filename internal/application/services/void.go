package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
)

// Void cancels a pre-authorization before any capture. A voided payment is
// deactivated and every later operation on it is rejected.
func (s *PaymentService) Void(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*domain.Payment, error) {
	type request struct {
		Operation string    `json:"operation"`
		PaymentID uuid.UUID `json:"payment_id"`
	}

	return s.withIdempotency(ctx, idempotencyKey, request{"void", paymentID}, func() (*domain.Payment, error) {
		var payment *domain.Payment
		var failure string
		var failed bool

		err := s.repo.WithTx(ctx, func(tx application.PaymentRepository) error {
			p, err := tx.FindByIDForUpdate(ctx, paymentID)
			if err != nil {
				return err
			}
			if err := p.CanVoid(); err != nil {
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

			resp, err := gw.Void(ctx, paymentData(p, p.Total, token), config)
			if err != nil {
				return fmt.Errorf("void via %s: %w", p.Gateway, err)
			}

			txn := transactionFromResponse(p, domain.TransactionKindVoid, resp)
			if err := tx.CreateTransaction(ctx, txn); err != nil {
				return err
			}

			if resp.Success {
				p.ApplyVoid()
				if err := tx.Update(ctx, p); err != nil {
					return err
				}
			} else {
				failed, failure = true, resp.Error
			}

			payment = p
			return nil
		})
		if err != nil {
			return nil, application.FromError(err)
		}
		if failed {
			s.logger.Warn("void declined", "payment_id", paymentID, "reason", failure)
			return payment, application.NewGatewayError(failure)
		}

		s.logger.Info("payment voided", "payment_id", paymentID)
		return payment, nil
	})
}
