package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
)

// Capture settles previously reserved funds. amount defaults to the full
// still-uncaptured remainder when nil. The provider call targets the last
// successful authorization's reference, falling back to the client token when
// no authorization was recorded.
func (s *PaymentService) Capture(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, idempotencyKey string) (*domain.Payment, error) {
	type request struct {
		Operation string           `json:"operation"`
		PaymentID uuid.UUID        `json:"payment_id"`
		Amount    *decimal.Decimal `json:"amount"`
	}

	return s.withIdempotency(ctx, idempotencyKey, request{"capture", paymentID, amount}, func() (*domain.Payment, error) {
		var payment *domain.Payment
		var failure string
		var failed bool

		err := s.repo.WithTx(ctx, func(tx application.PaymentRepository) error {
			p, err := tx.FindByIDForUpdate(ctx, paymentID)
			if err != nil {
				return err
			}

			captureAmount := p.UncapturedAmount()
			if amount != nil {
				captureAmount = *amount
			}
			if err := p.CanCapture(captureAmount); err != nil {
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

			resp, err := gw.Capture(ctx, paymentData(p, captureAmount, token), config)
			if err != nil {
				return fmt.Errorf("capture via %s: %w", p.Gateway, err)
			}

			txn := transactionFromResponse(p, domain.TransactionKindCapture, resp)
			if err := tx.CreateTransaction(ctx, txn); err != nil {
				return err
			}

			if resp.Success {
				p.ApplyCapture(txn.Amount)
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
			s.logger.Warn("capture declined", "payment_id", paymentID, "reason", failure)
			return payment, application.NewGatewayError(failure)
		}

		s.logger.Info("payment captured",
			"payment_id", paymentID,
			"captured_amount", payment.CapturedAmount,
			"status", payment.ChargeStatus,
		)
		return payment, nil
	})
}
