package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
)

// Refund returns captured funds. amount defaults to everything still
// refundable when nil. CapturedAmount stays monotone; the already-refunded
// total is derived from the ledger's successful REFUND entries inside the same
// locked transaction.
func (s *PaymentService) Refund(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, idempotencyKey string) (*domain.Payment, error) {
	type request struct {
		Operation string           `json:"operation"`
		PaymentID uuid.UUID        `json:"payment_id"`
		Amount    *decimal.Decimal `json:"amount"`
	}

	return s.withIdempotency(ctx, idempotencyKey, request{"refund", paymentID, amount}, func() (*domain.Payment, error) {
		var payment *domain.Payment
		var failure string
		var failed bool

		err := s.repo.WithTx(ctx, func(tx application.PaymentRepository) error {
			p, err := tx.FindByIDForUpdate(ctx, paymentID)
			if err != nil {
				return err
			}

			refunded, err := tx.SumSuccessfulAmounts(ctx, p.ID, domain.TransactionKindRefund)
			if err != nil {
				return err
			}

			refundAmount := p.CapturedAmount.Sub(refunded)
			if amount != nil {
				refundAmount = *amount
			}
			if err := p.CanRefund(refundAmount, refunded); err != nil {
				return err
			}

			token, err := chargeToken(ctx, tx, p, domain.TransactionKindCapture)
			if err != nil {
				return err
			}

			gw, config, err := s.gateways.GetGateway(ctx, p.Gateway)
			if err != nil {
				return err
			}

			resp, err := gw.Refund(ctx, paymentData(p, refundAmount, token), config)
			if err != nil {
				return fmt.Errorf("refund via %s: %w", p.Gateway, err)
			}

			txn := transactionFromResponse(p, domain.TransactionKindRefund, resp)
			if err := tx.CreateTransaction(ctx, txn); err != nil {
				return err
			}

			if resp.Success {
				p.ApplyRefund(refunded.Add(txn.Amount))
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
			s.logger.Warn("refund declined", "payment_id", paymentID, "reason", failure)
			return payment, application.NewGatewayError(failure)
		}

		s.logger.Info("payment refunded", "payment_id", paymentID, "status", payment.ChargeStatus)
		return payment, nil
	})
}
