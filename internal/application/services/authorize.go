package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

// Authorize reserves the full payment amount at the provider. With
// auto-capture enabled on the gateway the reservation charges immediately and
// the ledger entry is a CAPTURE.
//
// A declined or errored provider call still commits its ledger entry; the
// returned error then carries the provider's message.
func (s *PaymentService) Authorize(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*domain.Payment, error) {
	type request struct {
		Operation string    `json:"operation"`
		PaymentID uuid.UUID `json:"payment_id"`
	}

	return s.withIdempotency(ctx, idempotencyKey, request{"authorize", paymentID}, func() (*domain.Payment, error) {
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

			resp, err := gw.Authorize(ctx, paymentData(p, p.Total, p.Token), config)
			if err != nil {
				return fmt.Errorf("authorize via %s: %w", p.Gateway, err)
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
				s.logger.Info("authorization needs customer action",
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
			s.logger.Warn("authorization declined", "payment_id", paymentID, "reason", failure)
			return payment, application.NewGatewayError(failure)
		}

		s.logger.Info("payment authorized", "payment_id", paymentID, "status", payment.ChargeStatus)
		return payment, nil
	})
}
