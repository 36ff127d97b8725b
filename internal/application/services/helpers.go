package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

// paymentData builds the canonical adapter request from the stored payment.
// token overrides the client token when a later operation must reference a
// provider-side transaction instead, such as capturing a prior authorization.
func paymentData(p *domain.Payment, amount decimal.Decimal, token string) gateway.PaymentData {
	data := gateway.PaymentData{
		Token:             token,
		Amount:            amount,
		Currency:          p.Currency,
		Billing:           p.Billing,
		OrderID:           p.OrderID,
		CustomerIPAddress: p.CustomerIPAddress,
		CustomerEmail:     p.CustomerEmail,
	}
	if p.CustomerID != nil {
		data.CustomerID = *p.CustomerID
		data.ReuseSource = true
	}
	return data
}

// transactionFromResponse turns an adapter response into the single ledger
// entry every orchestrator call appends. The adapter's kind wins when set;
// fallback covers adapters that leave it empty on hard failures.
func transactionFromResponse(p *domain.Payment, fallback domain.TransactionKind, resp gateway.Response) *domain.Transaction {
	kind := resp.Kind
	if kind == "" {
		kind = fallback
	}
	amount := resp.Amount
	if amount.IsZero() {
		amount = p.Total
	}
	currency := resp.Currency
	if currency == "" {
		currency = p.Currency
	}

	txn := domain.NewTransaction(p.ID, kind, amount, currency)
	txn.Success = resp.Success
	txn.ActionRequired = resp.ActionRequired
	txn.GatewayTransactionID = resp.TransactionID
	txn.RawResponse = resp.RawResponse
	if resp.Error != "" {
		msg := resp.Error
		txn.Error = &msg
	}
	return txn
}

// chargeToken resolves the provider reference a follow-up operation should
// target: the last successful transaction of the given kind, falling back to
// the client token recorded at creation.
func chargeToken(ctx context.Context, repo application.PaymentRepository, p *domain.Payment, kind domain.TransactionKind) (string, error) {
	txn, err := repo.LastSuccessfulTransaction(ctx, p.ID, kind)
	if err != nil {
		return "", fmt.Errorf("resolve %s token: %w", kind, err)
	}
	if txn != nil && txn.GatewayTransactionID != "" {
		return txn.GatewayTransactionID, nil
	}
	return p.Token, nil
}

// requestHash fingerprints a request body so idempotent replays can be told
// apart from key reuse with a different body.
func requestHash(request any) string {
	raw, err := json.Marshal(request)
	if err != nil {
		raw = []byte(fmt.Sprintf("%+v", request))
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// withIdempotency wraps a mutation with key-based replay protection. An empty
// key disables the guard. A completed key with a matching request hash returns
// the stored payment, and the stored decline if the original call failed at
// the provider, without re-invoking the operation; a hash mismatch and an
// in-flight key are both rejected.
func (s *PaymentService) withIdempotency(ctx context.Context, key string, request any, op func() (*domain.Payment, error)) (*domain.Payment, error) {
	if key == "" {
		return op()
	}

	hash := requestHash(request)
	record := &application.IdempotencyRecord{
		Key:         key,
		RequestHash: hash,
		LockedAt:    time.Now(),
	}

	if err := s.idempotency.Create(ctx, record); err != nil {
		if !errors.Is(err, application.ErrDuplicateIdempotencyKey) {
			return nil, application.NewInternalError(err)
		}

		existing, findErr := s.idempotency.Find(ctx, key)
		if findErr != nil {
			return nil, application.NewInternalError(findErr)
		}
		if existing.RequestHash != hash {
			return nil, application.NewIdempotencyMismatchError()
		}
		if existing.CompletedAt == nil || existing.PaymentID == nil {
			return nil, application.NewRequestInFlightError()
		}

		s.logger.Info("idempotent replay", "key", key, "payment_id", *existing.PaymentID)
		replayed, findErr := s.repo.FindByID(ctx, *existing.PaymentID)
		if findErr != nil {
			return nil, application.FromError(findErr)
		}
		if existing.FailureMessage != nil {
			return replayed, application.NewGatewayError(*existing.FailureMessage)
		}
		return replayed, nil
	}

	payment, err := op()
	if payment == nil {
		// Nothing was recorded; release the key so the caller can retry
		// after fixing the request.
		if delErr := s.idempotency.Delete(ctx, key); delErr != nil {
			s.logger.Error("release idempotency key", "key", key, "error", delErr)
		}
		return nil, err
	}

	// The attempt reached the ledger. Completing even on a declined call keeps
	// a replay from charging the customer twice; the decline message rides on
	// the record so the replay answers like the original request.
	var failureMessage *string
	var svcErr *application.ServiceError
	if errors.As(err, &svcErr) && svcErr.Code == application.CodeGatewayError {
		msg := svcErr.Message
		failureMessage = &msg
	}
	if cmplErr := s.idempotency.Complete(ctx, key, payment.ID, failureMessage); cmplErr != nil {
		s.logger.Error("complete idempotency key", "key", key, "error", cmplErr)
	}
	return payment, err
}
