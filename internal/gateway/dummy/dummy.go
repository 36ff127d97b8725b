// Package dummy is a token-driven fake provider used in development and
// tests. Magic tokens force specific failure outcomes; every other token
// succeeds.
package dummy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

// Magic tokens and the errors they simulate.
const (
	TokenDeclined        = "card-declined"
	TokenExpiredCard     = "expired-card"
	TokenProcessingError = "processing-error"
)

var tokenErrors = map[string]string{
	TokenDeclined:        "Your card was declined.",
	TokenExpiredCard:     "Your card has expired.",
	TokenProcessingError: "We were unable to process your payment.",
}

type Gateway struct{}

func New() *Gateway {
	return &Gateway{}
}

func (g *Gateway) Authorize(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	return g.respond(payment, gateway.AuthorizeKind(config)), nil
}

func (g *Gateway) Capture(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	return g.respond(payment, domain.TransactionKindCapture), nil
}

func (g *Gateway) Confirm(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	return g.respond(payment, domain.TransactionKindCapture), nil
}

func (g *Gateway) Refund(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	return g.respond(payment, domain.TransactionKindRefund), nil
}

func (g *Gateway) Void(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	return g.respond(payment, domain.TransactionKindVoid), nil
}

func (g *Gateway) ProcessPayment(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	return g.Authorize(ctx, payment, config)
}

func (g *Gateway) ListClientSources(ctx context.Context, config gateway.Config, customerID string) ([]gateway.CustomerSource, error) {
	return []gateway.CustomerSource{
		{
			ID:      "dummy-source-" + customerID,
			Gateway: "dummy",
			CreditCard: &gateway.CreditCardInfo{
				ExpYear:  2034,
				ExpMonth: 12,
				Last4:    "4242",
			},
		},
	}, nil
}

func (g *Gateway) respond(payment gateway.PaymentData, kind domain.TransactionKind) gateway.Response {
	resp := gateway.Response{
		Kind:          kind,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		TransactionID: payment.Token,
	}

	if message, ok := tokenErrors[payment.Token]; ok {
		resp.Error = message
		resp.RawResponse = rawPayload(payment.Token, "failed")
		return resp
	}

	resp.Success = true
	resp.TransactionID = fmt.Sprintf("dummy-%s-%s", kind, uuid.NewString())
	resp.RawResponse = rawPayload(payment.Token, "succeeded")
	return resp
}

func rawPayload(token, status string) json.RawMessage {
	raw, _ := json.Marshal(map[string]string{"token": token, "status": status})
	return raw
}
