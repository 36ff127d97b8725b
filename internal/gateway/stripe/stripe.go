// Package stripe adapts canonical payment operations to an intent-based
// provider API.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

// Intent statuses the adapter reacts to.
const (
	statusSucceeded       = "succeeded"
	statusRequiresCapture = "requires_capture"
	statusRequiresAction  = "requires_action"
	statusCanceled        = "canceled"
)

type Gateway struct{}

func New() *Gateway {
	return &Gateway{}
}

// client builds a provider client from the resolved gateway configuration.
// A missing secret key is a configuration error and propagates as a Go error.
func (g *Gateway) client(config gateway.Config) (*Client, error) {
	secretKey := config.ConnectionParams["secret_key"]
	if secretKey == "" {
		return nil, fmt.Errorf("stripe gateway: missing secret_key in connection params")
	}
	return NewClient(config.ConnectionParams["api_base"], secretKey), nil
}

// Authorize creates and confirms a payment intent. With AutoCapture set the
// intent charges immediately and the result is CAPTURE-kind; otherwise funds
// are only reserved and the result is AUTH-kind. A requires_action status is
// surfaced as ActionRequired and must halt automatic progression until the
// caller resolves the challenge via Confirm.
func (g *Gateway) Authorize(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	kind := gateway.AuthorizeKind(config)

	client, err := g.client(config)
	if err != nil {
		return gateway.Response{}, err
	}

	currency := strings.ToLower(payment.Currency)
	params := url.Values{}
	params.Set("payment_method", payment.Token)
	params.Set("amount", fmt.Sprintf("%d", toMinorUnits(payment.Amount, payment.Currency)))
	params.Set("currency", currency)
	params.Set("confirm", "true")
	params.Set("confirmation_method", "manual")
	if config.AutoCapture {
		params.Set("capture_method", "automatic")
	} else {
		params.Set("capture_method", "manual")
	}
	if config.StoreCustomer {
		params.Set("setup_future_usage", "off_session")
	}
	customerID := ""
	if payment.ReuseSource && payment.CustomerID != "" {
		customerID = payment.CustomerID
		params.Set("customer", customerID)
	}

	intent, raw, err := client.CreateIntent(ctx, params)
	if err != nil {
		return failedResponse(payment, kind, raw, err), nil
	}

	if config.StoreCustomer && customerID == "" {
		customerParams := url.Values{}
		customerParams.Set("payment_method", intent.PaymentMethod)
		customer, _, customerErr := client.CreateCustomer(ctx, customerParams)
		if customerErr == nil {
			customerID = customer.ID
		}
	}

	return gateway.Response{
		Success:        intent.Status == statusSucceeded || intent.Status == statusRequiresCapture || intent.Status == statusRequiresAction,
		ActionRequired: intent.Status == statusRequiresAction,
		Kind:           kind,
		Amount:         fromMinorUnits(intent.Amount, intent.Currency),
		Currency:       strings.ToUpper(intent.Currency),
		TransactionID:  intent.ID,
		RawResponse:    raw,
		CustomerID:     customerID,
	}, nil
}

// Capture charges a previously authorized intent. The intent is retrieved
// first so a reference that was already captured or voided remotely yields a
// best-effort failed response instead of a panic.
func (g *Gateway) Capture(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	client, err := g.client(config)
	if err != nil {
		return gateway.Response{}, err
	}

	intent, raw, err := client.RetrieveIntent(ctx, payment.Token)
	if err != nil {
		return failedResponse(payment, domain.TransactionKindCapture, raw, err), nil
	}

	params := url.Values{}
	params.Set("amount_to_capture", fmt.Sprintf("%d", toMinorUnits(payment.Amount, payment.Currency)))

	captured, raw, err := client.CaptureIntent(ctx, intent.ID, params)
	if err != nil {
		resp := failedResponse(payment, domain.TransactionKindCapture, raw, err)
		resp.ActionRequired = intent.Status == statusRequiresAction
		return resp, nil
	}

	return gateway.Response{
		Success:       captured.Status == statusSucceeded,
		Kind:          domain.TransactionKindCapture,
		Amount:        fromMinorUnits(captured.Amount, captured.Currency),
		Currency:      strings.ToUpper(captured.Currency),
		TransactionID: captured.ID,
		RawResponse:   raw,
	}, nil
}

// Confirm resolves a pending out-of-band challenge. The intent is retrieved
// fresh and its own status decides the outcome; an intent that already
// succeeded is reported as a duplicate-safe success.
func (g *Gateway) Confirm(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	client, err := g.client(config)
	if err != nil {
		return gateway.Response{}, err
	}

	intent, raw, err := client.RetrieveIntent(ctx, payment.Token)
	if err != nil {
		return failedResponse(payment, domain.TransactionKindCapture, raw, err), nil
	}

	if intent.Status != statusSucceeded {
		intent, raw, err = client.ConfirmIntent(ctx, intent.ID)
		if err != nil {
			return failedResponse(payment, domain.TransactionKindCapture, raw, err), nil
		}
	}

	return gateway.Response{
		Success:        intent.Status == statusSucceeded,
		ActionRequired: intent.Status == statusRequiresAction,
		Kind:           domain.TransactionKindCapture,
		Amount:         fromMinorUnits(intent.Amount, intent.Currency),
		Currency:       strings.ToUpper(intent.Currency),
		TransactionID:  intent.ID,
		RawResponse:    raw,
	}, nil
}

// Refund returns previously captured funds on the intent's charge.
func (g *Gateway) Refund(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	client, err := g.client(config)
	if err != nil {
		return gateway.Response{}, err
	}

	params := url.Values{}
	params.Set("payment_intent", payment.Token)
	params.Set("amount", fmt.Sprintf("%d", toMinorUnits(payment.Amount, payment.Currency)))

	refund, raw, err := client.CreateRefund(ctx, params)
	if err != nil {
		return failedResponse(payment, domain.TransactionKindRefund, raw, err), nil
	}

	return gateway.Response{
		Success:       refund.Status == statusSucceeded || refund.Status == "pending",
		Kind:          domain.TransactionKindRefund,
		Amount:        payment.Amount,
		Currency:      strings.ToUpper(refund.Currency),
		TransactionID: refund.ID,
		RawResponse:   raw,
	}, nil
}

// Void cancels an uncaptured intent. Canceling an intent the provider already
// settled or canceled comes back as a failed response, never a panic.
func (g *Gateway) Void(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	client, err := g.client(config)
	if err != nil {
		return gateway.Response{}, err
	}

	intent, raw, err := client.CancelIntent(ctx, payment.Token)
	if err != nil {
		return failedResponse(payment, domain.TransactionKindVoid, raw, err), nil
	}

	return gateway.Response{
		Success:       intent.Status == statusCanceled,
		Kind:          domain.TransactionKindVoid,
		Amount:        fromMinorUnits(intent.Amount, intent.Currency),
		Currency:      strings.ToUpper(intent.Currency),
		TransactionID: intent.ID,
		RawResponse:   raw,
	}, nil
}

// ProcessPayment performs Authorize; with manual confirmation flows the
// requires_action state comes back as ActionRequired and the caller must
// Confirm before anything progresses.
func (g *Gateway) ProcessPayment(ctx context.Context, payment gateway.PaymentData, config gateway.Config) (gateway.Response, error) {
	return g.Authorize(ctx, payment, config)
}

func (g *Gateway) ListClientSources(ctx context.Context, config gateway.Config, customerID string) ([]gateway.CustomerSource, error) {
	client, err := g.client(config)
	if err != nil {
		return nil, err
	}

	methods, err := client.ListPaymentMethods(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list payment methods: %w", err)
	}

	sources := make([]gateway.CustomerSource, 0, len(methods))
	for _, m := range methods {
		sources = append(sources, gateway.CustomerSource{
			ID:      m.ID,
			Gateway: "stripe",
			CreditCard: &gateway.CreditCardInfo{
				ExpYear:  m.Card.ExpYear,
				ExpMonth: m.Card.ExpMonth,
				Last4:    m.Card.Last4,
			},
		})
	}
	return sources, nil
}

// failedResponse folds a provider failure into the canonical envelope.
func failedResponse(payment gateway.PaymentData, kind domain.TransactionKind, raw json.RawMessage, err error) gateway.Response {
	message := err.Error()
	if apiErr, ok := IsAPIError(err); ok {
		message = apiErr.UserMessage()
		if raw == nil {
			raw = apiErr.Raw
		}
	}
	return gateway.Response{
		Success:       false,
		Kind:          kind,
		Amount:        payment.Amount,
		Currency:      payment.Currency,
		TransactionID: payment.Token,
		Error:         message,
		RawResponse:   raw,
	}
}

var _ gateway.Gateway = (*Gateway)(nil)
