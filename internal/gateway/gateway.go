// Package gateway defines the canonical request/response contract every
// payment-provider adapter implements.
//
// Provider-side failures (network errors, declines, provider 4xx/5xx) are
// never returned as Go errors: an adapter folds them into a Response with
// Success=false and a human-readable Error. The error return of each method is
// reserved for configuration and programmer mistakes, such as missing
// credentials.
package gateway

import (
	"context"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/domain"
)

// Config carries the per-gateway connection parameters resolved at call time.
type Config struct {
	// AutoCapture makes Authorize charge immediately instead of only
	// reserving funds.
	AutoCapture bool
	// StoreCustomer asks the provider to store the payment method for reuse.
	StoreCustomer    bool
	ConnectionParams map[string]string
}

// PaymentData is the canonical request consumed by every adapter. It is
// immutable once constructed and passed by value.
type PaymentData struct {
	Token    string
	Amount   decimal.Decimal
	Currency string

	Billing  *domain.AddressData
	Shipping *domain.AddressData

	OrderID           string
	CustomerIPAddress string
	CustomerEmail     string

	// CustomerID is a previously stored provider-side customer reference.
	CustomerID string
	// ReuseSource attaches the stored customer to the new charge.
	ReuseSource bool
}

// Response is the canonical result produced by every adapter.
type Response struct {
	Success        bool
	Kind           domain.TransactionKind
	Amount         decimal.Decimal
	Currency       string
	TransactionID  string
	Error          string
	RawResponse    json.RawMessage
	CustomerID     string
	ActionRequired bool
}

// CreditCardInfo describes a stored card for display purposes.
type CreditCardInfo struct {
	ExpYear    int
	ExpMonth   int
	Last4      string
	NameOnCard string
}

// CustomerSource is a reusable payment method stored at the provider.
type CustomerSource struct {
	ID         string
	Gateway    string
	CreditCard *CreditCardInfo
}

// Gateway translates canonical payment operations into one external
// provider's API and normalizes the reply.
type Gateway interface {
	Authorize(ctx context.Context, payment PaymentData, config Config) (Response, error)
	Capture(ctx context.Context, payment PaymentData, config Config) (Response, error)
	Confirm(ctx context.Context, payment PaymentData, config Config) (Response, error)
	Refund(ctx context.Context, payment PaymentData, config Config) (Response, error)
	Void(ctx context.Context, payment PaymentData, config Config) (Response, error)
	// ProcessPayment is a convenience entry point; the default meaning is
	// Authorize, but intent-based providers may perform a two-step
	// authorize-and-capture and surface ActionRequired when the customer must
	// resolve an out-of-band challenge first.
	ProcessPayment(ctx context.Context, payment PaymentData, config Config) (Response, error)
	ListClientSources(ctx context.Context, config Config, customerID string) ([]CustomerSource, error)
}

// AuthorizeKind selects the transaction kind an authorization produces:
// CAPTURE when the gateway is configured to charge immediately, AUTH when the
// actual capture is left for a later explicit call.
func AuthorizeKind(config Config) domain.TransactionKind {
	if config.AutoCapture {
		return domain.TransactionKindCapture
	}
	return domain.TransactionKindAuth
}
