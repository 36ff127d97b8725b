package application

import (
	"errors"
	"net/http"

	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/plugins"
)

// Error codes returned by the orchestrator.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeNotFound            = "NOT_FOUND"
	CodeGatewayError        = "GATEWAY_ERROR"
	CodeIdempotencyMismatch = "IDEMPOTENCY_MISMATCH"
	CodeRequestInFlight     = "REQUEST_IN_FLIGHT"
	CodeInternal            = "INTERNAL_ERROR"
)

// ServiceError carries an error code, the field it relates to (empty for
// non-field errors) and the HTTP status the REST layer should answer with.
type ServiceError struct {
	Code       string
	Field      string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func NewValidationError(field, message string) *ServiceError {
	return &ServiceError{
		Code:       CodeInvalidInput,
		Field:      field,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Code:       CodeNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewGatewayError wraps a declined or errored provider call. The ledger entry
// for the attempt is already recorded by the time this is returned.
func NewGatewayError(message string) *ServiceError {
	if message == "" {
		message = "The payment provider rejected the request."
	}
	return &ServiceError{
		Code:       CodeGatewayError,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewIdempotencyMismatchError() *ServiceError {
	return &ServiceError{
		Code:       CodeIdempotencyMismatch,
		Message:    "Idempotency key was already used with a different request body.",
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

func NewRequestInFlightError() *ServiceError {
	return &ServiceError{
		Code:       CodeRequestInFlight,
		Message:    "A request with this idempotency key is still being processed.",
		HTTPStatus: http.StatusConflict,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       CodeInternal,
		Message:    "An internal error occurred.",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// FromError normalizes domain and infrastructure errors into a ServiceError.
func FromError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	var paymentErr *domain.PaymentError
	if errors.As(err, &paymentErr) {
		return NewValidationError(paymentErr.Field, paymentErr.Message)
	}

	if errors.Is(err, domain.ErrPaymentNotFound) {
		return NewNotFoundError("Payment not found.")
	}
	if errors.Is(err, plugins.ErrGatewayNotFound) {
		return NewValidationError("gateway", "Payment gateway is not available.")
	}

	return NewInternalError(err)
}
