package domain

import "errors"

// PaymentError is a domain/state error: the requested operation is illegal
// given the current ledger state or its input. It is raised before any
// external gateway call is made and carries the field it relates to so the
// mutation boundary can surface a structured error list.
type PaymentError struct {
	Field   string
	Message string
}

func (e *PaymentError) Error() string {
	return e.Message
}

func NewPaymentError(field, message string) *PaymentError {
	return &PaymentError{Field: field, Message: message}
}

// IsPaymentError unwraps a PaymentError for errors.Is/As call sites.
func IsPaymentError(err error) (*PaymentError, bool) {
	var pErr *PaymentError
	ok := errors.As(err, &pErr)
	return pErr, ok
}

// ErrPaymentNotFound is returned by repositories when no payment matches.
var ErrPaymentNotFound = errors.New("payment not found")
