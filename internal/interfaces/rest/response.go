// Package rest carries the JSON contract of the HTTP surface: payload shapes
// and the structured error list mutations answer with.
package rest

import (
	"encoding/json"
	"net/http"

	"github.com/storefront-core/payment-service/internal/application"
)

// APIError is one entry of the error list. Field is empty for errors that do
// not relate to a single input field.
type APIError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope every failed request answers with. Stack
// traces and wrapped internals never reach the client.
type ErrorResponse struct {
	Errors []APIError `json:"errors"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// WriteError maps application errors to HTTP responses.
func WriteError(w http.ResponseWriter, err error) {
	svcErr := application.FromError(err)

	WriteJSON(w, svcErr.HTTPStatus, ErrorResponse{
		Errors: []APIError{{
			Field:   svcErr.Field,
			Message: svcErr.Message,
		}},
	})
}

// WriteValidationErrors answers a 400 with one entry per invalid field.
func WriteValidationErrors(w http.ResponseWriter, errs []APIError) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse{Errors: errs})
}
