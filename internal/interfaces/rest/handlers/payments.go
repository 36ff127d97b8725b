package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/application/services"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/interfaces/rest"
)

type CreatePaymentRequest struct {
	Gateway           string              `json:"gateway" validate:"required"`
	Token             string              `json:"token" validate:"required"`
	Amount            decimal.Decimal     `json:"amount" validate:"required"`
	Currency          string              `json:"currency" validate:"required,len=3"`
	CheckoutTotal     decimal.Decimal     `json:"checkout_total"`
	OrderID           string              `json:"order_id"`
	CustomerEmail     string              `json:"customer_email" validate:"omitempty,email"`
	CustomerIPAddress string              `json:"customer_ip_address"`
	Billing           *domain.AddressData `json:"billing"`
}

func (h *Handlers) HandleCreatePayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	payment, err := h.payments.CreatePayment(r.Context(), services.CreatePaymentCommand{
		Gateway:           req.Gateway,
		Token:             req.Token,
		Amount:            req.Amount,
		Currency:          req.Currency,
		CheckoutTotal:     req.CheckoutTotal,
		OrderID:           req.OrderID,
		CustomerEmail:     req.CustomerEmail,
		CustomerIPAddress: req.CustomerIPAddress,
		Billing:           req.Billing,
	})
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.ToPaymentResponse(payment))
}

func (h *Handlers) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paymentID(w, r)
	if !ok {
		return
	}

	payment, err := h.payments.GetPayment(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToPaymentResponse(payment))
}

func (h *Handlers) HandleGetPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		rest.WriteValidationErrors(w, []rest.APIError{{Field: "order_id", Message: "An order ID is required."}})
		return
	}

	payment, err := h.payments.GetPaymentByOrder(r.Context(), orderID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.ToPaymentResponse(payment))
}

func (h *Handlers) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := h.paymentID(w, r)
	if !ok {
		return
	}

	transactions, err := h.payments.ListTransactions(r.Context(), id)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	responses := make([]rest.TransactionResponse, 0, len(transactions))
	for _, t := range transactions {
		responses = append(responses, rest.ToTransactionResponse(t))
	}
	rest.WriteJSON(w, http.StatusOK, map[string]any{"transactions": responses})
}

func (h *Handlers) HandleListPaymentSources(w http.ResponseWriter, r *http.Request) {
	gatewayName := r.URL.Query().Get("gateway")
	customerID := r.URL.Query().Get("customer_id")
	if gatewayName == "" {
		rest.WriteValidationErrors(w, []rest.APIError{{Field: "gateway", Message: "A gateway is required."}})
		return
	}

	sources, err := h.payments.ListPaymentSources(r.Context(), gatewayName, customerID)
	if err != nil {
		rest.WriteError(w, err)
		return
	}

	responses := make([]rest.PaymentSourceResponse, 0, len(sources))
	for _, s := range sources {
		responses = append(responses, rest.ToPaymentSourceResponse(s))
	}
	rest.WriteJSON(w, http.StatusOK, map[string]any{"sources": responses})
}

// decode unmarshals and validates a JSON request body, answering the error
// itself when the body is invalid.
func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		rest.WriteValidationErrors(w, []rest.APIError{{Message: "Invalid JSON body."}})
		return false
	}

	if err := h.validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		apiErrs := []rest.APIError{}
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				apiErrs = append(apiErrs, rest.APIError{
					Field:   fe.Field(),
					Message: "This field is invalid.",
				})
			}
		} else {
			apiErrs = append(apiErrs, rest.APIError{Message: "Invalid request."})
		}
		rest.WriteValidationErrors(w, apiErrs)
		return false
	}
	return true
}

// paymentID parses the {id} path value.
func (h *Handlers) paymentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		rest.WriteValidationErrors(w, []rest.APIError{{Field: "payment_id", Message: "Invalid payment ID."}})
		return uuid.Nil, false
	}
	return id, true
}
