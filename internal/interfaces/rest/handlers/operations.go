package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/interfaces/rest"
)

// AmountRequest is the optional body of capture and refund calls. A missing
// amount means "everything still available for this operation".
type AmountRequest struct {
	Amount *decimal.Decimal `json:"amount"`
}

func (h *Handlers) HandleAuthorize(w http.ResponseWriter, r *http.Request) {
	h.runOperation(w, r, func(ctx context.Context, id uuid.UUID, key string) (*domain.Payment, error) {
		return h.payments.Authorize(ctx, id, key)
	})
}

func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	h.runAmountOperation(w, r, func(ctx context.Context, id uuid.UUID, amount *decimal.Decimal, key string) (*domain.Payment, error) {
		return h.payments.Capture(ctx, id, amount, key)
	})
}

func (h *Handlers) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	h.runOperation(w, r, func(ctx context.Context, id uuid.UUID, key string) (*domain.Payment, error) {
		return h.payments.Confirm(ctx, id, key)
	})
}

func (h *Handlers) HandleRefund(w http.ResponseWriter, r *http.Request) {
	h.runAmountOperation(w, r, func(ctx context.Context, id uuid.UUID, amount *decimal.Decimal, key string) (*domain.Payment, error) {
		return h.payments.Refund(ctx, id, amount, key)
	})
}

func (h *Handlers) HandleVoid(w http.ResponseWriter, r *http.Request) {
	h.runOperation(w, r, func(ctx context.Context, id uuid.UUID, key string) (*domain.Payment, error) {
		return h.payments.Void(ctx, id, key)
	})
}

func (h *Handlers) HandleProcess(w http.ResponseWriter, r *http.Request) {
	h.runOperation(w, r, func(ctx context.Context, id uuid.UUID, key string) (*domain.Payment, error) {
		return h.payments.ProcessPayment(ctx, id, key)
	})
}

func (h *Handlers) runOperation(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, string) (*domain.Payment, error)) {
	id, ok := h.paymentID(w, r)
	if !ok {
		return
	}

	payment, err := op(r.Context(), id, r.Header.Get("Idempotency-Key"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, rest.ToPaymentResponse(payment))
}

func (h *Handlers) runAmountOperation(w http.ResponseWriter, r *http.Request, op func(context.Context, uuid.UUID, *decimal.Decimal, string) (*domain.Payment, error)) {
	id, ok := h.paymentID(w, r)
	if !ok {
		return
	}

	var req AmountRequest
	if r.Body != nil && r.ContentLength != 0 {
		if !h.decode(w, r, &req) {
			return
		}
	}

	payment, err := op(r.Context(), id, req.Amount, r.Header.Get("Idempotency-Key"))
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, rest.ToPaymentResponse(payment))
}
