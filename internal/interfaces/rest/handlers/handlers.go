// Package handlers routes the HTTP surface onto the orchestrator and the
// plugin manager.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/application/services"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
	"github.com/storefront-core/payment-service/internal/plugins"
)

type PaymentService interface {
	CreatePayment(ctx context.Context, cmd services.CreatePaymentCommand) (*domain.Payment, error)
	Authorize(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*domain.Payment, error)
	Capture(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, idempotencyKey string) (*domain.Payment, error)
	Confirm(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*domain.Payment, error)
	Refund(ctx context.Context, paymentID uuid.UUID, amount *decimal.Decimal, idempotencyKey string) (*domain.Payment, error)
	Void(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*domain.Payment, error)
	ProcessPayment(ctx context.Context, paymentID uuid.UUID, idempotencyKey string) (*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*domain.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID string) (*domain.Payment, error)
	ListTransactions(ctx context.Context, paymentID uuid.UUID) ([]*domain.Transaction, error)
	ListPaymentSources(ctx context.Context, gatewayName, customerID string) ([]gateway.CustomerSource, error)
}

type Handlers struct {
	payments PaymentService
	manager  *plugins.Manager
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandlers(payments PaymentService, manager *plugins.Manager, logger *slog.Logger) *Handlers {
	return &Handlers{
		payments: payments,
		manager:  manager,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /payments", h.HandleCreatePayment)
	mux.HandleFunc("GET /payments", h.HandleGetPaymentByOrder)
	mux.HandleFunc("GET /payments/sources", h.HandleListPaymentSources)
	mux.HandleFunc("GET /payments/{id}", h.HandleGetPayment)
	mux.HandleFunc("GET /payments/{id}/transactions", h.HandleListTransactions)
	mux.HandleFunc("POST /payments/{id}/authorize", h.HandleAuthorize)
	mux.HandleFunc("POST /payments/{id}/capture", h.HandleCapture)
	mux.HandleFunc("POST /payments/{id}/confirm", h.HandleConfirm)
	mux.HandleFunc("POST /payments/{id}/refund", h.HandleRefund)
	mux.HandleFunc("POST /payments/{id}/void", h.HandleVoid)
	mux.HandleFunc("POST /payments/{id}/process", h.HandleProcess)
	mux.HandleFunc("GET /plugins", h.HandleListPlugins)
	mux.HandleFunc("GET /plugins/{name}", h.HandleGetPlugin)
	mux.HandleFunc("PATCH /plugins/{name}", h.HandleUpdatePlugin)
	mux.HandleFunc("GET /healthz", h.HandleHealth)
}
