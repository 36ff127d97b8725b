package rest

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/gateway"
)

type PaymentResponse struct {
	ID                uuid.UUID           `json:"id"`
	Gateway           string              `json:"gateway"`
	Total             decimal.Decimal     `json:"total"`
	Currency          string              `json:"currency"`
	CapturedAmount    decimal.Decimal     `json:"captured_amount"`
	ChargeStatus      domain.ChargeStatus `json:"charge_status"`
	IsActive          bool                `json:"is_active"`
	OrderID           string              `json:"order_id,omitempty"`
	CustomerEmail     string              `json:"customer_email,omitempty"`
	Billing           *domain.AddressData `json:"billing,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

func ToPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:             p.ID,
		Gateway:        p.Gateway,
		Total:          p.Total,
		Currency:       p.Currency,
		CapturedAmount: p.CapturedAmount,
		ChargeStatus:   p.ChargeStatus,
		IsActive:       p.IsActive,
		OrderID:        p.OrderID,
		CustomerEmail:  p.CustomerEmail,
		Billing:        p.Billing,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

type TransactionResponse struct {
	ID                   uuid.UUID              `json:"id"`
	Kind                 domain.TransactionKind `json:"kind"`
	Amount               decimal.Decimal        `json:"amount"`
	Currency             string                 `json:"currency"`
	Success              bool                   `json:"success"`
	ActionRequired       bool                   `json:"action_required"`
	GatewayTransactionID string                 `json:"gateway_transaction_id,omitempty"`
	Error                *string                `json:"error,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
}

func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                   t.ID,
		Kind:                 t.Kind,
		Amount:               t.Amount,
		Currency:             t.Currency,
		Success:              t.Success,
		ActionRequired:       t.ActionRequired,
		GatewayTransactionID: t.GatewayTransactionID,
		Error:                t.Error,
		CreatedAt:            t.CreatedAt,
	}
}

type CreditCardResponse struct {
	ExpYear    int    `json:"exp_year"`
	ExpMonth   int    `json:"exp_month"`
	Last4      string `json:"last_4"`
	NameOnCard string `json:"name_on_card,omitempty"`
}

type PaymentSourceResponse struct {
	ID         string              `json:"id"`
	Gateway    string              `json:"gateway"`
	CreditCard *CreditCardResponse `json:"credit_card,omitempty"`
}

func ToPaymentSourceResponse(s gateway.CustomerSource) PaymentSourceResponse {
	resp := PaymentSourceResponse{
		ID:      s.ID,
		Gateway: s.Gateway,
	}
	if s.CreditCard != nil {
		resp.CreditCard = &CreditCardResponse{
			ExpYear:    s.CreditCard.ExpYear,
			ExpMonth:   s.CreditCard.ExpMonth,
			Last4:      s.CreditCard.Last4,
			NameOnCard: s.CreditCard.NameOnCard,
		}
	}
	return resp
}
