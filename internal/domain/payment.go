// Package domain encodes the payment aggregate, its transaction ledger and
// the charge-status state machine.
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeStatus is the lifecycle stage of a Payment, always derivable by
// replaying the successful transactions in its ledger.
type ChargeStatus string

const (
	ChargeStatusNotCharged        ChargeStatus = "NOT_CHARGED"
	ChargeStatusPartiallyCharged  ChargeStatus = "PARTIALLY_CHARGED"
	ChargeStatusFullyCharged      ChargeStatus = "FULLY_CHARGED"
	ChargeStatusPartiallyRefunded ChargeStatus = "PARTIALLY_REFUNDED"
	ChargeStatusFullyRefunded     ChargeStatus = "FULLY_REFUNDED"
)

// Payment is one customer payment intent tied to one order/checkout attempt.
// It is created once and never deleted; it accumulates Transactions over its
// life. CapturedAmount is monotonically non-decreasing and never exceeds Total.
type Payment struct {
	ID             uuid.UUID
	Gateway        string
	Total          decimal.Decimal
	Currency       string
	CapturedAmount decimal.Decimal
	ChargeStatus   ChargeStatus
	IsActive       bool

	OrderID string
	Token   string

	Billing           *AddressData
	CustomerEmail     string
	CustomerIPAddress string
	// CustomerID references a customer stored at the provider for reusable
	// payment sources. Set from a gateway response when the provider stores one.
	CustomerID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPayment(
	gatewayName string,
	token string,
	total decimal.Decimal,
	currency string,
	orderID string,
	email string,
	ipAddress string,
	billing *AddressData,
) (*Payment, error) {
	if gatewayName == "" {
		return nil, NewPaymentError("gateway", "A gateway is required.")
	}
	if token == "" {
		return nil, NewPaymentError("token", "A payment token is required.")
	}
	if !total.IsPositive() {
		return nil, NewPaymentError("amount", "Amount should be a positive number.")
	}
	if currency == "" {
		return nil, NewPaymentError("currency", "A currency is required.")
	}

	now := time.Now()
	return &Payment{
		ID:                uuid.New(),
		Gateway:           gatewayName,
		Total:             total,
		Currency:          currency,
		CapturedAmount:    decimal.Zero,
		ChargeStatus:      ChargeStatusNotCharged,
		IsActive:          true,
		OrderID:           orderID,
		Token:             token,
		Billing:           billing,
		CustomerEmail:     email,
		CustomerIPAddress: ipAddress,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// UncapturedAmount is how much of the total can still be captured.
func (p *Payment) UncapturedAmount() decimal.Decimal {
	return p.Total.Sub(p.CapturedAmount)
}

// CanAuthorize reports whether an authorization attempt is legal: the payment
// must be active and no funds captured yet.
func (p *Payment) CanAuthorize() error {
	if !p.IsActive {
		return NewPaymentError("payment_id", "This payment is no longer active.")
	}
	if p.ChargeStatus != ChargeStatusNotCharged {
		return NewPaymentError("payment_id", "Charged transactions cannot be authorized again.")
	}
	return nil
}

// CanCapture validates a capture amount against the ledger: the payment must be
// active, the amount positive and within the still-uncaptured remainder.
func (p *Payment) CanCapture(amount decimal.Decimal) error {
	if !p.IsActive {
		return NewPaymentError("payment_id", "This payment is no longer active.")
	}
	if !amount.IsPositive() {
		return NewPaymentError("amount", "Amount should be a positive number.")
	}
	switch p.ChargeStatus {
	case ChargeStatusNotCharged, ChargeStatusPartiallyCharged:
	default:
		return NewPaymentError("payment_id", "This payment cannot be captured.")
	}
	if amount.GreaterThan(p.UncapturedAmount()) {
		return NewPaymentError("amount", "Unable to charge more than un-captured amount.")
	}
	return nil
}

// CanRefund validates a refund amount. refunded is the sum of successful
// refund transactions already in the ledger.
func (p *Payment) CanRefund(amount, refunded decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewPaymentError("amount", "Amount should be a positive number.")
	}
	switch p.ChargeStatus {
	case ChargeStatusPartiallyCharged, ChargeStatusFullyCharged, ChargeStatusPartiallyRefunded:
	default:
		return NewPaymentError("payment_id", "This payment cannot be refunded.")
	}
	if amount.GreaterThan(p.CapturedAmount.Sub(refunded)) {
		return NewPaymentError("amount", "Cannot refund more than captured.")
	}
	return nil
}

// CanConfirm is legal only while an uncaptured remainder exists: a confirmed
// provider intent captures that remainder, so a payment already fully charged
// or past refunding has nothing left to confirm.
func (p *Payment) CanConfirm() error {
	if !p.IsActive {
		return NewPaymentError("payment_id", "This payment is no longer active.")
	}
	switch p.ChargeStatus {
	case ChargeStatusNotCharged, ChargeStatusPartiallyCharged:
		return nil
	default:
		return NewPaymentError("payment_id", "This payment cannot be confirmed.")
	}
}

// CanVoid is legal only before any capture has happened.
func (p *Payment) CanVoid() error {
	if !p.IsActive {
		return NewPaymentError("payment_id", "This payment is no longer active.")
	}
	if p.ChargeStatus != ChargeStatusNotCharged {
		return NewPaymentError("payment_id", "Only pre-authorized transactions can be void.")
	}
	return nil
}

// ApplyAuthorize records the aggregate-side effect of a successful AUTH
// transaction. Charge status is untouched; funds are only reserved.
func (p *Payment) ApplyAuthorize(customerID string) {
	if customerID != "" {
		p.CustomerID = &customerID
	}
	p.UpdatedAt = time.Now()
}

// ApplyCapture adds a successfully captured amount and derives the new charge
// status from the running total.
func (p *Payment) ApplyCapture(amount decimal.Decimal) {
	p.CapturedAmount = p.CapturedAmount.Add(amount)
	if p.CapturedAmount.GreaterThanOrEqual(p.Total) {
		p.ChargeStatus = ChargeStatusFullyCharged
	} else {
		p.ChargeStatus = ChargeStatusPartiallyCharged
	}
	p.UpdatedAt = time.Now()
}

// ApplyRefund derives the post-refund charge status. refunded is the ledger sum
// of successful refunds including the one being applied. CapturedAmount stays
// monotone; the ledger carries the refund history.
func (p *Payment) ApplyRefund(refunded decimal.Decimal) {
	if refunded.GreaterThanOrEqual(p.CapturedAmount) {
		p.ChargeStatus = ChargeStatusFullyRefunded
		p.IsActive = false
	} else {
		p.ChargeStatus = ChargeStatusPartiallyRefunded
	}
	p.UpdatedAt = time.Now()
}

// ApplyVoid deactivates the payment. Charge status stays NOT_CHARGED; the VOID
// transaction in the ledger records the cancellation.
func (p *Payment) ApplyVoid() {
	p.IsActive = false
	p.UpdatedAt = time.Now()
}
