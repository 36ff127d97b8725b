package domain_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-core/payment-service/internal/domain"
)

func newTestPayment(t *testing.T, total string) *domain.Payment {
	t.Helper()
	p, err := domain.NewPayment(
		"payments.dummy",
		"tok-123",
		decimal.RequireFromString(total),
		"USD",
		"order-1",
		"customer@example.com",
		"127.0.0.1",
		nil,
	)
	require.NoError(t, err)
	return p
}

func TestNewPayment(t *testing.T) {
	t.Run("starts not charged and active", func(t *testing.T) {
		p := newTestPayment(t, "100.00")

		assert.Equal(t, domain.ChargeStatusNotCharged, p.ChargeStatus)
		assert.True(t, p.IsActive)
		assert.True(t, p.CapturedAmount.IsZero())
		assert.True(t, p.UncapturedAmount().Equal(decimal.RequireFromString("100.00")))
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := domain.NewPayment("payments.dummy", "tok", decimal.Zero, "USD", "", "", "", nil)
		require.Error(t, err)

		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "amount", pErr.Field)
	})

	t.Run("rejects missing gateway", func(t *testing.T) {
		_, err := domain.NewPayment("", "tok", decimal.NewFromInt(10), "USD", "", "", "", nil)
		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "gateway", pErr.Field)
	})
}

func TestCanCapture(t *testing.T) {
	t.Run("allows full capture when not charged", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		assert.NoError(t, p.CanCapture(decimal.RequireFromString("100.00")))
	})

	t.Run("rejects more than un-captured amount", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("80.00"))

		err := p.CanCapture(decimal.RequireFromString("30.00"))
		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "Unable to charge more than un-captured amount.", pErr.Message)
	})

	t.Run("rejects inactive payment", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyVoid()

		err := p.CanCapture(decimal.NewFromInt(10))
		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "This payment is no longer active.", pErr.Message)
	})

	t.Run("rejects fully charged payment", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))

		assert.Error(t, p.CanCapture(decimal.NewFromInt(1)))
	})
}

func TestApplyCapture(t *testing.T) {
	t.Run("full capture reaches fully charged", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))

		assert.Equal(t, domain.ChargeStatusFullyCharged, p.ChargeStatus)
		assert.True(t, p.UncapturedAmount().IsZero())
	})

	t.Run("partial capture stays partially charged", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("40.00"))

		assert.Equal(t, domain.ChargeStatusPartiallyCharged, p.ChargeStatus)
		assert.True(t, p.UncapturedAmount().Equal(decimal.RequireFromString("60.00")))
	})
}

func TestCanRefund(t *testing.T) {
	t.Run("rejects refunding more than captured", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("50.00"))

		err := p.CanRefund(decimal.RequireFromString("60.00"), decimal.Zero)
		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "Cannot refund more than captured.", pErr.Message)
	})

	t.Run("counts prior refunds against the captured amount", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))

		refunded := decimal.RequireFromString("70.00")
		assert.NoError(t, p.CanRefund(decimal.RequireFromString("30.00"), refunded))
		assert.Error(t, p.CanRefund(decimal.RequireFromString("31.00"), refunded))
	})

	t.Run("rejects refund before any capture", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		assert.Error(t, p.CanRefund(decimal.NewFromInt(10), decimal.Zero))
	})
}

func TestApplyRefund(t *testing.T) {
	t.Run("full refund deactivates the payment", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))
		p.ApplyRefund(decimal.RequireFromString("100.00"))

		assert.Equal(t, domain.ChargeStatusFullyRefunded, p.ChargeStatus)
		assert.False(t, p.IsActive)
	})

	t.Run("partial refund keeps the payment active", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))
		p.ApplyRefund(decimal.RequireFromString("25.00"))

		assert.Equal(t, domain.ChargeStatusPartiallyRefunded, p.ChargeStatus)
		assert.True(t, p.IsActive)
	})

	t.Run("captured amount stays monotone across refunds", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))
		p.ApplyRefund(decimal.RequireFromString("100.00"))

		assert.True(t, p.CapturedAmount.Equal(decimal.RequireFromString("100.00")))
	})
}

func TestCanConfirm(t *testing.T) {
	t.Run("allows confirm while an uncaptured remainder exists", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		assert.NoError(t, p.CanConfirm())

		p.ApplyCapture(decimal.RequireFromString("40.00"))
		assert.NoError(t, p.CanConfirm())
	})

	t.Run("rejects confirm of a fully charged payment", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))

		err := p.CanConfirm()
		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "This payment cannot be confirmed.", pErr.Message)
	})

	t.Run("rejects confirm of an inactive payment", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyVoid()

		err := p.CanConfirm()
		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "This payment is no longer active.", pErr.Message)
	})
}

func TestCanVoid(t *testing.T) {
	t.Run("allows void before capture", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		assert.NoError(t, p.CanVoid())
	})

	t.Run("rejects void after capture", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))

		err := p.CanVoid()
		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "Only pre-authorized transactions can be void.", pErr.Message)
	})

	t.Run("rejects double void", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyVoid()

		err := p.CanVoid()
		pErr, ok := domain.IsPaymentError(err)
		require.True(t, ok)
		assert.Equal(t, "This payment is no longer active.", pErr.Message)
	})
}

func TestCanAuthorize(t *testing.T) {
	t.Run("rejects re-authorizing a charged payment", func(t *testing.T) {
		p := newTestPayment(t, "100.00")
		p.ApplyCapture(decimal.RequireFromString("100.00"))

		assert.Error(t, p.CanAuthorize())
	})
}
