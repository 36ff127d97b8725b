package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/storefront-core/payment-service/internal/application"
	"github.com/storefront-core/payment-service/internal/domain"
	"github.com/storefront-core/payment-service/internal/infrastructure/persistence/postgres"
	"github.com/storefront-core/payment-service/internal/infrastructure/persistence/testhelpers"
	"github.com/storefront-core/payment-service/internal/plugins"
)

type PaymentRepositoryTestSuite struct {
	suite.Suite
	testDB          *testhelpers.TestDatabase
	paymentRepo     *postgres.PaymentRepository
	idempotencyRepo *postgres.IdempotencyRepository
	pluginRepo      *postgres.PluginConfigurationRepository
}

func TestPaymentRepositorySuite(t *testing.T) {
	suite.Run(t, new(PaymentRepositoryTestSuite))
}

func (suite *PaymentRepositoryTestSuite) SetupSuite() {
	suite.testDB = testhelpers.SetupTestDatabase(suite.T())
	suite.paymentRepo = postgres.NewPaymentRepository(suite.testDB.DB)
	suite.idempotencyRepo = postgres.NewIdempotencyRepository(suite.testDB.DB)
	suite.pluginRepo = postgres.NewPluginConfigurationRepository(suite.testDB.DB)
}

func (suite *PaymentRepositoryTestSuite) TearDownSuite() {
	suite.testDB.Cleanup(suite.T())
}

func (suite *PaymentRepositoryTestSuite) TearDownTest() {
	suite.testDB.CleanTables(suite.T())
}

func (suite *PaymentRepositoryTestSuite) newPayment() *domain.Payment {
	p, err := domain.NewPayment(
		"payments.dummy",
		"tok-123",
		decimal.RequireFromString("100.00"),
		"USD",
		"order-"+uuid.NewString(),
		"customer@example.com",
		"127.0.0.1",
		&domain.AddressData{FirstName: "Ada", City: "London", Country: "GB"},
	)
	suite.Require().NoError(err)
	return p
}

func (suite *PaymentRepositoryTestSuite) TestCreateAndFind() {
	ctx := context.Background()
	t := suite.T()

	payment := suite.newPayment()
	require.NoError(t, suite.paymentRepo.Create(ctx, payment))

	found, err := suite.paymentRepo.FindByID(ctx, payment.ID)
	require.NoError(t, err)

	assert.Equal(t, payment.ID, found.ID)
	assert.Equal(t, payment.Gateway, found.Gateway)
	assert.True(t, found.Total.Equal(decimal.RequireFromString("100.00")))
	assert.Equal(t, domain.ChargeStatusNotCharged, found.ChargeStatus)
	require.NotNil(t, found.Billing)
	assert.Equal(t, "Ada", found.Billing.FirstName)

	byOrder, err := suite.paymentRepo.FindByOrderID(ctx, payment.OrderID)
	require.NoError(t, err)
	assert.Equal(t, payment.ID, byOrder.ID)
}

func (suite *PaymentRepositoryTestSuite) TestFindMissing() {
	_, err := suite.paymentRepo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(suite.T(), err, domain.ErrPaymentNotFound)
}

func (suite *PaymentRepositoryTestSuite) TestUpdate() {
	ctx := context.Background()
	t := suite.T()

	payment := suite.newPayment()
	require.NoError(t, suite.paymentRepo.Create(ctx, payment))

	payment.ApplyCapture(decimal.RequireFromString("100.00"))
	require.NoError(t, suite.paymentRepo.Update(ctx, payment))

	found, err := suite.paymentRepo.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChargeStatusFullyCharged, found.ChargeStatus)
	assert.True(t, found.CapturedAmount.Equal(decimal.RequireFromString("100.00")))

	missing := suite.newPayment()
	assert.ErrorIs(t, suite.paymentRepo.Update(ctx, missing), domain.ErrPaymentNotFound)
}

func (suite *PaymentRepositoryTestSuite) TestTransactionLedger() {
	ctx := context.Background()
	t := suite.T()

	payment := suite.newPayment()
	require.NoError(t, suite.paymentRepo.Create(ctx, payment))

	auth := domain.NewTransaction(payment.ID, domain.TransactionKindAuth, decimal.RequireFromString("100.00"), "USD")
	auth.Success = true
	auth.GatewayTransactionID = "auth-1"
	require.NoError(t, suite.paymentRepo.CreateTransaction(ctx, auth))

	failedRefund := domain.NewTransaction(payment.ID, domain.TransactionKindRefund, decimal.RequireFromString("10.00"), "USD")
	msg := "declined"
	failedRefund.Error = &msg
	require.NoError(t, suite.paymentRepo.CreateTransaction(ctx, failedRefund))

	refund := domain.NewTransaction(payment.ID, domain.TransactionKindRefund, decimal.RequireFromString("30.00"), "USD")
	refund.Success = true
	refund.GatewayTransactionID = "re-1"
	require.NoError(t, suite.paymentRepo.CreateTransaction(ctx, refund))

	listed, err := suite.paymentRepo.ListTransactions(ctx, payment.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, domain.TransactionKindAuth, listed[0].Kind)
	require.NotNil(t, listed[1].Error)
	assert.Equal(t, "declined", *listed[1].Error)

	refunded, err := suite.paymentRepo.SumSuccessfulAmounts(ctx, payment.ID, domain.TransactionKindRefund)
	require.NoError(t, err)
	assert.True(t, refunded.Equal(decimal.RequireFromString("30.00")), "failed refunds do not count, got %s", refunded)

	last, err := suite.paymentRepo.LastSuccessfulTransaction(ctx, payment.ID, domain.TransactionKindAuth)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "auth-1", last.GatewayTransactionID)

	none, err := suite.paymentRepo.LastSuccessfulTransaction(ctx, payment.ID, domain.TransactionKindVoid)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func (suite *PaymentRepositoryTestSuite) TestWithTxRollsBackOnError() {
	ctx := context.Background()
	t := suite.T()

	payment := suite.newPayment()
	err := suite.paymentRepo.WithTx(ctx, func(tx application.PaymentRepository) error {
		if err := tx.Create(ctx, payment); err != nil {
			return err
		}
		return errors.New("boom")
	})
	require.Error(t, err)

	_, err = suite.paymentRepo.FindByID(ctx, payment.ID)
	assert.ErrorIs(t, err, domain.ErrPaymentNotFound)
}

func (suite *PaymentRepositoryTestSuite) TestWithTxLocksAndCommits() {
	ctx := context.Background()
	t := suite.T()

	payment := suite.newPayment()
	require.NoError(t, suite.paymentRepo.Create(ctx, payment))

	err := suite.paymentRepo.WithTx(ctx, func(tx application.PaymentRepository) error {
		locked, err := tx.FindByIDForUpdate(ctx, payment.ID)
		if err != nil {
			return err
		}
		locked.ApplyCapture(decimal.RequireFromString("40.00"))
		return tx.Update(ctx, locked)
	})
	require.NoError(t, err)

	found, err := suite.paymentRepo.FindByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChargeStatusPartiallyCharged, found.ChargeStatus)
}

func (suite *PaymentRepositoryTestSuite) TestIdempotencyKeys() {
	ctx := context.Background()
	t := suite.T()

	payment := suite.newPayment()
	require.NoError(t, suite.paymentRepo.Create(ctx, payment))

	record := &application.IdempotencyRecord{Key: "key-1", RequestHash: "hash-1"}
	require.NoError(t, suite.idempotencyRepo.Create(ctx, record))

	err := suite.idempotencyRepo.Create(ctx, &application.IdempotencyRecord{Key: "key-1", RequestHash: "hash-2"})
	assert.ErrorIs(t, err, application.ErrDuplicateIdempotencyKey)

	declined := "Your card was declined."
	require.NoError(t, suite.idempotencyRepo.Complete(ctx, "key-1", payment.ID, &declined))

	found, err := suite.idempotencyRepo.Find(ctx, "key-1")
	require.NoError(t, err)
	assert.Equal(t, "hash-1", found.RequestHash)
	require.NotNil(t, found.PaymentID)
	assert.Equal(t, payment.ID, *found.PaymentID)
	require.NotNil(t, found.FailureMessage)
	assert.Equal(t, declined, *found.FailureMessage)
	assert.NotNil(t, found.CompletedAt)

	require.NoError(t, suite.idempotencyRepo.Delete(ctx, "key-1"))
	_, err = suite.idempotencyRepo.Find(ctx, "key-1")
	assert.Error(t, err)
}

func (suite *PaymentRepositoryTestSuite) TestPluginConfigurations() {
	ctx := context.Background()
	t := suite.T()

	absent, err := suite.pluginRepo.Get(ctx, "payments.test")
	require.NoError(t, err)
	assert.Nil(t, absent, "absent configurations come back nil, not an error")

	configuration := &plugins.PluginConfiguration{
		Name:   "payments.test",
		Active: true,
		Configuration: []plugins.ConfigurationItem{
			{Name: "auto_capture", Value: "true"},
			{Name: "secret_key", Value: "sk_test"},
		},
	}
	require.NoError(t, suite.pluginRepo.Upsert(ctx, configuration))

	stored, err := suite.pluginRepo.Get(ctx, "payments.test")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Active)
	assert.Equal(t, "sk_test", stored.Get("secret_key"))

	configuration.Active = false
	configuration.Merge([]plugins.ConfigurationItem{{Name: "auto_capture", Value: "false"}})
	require.NoError(t, suite.pluginRepo.Upsert(ctx, configuration))

	updated, err := suite.pluginRepo.Get(ctx, "payments.test")
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, "false", updated.Get("auto_capture"))
	assert.Equal(t, "sk_test", updated.Get("secret_key"))
}
