package plugins_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront-core/payment-service/internal/gateway"
	"github.com/storefront-core/payment-service/internal/plugins"
)

// memoryStore is an in-memory ConfigurationStore for tests.
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]*plugins.PluginConfiguration
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: map[string]*plugins.PluginConfiguration{}}
}

func (s *memoryStore) Get(ctx context.Context, name string) (*plugins.PluginConfiguration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.entries[name]
	if !ok {
		return nil, nil
	}
	clone := *stored
	clone.Configuration = append([]plugins.ConfigurationItem(nil), stored.Configuration...)
	return &clone, nil
}

func (s *memoryStore) Upsert(ctx context.Context, configuration *plugins.PluginConfiguration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *configuration
	clone.Configuration = append([]plugins.ConfigurationItem(nil), configuration.Configuration...)
	s.entries[configuration.Name] = &clone
	return nil
}

// addTenPlugin adds a flat fee to the checkout total.
type addTenPlugin struct {
	plugins.BasePlugin
	name   string
	active bool
}

func (p *addTenPlugin) Name() string { return p.name }

func (p *addTenPlugin) DefaultConfiguration() plugins.PluginConfiguration {
	return plugins.PluginConfiguration{
		Name:   p.name,
		Active: p.active,
		Configuration: []plugins.ConfigurationItem{
			{Name: "fee", Value: "10"},
		},
	}
}

func (p *addTenPlugin) CalculateCheckoutTotal(ctx context.Context, checkout plugins.CheckoutInfo, configuration plugins.PluginConfiguration, previous plugins.TaxedMoney) (plugins.TaxedMoney, error) {
	fee, err := decimal.NewFromString(configuration.Get("fee"))
	if err != nil {
		return previous, err
	}
	return plugins.TaxedMoney{
		Net:      previous.Net.Add(fee),
		Gross:    previous.Gross.Add(fee),
		Currency: previous.Currency,
	}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestManagerFold(t *testing.T) {
	ctx := context.Background()
	base := plugins.TaxedMoney{
		Net:      decimal.NewFromInt(100),
		Gross:    decimal.NewFromInt(100),
		Currency: "USD",
	}
	checkout := plugins.CheckoutInfo{Subtotal: decimal.NewFromInt(100), Currency: "USD"}

	t.Run("chains active plugins in registration order", func(t *testing.T) {
		manager := plugins.NewManager(newMemoryStore(), testLogger(),
			&addTenPlugin{name: "fees.first", active: true},
			&addTenPlugin{name: "fees.second", active: true},
		)

		total, err := manager.CalculateCheckoutTotal(ctx, checkout, base)
		require.NoError(t, err)
		assert.True(t, total.Gross.Equal(decimal.NewFromInt(120)), "got %s", total.Gross)
	})

	t.Run("skips inactive plugins", func(t *testing.T) {
		manager := plugins.NewManager(newMemoryStore(), testLogger(),
			&addTenPlugin{name: "fees.first", active: true},
			&addTenPlugin{name: "fees.second", active: false},
		)

		total, err := manager.CalculateCheckoutTotal(ctx, checkout, base)
		require.NoError(t, err)
		assert.True(t, total.Gross.Equal(decimal.NewFromInt(110)))
	})

	t.Run("a plugin with no opinion keeps the previous value", func(t *testing.T) {
		manager := plugins.NewManager(newMemoryStore(), testLogger(),
			&addTenPlugin{name: "fees.first", active: true},
		)

		// ApplyTaxesToProduct is not overridden by addTenPlugin.
		result, err := manager.ApplyTaxesToProduct(ctx, plugins.ProductInfo{}, "US", base)
		require.NoError(t, err)
		assert.True(t, result.Gross.Equal(base.Gross))
	})

	t.Run("no active plugins returns the base value", func(t *testing.T) {
		manager := plugins.NewManager(newMemoryStore(), testLogger())

		total, err := manager.CalculateCheckoutTotal(ctx, checkout, base)
		require.NoError(t, err)
		assert.True(t, total.Gross.Equal(base.Gross))
	})
}

func TestManagerConfiguration(t *testing.T) {
	ctx := context.Background()

	t.Run("seeds defaults on first sight", func(t *testing.T) {
		store := newMemoryStore()
		p := &addTenPlugin{name: "fees.first", active: true}
		manager := plugins.NewManager(store, testLogger(), p)

		configuration, err := manager.Configuration(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, "10", configuration.Get("fee"))

		stored, err := store.Get(ctx, "fees.first")
		require.NoError(t, err)
		require.NotNil(t, stored)
	})

	t.Run("merge updates named items and leaves others untouched", func(t *testing.T) {
		p := &addTenPlugin{name: "fees.first", active: true}
		manager := plugins.NewManager(newMemoryStore(), testLogger(), p)

		updated, err := manager.UpdateConfiguration(ctx, "fees.first", nil, []plugins.ConfigurationItem{
			{Name: "fee", Value: "25"},
			{Name: "unknown", Value: "ignored"},
		})
		require.NoError(t, err)

		assert.Equal(t, "25", updated.Get("fee"))
		assert.Equal(t, "", updated.Get("unknown"))
		assert.True(t, updated.Active)
	})

	t.Run("update can flip the active flag", func(t *testing.T) {
		p := &addTenPlugin{name: "fees.first", active: true}
		manager := plugins.NewManager(newMemoryStore(), testLogger(), p)

		inactive := false
		updated, err := manager.UpdateConfiguration(ctx, "fees.first", &inactive, nil)
		require.NoError(t, err)
		assert.False(t, updated.Active)

		active, err := manager.GetActivePlugins(ctx)
		require.NoError(t, err)
		assert.Empty(t, active)
	})

	t.Run("unknown plugin is rejected", func(t *testing.T) {
		manager := plugins.NewManager(newMemoryStore(), testLogger())
		_, err := manager.UpdateConfiguration(ctx, "nope", nil, nil)
		assert.Error(t, err)
	})
}

// gatewayPlugin wraps addTenPlugin with a gateway for resolution tests.
type gatewayPlugin struct {
	addTenPlugin
	gw        gateway.Gateway
	configErr error
}

func (p *gatewayPlugin) Gateway() gateway.Gateway { return p.gw }

func (p *gatewayPlugin) GatewayConfig(configuration plugins.PluginConfiguration) (gateway.Config, error) {
	if p.configErr != nil {
		return gateway.Config{}, p.configErr
	}
	return gateway.Config{AutoCapture: true}, nil
}

func TestManagerGateways(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves an active gateway by name", func(t *testing.T) {
		p := &gatewayPlugin{addTenPlugin: addTenPlugin{name: "payments.test", active: true}}
		manager := plugins.NewManager(newMemoryStore(), testLogger(), p)

		gw, config, err := manager.GetGateway(ctx, "payments.test")
		require.NoError(t, err)
		assert.Equal(t, p.gw, gw)
		assert.True(t, config.AutoCapture)
	})

	t.Run("inactive gateway is not found", func(t *testing.T) {
		p := &gatewayPlugin{addTenPlugin: addTenPlugin{name: "payments.test", active: false}}
		manager := plugins.NewManager(newMemoryStore(), testLogger(), p)

		_, _, err := manager.GetGateway(ctx, "payments.test")
		assert.ErrorIs(t, err, plugins.ErrGatewayNotFound)
	})

	t.Run("unknown gateway is not found", func(t *testing.T) {
		manager := plugins.NewManager(newMemoryStore(), testLogger())
		_, _, err := manager.GetGateway(ctx, "payments.test")
		assert.ErrorIs(t, err, plugins.ErrGatewayNotFound)
	})

	t.Run("non-gateway plugins are not listed", func(t *testing.T) {
		manager := plugins.NewManager(newMemoryStore(), testLogger(),
			&addTenPlugin{name: "fees.first", active: true},
			&gatewayPlugin{addTenPlugin: addTenPlugin{name: "payments.test", active: true}},
		)

		names, err := manager.ListGateways(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"payments.test"}, names)
	})
}

func TestManagerHealthCheck(t *testing.T) {
	ctx := context.Background()

	t.Run("fails when an active gateway has no usable configuration", func(t *testing.T) {
		p := &gatewayPlugin{
			addTenPlugin: addTenPlugin{name: "payments.test", active: true},
			configErr:    errors.New("secret_key is not configured"),
		}
		manager := plugins.NewManager(newMemoryStore(), testLogger(), p)

		assert.Error(t, manager.HealthCheck(ctx))
	})

	t.Run("ignores inactive gateways", func(t *testing.T) {
		p := &gatewayPlugin{
			addTenPlugin: addTenPlugin{name: "payments.test", active: false},
			configErr:    errors.New("secret_key is not configured"),
		}
		manager := plugins.NewManager(newMemoryStore(), testLogger(), p)

		assert.NoError(t, manager.HealthCheck(ctx))
	})
}
