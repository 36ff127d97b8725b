package plugins

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/storefront-core/payment-service/internal/gateway"
)

// ConfigurationStore persists plugin configurations. Get returns nil when no
// row exists yet.
type ConfigurationStore interface {
	Get(ctx context.Context, name string) (*PluginConfiguration, error)
	Upsert(ctx context.Context, configuration *PluginConfiguration) error
}

// ErrGatewayNotFound is returned when no active gateway plugin matches the
// requested name.
var ErrGatewayNotFound = errors.New("payment gateway not found")

// Manager resolves gateways by name and folds the price/tax hooks over the
// registered plugins. Registration order is the chain order and is stable.
type Manager struct {
	plugins []Plugin
	store   ConfigurationStore
	logger  *slog.Logger
}

func NewManager(store ConfigurationStore, logger *slog.Logger, registered ...Plugin) *Manager {
	return &Manager{
		plugins: registered,
		store:   store,
		logger:  logger,
	}
}

// Configuration loads the persisted configuration for a plugin, seeding the
// store with the plugin's defaults on first sight.
func (m *Manager) Configuration(ctx context.Context, p Plugin) (*PluginConfiguration, error) {
	stored, err := m.store.Get(ctx, p.Name())
	if err != nil {
		return nil, fmt.Errorf("load configuration for %s: %w", p.Name(), err)
	}
	if stored != nil {
		return stored, nil
	}

	defaults := p.DefaultConfiguration()
	if err := m.store.Upsert(ctx, &defaults); err != nil {
		return nil, fmt.Errorf("seed configuration for %s: %w", p.Name(), err)
	}
	return &defaults, nil
}

// GetActivePlugins filters the registry to plugins whose persisted
// configuration is active, preserving registration order.
func (m *Manager) GetActivePlugins(ctx context.Context) ([]Plugin, error) {
	active := make([]Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		configuration, err := m.Configuration(ctx, p)
		if err != nil {
			return nil, err
		}
		if configuration.Active {
			active = append(active, p)
		}
	}
	return active, nil
}

// GetGateway resolves an active gateway plugin by name to its adapter and
// call-time configuration.
func (m *Manager) GetGateway(ctx context.Context, name string) (gateway.Gateway, gateway.Config, error) {
	for _, p := range m.plugins {
		gp, ok := p.(GatewayPlugin)
		if !ok || gp.Name() != name {
			continue
		}

		configuration, err := m.Configuration(ctx, p)
		if err != nil {
			return nil, gateway.Config{}, err
		}
		if !configuration.Active {
			return nil, gateway.Config{}, fmt.Errorf("%w: %s is not active", ErrGatewayNotFound, name)
		}

		config, err := gp.GatewayConfig(*configuration)
		if err != nil {
			return nil, gateway.Config{}, fmt.Errorf("gateway %s: %w", name, err)
		}
		return gp.Gateway(), config, nil
	}
	return nil, gateway.Config{}, fmt.Errorf("%w: %s", ErrGatewayNotFound, name)
}

// ListGateways returns the names of the active gateway plugins.
func (m *Manager) ListGateways(ctx context.Context) ([]string, error) {
	active, err := m.GetActivePlugins(ctx)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, p := range active {
		if _, ok := p.(GatewayPlugin); ok {
			names = append(names, p.Name())
		}
	}
	return names, nil
}

// UpdateConfiguration merges configuration item updates by name and flips the
// active flag when requested. Items not named in the update are untouched.
func (m *Manager) UpdateConfiguration(ctx context.Context, name string, active *bool, items []ConfigurationItem) (*PluginConfiguration, error) {
	p := m.lookup(name)
	if p == nil {
		return nil, fmt.Errorf("unknown plugin: %s", name)
	}

	configuration, err := m.Configuration(ctx, p)
	if err != nil {
		return nil, err
	}

	configuration.Merge(items)
	if active != nil {
		configuration.Active = *active
	}

	if err := m.store.Upsert(ctx, configuration); err != nil {
		return nil, fmt.Errorf("save configuration for %s: %w", name, err)
	}
	return configuration, nil
}

// HealthCheck resolves every registered gateway plugin once. A gateway that
// cannot produce a call-time configuration makes startup fail instead of
// surfacing per-request.
func (m *Manager) HealthCheck(ctx context.Context) error {
	for _, p := range m.plugins {
		gp, ok := p.(GatewayPlugin)
		if !ok {
			continue
		}

		configuration, err := m.Configuration(ctx, p)
		if err != nil {
			return err
		}
		if !configuration.Active {
			continue
		}
		if _, err := gp.GatewayConfig(*configuration); err != nil {
			return fmt.Errorf("gateway %s failed health check: %w", p.Name(), err)
		}

		m.logger.Info("payment gateway ready", "gateway", p.Name())
	}
	return nil
}

// ListConfigurations resolves every registered plugin's persisted
// configuration in registration order.
func (m *Manager) ListConfigurations(ctx context.Context) ([]*PluginConfiguration, error) {
	configurations := make([]*PluginConfiguration, 0, len(m.plugins))
	for _, p := range m.plugins {
		configuration, err := m.Configuration(ctx, p)
		if err != nil {
			return nil, err
		}
		configurations = append(configurations, configuration)
	}
	return configurations, nil
}

// ConfigurationByName resolves a registered plugin's persisted configuration.
func (m *Manager) ConfigurationByName(ctx context.Context, name string) (*PluginConfiguration, error) {
	p := m.lookup(name)
	if p == nil {
		return nil, fmt.Errorf("unknown plugin: %s", name)
	}
	return m.Configuration(ctx, p)
}

func (m *Manager) lookup(name string) Plugin {
	for _, p := range m.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// CalculateCheckoutTotal folds the total hook over the active plugins,
// starting from the given base value.
func (m *Manager) CalculateCheckoutTotal(ctx context.Context, checkout CheckoutInfo, base TaxedMoney) (TaxedMoney, error) {
	return m.fold(ctx, base, func(p Plugin, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error) {
		return p.CalculateCheckoutTotal(ctx, checkout, configuration, previous)
	})
}

func (m *Manager) CalculateCheckoutSubtotal(ctx context.Context, checkout CheckoutInfo, base TaxedMoney) (TaxedMoney, error) {
	return m.fold(ctx, base, func(p Plugin, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error) {
		return p.CalculateCheckoutSubtotal(ctx, checkout, configuration, previous)
	})
}

func (m *Manager) CalculateCheckoutShipping(ctx context.Context, checkout CheckoutInfo, base TaxedMoney) (TaxedMoney, error) {
	return m.fold(ctx, base, func(p Plugin, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error) {
		return p.CalculateCheckoutShipping(ctx, checkout, configuration, previous)
	})
}

func (m *Manager) ApplyTaxesToProduct(ctx context.Context, product ProductInfo, country string, base TaxedMoney) (TaxedMoney, error) {
	return m.fold(ctx, base, func(p Plugin, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error) {
		return p.ApplyTaxesToProduct(ctx, product, country, configuration, previous)
	})
}

// fold runs a hook across the active plugins in order, handing each its own
// resolved configuration. ErrNotImplemented keeps the previous value; any
// other error aborts the chain.
func (m *Manager) fold(ctx context.Context, base TaxedMoney, hook func(Plugin, PluginConfiguration, TaxedMoney) (TaxedMoney, error)) (TaxedMoney, error) {
	active, err := m.GetActivePlugins(ctx)
	if err != nil {
		return base, err
	}

	value := base
	for _, p := range active {
		configuration, err := m.Configuration(ctx, p)
		if err != nil {
			return base, err
		}

		next, err := hook(p, *configuration, value)
		if err != nil {
			if errors.Is(err, ErrNotImplemented) {
				continue
			}
			return base, fmt.Errorf("plugin %s: %w", p.Name(), err)
		}
		value = next
	}
	return value, nil
}
