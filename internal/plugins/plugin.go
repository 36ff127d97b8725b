// Package plugins is the runtime registry of gateway and price/tax plugins.
//
// Plugins are statically linked and registered at startup; there is no
// import-by-name resolution. Price/tax hooks form a chain: each active plugin
// receives the value computed by the previous one and either overrides it or
// declines with ErrNotImplemented, in which case the previous value is kept.
package plugins

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/gateway"
)

// ErrNotImplemented is the "no opinion" sentinel a hook returns to pass the
// previous value through unchanged.
var ErrNotImplemented = errors.New("plugin has no opinion")

// ConfigurationItem is one named setting of a plugin.
type ConfigurationItem struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// PluginConfiguration is the persisted state of one plugin: whether it is
// active and its ordered configuration items.
type PluginConfiguration struct {
	Name          string              `json:"name"`
	Active        bool                `json:"active"`
	Configuration []ConfigurationItem `json:"configuration"`
}

// Get returns the value of the named item, or "" when absent.
func (c *PluginConfiguration) Get(name string) string {
	for _, item := range c.Configuration {
		if item.Name == name {
			return item.Value
		}
	}
	return ""
}

// Merge updates items by name, leaving unspecified items untouched. Unknown
// names are ignored; a plugin's configuration shape is fixed by its defaults.
func (c *PluginConfiguration) Merge(updates []ConfigurationItem) {
	for i, item := range c.Configuration {
		for _, update := range updates {
			if item.Name == update.Name {
				c.Configuration[i].Value = update.Value
			}
		}
	}
}

// TaxedMoney is a net/gross amount pair flowing through the price hooks.
type TaxedMoney struct {
	Net      decimal.Decimal
	Gross    decimal.Decimal
	Currency string
}

// CheckoutInfo is the snapshot of a checkout the price hooks operate on.
type CheckoutInfo struct {
	Subtotal       decimal.Decimal
	ShippingPrice  decimal.Decimal
	DiscountAmount decimal.Decimal
	Currency       string
	Country        string
}

// ProductInfo is the product snapshot the tax hooks operate on.
type ProductInfo struct {
	Name  string
	Price decimal.Decimal
}

// Plugin is the shared capability interface. Every hook receives the
// plugin's own resolved configuration and the previous plugin's computed
// value, and returns either an override or ErrNotImplemented.
type Plugin interface {
	Name() string
	// DefaultConfiguration seeds the persisted configuration the first time
	// the plugin is seen.
	DefaultConfiguration() PluginConfiguration

	CalculateCheckoutTotal(ctx context.Context, checkout CheckoutInfo, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error)
	CalculateCheckoutSubtotal(ctx context.Context, checkout CheckoutInfo, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error)
	CalculateCheckoutShipping(ctx context.Context, checkout CheckoutInfo, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error)
	ApplyTaxesToProduct(ctx context.Context, product ProductInfo, country string, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error)
}

// GatewayPlugin is a Plugin that exposes a payment gateway adapter. The
// adapter's connection parameters are derived from the persisted
// configuration at call time.
type GatewayPlugin interface {
	Plugin
	Gateway() gateway.Gateway
	GatewayConfig(configuration PluginConfiguration) (gateway.Config, error)
}

// BasePlugin has no opinion on any hook. Embed it and override the hooks the
// plugin cares about.
type BasePlugin struct{}

func (BasePlugin) CalculateCheckoutTotal(ctx context.Context, checkout CheckoutInfo, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error) {
	return previous, ErrNotImplemented
}

func (BasePlugin) CalculateCheckoutSubtotal(ctx context.Context, checkout CheckoutInfo, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error) {
	return previous, ErrNotImplemented
}

func (BasePlugin) CalculateCheckoutShipping(ctx context.Context, checkout CheckoutInfo, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error) {
	return previous, ErrNotImplemented
}

func (BasePlugin) ApplyTaxesToProduct(ctx context.Context, product ProductInfo, country string, configuration PluginConfiguration, previous TaxedMoney) (TaxedMoney, error) {
	return previous, ErrNotImplemented
}
