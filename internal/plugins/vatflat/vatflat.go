// Package vatflat is a flat-rate tax plugin: it applies one configured VAT
// percentage to checkout totals and product prices.
package vatflat

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/storefront-core/payment-service/internal/plugins"
)

const PluginName = "taxes.flat-rate"

type Plugin struct {
	plugins.BasePlugin
}

func New() *Plugin {
	return &Plugin{}
}

func (p *Plugin) Name() string {
	return PluginName
}

func (p *Plugin) DefaultConfiguration() plugins.PluginConfiguration {
	return plugins.PluginConfiguration{
		Name:   PluginName,
		Active: false,
		Configuration: []plugins.ConfigurationItem{
			{Name: "rate", Value: "23"},
			{Name: "tax_shipping", Value: "false"},
		},
	}
}

// CalculateCheckoutTotal grosses up the checkout with the configured rate.
// The previous plugin's value is discarded on purpose: a flat-rate override
// replaces whatever came before it in the chain.
func (p *Plugin) CalculateCheckoutTotal(ctx context.Context, checkout plugins.CheckoutInfo, configuration plugins.PluginConfiguration, previous plugins.TaxedMoney) (plugins.TaxedMoney, error) {
	rate, err := grossRate(configuration)
	if err != nil {
		return previous, err
	}

	net := checkout.Subtotal.Sub(checkout.DiscountAmount)
	gross := net.Mul(rate)
	shipping := checkout.ShippingPrice
	if configuration.Get("tax_shipping") == "true" {
		shipping = shipping.Mul(rate)
	}

	return plugins.TaxedMoney{
		Net:      net.Add(checkout.ShippingPrice),
		Gross:    gross.Add(shipping).Round(2),
		Currency: checkout.Currency,
	}, nil
}

func (p *Plugin) ApplyTaxesToProduct(ctx context.Context, product plugins.ProductInfo, country string, configuration plugins.PluginConfiguration, previous plugins.TaxedMoney) (plugins.TaxedMoney, error) {
	rate, err := grossRate(configuration)
	if err != nil {
		return previous, err
	}

	return plugins.TaxedMoney{
		Net:      product.Price,
		Gross:    product.Price.Mul(rate).Round(2),
		Currency: previous.Currency,
	}, nil
}

// grossRate converts the configured percentage into a gross multiplier.
func grossRate(configuration plugins.PluginConfiguration) (decimal.Decimal, error) {
	percent, err := decimal.NewFromString(configuration.Get("rate"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid flat tax rate: %w", err)
	}
	return decimal.NewFromInt(1).Add(percent.Div(decimal.NewFromInt(100))), nil
}

var _ plugins.Plugin = (*Plugin)(nil)
