package stripe

import (
	"fmt"

	"github.com/storefront-core/payment-service/internal/gateway"
	"github.com/storefront-core/payment-service/internal/plugins"
)

const PluginName = "payments.stripe"

// PluginDefaults seeds the persisted configuration; the secret key usually
// comes from the environment at startup.
type PluginDefaults struct {
	SecretKey      string
	APIBase        string
	AutoCapture    bool
	StoreCustomers bool
	Active         bool
}

// Plugin registers the stripe gateway with the extension manager.
type Plugin struct {
	plugins.BasePlugin
	gw       *Gateway
	defaults PluginDefaults
}

func NewPlugin(defaults PluginDefaults) *Plugin {
	return &Plugin{gw: New(), defaults: defaults}
}

func (p *Plugin) Name() string {
	return PluginName
}

func (p *Plugin) DefaultConfiguration() plugins.PluginConfiguration {
	return plugins.PluginConfiguration{
		Name:   PluginName,
		Active: p.defaults.Active,
		Configuration: []plugins.ConfigurationItem{
			{Name: "secret_key", Value: p.defaults.SecretKey},
			{Name: "api_base", Value: p.defaults.APIBase},
			{Name: "auto_capture", Value: boolValue(p.defaults.AutoCapture)},
			{Name: "store_customers", Value: boolValue(p.defaults.StoreCustomers)},
		},
	}
}

func (p *Plugin) Gateway() gateway.Gateway {
	return p.gw
}

// GatewayConfig turns the persisted configuration into call-time connection
// parameters. A missing secret key is a configuration error, caught by the
// startup health check.
func (p *Plugin) GatewayConfig(configuration plugins.PluginConfiguration) (gateway.Config, error) {
	secretKey := configuration.Get("secret_key")
	if secretKey == "" {
		return gateway.Config{}, fmt.Errorf("secret_key is not configured")
	}

	return gateway.Config{
		AutoCapture:   configuration.Get("auto_capture") == "true",
		StoreCustomer: configuration.Get("store_customers") == "true",
		ConnectionParams: map[string]string{
			"secret_key": secretKey,
			"api_base":   configuration.Get("api_base"),
		},
	}, nil
}

func boolValue(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

var _ plugins.GatewayPlugin = (*Plugin)(nil)
