package dummy

import (
	"github.com/storefront-core/payment-service/internal/gateway"
	"github.com/storefront-core/payment-service/internal/plugins"
)

const PluginName = "payments.dummy"

// Plugin registers the dummy gateway with the extension manager.
type Plugin struct {
	plugins.BasePlugin
	gw *Gateway
}

func NewPlugin() *Plugin {
	return &Plugin{gw: New()}
}

func (p *Plugin) Name() string {
	return PluginName
}

func (p *Plugin) DefaultConfiguration() plugins.PluginConfiguration {
	return plugins.PluginConfiguration{
		Name:   PluginName,
		Active: true,
		Configuration: []plugins.ConfigurationItem{
			{Name: "auto_capture", Value: "true"},
			{Name: "store_customers", Value: "false"},
		},
	}
}

func (p *Plugin) Gateway() gateway.Gateway {
	return p.gw
}

func (p *Plugin) GatewayConfig(configuration plugins.PluginConfiguration) (gateway.Config, error) {
	return gateway.Config{
		AutoCapture:      configuration.Get("auto_capture") == "true",
		StoreCustomer:    configuration.Get("store_customers") == "true",
		ConnectionParams: map[string]string{},
	}, nil
}

var _ plugins.GatewayPlugin = (*Plugin)(nil)
