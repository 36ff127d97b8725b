package handlers

import (
	"net/http"

	"github.com/storefront-core/payment-service/internal/interfaces/rest"
	"github.com/storefront-core/payment-service/internal/plugins"
)

type UpdatePluginRequest struct {
	Active        *bool                       `json:"active"`
	Configuration []plugins.ConfigurationItem `json:"configuration"`
}

func (h *Handlers) HandleListPlugins(w http.ResponseWriter, r *http.Request) {
	configurations, err := h.manager.ListConfigurations(r.Context())
	if err != nil {
		rest.WriteError(w, err)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]any{"plugins": sanitizeAll(configurations)})
}

func (h *Handlers) HandleGetPlugin(w http.ResponseWriter, r *http.Request) {
	configuration, err := h.manager.ConfigurationByName(r.Context(), r.PathValue("name"))
	if err != nil {
		rest.WriteValidationErrors(w, []rest.APIError{{Field: "name", Message: "Unknown plugin."}})
		return
	}
	rest.WriteJSON(w, http.StatusOK, sanitize(configuration))
}

func (h *Handlers) HandleUpdatePlugin(w http.ResponseWriter, r *http.Request) {
	var req UpdatePluginRequest
	if !h.decode(w, r, &req) {
		return
	}

	configuration, err := h.manager.UpdateConfiguration(r.Context(), r.PathValue("name"), req.Active, req.Configuration)
	if err != nil {
		rest.WriteValidationErrors(w, []rest.APIError{{Field: "name", Message: "Unknown plugin."}})
		return
	}

	h.logger.Info("plugin configuration updated", "plugin", configuration.Name, "active", configuration.Active)
	rest.WriteJSON(w, http.StatusOK, sanitize(configuration))
}

// secret configuration items are masked on the way out, never echoed back.
var secretItems = map[string]bool{
	"secret_key": true,
}

func sanitize(configuration *plugins.PluginConfiguration) plugins.PluginConfiguration {
	out := plugins.PluginConfiguration{
		Name:          configuration.Name,
		Active:        configuration.Active,
		Configuration: make([]plugins.ConfigurationItem, len(configuration.Configuration)),
	}
	copy(out.Configuration, configuration.Configuration)
	for i, item := range out.Configuration {
		if secretItems[item.Name] && item.Value != "" {
			out.Configuration[i].Value = "****"
		}
	}
	return out
}

func sanitizeAll(configurations []*plugins.PluginConfiguration) []plugins.PluginConfiguration {
	out := make([]plugins.PluginConfiguration, 0, len(configurations))
	for _, c := range configurations {
		out = append(out, sanitize(c))
	}
	return out
}
