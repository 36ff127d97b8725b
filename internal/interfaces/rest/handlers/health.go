package handlers

import (
	"net/http"

	"github.com/storefront-core/payment-service/internal/interfaces/rest"
)

func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.HealthCheck(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		rest.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
