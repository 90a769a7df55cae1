package handler

import (
	"net/http"
)

// timeLayout is ISO-8601 in UTC with millisecond precision.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// handleRoot handles GET /.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, MessageResponse{Message: "Hello from monitored app!"})
	h.logger.Info("root_accessed")
}

// handleSlow handles GET /slow.
func (h *Handler) handleSlow(w http.ResponseWriter, r *http.Request) {
	delay := h.wait(h.delays.Slow)

	h.writeJSON(w, http.StatusOK, SlowResponse{Message: "Slow response", Delay: delay})
	h.logger.Warn("slow_endpoint", "delay", delay)
}

// handleDB handles GET /db.
func (h *Handler) handleDB(w http.ResponseWriter, r *http.Request) {
	delay := h.wait(h.delays.DB)

	h.writeJSON(w, http.StatusOK, DBResponse{
		Time:      h.now().UTC().Format(timeLayout),
		Simulated: true,
	})
	h.logger.Info("db_query", "delay", delay)
}

// handleCache handles GET /cache.
func (h *Handler) handleCache(w http.ResponseWriter, r *http.Request) {
	delay := h.wait(h.delays.Cache)

	h.writeJSON(w, http.StatusOK, CacheResponse{Cached: "test-value", Simulated: true})
	h.logger.Debug("cache_hit", "delay", delay)
}

// handleMetrics handles GET /metrics.
func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request) {
	h.metrics.ServeHTTP(w, r)
	h.logger.Info("metrics_scraped")
}
