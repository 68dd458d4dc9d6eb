package router

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/domcapture-service/internal/delivery/http/handler"
	"github.com/user/domcapture-service/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", h.HandleHealthCheck)
	mux.HandleFunc("POST /api/capture", h.HandleCapture)
	mux.HandleFunc("DELETE /api/cache", h.HandleClearCache)
	mux.HandleFunc("POST /api/navigated", h.HandleNavigated)
	mux.HandleFunc("GET /api/archive", h.HandleGetArchived)

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	// Apply middlewares
	var chainedHandler http.Handler = mux
	chainedHandler = middleware.Metrics(chainedHandler)
	chainedHandler = middleware.Logging(chainedHandler)

	return chainedHandler
}
