package handlers

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /classify", h.Classify)
	mux.HandleFunc("POST /api/agri/image", h.Classify)
	mux.HandleFunc("POST /weather", h.Weather)
	mux.HandleFunc("POST /api/weather/current", h.Weather)
	mux.HandleFunc("POST /location", h.Location)
	mux.HandleFunc("POST /api/location/get-location", h.Location)
	mux.HandleFunc("POST /api/agri/send", h.Send)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Routes returns the full handler chain served by cmd/server.
func (h *Handler) Routes() http.Handler {
	return withRequestID(accessLog(h.logger, enableCORS(h.allowedOrigin, NewMux(h))))
}
