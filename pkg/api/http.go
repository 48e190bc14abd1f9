// Package api wires the HTTP surface: route registration, health and
// readiness probes, prometheus metrics, and the swagger UI.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"reciprodb/pkg/api/handlers"
	"reciprodb/pkg/store"
	"reciprodb/pkg/telemetry"
	"reciprodb/pkg/utils"
)

// NewRouter builds the server's router. Auth middleware is layered on
// by the caller so tests can exercise routes directly.
func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(telemetry.Middleware)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		if !store.Ready() {
			utils.JSONError(w, http.StatusServiceUnavailable, "store not ready")
			return
		}
		_ = utils.JSONWrite(w, http.StatusOK, map[string]string{"status": "ready"})
	}).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/docs/").Handler(httpSwagger.WrapHandler)

	v1 := r.PathPrefix("/v1").Subrouter()
	handlers.RegisterLedger(v1)
	handlers.RegisterIntentions(v1)
	handlers.RegisterTokens(v1)
	handlers.RegisterOfferings(v1)
	handlers.RegisterAdmin(v1)
	return r
}
