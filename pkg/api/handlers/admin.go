package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"reciprodb/pkg/auth"
	"reciprodb/pkg/store"
	"reciprodb/pkg/telemetry"
)

// RegisterAdmin registers stats and usage routes. Usage is admin-only.
func RegisterAdmin(r *mux.Router) {
	r.HandleFunc("/stats", getStats).Methods(http.MethodGet)
	r.HandleFunc("/admin/usage", auth.RequireAdmin(getUsage)).Methods(http.MethodGet)
}

// getStats handles GET /stats: maintenance snapshots, newest last. The
// ?limit= parameter bounds how many are returned.
func getStats(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	snaps, err := store.ListStatsSnapshots(limit)
	telemetry.RecordOp("stats_list", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, snaps)
}

// getUsage handles GET /admin/usage: a live census of the store rather
// than the last snapshot.
func getUsage(w http.ResponseWriter, r *http.Request) {
	writeResult(w, http.StatusOK, store.GetUsage())
}
