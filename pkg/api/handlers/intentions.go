package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"reciprodb/pkg/intent"
	"reciprodb/pkg/telemetry"
	"reciprodb/pkg/timeutil"
)

// RegisterIntentions registers intention and proof-of-service routes.
func RegisterIntentions(r *mux.Router) {
	r.HandleFunc("/intentions", createIntention).Methods(http.MethodPost)
	r.HandleFunc("/intentions/{id}", getIntention).Methods(http.MethodGet)
	r.HandleFunc("/intentions/{id}/close", closeIntention).Methods(http.MethodPost)
	r.HandleFunc("/intentions/{id}/proofs", postProof).Methods(http.MethodPost)
	r.HandleFunc("/intentions/{id}/tokens", attachToken).Methods(http.MethodPost)
	r.HandleFunc("/intentions/{id}/gratitude", gratitudePotential).Methods(http.MethodGet)
}

// createIntention handles POST /intentions. Declaring an intention also
// switches the declarer's attention to it, so the response carries the
// fresh blessing alongside the intention id.
func createIntention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Title  string `json:"title"`
		TS     int64  `json:"ts"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := intent.Create(req.UserID, req.Title, req.TS)
	telemetry.RecordOp("intention_create", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func getIntention(w http.ResponseWriter, r *http.Request) {
	in, err := intent.Get(mux.Vars(r)["id"])
	telemetry.RecordOp("intention_get", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, in)
}

func closeIntention(w http.ResponseWriter, r *http.Request) {
	err := intent.Close(mux.Vars(r)["id"])
	telemetry.RecordOp("intention_close", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]string{"status": "closed"})
}

func postProof(w http.ResponseWriter, r *http.Request) {
	var req struct {
		By      []string `json:"by"`
		Content string   `json:"content"`
		Media   []string `json:"media"`
		TS      int64    `json:"ts"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := intent.PostProof(mux.Vars(r)["id"], req.By, req.Content, req.Media, req.TS)
	telemetry.RecordOp("proof_post", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusCreated, p)
}

func attachToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TokenID string `json:"token_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := intent.AttachToken(req.TokenID, mux.Vars(r)["id"])
	telemetry.RecordOp("token_attach", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]string{"status": "attached"})
}

// gratitudePotential handles GET /intentions/{id}/gratitude. With
// ?include_children=true attached tokens contribute their whole trees.
func gratitudePotential(w http.ResponseWriter, r *http.Request) {
	include := r.URL.Query().Get("include_children") == "true"
	d, err := intent.GratitudePotential(mux.Vars(r)["id"], include, nowParam(r))
	telemetry.RecordOp("gratitude_potential", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]interface{}{
		"duration_ms": d,
		"duration":    timeutil.HumanDuration(d),
	})
}
