package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/forge"
	"reciprodb/pkg/store"
	"reciprodb/pkg/telemetry"
	"reciprodb/pkg/timeutil"
	"reciprodb/pkg/tokentree"
)

// RegisterTokens registers forge, gift, and token-tree routes.
func RegisterTokens(r *mux.Router) {
	r.HandleFunc("/tokens/forge", forgeToken).Methods(http.MethodPost)
	r.HandleFunc("/tokens/{id}", getToken).Methods(http.MethodGet)
	r.HandleFunc("/tokens/{id}/gift", giftToken).Methods(http.MethodPost)
	r.HandleFunc("/tokens/{id}/tree", tokenTree).Methods(http.MethodGet)
}

// forgeToken handles POST /tokens/forge. Indices address positions in
// the forger's attention log; the referenced blessings must all be
// potential and from the same intention.
func forgeToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID        string `json:"user_id"`
		Indices       []int  `json:"indices"`
		IntentionID   string `json:"intention_id"`
		HonoringProof string `json:"honoring_proof"`
		Message       string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := forge.Forge(req.UserID, req.Indices, req.IntentionID, req.HonoringProof, req.Message)
	telemetry.RecordOp("token_forge", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusCreated, t)
}

func getToken(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, err := store.GetToken(id)
	if store.IsNotFound(err) {
		err = apperr.NotFound(fmt.Sprintf("Token %s not found", id))
	}
	telemetry.RecordOp("token_get", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, t)
}

func giftToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ServiceProviderID string `json:"service_provider_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := forge.Gift(mux.Vars(r)["id"], req.ServiceProviderID)
	telemetry.RecordOp("token_gift", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, t)
}

// tokenTree handles GET /tokens/{id}/tree: the flattened node ids plus
// the tree's total duration. Cyclic references are traversed once.
func tokenTree(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ids, err := tokentree.Flatten(id)
	telemetry.RecordOp("token_tree", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	d, err := tokentree.TreeDuration(id, nowParam(r))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]interface{}{
		"nodes":       ids,
		"duration_ms": d,
		"duration":    timeutil.HumanDuration(d),
	})
}
