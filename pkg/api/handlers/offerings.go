package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"reciprodb/pkg/market"
	"reciprodb/pkg/telemetry"
	"reciprodb/pkg/timeutil"
)

// RegisterOfferings registers marketplace routes.
func RegisterOfferings(r *mux.Router) {
	r.HandleFunc("/offerings", createOffering).Methods(http.MethodPost)
	r.HandleFunc("/offerings/{id}", getOffering).Methods(http.MethodGet)
	r.HandleFunc("/offerings/{id}/bids", placeBid).Methods(http.MethodPost)
	r.HandleFunc("/offerings/{id}/bids/ranked", rankedBids).Methods(http.MethodGet)
	r.HandleFunc("/offerings/{id}/accept", acceptBids).Methods(http.MethodPost)
	r.HandleFunc("/offerings/{id}/close", closeOffering).Methods(http.MethodPost)
}

func createOffering(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HostID      string `json:"host_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Slots       int    `json:"slots"`
		When        int64  `json:"when"`
		Place       string `json:"place"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	o, err := market.CreateOffering(req.HostID, req.Title, req.Description, req.Slots, req.When, req.Place)
	telemetry.RecordOp("offering_create", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusCreated, o)
}

func getOffering(w http.ResponseWriter, r *http.Request) {
	o, err := market.Get(mux.Vars(r)["id"])
	telemetry.RecordOp("offering_get", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, o)
}

// placeBid handles POST /offerings/{id}/bids. One bid per user; the
// response position is 1-based arrival order, not rank.
func placeBid(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"user_id"`
		TopToken string `json:"top_token"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	pos, err := market.Bid(mux.Vars(r)["id"], req.UserID, req.TopToken)
	telemetry.RecordOp("offering_bid", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusCreated, map[string]int{"position": pos})
}

func rankedBids(w http.ResponseWriter, r *http.Request) {
	o, err := market.Get(mux.Vars(r)["id"])
	if err != nil {
		telemetry.RecordOp("offering_rank", err)
		writeEngineError(w, err)
		return
	}
	ranked, err := market.RankBids(o, nowParam(r))
	telemetry.RecordOp("offering_rank", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(ranked))
	for _, rb := range ranked {
		out = append(out, map[string]interface{}{
			"user_id":     rb.Offer.UserID,
			"top_token":   rb.Offer.TopToken,
			"duration_ms": rb.Duration,
			"duration":    timeutil.HumanDuration(rb.Duration),
		})
	}
	writeResult(w, http.StatusOK, out)
}

func acceptBids(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HostID string `json:"host_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := market.AcceptBids(mux.Vars(r)["id"], req.HostID)
	telemetry.RecordOp("offering_accept", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, res)
}

func closeOffering(w http.ResponseWriter, r *http.Request) {
	var req struct {
		HostID string `json:"host_id"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	err := market.CloseOffering(mux.Vars(r)["id"], req.HostID)
	telemetry.RecordOp("offering_close", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]string{"status": "closed"})
}
