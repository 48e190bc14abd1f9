package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"reciprodb/pkg/blessing"
	"reciprodb/pkg/ledger"
	"reciprodb/pkg/telemetry"
	"reciprodb/pkg/timeutil"
	"reciprodb/pkg/utils"
)

// RegisterLedger registers attention-log and blessing routes.
func RegisterLedger(r *mux.Router) {
	r.HandleFunc("/attention/switch", switchAttention).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}/events", listEvents).Methods(http.MethodGet)
	r.HandleFunc("/users/{id}/events/{index}/duration", eventDuration).Methods(http.MethodGet)
	r.HandleFunc("/blessings/{id}", getBlessing).Methods(http.MethodGet)
}

// switchAttention handles POST /attention/switch. It appends an event
// to the caller's log, retires the previous active blessing to
// potential, and opens a fresh active blessing.
func switchAttention(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"user_id"`
		IntentionID string `json:"intention_id"`
		TS          int64  `json:"ts"`
		Annotation  string `json:"annotation"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	res, err := ledger.RecordSwitch(req.UserID, req.IntentionID, req.TS, req.Annotation)
	telemetry.RecordOp("attention_switch", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusCreated, res)
}

func listEvents(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["id"]
	evs, err := ledger.Events(userID)
	telemetry.RecordOp("events_list", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, evs)
}

func eventDuration(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	idx, err := strconv.Atoi(vars["index"])
	if err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid event index")
		return
	}
	d, err := ledger.DurationAt(vars["id"], idx, nowParam(r))
	telemetry.RecordOp("event_duration", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeResult(w, http.StatusOK, map[string]interface{}{
		"duration_ms": d,
		"duration":    timeutil.HumanDuration(d),
	})
}

func getBlessing(w http.ResponseWriter, r *http.Request) {
	b, err := blessing.Get(mux.Vars(r)["id"])
	telemetry.RecordOp("blessing_get", err)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	d, derr := blessing.Duration(b, nowParam(r))
	if derr != nil {
		writeEngineError(w, derr)
		return
	}
	writeResult(w, http.StatusOK, map[string]interface{}{
		"blessing":    b,
		"duration_ms": d,
	})
}
