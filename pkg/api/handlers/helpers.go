package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/utils"
)

// decodeBody decodes the JSON request body into v, replying 400 on
// malformed input. The bool result reports whether decoding succeeded.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		utils.JSONError(w, http.StatusBadRequest, "invalid json")
		return false
	}
	return true
}

// writeEngineError maps the error taxonomy onto HTTP status codes:
// validation 400, not-found 404, business-rule 409, everything else 500.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperr.IsValidation(err):
		status = http.StatusBadRequest
	case apperr.IsNotFound(err):
		status = http.StatusNotFound
	case apperr.IsBusinessRule(err):
		status = http.StatusConflict
	}
	utils.JSONError(w, status, err.Error())
}

// writeResult wraps v in the success envelope.
func writeResult(w http.ResponseWriter, status int, v interface{}) {
	_ = utils.JSONWrite(w, status, map[string]interface{}{"success": true, "data": v})
}

// nowParam parses the optional ?now= query parameter (unix ms). Zero
// means "use the wall clock".
func nowParam(r *http.Request) int64 {
	v := r.URL.Query().Get("now")
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
