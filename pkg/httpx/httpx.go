// Package httpx carries a transport-neutral handler shape so probe
// endpoints can be served over net/http or fasthttp without duplicating
// the handler logic.
package httpx

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// Request is the unified request representation handed to handlers.
type Request struct {
	Ctx        context.Context
	Method     string
	Path       string
	Header     http.Header
	Body       io.ReadCloser
	RemoteAddr string
}

// ResponseWriter is the subset of http.ResponseWriter semantics the
// adapters guarantee.
type ResponseWriter interface {
	Header() http.Header
	Write([]byte) (int, error)
	WriteHeader(status int)
}

// HandlerFunc is the transport-neutral handler signature.
type HandlerFunc func(w ResponseWriter, r *Request)

// Check reports one component's health.
type Check func() (ok bool, detail string)

// Probe builds a health handler that runs every registered check and
// replies 200 when all pass, 503 otherwise.
func Probe(checks map[string]Check) HandlerFunc {
	return func(w ResponseWriter, r *Request) {
		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, c := range checks {
			ok, detail := c()
			if !ok {
				status = http.StatusServiceUnavailable
			}
			if detail == "" {
				if ok {
					detail = "ok"
				} else {
					detail = "failed"
				}
			}
			results[name] = detail
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(writerFunc(w.Write)).Encode(map[string]interface{}{
			"healthy": status == http.StatusOK,
			"checks":  results,
		})
	}
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }
