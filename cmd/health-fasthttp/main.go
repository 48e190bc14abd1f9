// Sidecar health probe. Serves the shared probe handler over fasthttp
// by default, or net/http with -nethttp for environments where the
// fasthttp listener is undesirable.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/valyala/fasthttp"

	"reciprodb/pkg/httpx"
)

func main() {
	addr := flag.String("addr", ":8081", "listen address for the health probe")
	dbPath := flag.String("db", "", "ledger root to check for liveness markers")
	useNet := flag.Bool("nethttp", false, "serve over net/http instead of fasthttp")
	flag.Parse()

	checks := map[string]httpx.Check{
		"process": func() (bool, string) { return true, "ok" },
	}
	if *dbPath != "" {
		checks["ledger_dir"] = func() (bool, string) {
			if fi, err := os.Stat(*dbPath); err != nil || !fi.IsDir() {
				return false, "missing"
			}
			return true, "ok"
		}
	}
	probe := httpx.Probe(checks)

	if *useNet {
		srv := &http.Server{
			Addr:         *addr,
			Handler:      httpx.NetHTTP(probe),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 5 * time.Second,
		}
		fmt.Printf("health probe (net/http) listening on %s\n", *addr)
		if err := srv.ListenAndServe(); err != nil {
			fmt.Printf("server exit: %v\n", err)
		}
		return
	}

	srv := &fasthttp.Server{
		Handler:            httpx.FastHTTP(probe),
		Name:               "reciprodb-health",
		ReadTimeout:        5 * time.Second,
		WriteTimeout:       5 * time.Second,
		MaxRequestBodySize: 1 << 20,
	}
	fmt.Printf("health probe (fasthttp) listening on %s\n", *addr)
	if err := srv.ListenAndServe(*addr); err != nil {
		fmt.Printf("server exit: %v\n", err)
	}
}
