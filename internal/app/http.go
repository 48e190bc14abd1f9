package app

import (
	"net/http"

	"reciprodb/pkg/api"
	"reciprodb/pkg/auth"
	"reciprodb/pkg/banner"
)

// printBanner prints the startup banner and build info.
func (a *App) printBanner() {
	verStr := a.opts.Version
	if a.opts.Commit != "" && a.opts.Commit != "none" {
		verStr += " (" + a.opts.Commit + ")"
	}
	if a.opts.Date != "" && a.opts.Date != "unknown" {
		verStr += " @ " + a.opts.Date
	}
	banner.Print(a.opts.Config, a.opts.Addr, a.opts.DBPath, a.opts.Source, verStr)
}

// startHTTP builds the handler chain, starts the HTTP server in a
// goroutine, and returns a channel carrying any server error.
func (a *App) startHTTP() <-chan error {
	handler := auth.AuthenticateRequestMiddleware(a.opts.Config.SecConfig())(api.NewRouter())
	a.srv = &http.Server{Addr: a.opts.Addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		cert := a.opts.Config.Server.TLS.CertFile
		key := a.opts.Config.Server.TLS.KeyFile
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}
