package app

import (
	"fmt"
	"os"
)

// validateConfig performs quick, fail-fast validation of the effective
// configuration before starting long-running services. Keep checks light
// and focused so callers can surface user-friendly errors.
func validateConfig(opts Options) error {
	if opts.Config == nil {
		return fmt.Errorf("no configuration provided")
	}
	if opts.DBPath == "" {
		return fmt.Errorf("database path is empty: set --db flag, RECIPRODB_DB_PATH env, or storage.db_path in config")
	}

	cert := opts.Config.Server.TLS.CertFile
	key := opts.Config.Server.TLS.KeyFile
	if (cert != "" && key == "") || (cert == "" && key != "") {
		return fmt.Errorf("incomplete TLS configuration: both server.tls.cert_file and server.tls.key_file must be set")
	}
	if cert != "" {
		if _, err := os.Stat(cert); err != nil {
			return fmt.Errorf("tls cert file not accessible: %w", err)
		}
		if _, err := os.Stat(key); err != nil {
			return fmt.Errorf("tls key file not accessible: %w", err)
		}
	}

	if opts.Config.Marketplace.DefaultSlots < 0 {
		return fmt.Errorf("marketplace.default_slots must not be negative")
	}
	return nil
}
