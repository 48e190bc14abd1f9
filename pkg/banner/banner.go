package banner

import (
	"fmt"

	"reciprodb/pkg/config"
)

const banner = `
██████╗ ███████╗ ██████╗██╗██████╗ ██████╗  ██████╗ ██████╗ ██████╗
██╔══██╗██╔════╝██╔════╝██║██╔══██╗██╔══██╗██╔═══██╗██╔══██╗██╔══██╗
██████╔╝█████╗  ██║     ██║██████╔╝██████╔╝██║   ██║██║  ██║██████╔╝
██╔══██╗██╔══╝  ██║     ██║██╔═══╝ ██╔══██╗██║   ██║██║  ██║██╔══██╗
██║  ██║███████╗╚██████╗██║██║     ██║  ██║╚██████╔╝██████╔╝██████╔╝
╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝╚═╝     ╚═╝  ╚═╝ ╚═════╝ ╚═════╝ ╚═════╝
`

// Print renders the startup banner with the effective runtime settings
// and a readiness checklist for production deployments.
func Print(cfg *config.Config, addr, dbPath, source, version string) {
	if addr == "" && cfg != nil {
		addr = cfg.Addr()
	}
	if dbPath == "" && cfg != nil {
		dbPath = cfg.Storage.DBPath
	}
	if source == "" {
		source = "flags"
	}

	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Printf("Config:   %s\n", source)

	fmt.Println("\n== Examples ===================================================")
	fmt.Println("curl -X POST 'http://<host>:<port>/v1/intentions' -d '{\"user_id\":\"u1\",\"title\":\"garden\"}'")
	fmt.Println("curl -X POST 'http://<host>:<port>/v1/attention/switch' -d '{\"user_id\":\"u1\",\"intention_id\":\"in_...\"}'")
	fmt.Println("curl -X POST 'http://<host>:<port>/v1/tokens/forge' -d '{\"user_id\":\"u1\",\"indices\":[0,2]}'")
	fmt.Println("curl 'http://<host>:<port>/v1/offerings/<id>/bids/ranked'")

	fmt.Println("\n== Production? =================================================")
	be, fe, ak := 0, 0, 0
	if cfg != nil {
		be = len(cfg.Security.APIKeys.Backend)
		fe = len(cfg.Security.APIKeys.Frontend)
		ak = len(cfg.Security.APIKeys.Admin)
	}
	if be > 0 {
		fmt.Printf("- Backend API keys: OK (%d)\n", be)
	} else {
		fmt.Println("- Backend API keys: MISSING (required for backend services)")
	}
	if fe > 0 {
		fmt.Printf("- Frontend API keys: OK (%d)\n", fe)
	} else {
		fmt.Println("- Frontend API keys: MISSING (required for client access)")
	}
	if ak > 0 {
		fmt.Printf("- Admin API keys: OK (%d)\n", ak)
	} else {
		fmt.Println("- Admin API keys: MISSING (required for admin tooling)")
	}

	if cfg != nil && cfg.Server.TLS.CertFile != "" && cfg.Server.TLS.KeyFile != "" {
		fmt.Println("- TLS: configured")
	} else {
		fmt.Println("- TLS: unconfigured")
	}

	if dbPath != "" {
		fmt.Printf("- DB Path: %s\n", dbPath)
	} else {
		fmt.Println("- DB Path: not set (use --db or RECIPRODB_DB_PATH)")
	}

	if cfg != nil && cfg.Maintenance.Enabled {
		if cfg.Maintenance.Cron != "" {
			fmt.Printf("- Maintenance: enabled (cron=%s)\n", cfg.Maintenance.Cron)
		} else {
			fmt.Println("- Maintenance: enabled")
		}
	} else {
		fmt.Println("- Maintenance: disabled")
	}

	fmt.Println("\n== Logs: =================================================")
}
