package main

import (
	"context"
	"log"

	"reciprodb/internal/app"
	"reciprodb/pkg/config"
	"reciprodb/pkg/logger"
	"reciprodb/pkg/shutdown"
)

// build metadata - set via ldflags during release
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	addrVal, dbVal, cfgVal, setFlags := config.ParseCommandFlags()
	cfgPath := config.ResolveConfigPath(cfgVal, setFlags["config"])

	cfg, envUsed, err := config.LoadEffective(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger.InitWithLevel(cfg.Logging.Level)

	// explicit flags win over config/env
	addr := addrVal
	if !setFlags["addr"] {
		addr = cfg.Addr()
	}
	dbPath := dbVal
	if !setFlags["db"] {
		if p := cfg.Storage.DBPath; p != "" {
			dbPath = p
		}
	}
	cfg.Storage.DBPath = dbPath

	source := "flags"
	if envUsed {
		source = "env"
	}
	if _, err := config.Load(cfgPath); err == nil {
		source += ", config"
	}

	a, err := app.New(app.Options{
		Config:  cfg,
		Addr:    addr,
		DBPath:  dbPath,
		Source:  source,
		Version: version,
		Commit:  commit,
		Date:    buildDate,
	})
	if err != nil {
		shutdown.Abort("startup failed", err, dbPath, 0)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background())
	defer cancel()

	if err := a.Run(ctx); err != nil {
		shutdown.Abort("server exited", err, dbPath, 0)
	}
}
