// Package maintenance runs the cron-scheduled housekeeping pass: it
// censuses the ledger and persists a stats snapshot other tooling and
// the /v1/stats endpoint read.
package maintenance

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"
	"github.com/dustin/go-humanize"

	"reciprodb/pkg/config"
	"reciprodb/pkg/logger"
	"reciprodb/pkg/state"
	"reciprodb/pkg/store"
	"reciprodb/pkg/timeutil"
)

var storedCfg *config.Config

// SetConfig stores the effective config so tests or admin triggers can
// invoke maintenance runs on demand.
func SetConfig(cfg *config.Config) {
	storedCfg = cfg
}

// RunImmediate triggers a single maintenance run using the stored config.
func RunImmediate() error {
	if storedCfg == nil {
		return fmt.Errorf("no config registered for maintenance run")
	}
	return runOnce(context.Background(), state.MaintenancePath(storedCfg.Storage.DBPath), storedCfg.Storage.MaxSize.Int64())
}

// Start starts the maintenance scheduler if enabled. Returns a cancel func.
func Start(ctx context.Context, cfg *config.Config) (context.CancelFunc, error) {
	m := cfg.Maintenance
	if !m.Enabled {
		logger.Info("maintenance_disabled")
		return func() {}, nil
	}

	workPath := state.MaintenancePath(cfg.Storage.DBPath)
	if err := os.MkdirAll(workPath, 0o700); err != nil {
		logger.Error("maintenance_path_create_failed", "path", workPath, "error", err)
		return nil, err
	}

	// empty cron defaults to daily @02:00
	cronExpr := m.Cron
	if cronExpr == "" {
		cronExpr = "0 2 * * *"
	}
	if !gronx.IsValid(cronExpr) {
		logger.Error("maintenance_invalid_cron", "cron", m.Cron)
		return nil, fmt.Errorf("invalid maintenance cron expression: %s", m.Cron)
	}

	logger.Info("maintenance_enabled", "cron", cronExpr, "path", workPath)
	ctx2, cancel := context.WithCancel(ctx)
	go runScheduler(ctx2, workPath, cronExpr, m.Paused, cfg.Storage.MaxSize.Int64())
	return cancel, nil
}

// runScheduler uses gronx to compute the next tick for the configured
// cron expression and sleeps until that time.
func runScheduler(ctx context.Context, workPath, cronExpr string, paused bool, maxBytes int64) {
	for {
		select {
		case <-ctx.Done():
			logger.Info("maintenance_scheduler_stopping")
			return
		default:
		}

		now := time.Now().UTC()
		next, err := gronx.NextTickAfter(cronExpr, now, false)
		if err != nil {
			logger.Error("maintenance_nexttick_failed", "cron", cronExpr, "error", err)
			select {
			case <-time.After(30 * time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}

		select {
		case <-time.After(time.Until(next)):
			if paused {
				logger.Info("maintenance_run_skipped", "reason", "paused")
				continue
			}
			go func() {
				if err := runOnce(ctx, workPath, maxBytes); err != nil {
					logger.Error("maintenance_run_error", "error", err)
				}
			}()
		case <-ctx.Done():
			logger.Info("maintenance_scheduler_stopping")
			return
		}
	}
}

// runOnce takes one stats snapshot and records the run marker. The
// marker file lets operators see when housekeeping last completed.
func runOnce(ctx context.Context, workPath string, maxBytes int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	snap := &store.StatsSnapshot{
		TS:    timeutil.NowMS(),
		Usage: store.GetUsage(),
	}
	if err := store.SaveStatsSnapshot(snap); err != nil {
		return fmt.Errorf("failed to write stats snapshot: %w", err)
	}
	logger.AuditEvent("maintenance_snapshot",
		"ts", snap.TS,
		"blessings", snap.Usage.Blessings,
		"intentions", snap.Usage.Intentions,
		"tokens", snap.Usage.Tokens,
		"proofs", snap.Usage.Proofs,
		"offerings", snap.Usage.Offerings,
		"disk_bytes", snap.Usage.DiskBytes,
	)

	if maxBytes > 0 && snap.Usage.DiskBytes > uint64(maxBytes) {
		logger.Warn("store_over_disk_budget",
			"disk", humanize.Bytes(snap.Usage.DiskBytes),
			"budget", humanize.Bytes(uint64(maxBytes)),
		)
	}

	marker := filepath.Join(workPath, "last_run")
	if err := os.WriteFile(marker, []byte(time.Now().UTC().Format(time.RFC3339)), 0o600); err != nil {
		logger.Warn("maintenance_marker_write_failed", "path", marker, "error", err)
	}
	return nil
}
