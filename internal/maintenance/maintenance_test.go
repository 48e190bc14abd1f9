package maintenance

import (
	"os"
	"path/filepath"
	"testing"

	"reciprodb/pkg/config"
	"reciprodb/pkg/ledger"
	"reciprodb/pkg/state"
	"reciprodb/pkg/store"
)

func TestRunImmediateSnapshotsUsage(t *testing.T) {
	root := t.TempDir()
	if err := state.EnsureStateDirs(root); err != nil {
		t.Fatalf("state dirs: %v", err)
	}
	if err := store.Open(state.StorePath(root)); err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	if _, err := ledger.RecordSwitch("maya", "in_garden", 1000, ""); err != nil {
		t.Fatalf("switch: %v", err)
	}

	cfg := &config.Config{}
	cfg.Storage.DBPath = root
	cfg.Storage.MaxSize = config.SizeBytes(1) // tiny budget so the census exceeds it
	SetConfig(cfg)
	t.Cleanup(func() { SetConfig(nil) })

	if err := RunImmediate(); err != nil {
		t.Fatalf("run failed: %v", err)
	}

	snap, err := store.LatestStatsSnapshot()
	if err != nil || snap == nil {
		t.Fatalf("no snapshot recorded: %v", err)
	}
	if snap.Usage.Blessings != 1 {
		t.Fatalf("blessings = %d, want 1", snap.Usage.Blessings)
	}

	marker := filepath.Join(state.MaintenancePath(root), "last_run")
	if _, err := os.Stat(marker); err != nil {
		t.Fatalf("run marker missing: %v", err)
	}
}

func TestRunImmediateRequiresConfig(t *testing.T) {
	SetConfig(nil)
	if err := RunImmediate(); err == nil {
		t.Fatalf("run without config must fail")
	}
}
