package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return p
}

func TestLoadFullConfig(t *testing.T) {
	p := writeConfig(t, `
server:
  address: 127.0.0.1
  port: 9090
  shutdown_grace: 30s
storage:
  db_path: /var/lib/reciprodb
  max_size: 512MB
security:
  cors:
    allowed_origins: ["https://app.example"]
  rate_limit:
    rps: 25
    burst: 50
  api_keys:
    backend: ["bk1", "bk2"]
    admin: ["adm"]
maintenance:
  enabled: true
  cron: "0 3 * * *"
marketplace:
  default_slots: 4
`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Addr() != "127.0.0.1:9090" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
	if cfg.Storage.DBPath != "/var/lib/reciprodb" {
		t.Fatalf("db path = %q", cfg.Storage.DBPath)
	}
	if cfg.Server.ShutdownGrace.Duration() != 30*time.Second {
		t.Fatalf("shutdown grace = %v", cfg.Server.ShutdownGrace.Duration())
	}
	if cfg.Storage.MaxSize.Int64() != 512_000_000 {
		t.Fatalf("max size = %d", cfg.Storage.MaxSize.Int64())
	}
	if cfg.Maintenance.Cron != "0 3 * * *" || !cfg.Maintenance.Enabled {
		t.Fatalf("maintenance = %+v", cfg.Maintenance)
	}
	if cfg.Marketplace.DefaultSlots != 4 {
		t.Fatalf("slots = %d", cfg.Marketplace.DefaultSlots)
	}

	sec := cfg.SecConfig()
	if len(sec.BackendKeys) != 2 || len(sec.AdminKeys) != 1 {
		t.Fatalf("keys = %+v", sec)
	}
	if sec.RatePerSec != 25 || sec.RateBurst != 50 {
		t.Fatalf("rate = %v/%d", sec.RatePerSec, sec.RateBurst)
	}
}

func TestAddrDefaults(t *testing.T) {
	var cfg Config
	if cfg.Addr() != "0.0.0.0:8080" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
}

func TestLoadEffectiveMissingFile(t *testing.T) {
	cfg, envUsed, err := LoadEffective(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil || cfg == nil {
		t.Fatalf("missing file must not be fatal: %v", err)
	}
	if envUsed {
		t.Fatalf("no env set, envUsed must be false")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RECIPRODB_ADDR", "10.0.0.5:7070")
	t.Setenv("RECIPRODB_DB_PATH", "/tmp/override")
	t.Setenv("RECIPRODB_API_BACKEND_KEYS", "k1, k2 ,")
	t.Setenv("RECIPRODB_API_ALLOW_UNAUTH", "true")
	t.Setenv("RECIPRODB_RATE_RPS", "12.5")
	t.Setenv("RECIPRODB_MAINTENANCE_CRON", "*/5 * * * *")

	var cfg Config
	if !LoadEnvOverrides(&cfg) {
		t.Fatalf("env overrides not detected")
	}
	if cfg.Addr() != "10.0.0.5:7070" {
		t.Fatalf("addr = %q", cfg.Addr())
	}
	if cfg.Storage.DBPath != "/tmp/override" {
		t.Fatalf("db path = %q", cfg.Storage.DBPath)
	}
	if len(cfg.Security.APIKeys.Backend) != 2 {
		t.Fatalf("backend keys = %v", cfg.Security.APIKeys.Backend)
	}
	if !cfg.Security.APIKeys.AllowUnauth {
		t.Fatalf("allow_unauth not applied")
	}
	if cfg.Security.RateLimit.RPS != 12.5 {
		t.Fatalf("rps = %v", cfg.Security.RateLimit.RPS)
	}
	if !cfg.Maintenance.Enabled || cfg.Maintenance.Cron != "*/5 * * * *" {
		t.Fatalf("maintenance = %+v", cfg.Maintenance)
	}
}

func TestResolveConfigPath(t *testing.T) {
	t.Setenv("RECIPRODB_CONFIG", "/etc/reciprodb/config.yaml")
	if got := ResolveConfigPath("./config.yaml", false); got != "/etc/reciprodb/config.yaml" {
		t.Fatalf("env path not honored: %q", got)
	}
	if got := ResolveConfigPath("./custom.yaml", true); got != "./custom.yaml" {
		t.Fatalf("explicit flag must win: %q", got)
	}
}

func TestSizeBytesAndDurationYAML(t *testing.T) {
	var doc struct {
		Cache SizeBytes `yaml:"cache"`
		Wait  Duration  `yaml:"wait"`
	}
	if err := yaml.Unmarshal([]byte("cache: 64MB\nwait: 1500ms\n"), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Cache.Int64() != 64_000_000 {
		t.Fatalf("cache = %d", doc.Cache.Int64())
	}
	if doc.Wait.Duration() != 1500*time.Millisecond {
		t.Fatalf("wait = %v", doc.Wait.Duration())
	}

	if err := yaml.Unmarshal([]byte("cache: 4096\nwait: 2\n"), &doc); err != nil {
		t.Fatalf("numeric fallback: %v", err)
	}
	if doc.Cache.Int64() != 4096 || doc.Wait.Duration() != 2*time.Second {
		t.Fatalf("numeric values = %d, %v", doc.Cache.Int64(), doc.Wait.Duration())
	}
}
