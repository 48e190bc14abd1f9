package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestArtifactRootUnset(t *testing.T) {
	t.Setenv("RECIPRODB_ARTIFACT_ROOT", "")
	t.Setenv("TEST_ARTIFACTS_ROOT", "")
	if got := ArtifactRoot(); got != "" {
		t.Fatalf("root = %q, want empty", got)
	}
	if got := ArtifactPath("crash"); got != "" {
		t.Fatalf("path = %q, want empty", got)
	}
}

func TestArtifactRootPrecedence(t *testing.T) {
	t.Setenv("RECIPRODB_ARTIFACT_ROOT", "/artifacts/primary")
	t.Setenv("TEST_ARTIFACTS_ROOT", "/artifacts/fallback")
	if got := ArtifactRoot(); got != "/artifacts/primary" {
		t.Fatalf("root = %q", got)
	}

	t.Setenv("RECIPRODB_ARTIFACT_ROOT", "  ")
	if got := ArtifactRoot(); got != "/artifacts/fallback" {
		t.Fatalf("fallback root = %q", got)
	}
	if got := ArtifactPath("crash", "dump.log"); got != "/artifacts/fallback/crash/dump.log" {
		t.Fatalf("path = %q", got)
	}
}

func TestEnsureStateDirs(t *testing.T) {
	root := t.TempDir()
	if err := EnsureStateDirs(root); err != nil {
		t.Fatalf("ensure failed: %v", err)
	}
	for _, p := range []string{StorePath(root), AuditPath(root), MaintenancePath(root), filepath.Join(root, "state", "tmp")} {
		fi, err := os.Stat(p)
		if err != nil || !fi.IsDir() {
			t.Fatalf("missing state dir %s: %v", p, err)
		}
		if fi.Mode().Perm()&0o022 != 0 {
			t.Fatalf("state dir %s too permissive: %v", p, fi.Mode())
		}
	}
}

func TestEnsureStateDirsRejectsSymlink(t *testing.T) {
	root := t.TempDir()
	target := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "state"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.Symlink(target, filepath.Join(root, "store")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := EnsureStateDirs(root); err == nil {
		t.Fatalf("symlinked store dir must be rejected")
	}
}
