package state

import (
	"os"
	"path/filepath"
	"strings"
)

// ArtifactRoot resolves the directory runtime artifacts (crash dumps,
// abort requests) should be redirected to, from RECIPRODB_ARTIFACT_ROOT
// or TEST_ARTIFACTS_ROOT. Empty means no redirection is configured and
// callers use their local defaults. Resolved on every call so test
// environments can repoint it.
func ArtifactRoot() string {
	for _, env := range []string{"RECIPRODB_ARTIFACT_ROOT", "TEST_ARTIFACTS_ROOT"} {
		v := strings.TrimSpace(os.Getenv(env))
		if v == "" {
			continue
		}
		if abs, err := filepath.Abs(v); err == nil {
			return abs
		}
		return v
	}
	return ""
}

// ArtifactPath joins the artifact root with the given path elements, or
// returns "" when no root is configured.
func ArtifactPath(elem ...string) string {
	root := ArtifactRoot()
	if root == "" {
		return ""
	}
	return filepath.Join(append([]string{root}, elem...)...)
}
