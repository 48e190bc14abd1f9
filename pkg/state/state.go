// Package state owns the runtime directory layout rooted at the DB
// path: the pebble store, audit logs, maintenance bookkeeping, and
// scratch space.
package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// StorePath returns the directory holding the pebble store under root.
func StorePath(root string) string { return filepath.Join(root, "store") }

// AuditPath returns the directory holding audit log files under root.
func AuditPath(root string) string { return filepath.Join(root, "state", "audit") }

// MaintenancePath returns the directory for maintenance run markers.
func MaintenancePath(root string) string { return filepath.Join(root, "state", "maintenance") }

// EnsureStateDirs ensures the canonical runtime folder layout exists under
// the provided root. It verifies paths are not symlinks and have
// restrictive permissions, and that they are writable by the process.
func EnsureStateDirs(root string) error {
	paths := []string{
		StorePath(root),
		AuditPath(root),
		MaintenancePath(root),
		filepath.Join(root, "state", "tmp"),
	}

	for _, p := range paths {
		if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
			return fmt.Errorf("cannot create parent for %s: %w", p, err)
		}

		// if path exists, reject symlinks and non-directories
		if fi, err := os.Lstat(p); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink: %s", p)
			}
			if !fi.IsDir() {
				return fmt.Errorf("path exists and is not a directory: %s", p)
			}
			if fi.Mode().Perm()&0o022 != 0 {
				return fmt.Errorf("path has permissive mode (group/other write): %s", p)
			}
		}

		if err := os.MkdirAll(p, 0o700); err != nil {
			return fmt.Errorf("cannot create path %s: %w", p, err)
		}

		if fi2, err := os.Lstat(p); err == nil {
			if fi2.Mode()&os.ModeSymlink != 0 {
				return fmt.Errorf("path is a symlink after creation: %s", p)
			}
			if fi2.Mode().Perm()&0o022 != 0 {
				return fmt.Errorf("path has permissive mode after creation: %s", p)
			}
		}

		// writability check: create and remove a temp file
		tmp, err := os.CreateTemp(p, ".validate-*")
		if err != nil {
			return fmt.Errorf("path not writable: %s: %w", p, err)
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}

	return nil
}
