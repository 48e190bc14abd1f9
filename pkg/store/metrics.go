package store

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// Usage is a compact view of store size used by telemetry and the
// maintenance snapshot.
type Usage struct {
	DiskBytes  uint64
	Blessings  int
	Intentions int
	Tokens     int
	Proofs     int
	Offerings  int
}

// GetUsage returns best-effort store statistics: on-disk size of the DB
// directory plus record counts by keyspace.
func GetUsage() Usage {
	var u Usage
	if db == nil {
		return u
	}
	if dbPath != "" {
		var total uint64
		_ = filepath.WalkDir(dbPath, func(p string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return nil
			}
			if fi, err := d.Info(); err == nil {
				total += uint64(fi.Size())
			}
			return nil
		})
		u.DiskBytes = total
	}
	iter, err := db.NewIter(nil)
	if err != nil {
		return u
	}
	defer iter.Close()
	for iter.First(); iter.Valid(); iter.Next() {
		k := string(iter.Key())
		switch {
		case strings.HasPrefix(k, "blessing:"):
			u.Blessings++
		case strings.HasPrefix(k, "intention:"):
			u.Intentions++
		case strings.HasPrefix(k, "token:"):
			u.Tokens++
		case strings.HasPrefix(k, "proof:"):
			u.Proofs++
		case strings.HasPrefix(k, "offering:"):
			u.Offerings++
		}
	}
	return u
}
