package store

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"

	"reciprodb/pkg/logger"
)

var (
	db     *pebble.DB
	dbPath string
)

// Open opens (or creates) a Pebble database at the given path and keeps
// a global handle for simple usage in this package.
func Open(path string) error {
	var err error
	logger.Info("opening_pebble_db", "path", path)
	db, err = pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("pebble_open_failed", "path", path, "error", err)
		return err
	}
	dbPath = path
	logger.Info("pebble_opened", "path", path)
	return nil
}

// Close closes the opened pebble DB if present.
func Close() error {
	if db == nil {
		return nil
	}
	if err := db.Close(); err != nil {
		return err
	}
	db = nil
	dbPath = ""
	logger.Info("pebble_closed")
	return nil
}

// Ready reports whether the store is opened and ready.
func Ready() bool {
	return db != nil
}

var errNotOpen = fmt.Errorf("pebble not opened; call store.Open first")

// IsNotFound reports whether err is the store's missing-key error.
func IsNotFound(err error) bool {
	return errors.Is(err, pebble.ErrNotFound)
}

// GetKey returns the raw value for the given key.
func GetKey(key string) ([]byte, error) {
	if db == nil {
		return nil, errNotOpen
	}
	v, closer, err := db.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	out := append([]byte(nil), v...)
	if closer != nil {
		_ = closer.Close()
	}
	return out, nil
}

// SaveKey stores a key/value pair with a synced write. Callers choose a
// namespace prefix (e.g. "blessing:", "attn:<user>:").
func SaveKey(key string, value []byte) error {
	if db == nil {
		return errNotOpen
	}
	if err := db.Set([]byte(key), value, pebble.Sync); err != nil {
		logger.Error("save_key_failed", "key", key, "error", err)
		return err
	}
	logger.Debug("save_key_ok", "key", key, "len", len(value))
	return nil
}

// DeleteKey removes a key. The engine itself never deletes ledger
// records; this exists for admin tooling and tests.
func DeleteKey(key string) error {
	if db == nil {
		return errNotOpen
	}
	return db.Delete([]byte(key), pebble.Sync)
}

// ListKeys returns all keys (as strings) that start with the given
// prefix, in key order. Empty prefix lists the whole DB.
func ListKeys(prefix string) ([]string, error) {
	if db == nil {
		return nil, errNotOpen
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out []string
	pfx := []byte(prefix)
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if len(pfx) > 0 && !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, string(append([]byte(nil), iter.Key()...)))
	}
	return out, iter.Error()
}

// ListDocs returns all values whose keys start with the given prefix,
// in key order. Keys in this store are padded so that lexical order is
// append order.
func ListDocs(prefix string) ([][]byte, error) {
	if db == nil {
		return nil, errNotOpen
	}
	iter, err := db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()
	var out [][]byte
	pfx := []byte(prefix)
	for iter.SeekGE(pfx); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), pfx) {
			break
		}
		out = append(out, append([]byte(nil), iter.Value()...))
	}
	return out, iter.Error()
}

// DBIter returns a raw Pebble iterator for low-level operations. Caller
// must close the iterator when done.
func DBIter() (*pebble.Iterator, error) {
	if db == nil {
		return nil, errNotOpen
	}
	return db.NewIter(&pebble.IterOptions{})
}

// DBSet writes a raw key (bytes) into the DB. Low-level helper used by
// admin utilities and tests.
func DBSet(key, value []byte) error {
	if db == nil {
		return errNotOpen
	}
	return db.Set(key, value, pebble.Sync)
}
