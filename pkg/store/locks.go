package store

import (
	"errors"
	"sort"
	"sync"
)

// ErrSkipUpdate may be returned by an Update func to abort the write
// without reporting an error (e.g. appending to a record that turned
// out not to exist, where lazy validation tolerates the absence).
var ErrSkipUpdate = errors.New("skip update")

// The store offers no multi-document transactions, so every mutation
// that moves value runs as a read-validate-write under a per-key mutex.
// Locks are process-local: every caller shares this one store handle
// inside a single process.

var (
	lockMu sync.Mutex
	locks  = map[string]*sync.Mutex{}
)

func keyLock(key string) *sync.Mutex {
	lockMu.Lock()
	defer lockMu.Unlock()
	l, ok := locks[key]
	if !ok {
		l = &sync.Mutex{}
		locks[key] = l
	}
	return l
}

// LockKey acquires the named lock and returns its unlock func. Used by
// the ledger to serialize same-user attention switches.
func LockKey(key string) func() {
	l := keyLock(key)
	l.Lock()
	return l.Unlock
}

// Update performs a read-modify-write of a single key under its lock.
// fn receives the current value (nil when the key is absent) and
// returns the replacement; returning an error aborts without writing.
func Update(key string, fn func(old []byte) ([]byte, error)) error {
	unlock := LockKey(key)
	defer unlock()

	old, err := GetKey(key)
	if err != nil && !IsNotFound(err) {
		return err
	}
	nb, ferr := fn(old)
	if ferr != nil {
		if errors.Is(ferr, ErrSkipUpdate) {
			return nil
		}
		return ferr
	}
	return SaveKey(key, nb)
}

// UpdateMulti locks the given keys (deduplicated, in sorted order so
// concurrent callers cannot deadlock), re-reads them all, and applies
// fn. fn returns the full replacement set; any error aborts the whole
// update with nothing written. This is the transaction-like helper the
// forge and acceptance paths use for all-or-nothing status flips.
func UpdateMulti(keys []string, fn func(olds map[string][]byte) (map[string][]byte, error)) error {
	distinct := make([]string, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		if !seen[k] {
			seen[k] = true
			distinct = append(distinct, k)
		}
	}
	sort.Strings(distinct)

	unlocks := make([]func(), 0, len(distinct))
	for _, k := range distinct {
		unlocks = append(unlocks, LockKey(k))
	}
	defer func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}()

	olds := make(map[string][]byte, len(distinct))
	for _, k := range distinct {
		v, err := GetKey(k)
		if err != nil {
			if IsNotFound(err) {
				continue
			}
			return err
		}
		olds[k] = v
	}

	news, err := fn(olds)
	if err != nil {
		return err
	}
	for k, v := range news {
		if err := SaveKey(k, v); err != nil {
			return err
		}
	}
	return nil
}
