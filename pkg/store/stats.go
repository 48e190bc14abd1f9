package store

import (
	"encoding/json"
	"fmt"
)

// StatsSnapshot is a point-in-time ledger census written by the
// maintenance scheduler.
type StatsSnapshot struct {
	TS    int64 `json:"ts"`
	Usage Usage `json:"usage"`
}

func statsKey(ts int64) string { return fmt.Sprintf("stats:%020d", ts) }

const statsPrefix = "stats:"

// SaveStatsSnapshot persists a snapshot keyed by its timestamp so the
// snapshots list in chronological order.
func SaveStatsSnapshot(s *StatsSnapshot) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal stats snapshot: %w", err)
	}
	return SaveKey(statsKey(s.TS), b)
}

// ListStatsSnapshots returns up to limit most recent snapshots, oldest
// first. limit <= 0 returns all.
func ListStatsSnapshots(limit int) ([]StatsSnapshot, error) {
	docs, err := ListDocs(statsPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]StatsSnapshot, 0, len(docs))
	for _, d := range docs {
		var s StatsSnapshot
		if err := json.Unmarshal(d, &s); err != nil {
			return nil, fmt.Errorf("invalid stats snapshot JSON: %w", err)
		}
		out = append(out, s)
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// LatestStatsSnapshot returns the most recent snapshot, or nil when no
// snapshot has been written yet.
func LatestStatsSnapshot() (*StatsSnapshot, error) {
	snaps, err := ListStatsSnapshots(1)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, nil
	}
	return &snaps[len(snaps)-1], nil
}
