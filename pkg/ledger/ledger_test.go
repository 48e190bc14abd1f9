package ledger_test

import (
	"testing"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/ledger"
	"reciprodb/pkg/models"
	"reciprodb/pkg/store"
)

const minute = int64(60_000)

func openTestStore(t *testing.T) {
	t.Helper()
	if err := store.Open(t.TempDir()); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
}

func TestRecordSwitchLifecycle(t *testing.T) {
	openTestStore(t)

	// u1 attends intention A for 30 minutes, then switches to B
	first, err := ledger.RecordSwitch("u1", "in_a", 1000, "")
	if err != nil {
		t.Fatalf("first switch failed: %v", err)
	}
	if first.AttentionIndex != 0 || first.PreviousBlessingID != "" {
		t.Fatalf("unexpected first result: %+v", first)
	}

	second, err := ledger.RecordSwitch("u1", "in_b", 1000+30*minute, "weeded the beds")
	if err != nil {
		t.Fatalf("second switch failed: %v", err)
	}
	if second.AttentionIndex != 1 {
		t.Fatalf("expected dense index 1, got %d", second.AttentionIndex)
	}
	if second.PreviousBlessingID != first.BlessingID {
		t.Fatalf("previous blessing mismatch: %s vs %s", second.PreviousBlessingID, first.BlessingID)
	}

	// the retired blessing is potential and carries the annotation
	prev, err := store.GetBlessing(first.BlessingID)
	if err != nil {
		t.Fatalf("failed to load previous blessing: %v", err)
	}
	if prev.Status != models.StatusPotential {
		t.Fatalf("previous blessing status = %s, want potential", prev.Status)
	}
	if prev.Content != "weeded the beds" {
		t.Fatalf("annotation not stamped: %q", prev.Content)
	}

	cur, err := store.GetBlessing(second.BlessingID)
	if err != nil {
		t.Fatalf("failed to load active blessing: %v", err)
	}
	if cur.Status != models.StatusActive {
		t.Fatalf("active blessing status = %s", cur.Status)
	}
	if cur.PreviousID != first.BlessingID {
		t.Fatalf("chain broken: %s", cur.PreviousID)
	}

	// the first span is exactly the 30-minute gap
	d, err := ledger.DurationAt("u1", 0, 0)
	if err != nil {
		t.Fatalf("duration failed: %v", err)
	}
	if d != 30*minute {
		t.Fatalf("duration = %d, want %d", d, 30*minute)
	}
}

func TestRecordSwitchRequiresUser(t *testing.T) {
	openTestStore(t)

	_, err := ledger.RecordSwitch("", "in_a", 0, "")
	if !apperr.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordSwitchAppendsToIntention(t *testing.T) {
	openTestStore(t)

	in := &models.Intention{ID: "in_x", Status: models.IntentionOpen}
	if err := store.SaveIntention(in); err != nil {
		t.Fatalf("save intention: %v", err)
	}
	res, err := ledger.RecordSwitch("u1", "in_x", 1000, "")
	if err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	got, _ := store.GetIntention("in_x")
	if len(got.Blessings) != 1 || got.Blessings[0] != res.BlessingID {
		t.Fatalf("blessing not recorded on intention: %+v", got.Blessings)
	}
}

func TestRecordSwitchToleratesUnknownIntention(t *testing.T) {
	openTestStore(t)

	// lazy validation: switching onto an id nobody declared still logs
	if _, err := ledger.RecordSwitch("u1", "in_ghost", 1000, ""); err != nil {
		t.Fatalf("switch onto unknown intention must succeed, got %v", err)
	}
	evs, err := ledger.Events("u1")
	if err != nil || len(evs) != 1 {
		t.Fatalf("events = %v, %v", evs, err)
	}
}

func TestDurationAtOutOfRange(t *testing.T) {
	openTestStore(t)

	if _, err := ledger.RecordSwitch("u1", "in_a", 1000, ""); err != nil {
		t.Fatalf("switch failed: %v", err)
	}
	if _, err := ledger.DurationAt("u1", 5, 0); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found for out-of-range index, got %v", err)
	}
	if _, err := ledger.DurationAt("u1", -1, 0); !apperr.IsNotFound(err) {
		t.Fatalf("expected not-found for negative index, got %v", err)
	}
}
