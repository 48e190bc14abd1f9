// Package ledger owns the per-user append-only attention log and the
// switch operation that drives the blessing lifecycle. A switch appends
// an event at the next dense index, retires the previously active
// blessing to potential, and opens a new active blessing for the target
// intention.
package ledger

import (
	"encoding/json"
	"fmt"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/blessing"
	"reciprodb/pkg/logger"
	"reciprodb/pkg/models"
	"reciprodb/pkg/store"
	"reciprodb/pkg/timeutil"
	"reciprodb/pkg/utils"
)

// SwitchResult reports the outcome of an attention switch.
type SwitchResult struct {
	BlessingID     string `json:"blessing_id"`
	AttentionIndex int    `json:"attention_index"`
	// PreviousBlessingID is empty when the user had no active blessing.
	PreviousBlessingID string `json:"previous_blessing_id,omitempty"`
}

// RecordSwitch appends an attention-switch event for the user and flips
// blessing statuses accordingly. annotation, when non-empty, is stamped
// retroactively onto the blessing being retired. ts is in milliseconds;
// out-of-order timestamps are accepted (index order is authoritative).
func RecordSwitch(userID, intentionID string, ts int64, annotation string) (*SwitchResult, error) {
	if userID == "" {
		return nil, apperr.Validation("User ID is required")
	}
	if ts <= 0 {
		ts = timeutil.NowMS()
	}

	// Same-user switches serialize on the user lock; concurrent racers
	// each read-then-write and the last writer wins, which is the
	// accepted outcome for pure attention switching.
	unlock := store.LockKey(store.UserLockKey(userID))
	defer unlock()

	index, err := store.AttentionCount(userID)
	if err != nil {
		return nil, err
	}
	ev := models.AttentionSwitchEvent{UserID: userID, IntentionID: intentionID, TS: ts, Index: index}
	if err := store.AppendAttention(ev); err != nil {
		return nil, err
	}

	prevID, err := store.ActiveBlessingID(userID)
	if err != nil {
		return nil, err
	}
	if prevID != "" {
		if err := blessing.MarkPotential(prevID, annotation); err != nil {
			// an externally removed active blessing must not wedge the log
			if !apperr.IsNotFound(err) {
				return nil, err
			}
			logger.Warn("previous_active_blessing_missing", "user", userID, "blessing", prevID)
			prevID = ""
		}
	}

	b := &models.Blessing{
		ID:             utils.GenBlessingID(),
		UserID:         userID,
		IntentionID:    intentionID,
		AttentionIndex: index,
		TS:             ts,
		Status:         models.StatusActive,
		StewardID:      userID,
		PreviousID:     prevID,
	}
	if err := store.SaveBlessing(b); err != nil {
		return nil, err
	}
	if err := store.SetBlessingIndex(userID, index, b.ID); err != nil {
		return nil, err
	}
	if err := store.SetActiveBlessingID(userID, b.ID); err != nil {
		return nil, err
	}

	// record the blessing on the intention when it exists; switching to
	// an unknown intention id is tolerated (lazy validation)
	if intentionID != "" {
		if err := appendBlessingToIntention(intentionID, b.ID); err != nil {
			return nil, err
		}
	}

	logger.Info("attention_switch", "user", userID, "intention", intentionID, "index", index, "blessing", b.ID)
	return &SwitchResult{BlessingID: b.ID, AttentionIndex: index, PreviousBlessingID: prevID}, nil
}

func appendBlessingToIntention(intentionID, blessingID string) error {
	return store.Update(store.IntentionKey(intentionID), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, store.ErrSkipUpdate
		}
		var in models.Intention
		if err := json.Unmarshal(old, &in); err != nil {
			return nil, fmt.Errorf("invalid intention JSON: %w", err)
		}
		in.Blessings = append(in.Blessings, blessingID)
		return json.Marshal(in)
	})
}

// Events returns the user's attention log in append (index) order.
func Events(userID string) ([]models.AttentionSwitchEvent, error) {
	return store.ListAttention(userID)
}

// DurationAt computes the duration (ms) of the attention span starting
// at the given index of the user's log, per the span rules: gap to the
// next event, or to now for the last span. now <= 0 means wall clock.
func DurationAt(userID string, index int, now int64) (int64, error) {
	events, err := store.ListAttention(userID)
	if err != nil {
		return 0, err
	}
	if index < 0 || index >= len(events) {
		return 0, apperr.NotFound(fmt.Sprintf("Attention index %d out of range for user %s", index, userID))
	}
	return timeutil.SpanDuration(events, index, now), nil
}
