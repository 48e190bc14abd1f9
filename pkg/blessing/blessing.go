// Package blessing implements the lifecycle of a single credit unit:
// active -> potential -> given, never regressing. Every status flip
// re-reads the record inside the store's keyed critical section, so a
// blessing observed as potential at call time is re-validated at write
// time (double-spend prevention happens here).
package blessing

import (
	"encoding/json"
	"fmt"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/models"
	"reciprodb/pkg/store"
	"reciprodb/pkg/timeutil"
)

// ErrNotPotential is the contractual message for forging from a
// blessing that is active or already given.
const ErrNotPotential = "Can only forge from potential blessings"

// Get loads a blessing by id, mapping a missing record to NotFound.
func Get(id string) (*models.Blessing, error) {
	b, err := store.GetBlessing(id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("Blessing %s not found", id))
		}
		return nil, err
	}
	return b, nil
}

// ByIndex resolves a user's blessing from an attention index. Negative
// or out-of-range indices report NotFound rather than panicking.
func ByIndex(userID string, index int) (*models.Blessing, error) {
	if index < 0 {
		return nil, apperr.NotFound(fmt.Sprintf("Blessing index %d not found for user %s", index, userID))
	}
	id, err := store.BlessingIDByIndex(userID, index)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("Blessing index %d not found for user %s", index, userID))
		}
		return nil, err
	}
	return Get(id)
}

// Duration computes the blessing's span duration (ms) from its owning
// user's attention log: gap to the next event, or to now for the last
// span. A blessing whose index has fallen outside the log contributes 0.
func Duration(b *models.Blessing, now int64) (int64, error) {
	events, err := store.ListAttention(b.UserID)
	if err != nil {
		return 0, err
	}
	if b.AttentionIndex < 0 || b.AttentionIndex >= len(events) {
		return 0, nil
	}
	return timeutil.SpanDuration(events, b.AttentionIndex, now), nil
}

// MarkPotential flips an active blessing to potential, optionally
// stamping a retroactive content annotation. Flipping a blessing that
// is already potential only refreshes the annotation; a given blessing
// is left untouched (given is terminal).
func MarkPotential(id, content string) error {
	return store.Update(store.BlessingKey(id), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Blessing %s not found", id))
		}
		var b models.Blessing
		if err := json.Unmarshal(old, &b); err != nil {
			return nil, fmt.Errorf("invalid blessing JSON: %w", err)
		}
		switch b.Status {
		case models.StatusActive:
			b.Status = models.StatusPotential
		case models.StatusPotential:
			// lost-update races on pure attention switching are accepted
		case models.StatusGiven:
			return old, nil
		}
		if content != "" {
			b.Content = content
		}
		return json.Marshal(b)
	})
}

// MarkGivenAll flips every listed blessing to given in one all-or-
// nothing update, stamping the consuming token id. If any blessing is
// no longer potential at write time the whole flip aborts with the
// contractual business-rule error and nothing is written.
func MarkGivenAll(ids []string, tokenID string) error {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, store.BlessingKey(id))
	}
	return store.UpdateMulti(keys, func(olds map[string][]byte) (map[string][]byte, error) {
		news := make(map[string][]byte, len(olds))
		for _, id := range ids {
			key := store.BlessingKey(id)
			old, ok := olds[key]
			if !ok {
				return nil, apperr.NotFound("One or more blessings not found")
			}
			var b models.Blessing
			if err := json.Unmarshal(old, &b); err != nil {
				return nil, fmt.Errorf("invalid blessing JSON: %w", err)
			}
			if b.Status != models.StatusPotential {
				return nil, apperr.BusinessRule(ErrNotPotential)
			}
			b.Status = models.StatusGiven
			b.ForgedInto = tokenID
			nb, err := json.Marshal(b)
			if err != nil {
				return nil, err
			}
			news[key] = nb
		}
		return news, nil
	})
}

// SetSteward transfers stewardship of a blessing. Used by marketplace
// acceptance when a blessing appears inside a transferred token tree.
func SetSteward(id, stewardID string) error {
	return store.Update(store.BlessingKey(id), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Blessing %s not found", id))
		}
		var b models.Blessing
		if err := json.Unmarshal(old, &b); err != nil {
			return nil, fmt.Errorf("invalid blessing JSON: %w", err)
		}
		b.StewardID = stewardID
		return json.Marshal(b)
	})
}
