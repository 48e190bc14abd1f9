// Package intent tracks intentions, their proofs of service, and the
// live credit ("gratitude potential") an intention represents. Proof
// existence is validated lazily: posting a proof against an unknown
// intention succeeds, and the check happens at gift time instead.
package intent

import (
	"encoding/json"
	"fmt"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/blessing"
	"reciprodb/pkg/ledger"
	"reciprodb/pkg/logger"
	"reciprodb/pkg/models"
	"reciprodb/pkg/store"
	"reciprodb/pkg/timeutil"
	"reciprodb/pkg/tokentree"
	"reciprodb/pkg/utils"
)

// CreateResult reports a newly created intention and the attention
// switch it triggered for the creator.
type CreateResult struct {
	IntentionID    string `json:"intention_id"`
	BlessingID     string `json:"blessing_id"`
	AttentionIndex int    `json:"attention_index"`
}

// Create records a new open intention and switches the creator's
// attention onto it, opening their next blessing.
func Create(userID, title string, ts int64) (*CreateResult, error) {
	if userID == "" {
		return nil, apperr.Validation("User ID is required")
	}
	if ts <= 0 {
		ts = timeutil.NowMS()
	}
	in := &models.Intention{
		ID:        utils.GenIntentionID(),
		Title:     title,
		CreatedBy: userID,
		CreatedTS: ts,
		Status:    models.IntentionOpen,
	}
	if err := store.SaveIntention(in); err != nil {
		return nil, err
	}
	sw, err := ledger.RecordSwitch(userID, in.ID, ts, "")
	if err != nil {
		return nil, err
	}
	logger.Info("intention_created", "intention", in.ID, "user", userID, "title", title)
	return &CreateResult{IntentionID: in.ID, BlessingID: sw.BlessingID, AttentionIndex: sw.AttentionIndex}, nil
}

// Get loads an intention by id.
func Get(id string) (*models.Intention, error) {
	in, err := store.GetIntention(id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("Intention %s not found", id))
		}
		return nil, err
	}
	return in, nil
}

// Close flips an open intention to closed. Closed intentions still
// accept proofs and gifts (value settles late) and attention switches.
func Close(id string) error {
	return store.Update(store.IntentionKey(id), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Intention %s not found", id))
		}
		var in models.Intention
		if err := json.Unmarshal(old, &in); err != nil {
			return nil, fmt.Errorf("invalid intention JSON: %w", err)
		}
		if in.Status != models.IntentionOpen {
			return nil, apperr.BusinessRule(fmt.Sprintf("Intention %s is not open", id))
		}
		in.Status = models.IntentionClosed
		return json.Marshal(in)
	})
}

// PostProof appends a proof of service for an intention. It succeeds
// even when the intention is unknown or nobody holds potential
// blessings for it; the gift path validates the proof later.
func PostProof(intentionID string, by []string, content string, media []string, ts int64) (*models.ProofOfService, error) {
	if ts <= 0 {
		ts = timeutil.NowMS()
	}
	p := &models.ProofOfService{
		ID:          utils.GenProofID(),
		IntentionID: intentionID,
		By:          append([]string(nil), by...),
		Content:     content,
		Media:       append([]string(nil), media...),
		TS:          ts,
	}
	if err := store.SaveProof(p); err != nil {
		return nil, err
	}
	if intentionID != "" {
		err := store.Update(store.IntentionKey(intentionID), func(old []byte) ([]byte, error) {
			if old == nil {
				return nil, store.ErrSkipUpdate
			}
			var in models.Intention
			if err := json.Unmarshal(old, &in); err != nil {
				return nil, fmt.Errorf("invalid intention JSON: %w", err)
			}
			in.ProofsOfService = append(in.ProofsOfService, p.ID)
			return json.Marshal(in)
		})
		if err != nil {
			return nil, err
		}
	}
	logger.Info("proof_posted", "proof", p.ID, "intention", intentionID, "by", by)
	return p, nil
}

// AttachToken records a token on an intention's attachedTokens list.
// The token document itself is not mutated.
func AttachToken(tokenID, intentionID string) error {
	return store.Update(store.IntentionKey(intentionID), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Intention %s not found", intentionID))
		}
		var in models.Intention
		if err := json.Unmarshal(old, &in); err != nil {
			return nil, fmt.Errorf("invalid intention JSON: %w", err)
		}
		in.AttachedTokens = append(in.AttachedTokens, tokenID)
		return json.Marshal(in)
	})
}

// GratitudePotential sums the live (non-given) credit an intention
// currently represents: every non-given blessing recorded on it, plus
// each attached token's duration — the whole flattened tree when
// includeChildren is set, the token alone otherwise. Missing records
// contribute 0. now <= 0 means wall-clock time.
func GratitudePotential(intentionID string, includeChildren bool, now int64) (int64, error) {
	in, err := store.GetIntention(intentionID)
	if err != nil {
		if store.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	if now <= 0 {
		now = timeutil.NowMS()
	}

	var total int64
	for _, bid := range in.Blessings {
		b, err := store.GetBlessing(bid)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return 0, err
		}
		if b.Status == models.StatusGiven {
			continue
		}
		d, err := blessing.Duration(b, now)
		if err != nil {
			return 0, err
		}
		total += d
	}

	for _, tid := range in.AttachedTokens {
		if includeChildren {
			d, err := tokentree.TreeDuration(tid, now)
			if err != nil {
				return 0, err
			}
			total += d
			continue
		}
		t, err := store.GetToken(tid)
		if err != nil {
			if store.IsNotFound(err) {
				continue
			}
			return 0, err
		}
		total += t.TotalDuration
	}
	return total, nil
}
