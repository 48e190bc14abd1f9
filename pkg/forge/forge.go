// Package forge mints tokens of gratitude from potential blessings and
// transfers them to service providers. Both operations re-validate
// their preconditions at write time against the freshly read records,
// never against an earlier read.
package forge

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

// Contractual error messages; callers match on these substrings.
const (
	ErrNoIndices     = "Must provide at least one blessing index"
	ErrNotFoundSome  = "One or more blessings not found"
	ErrMixedIntents  = "All blessings must be from the same intention"
	ErrWrongReceiver = "Token must be gifted to the service provider"
)

// Forge combines the blessings at the given attention indices of
// forgedBy into a new token honoring a proof. Duplicate indices are
// tolerated and contribute their duration once per occurrence; the
// underlying status flip applies once per distinct blessing and is
// all-or-nothing. Proof existence is deliberately not checked here —
// gifting validates it.
func Forge(forgedBy string, blessingIndices []int, intentionID, honoringProof, message string) (*models.Token, error) {
	if len(blessingIndices) == 0 {
		return nil, apperr.Validation(ErrNoIndices)
	}

	// resolve every requested index, duplicates included
	resolved := make([]*models.Blessing, 0, len(blessingIndices))
	for _, idx := range blessingIndices {
		b, err := blessing.ByIndex(forgedBy, idx)
		if err != nil {
			if apperr.IsNotFound(err) {
				return nil, apperr.NotFound(ErrNotFoundSome)
			}
			return nil, err
		}
		resolved = append(resolved, b)
	}

	for _, b := range resolved {
		if b.IntentionID != intentionID {
			return nil, apperr.BusinessRule(ErrMixedIntents)
		}
	}
	for _, b := range resolved {
		if b.Status != models.StatusPotential {
			return nil, apperr.BusinessRule(blessing.ErrNotPotential)
		}
	}

	now := timeutil.NowMS()
	var total int64
	for _, b := range resolved {
		d, err := blessing.Duration(b, now)
		if err != nil {
			return nil, err
		}
		total += d
	}

	distinctIDs := make([]string, 0, len(resolved))
	seen := map[string]bool{}
	for _, b := range resolved {
		if !seen[b.ID] {
			seen[b.ID] = true
			distinctIDs = append(distinctIDs, b.ID)
		}
	}

	tokenID := utils.GenTokenID()
	// the flip re-validates every blessing's status at write time and
	// aborts the whole forge if anything is no longer potential
	if err := blessing.MarkGivenAll(distinctIDs, tokenID); err != nil {
		return nil, err
	}

	t := &models.Token{
		ID:            tokenID,
		ForgedBy:      forgedBy,
		ForgedFrom:    append([]int(nil), blessingIndices...),
		BlessingIDs:   distinctIDs,
		IntentionID:   intentionID,
		HonoringProof: honoringProof,
		Steward:       forgedBy,
		TotalDuration: total,
		Message:       message,
		ForgedTS:      now,
	}
	if err := store.SaveToken(t); err != nil {
		return nil, fmt.Errorf("blessings consumed but token write failed: %w", err)
	}
	logger.AuditEvent("token_forged", "token", tokenID, "by", forgedBy, "intention", intentionID, "blessings", distinctIDs, "duration_ms", total)
	return t, nil
}

// Gift transfers a token's stewardship to a service provider named on
// the token's honoring proof, and records the token on the proof's
// received set. Re-gifting the same token to the same provider is
// idempotent on the proof side.
func Gift(tokenID, serviceProviderID string) (*models.Token, error) {
	t, err := store.GetToken(tokenID)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("Token %s not found", tokenID))
		}
		return nil, err
	}
	p, err := store.GetProof(t.HonoringProof)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("Proof %s not found", t.HonoringProof))
		}
		return nil, err
	}
	if !p.SubmittedBy(serviceProviderID) {
		return nil, apperr.BusinessRule(ErrWrongReceiver)
	}

	var updated models.Token
	err = store.Update(store.TokenKey(tokenID), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Token %s not found", tokenID))
		}
		var cur models.Token
		if err := json.Unmarshal(old, &cur); err != nil {
			return nil, fmt.Errorf("invalid token JSON: %w", err)
		}
		cur.Steward = serviceProviderID
		cur.Parent = serviceProviderID
		updated = cur
		return json.Marshal(cur)
	})
	if err != nil {
		return nil, err
	}

	// read-merge-write so concurrent gifts against the same proof are
	// appended, never overwritten
	err = store.Update(store.ProofKey(p.ID), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Proof %s not found", p.ID))
		}
		var cur models.ProofOfService
		if err := json.Unmarshal(old, &cur); err != nil {
			return nil, fmt.Errorf("invalid proof JSON: %w", err)
		}
		if !cur.AddTokenReceived(tokenID) {
			return nil, store.ErrSkipUpdate
		}
		return json.Marshal(cur)
	})
	if err != nil {
		return nil, err
	}

	logger.AuditEvent("token_gifted", "token", tokenID, "to", serviceProviderID, "proof", p.ID)
	return &updated, nil
}
