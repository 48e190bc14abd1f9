package store

import (
	"encoding/json"
	"fmt"

	"reciprodb/pkg/logger"
	"reciprodb/pkg/models"
)

// Key layout. Indices are zero-padded so lexical order is append order.
//
//	attn:<user>:<%012d>           attention event log (append-only)
//	user:<user>:active            id of the user's active blessing
//	user:<user>:blessing:<%012d>  attention index -> blessing id
//	blessing:<id>                 blessing document
//	intention:<id>                intention document
//	proof:<id>                    proof-of-service document
//	token:<id>                    token document
//	offering:<id>                 offering document
//	stats:<%020d>                 maintenance snapshots

func attnKey(userID string, index int) string {
	return fmt.Sprintf("attn:%s:%012d", userID, index)
}

func attnPrefix(userID string) string { return "attn:" + userID + ":" }

// BlessingKey returns the document key for a blessing id.
func BlessingKey(id string) string { return "blessing:" + id }

// IntentionKey returns the document key for an intention id.
func IntentionKey(id string) string { return "intention:" + id }

// ProofKey returns the document key for a proof id.
func ProofKey(id string) string { return "proof:" + id }

// TokenKey returns the document key for a token id.
func TokenKey(id string) string { return "token:" + id }

// OfferingKey returns the document key for an offering id.
func OfferingKey(id string) string { return "offering:" + id }

// UserLockKey names the per-user critical section serializing attention
// switches for one user.
func UserLockKey(userID string) string { return "user:" + userID }

func blessingIndexKey(userID string, index int) string {
	return fmt.Sprintf("user:%s:blessing:%012d", userID, index)
}

func activeKey(userID string) string { return "user:" + userID + ":active" }

// AppendAttention writes an attention event at its index position in
// the user's log. Callers hold the user lock and have already assigned
// the next dense index via AttentionCount.
func AppendAttention(ev models.AttentionSwitchEvent) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal attention event: %w", err)
	}
	key := attnKey(ev.UserID, ev.Index)
	if err := SaveKey(key, b); err != nil {
		return err
	}
	logger.Debug("attention_appended", "user", ev.UserID, "index", ev.Index, "intention", ev.IntentionID)
	return nil
}

// ListAttention returns a user's attention log in index (append) order.
func ListAttention(userID string) ([]models.AttentionSwitchEvent, error) {
	docs, err := ListDocs(attnPrefix(userID))
	if err != nil {
		return nil, err
	}
	out := make([]models.AttentionSwitchEvent, 0, len(docs))
	for _, d := range docs {
		var ev models.AttentionSwitchEvent
		if err := json.Unmarshal(d, &ev); err != nil {
			return nil, fmt.Errorf("invalid attention event JSON: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// AttentionCount returns the number of events in a user's log, which is
// also the next free attention index.
func AttentionCount(userID string) (int, error) {
	keys, err := ListKeys(attnPrefix(userID))
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// SaveBlessing persists a blessing document.
func SaveBlessing(b *models.Blessing) error {
	nb, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("failed to marshal blessing: %w", err)
	}
	return SaveKey(BlessingKey(b.ID), nb)
}

// GetBlessing loads a blessing by id.
func GetBlessing(id string) (*models.Blessing, error) {
	v, err := GetKey(BlessingKey(id))
	if err != nil {
		return nil, err
	}
	var b models.Blessing
	if err := json.Unmarshal(v, &b); err != nil {
		return nil, fmt.Errorf("invalid blessing JSON: %w", err)
	}
	return &b, nil
}

// SetBlessingIndex records the attention-index -> blessing-id mapping
// for a user.
func SetBlessingIndex(userID string, index int, blessingID string) error {
	return SaveKey(blessingIndexKey(userID, index), []byte(blessingID))
}

// BlessingIDByIndex resolves a user's blessing id from an attention
// index.
func BlessingIDByIndex(userID string, index int) (string, error) {
	v, err := GetKey(blessingIndexKey(userID, index))
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// ActiveBlessingID returns the id of the user's active blessing, or ""
// when none is recorded.
func ActiveBlessingID(userID string) (string, error) {
	v, err := GetKey(activeKey(userID))
	if err != nil {
		if IsNotFound(err) {
			return "", nil
		}
		return "", err
	}
	return string(v), nil
}

// SetActiveBlessingID updates the user's active-blessing pointer.
func SetActiveBlessingID(userID, blessingID string) error {
	return SaveKey(activeKey(userID), []byte(blessingID))
}

// SaveIntention persists an intention document.
func SaveIntention(in *models.Intention) error {
	nb, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal intention: %w", err)
	}
	return SaveKey(IntentionKey(in.ID), nb)
}

// GetIntention loads an intention by id.
func GetIntention(id string) (*models.Intention, error) {
	v, err := GetKey(IntentionKey(id))
	if err != nil {
		return nil, err
	}
	var in models.Intention
	if err := json.Unmarshal(v, &in); err != nil {
		return nil, fmt.Errorf("invalid intention JSON: %w", err)
	}
	return &in, nil
}

// SaveProof persists a proof-of-service document.
func SaveProof(p *models.ProofOfService) error {
	nb, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal proof: %w", err)
	}
	return SaveKey(ProofKey(p.ID), nb)
}

// GetProof loads a proof by id.
func GetProof(id string) (*models.ProofOfService, error) {
	v, err := GetKey(ProofKey(id))
	if err != nil {
		return nil, err
	}
	var p models.ProofOfService
	if err := json.Unmarshal(v, &p); err != nil {
		return nil, fmt.Errorf("invalid proof JSON: %w", err)
	}
	return &p, nil
}

// SaveToken persists a token document.
func SaveToken(t *models.Token) error {
	nb, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}
	return SaveKey(TokenKey(t.ID), nb)
}

// GetToken loads a token by id.
func GetToken(id string) (*models.Token, error) {
	v, err := GetKey(TokenKey(id))
	if err != nil {
		return nil, err
	}
	var t models.Token
	if err := json.Unmarshal(v, &t); err != nil {
		return nil, fmt.Errorf("invalid token JSON: %w", err)
	}
	return &t, nil
}

// SaveOffering persists an offering document.
func SaveOffering(o *models.Offering) error {
	nb, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal offering: %w", err)
	}
	return SaveKey(OfferingKey(o.ID), nb)
}

// GetOffering loads an offering by id.
func GetOffering(id string) (*models.Offering, error) {
	v, err := GetKey(OfferingKey(id))
	if err != nil {
		return nil, err
	}
	var o models.Offering
	if err := json.Unmarshal(v, &o); err != nil {
		return nil, fmt.Errorf("invalid offering JSON: %w", err)
	}
	return &o, nil
}
