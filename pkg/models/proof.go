package models

// ProofOfService records that the named users delivered value for an
// intention. Append-only; TokensReceived grows monotonically as tokens
// are gifted in its honor.
type ProofOfService struct {
	ID          string   `json:"id"`
	IntentionID string   `json:"intention_id"`
	By          []string `json:"by"`
	Content     string   `json:"content,omitempty"`
	Media       []string `json:"media,omitempty"`
	TS          int64    `json:"ts"`
	// TokensReceived is a set (token id -> presence) so concurrent gifts
	// merge instead of overwriting each other.
	TokensReceived map[string]bool `json:"tokens_received,omitempty"`
}

// SubmittedBy reports whether userID is among the proof's submitters.
func (p *ProofOfService) SubmittedBy(userID string) bool {
	for _, b := range p.By {
		if b == userID {
			return true
		}
	}
	return false
}

// AddTokenReceived records a gifted token id. Re-adding an id already
// present is a no-op; returns whether the set changed.
func (p *ProofOfService) AddTokenReceived(tokenID string) bool {
	if p.TokensReceived == nil {
		p.TokensReceived = map[string]bool{}
	}
	if p.TokensReceived[tokenID] {
		return false
	}
	p.TokensReceived[tokenID] = true
	return true
}
