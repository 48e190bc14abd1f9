package models

// Intention statuses.
const (
	IntentionOpen   = "open"
	IntentionClosed = "closed"
)

// Intention is a stated goal that accumulates blessings as users attend
// to it and proofs as service is delivered. Never deleted.
type Intention struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedBy string `json:"created_by"`
	CreatedTS int64  `json:"created_ts"`
	Status    string `json:"status"`
	// Blessings holds blessing ids in the order they were recorded.
	Blessings       []string `json:"blessings,omitempty"`
	ProofsOfService []string `json:"proofs_of_service,omitempty"`
	AttachedTokens  []string `json:"attached_tokens,omitempty"`
}
