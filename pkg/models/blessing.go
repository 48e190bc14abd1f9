package models

// Blessing statuses. A blessing only ever advances
// active -> potential -> given; given is terminal.
const (
	StatusActive    = "active"
	StatusPotential = "potential"
	StatusGiven     = "given"
)

// Blessing is one span of a user's attention devoted to an intention,
// keyed by (user, attention index). TS is the starting attention-switch
// timestamp in milliseconds.
type Blessing struct {
	ID             string `json:"id"`
	UserID         string `json:"user_id"`
	IntentionID    string `json:"intention_id"`
	AttentionIndex int    `json:"attention_index"`
	TS             int64  `json:"ts"`
	Status         string `json:"status"`
	// StewardID starts as the creating user and changes only via
	// gifting or marketplace transfer.
	StewardID string `json:"steward_id"`
	Content   string `json:"content,omitempty"`
	ProofID   string `json:"proof_id,omitempty"`
	// ForgedInto is set when the blessing is consumed by a token forge.
	ForgedInto string   `json:"forged_into_token,omitempty"`
	ParentID   string   `json:"parent_id,omitempty"`
	Children   []string `json:"children,omitempty"`
	// PreviousID links to the blessing that was active before this one;
	// empty when the user had no active blessing at switch time.
	PreviousID string `json:"previous_blessing_id,omitempty"`
}
