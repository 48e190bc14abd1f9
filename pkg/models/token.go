package models

// Token is a transferable bundle of forged blessings. TotalDuration is
// fixed at forge time (milliseconds); Steward changes on gifting or
// marketplace acceptance. Parent/Children may be mutated externally and
// can form cycles, so traversals never trust the links to be acyclic.
type Token struct {
	ID       string `json:"id"`
	ForgedBy string `json:"forged_by"`
	// ForgedFrom holds the attention indices as requested, duplicates
	// included; BlessingIDs holds the distinct resolved blessings.
	ForgedFrom    []int    `json:"forged_from"`
	BlessingIDs   []string `json:"blessing_ids"`
	IntentionID   string   `json:"intention_id"`
	HonoringProof string   `json:"honoring_proof"`
	Steward       string   `json:"steward"`
	Parent        string   `json:"parent,omitempty"`
	Children      []string `json:"children,omitempty"`
	TotalDuration int64    `json:"total_duration"`
	Message       string   `json:"message,omitempty"`
	ForgedTS      int64    `json:"forged_ts"`
}
