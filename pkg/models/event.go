package models

// AttentionSwitchEvent is one entry in a user's append-only attention
// log. Index is the 0-based append position and is the log's true order;
// TS is caller-supplied (milliseconds) and may be out of order.
type AttentionSwitchEvent struct {
	UserID      string `json:"user_id"`
	IntentionID string `json:"intention_id"`
	TS          int64  `json:"ts"`
	Index       int    `json:"index"`
}
