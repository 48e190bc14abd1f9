package models

// Offering statuses.
const (
	OfferingOpen      = "open"
	OfferingFulfilled = "fulfilled"
	OfferingClosed    = "closed"
)

// TokenOffer is a single user's bid on an offering: the root of the
// token tree they stake.
type TokenOffer struct {
	UserID   string `json:"user_id"`
	TopToken string `json:"top_token"`
}

// Offering is a slot-limited marketplace listing. It is created open
// and transitions to fulfilled exactly once, on acceptance.
type Offering struct {
	ID          string `json:"id"`
	HostID      string `json:"host_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Time        int64  `json:"time,omitempty"`
	Place       string `json:"place,omitempty"`
	// SlotsAvailable is zeroed on acceptance.
	SlotsAvailable   int          `json:"slots_available"`
	TokenOffers      []TokenOffer `json:"token_offers,omitempty"`
	SelectedStewards []string     `json:"selected_stewards,omitempty"`
	Status           string       `json:"status"`
	CreatedTS        int64        `json:"created_ts"`
}

// HasBidFrom reports whether userID already has an entry in TokenOffers.
func (o *Offering) HasBidFrom(userID string) bool {
	for _, b := range o.TokenOffers {
		if b.UserID == userID {
			return true
		}
	}
	return false
}
