// Package market implements slot-limited offerings with token-weighted
// bidding. Bids are ranked by aggregate tree duration; acceptance
// transfers every token and blessing in each winning bid's flattened
// tree to the host.
package market

import (
	"encoding/json"
	"fmt"
	"sort"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/blessing"
	"reciprodb/pkg/logger"
	"reciprodb/pkg/models"
	"reciprodb/pkg/store"
	"reciprodb/pkg/timeutil"
	"reciprodb/pkg/tokentree"
	"reciprodb/pkg/utils"
)

// ErrAlreadyBid is the contractual message for a duplicate bid.
const ErrAlreadyBid = "User has already bid on this offering"

// CreateOffering records a new open listing with the given number of
// slots.
func CreateOffering(hostID, title, description string, slots int, when int64, place string) (*models.Offering, error) {
	if hostID == "" {
		return nil, apperr.Validation("Host ID is required")
	}
	if slots < 0 {
		return nil, apperr.Validation("Slots available must not be negative")
	}
	o := &models.Offering{
		ID:             utils.GenOfferingID(),
		HostID:         hostID,
		Title:          title,
		Description:    description,
		Time:           when,
		Place:          place,
		SlotsAvailable: slots,
		Status:         models.OfferingOpen,
		CreatedTS:      timeutil.NowMS(),
	}
	if err := store.SaveOffering(o); err != nil {
		return nil, err
	}
	logger.Info("offering_created", "offering", o.ID, "host", hostID, "slots", slots)
	return o, nil
}

// Get loads an offering by id.
func Get(id string) (*models.Offering, error) {
	o, err := store.GetOffering(id)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, apperr.NotFound(fmt.Sprintf("Offering %s not found", id))
		}
		return nil, err
	}
	return o, nil
}

// Bid stakes a user's token tree against an offering. One bid per user;
// returns the 1-based position in the bid list. The append runs under
// the offering's key lock so racing bidders cannot both slip in.
func Bid(offeringID, userID, topTokenID string) (int, error) {
	if userID == "" {
		return 0, apperr.Validation("User ID is required")
	}
	position := 0
	err := store.Update(store.OfferingKey(offeringID), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Offering %s not found", offeringID))
		}
		var o models.Offering
		if err := json.Unmarshal(old, &o); err != nil {
			return nil, fmt.Errorf("invalid offering JSON: %w", err)
		}
		if o.Status != models.OfferingOpen {
			return nil, apperr.BusinessRule(fmt.Sprintf("Offering %s is not open", offeringID))
		}
		if o.HasBidFrom(userID) {
			return nil, apperr.BusinessRule(ErrAlreadyBid)
		}
		o.TokenOffers = append(o.TokenOffers, models.TokenOffer{UserID: userID, TopToken: topTokenID})
		position = len(o.TokenOffers)
		return json.Marshal(o)
	})
	if err != nil {
		return 0, err
	}
	logger.Info("bid_placed", "offering", offeringID, "user", userID, "token", topTokenID, "position", position)
	return position, nil
}

// RankedBid pairs a bid with its aggregate tree duration.
type RankedBid struct {
	Offer    models.TokenOffer `json:"offer"`
	Duration int64             `json:"duration_ms"`
}

// RankBids orders an offering's bids by aggregate token-tree duration,
// descending. The sort is stable: ties keep original bid order.
func RankBids(o *models.Offering, now int64) ([]RankedBid, error) {
	ranked := make([]RankedBid, 0, len(o.TokenOffers))
	for _, offer := range o.TokenOffers {
		d, err := tokentree.TreeDuration(offer.TopToken, now)
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, RankedBid{Offer: offer, Duration: d})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Duration > ranked[j].Duration
	})
	return ranked, nil
}

// AcceptResult reports the outcome of accepting bids on an offering.
type AcceptResult struct {
	Accepted []string `json:"accepted"`
	Rejected []string `json:"rejected"`
}

// AcceptBids ranks the offering's bids, accepts the top slotsAvailable
// of them, and transfers every node of each accepted bid's flattened
// token tree to the host. The offering is only marked fulfilled after
// all transfers succeed; a transfer failure is reported and earlier
// transfers in the same call are not rolled back. Accepting with zero
// bids still fulfills the offering with empty lists.
func AcceptBids(offeringID, hostID string) (*AcceptResult, error) {
	o, err := Get(offeringID)
	if err != nil {
		return nil, err
	}
	if o.HostID != hostID {
		return nil, apperr.BusinessRule("Only the host may accept bids")
	}
	if o.Status != models.OfferingOpen {
		return nil, apperr.BusinessRule(fmt.Sprintf("Offering %s is not open", offeringID))
	}

	now := timeutil.NowMS()
	ranked, err := RankBids(o, now)
	if err != nil {
		return nil, err
	}

	n := o.SlotsAvailable
	if n > len(ranked) {
		n = len(ranked)
	}
	res := &AcceptResult{Accepted: []string{}, Rejected: []string{}}
	for i, rb := range ranked {
		if i < n {
			res.Accepted = append(res.Accepted, rb.Offer.UserID)
		} else {
			res.Rejected = append(res.Rejected, rb.Offer.UserID)
		}
	}

	for _, rb := range ranked[:n] {
		ids, err := tokentree.Flatten(rb.Offer.TopToken)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if err := transferNode(id, hostID); err != nil {
				return nil, fmt.Errorf("transfer of %s failed mid-acceptance: %w", id, err)
			}
		}
	}

	err = store.Update(store.OfferingKey(offeringID), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Offering %s not found", offeringID))
		}
		var cur models.Offering
		if err := json.Unmarshal(old, &cur); err != nil {
			return nil, fmt.Errorf("invalid offering JSON: %w", err)
		}
		cur.Status = models.OfferingFulfilled
		cur.SelectedStewards = append([]string(nil), res.Accepted...)
		cur.SlotsAvailable = 0
		return json.Marshal(cur)
	})
	if err != nil {
		return nil, err
	}

	logger.AuditEvent("offering_fulfilled", "offering", offeringID, "host", hostID, "accepted", res.Accepted, "rejected", res.Rejected)
	return res, nil
}

// CloseOffering closes an open offering without acceptance, rejecting
// all outstanding bids.
func CloseOffering(offeringID, hostID string) error {
	return store.Update(store.OfferingKey(offeringID), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, apperr.NotFound(fmt.Sprintf("Offering %s not found", offeringID))
		}
		var o models.Offering
		if err := json.Unmarshal(old, &o); err != nil {
			return nil, fmt.Errorf("invalid offering JSON: %w", err)
		}
		if o.HostID != hostID {
			return nil, apperr.BusinessRule("Only the host may close an offering")
		}
		if o.Status != models.OfferingOpen {
			return nil, apperr.BusinessRule(fmt.Sprintf("Offering %s is not open", offeringID))
		}
		o.Status = models.OfferingClosed
		return json.Marshal(o)
	})
}

// transferNode moves stewardship of a single tree node to the host:
// tokens get a new steward, blessings likewise.
func transferNode(id, hostID string) error {
	err := store.Update(store.TokenKey(id), func(old []byte) ([]byte, error) {
		if old == nil {
			return nil, store.ErrSkipUpdate
		}
		var t models.Token
		if err := json.Unmarshal(old, &t); err != nil {
			return nil, fmt.Errorf("invalid token JSON: %w", err)
		}
		t.Steward = hostID
		return json.Marshal(t)
	})
	if err != nil {
		return err
	}
	// the id may name a blessing rather than a token
	if _, berr := store.GetBlessing(id); berr == nil {
		return blessing.SetSteward(id, hostID)
	}
	return nil
}
