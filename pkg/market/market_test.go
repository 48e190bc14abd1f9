package market_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"reciprodb/pkg/apperr"
	"reciprodb/pkg/market"
	"reciprodb/pkg/models"
	"reciprodb/pkg/store"
)

func openTestStore(t *testing.T) {
	t.Helper()
	require.NoError(t, store.Open(t.TempDir()))
	t.Cleanup(func() { _ = store.Close() })
}

func saveToken(t *testing.T, id, steward string, duration int64, children ...string) {
	t.Helper()
	require.NoError(t, store.SaveToken(&models.Token{
		ID:            id,
		Steward:       steward,
		TotalDuration: duration,
		Children:      children,
	}))
}

func TestCreateOffering(t *testing.T) {
	openTestStore(t)

	o, err := market.CreateOffering("host", "bread workshop", "sourdough basics", 2, 5000, "the mill")
	require.NoError(t, err)
	require.Equal(t, models.OfferingOpen, o.Status)
	require.Equal(t, 2, o.SlotsAvailable)

	got, err := market.Get(o.ID)
	require.NoError(t, err)
	require.Equal(t, "bread workshop", got.Title)

	_, err = market.CreateOffering("", "x", "", 1, 0, "")
	require.True(t, apperr.IsValidation(err))
	_, err = market.CreateOffering("host", "x", "", -1, 0, "")
	require.True(t, apperr.IsValidation(err))
}

func TestBidPositionsAndDuplicates(t *testing.T) {
	openTestStore(t)

	o, err := market.CreateOffering("host", "workshop", "", 2, 0, "")
	require.NoError(t, err)
	saveToken(t, "tk_a", "ana", 3_600_000)
	saveToken(t, "tk_b", "ben", 5_400_000)

	pos, err := market.Bid(o.ID, "ana", "tk_a")
	require.NoError(t, err)
	require.Equal(t, 1, pos)
	pos, err = market.Bid(o.ID, "ben", "tk_b")
	require.NoError(t, err)
	require.Equal(t, 2, pos)

	_, err = market.Bid(o.ID, "ana", "tk_a")
	require.True(t, apperr.IsBusinessRule(err))
	require.EqualError(t, err, market.ErrAlreadyBid)

	_, err = market.Bid("of_ghost", "ana", "tk_a")
	require.True(t, apperr.IsNotFound(err))
}

func TestRankBidsByTreeDuration(t *testing.T) {
	openTestStore(t)

	o, err := market.CreateOffering("host", "workshop", "", 1, 0, "")
	require.NoError(t, err)
	// carla's top token is smaller than ben's but its child tips the tree
	saveToken(t, "tk_a", "ana", 3_600_000)
	saveToken(t, "tk_b", "ben", 5_400_000)
	saveToken(t, "tk_c_child", "carla", 4_000_000)
	saveToken(t, "tk_c", "carla", 2_000_000, "tk_c_child")

	for _, bid := range []struct{ user, token string }{
		{"ana", "tk_a"}, {"ben", "tk_b"}, {"carla", "tk_c"},
	} {
		_, err := market.Bid(o.ID, bid.user, bid.token)
		require.NoError(t, err)
	}

	got, err := market.Get(o.ID)
	require.NoError(t, err)
	ranked, err := market.RankBids(got, 0)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	require.Equal(t, "carla", ranked[0].Offer.UserID)
	require.Equal(t, int64(6_000_000), ranked[0].Duration)
	require.Equal(t, "ben", ranked[1].Offer.UserID)
	require.Equal(t, "ana", ranked[2].Offer.UserID)
}

func TestAcceptBidsTransfersWinningTrees(t *testing.T) {
	openTestStore(t)

	o, err := market.CreateOffering("host", "workshop", "", 2, 0, "")
	require.NoError(t, err)
	saveToken(t, "tk_a", "ana", 7_200_000)
	saveToken(t, "tk_b_child", "ben", 1_800_000)
	saveToken(t, "tk_b", "ben", 3_600_000, "tk_b_child")
	saveToken(t, "tk_c", "carla", 1_000_000)
	for _, bid := range []struct{ user, token string }{
		{"ana", "tk_a"}, {"ben", "tk_b"}, {"carla", "tk_c"},
	} {
		_, err := market.Bid(o.ID, bid.user, bid.token)
		require.NoError(t, err)
	}

	_, err = market.AcceptBids(o.ID, "not_the_host")
	require.True(t, apperr.IsBusinessRule(err))

	res, err := market.AcceptBids(o.ID, "host")
	require.NoError(t, err)
	require.Equal(t, []string{"ana", "ben"}, res.Accepted)
	require.Equal(t, []string{"carla"}, res.Rejected)

	got, err := market.Get(o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OfferingFulfilled, got.Status)
	require.Equal(t, 0, got.SlotsAvailable)
	require.Equal(t, []string{"ana", "ben"}, got.SelectedStewards)

	// the whole winning trees change steward, the losing one does not
	for _, id := range []string{"tk_a", "tk_b", "tk_b_child"} {
		tok, err := store.GetToken(id)
		require.NoError(t, err)
		require.Equal(t, "host", tok.Steward, "token %s", id)
	}
	loser, err := store.GetToken("tk_c")
	require.NoError(t, err)
	require.Equal(t, "carla", loser.Steward)

	// a fulfilled offering takes no further bids or acceptance
	_, err = market.Bid(o.ID, "dan", "tk_a")
	require.True(t, apperr.IsBusinessRule(err))
	require.EqualError(t, err, "Offering "+o.ID+" is not open")
	_, err = market.AcceptBids(o.ID, "host")
	require.True(t, apperr.IsBusinessRule(err))
}

func TestAcceptBidsZeroBids(t *testing.T) {
	openTestStore(t)

	o, err := market.CreateOffering("host", "workshop", "", 3, 0, "")
	require.NoError(t, err)
	res, err := market.AcceptBids(o.ID, "host")
	require.NoError(t, err)
	require.Empty(t, res.Accepted)
	require.Empty(t, res.Rejected)

	got, err := market.Get(o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OfferingFulfilled, got.Status)
}

func TestCloseOffering(t *testing.T) {
	openTestStore(t)

	o, err := market.CreateOffering("host", "workshop", "", 1, 0, "")
	require.NoError(t, err)

	require.Error(t, market.CloseOffering(o.ID, "not_the_host"))
	require.NoError(t, market.CloseOffering(o.ID, "host"))

	got, err := market.Get(o.ID)
	require.NoError(t, err)
	require.Equal(t, models.OfferingClosed, got.Status)

	err = market.CloseOffering(o.ID, "host")
	require.True(t, apperr.IsBusinessRule(err))
	require.EqualError(t, err, "Offering "+o.ID+" is not open")

	err = market.CloseOffering("of_ghost", "host")
	require.True(t, apperr.IsNotFound(err))
}
