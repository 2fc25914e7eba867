package projection

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

func ptr(v int64) *int64 { return &v }

var (
	t0   = time.Date(2025, 3, 5, 20, 0, 0, 0, time.UTC)
	team = models.Team{ID: 1, Name: "Strikers", Budget: money.FromUnits(625000), InitialBudget: money.FromUnits(650000)}
)

func TestFormatPlayer(t *testing.T) {
	sold := models.Player{ID: 10, Name: "Rahul", Category: models.CategoryA, BasePrice: money.FromUnits(20000), IsSold: true, TeamID: ptr(1)}
	bid := &models.AuctionEntry{ID: 3, Kind: models.EntryKindBid, PlayerID: 10, TeamID: 1, Price: money.FromUnits(25000)}

	view := FormatPlayer(sold, bid)
	assert.True(t, view.Sold)
	require.NotNil(t, view.TeamID)
	assert.Equal(t, int64(1), *view.TeamID)
	require.NotNil(t, view.BidAmount)
	assert.Equal(t, money.FromUnits(25000), *view.BidAmount)

	// An entry for another team is never shown as this player's bid.
	other := &models.AuctionEntry{ID: 4, Kind: models.EntryKindBid, PlayerID: 10, TeamID: 2, Price: money.FromUnits(30000)}
	assert.Nil(t, FormatPlayer(sold, other).BidAmount)

	unsold := models.Player{ID: 10, Name: "Rahul", Category: models.CategoryA, BasePrice: money.FromUnits(20000)}
	view = FormatPlayer(unsold, bid)
	assert.False(t, view.Sold)
	assert.Nil(t, view.TeamID)
	assert.Nil(t, view.BidAmount)

	out, err := json.Marshal(view)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":10,"name":"Rahul","category":"A","price":20000,"sold":false,"teamId":null}`, string(out))
}

func TestFormatTeam_IsDeterministic(t *testing.T) {
	players := []models.Player{
		{ID: 10, Name: "Rahul", Category: models.CategoryA, BasePrice: money.FromUnits(20000), IsSold: true, TeamID: ptr(1)},
		{ID: 11, Name: "Imran", Category: models.CategoryB, BasePrice: money.FromUnits(5000), IsSold: true, TeamID: ptr(2)},
		{ID: 12, Name: "Dev", Category: models.CategoryC, BasePrice: money.FromUnits(1000)},
	}
	entries := []models.AuctionEntry{
		{ID: 5, Kind: models.EntryKindBid, PlayerID: 10, TeamID: 1, Price: money.FromUnits(24000), CreatedAt: t0},
		{ID: 6, Kind: models.EntryKindBid, PlayerID: 10, TeamID: 1, Price: money.FromUnits(25000), CreatedAt: t0},
		{ID: 7, Kind: models.EntryKindReversal, PlayerID: 10, TeamID: 1, Price: money.FromUnits(99999), ReversesID: ptr(1), CreatedAt: t0.Add(time.Second)},
	}
	reversed := []models.AuctionEntry{entries[2], entries[1], entries[0]}

	first := FormatTeam(team, players, entries)
	second := FormatTeam(team, players, reversed)
	assert.Equal(t, first, second)

	require.Len(t, first.Players, 1)
	assert.Equal(t, int64(10), first.Players[0].ID)
	require.NotNil(t, first.Players[0].BidAmount)
	assert.Equal(t, money.FromUnits(25000), *first.Players[0].BidAmount)
	assert.Equal(t, money.FromUnits(625000), first.Budget)
}

func TestFormatTeams(t *testing.T) {
	teams := []models.Team{team, {ID: 2, Name: "Titans", Budget: money.FromUnits(645000), InitialBudget: money.FromUnits(650000)}}
	players := []models.Player{
		{ID: 10, Name: "Rahul", IsSold: true, TeamID: ptr(1)},
		{ID: 11, Name: "Imran", IsSold: true, TeamID: ptr(2)},
		{ID: 12, Name: "Dev"},
	}

	views := FormatTeams(teams, players, nil)
	require.Len(t, views, 2)
	assert.Len(t, views[0].Players, 1)
	assert.Len(t, views[1].Players, 1)
	assert.Equal(t, "Imran", views[1].Players[0].Name)

	empty := FormatTeam(models.Team{ID: 3, Name: "Empty"}, nil, nil)
	out, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"players":[]`)
}

func TestFormatPlayers(t *testing.T) {
	players := []models.Player{
		{ID: 10, Name: "Rahul", IsSold: true, TeamID: ptr(1)},
		{ID: 12, Name: "Dev"},
	}
	entries := []models.AuctionEntry{{ID: 1, Kind: models.EntryKindBid, PlayerID: 10, TeamID: 1, Price: money.FromUnits(100)}}

	views := FormatPlayers(players, entries)
	require.Len(t, views, 2)
	require.NotNil(t, views[0].BidAmount)
	assert.Equal(t, money.FromUnits(100), *views[0].BidAmount)
	assert.Nil(t, views[1].BidAmount)
}
