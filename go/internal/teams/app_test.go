package teams

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/pxfc-auction/go/internal/cache"
	"github.com/mcdev12/pxfc-auction/go/internal/ledger"
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

func newTestApp(t *testing.T) (*App, *ledger.Memory) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	snapshots, err := cache.NewRedisFromURL(context.Background(), "redis://"+mr.Addr(), "teams-test", time.Minute)
	require.NoError(t, err)
	t.Cleanup(func() { snapshots.Close() })

	store := ledger.NewMemory(nil, 0)
	return NewApp(NewRepository(store), snapshots, 0), store
}

func sellPlayer(t *testing.T, store *ledger.Memory, teamID int64, price money.Amount) {
	t.Helper()
	ctx := context.Background()
	err := ledger.Run(ctx, store, func(tx ledger.Tx) error {
		p, err := tx.InsertPlayer(ctx, "Rahul", models.CategoryA, price)
		if err != nil {
			return err
		}
		team, err := tx.GetTeam(ctx, teamID)
		if err != nil {
			return err
		}
		if err := tx.UpdateTeamBudget(ctx, teamID, team.Budget-price); err != nil {
			return err
		}
		if err := tx.UpdatePlayerSaleState(ctx, p.ID, true, &teamID); err != nil {
			return err
		}
		_, err = tx.InsertAuctionEntry(ctx, p.ID, teamID, price)
		return err
	})
	require.NoError(t, err)
}

func TestCreateTeam(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	team, err := app.CreateTeam(ctx, CreateTeamRequest{Name: "  Strikers "})
	require.NoError(t, err)
	assert.Equal(t, "Strikers", team.Name)
	assert.Equal(t, models.DefaultTeamBudget, team.Budget)
	assert.Equal(t, models.DefaultTeamBudget, team.InitialBudget)
	assert.Empty(t, team.Players)

	budget := money.FromUnits(1000)
	owner := int64(7)
	team, err = app.CreateTeam(ctx, CreateTeamRequest{Name: "Titans", Budget: &budget, OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, budget, team.InitialBudget)
	require.NotNil(t, team.OwnerID)
	assert.Equal(t, owner, *team.OwnerID)

	_, err = app.CreateTeam(ctx, CreateTeamRequest{Name: " "})
	assert.ErrorIs(t, err, ErrInvalidTeam)

	negative := money.FromUnits(-1)
	_, err = app.CreateTeam(ctx, CreateTeamRequest{Name: "Broke", Budget: &negative})
	assert.ErrorIs(t, err, ErrInvalidTeam)
}

func TestListTeams_InvalidatedByWrites(t *testing.T) {
	app, store := newTestApp(t)
	ctx := context.Background()

	first, err := app.CreateTeam(ctx, CreateTeamRequest{Name: "Strikers"})
	require.NoError(t, err)

	teams, err := app.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)

	_, err = app.CreateTeam(ctx, CreateTeamRequest{Name: "Titans"})
	require.NoError(t, err)

	teams, err = app.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, "Strikers", teams[0].Name)
	assert.Equal(t, "Titans", teams[1].Name)

	// Writes that bypass the app are only visible once the cache is invalidated.
	sellPlayer(t, store, first.ID, money.FromUnits(500))
	teams, err = app.ListTeams(ctx)
	require.NoError(t, err)
	assert.Empty(t, teams[0].Players)

	app.invalidate(ctx)
	teams, err = app.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams[0].Players, 1)
	require.NotNil(t, teams[0].Players[0].BidAmount)
	assert.Equal(t, money.FromUnits(500), *teams[0].Players[0].BidAmount)
	assert.Equal(t, models.DefaultTeamBudget-money.FromUnits(500), teams[0].Budget)
}

func TestGetTeam(t *testing.T) {
	app, store := newTestApp(t)
	ctx := context.Background()

	created, err := app.CreateTeam(ctx, CreateTeamRequest{Name: "Strikers"})
	require.NoError(t, err)
	sellPlayer(t, store, created.ID, money.FromUnits(100))

	team, err := app.GetTeam(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, team.Players, 1)

	_, err = app.GetTeam(ctx, 999)
	assert.ErrorIs(t, err, ErrTeamNotFound)
}

func TestDeleteTeam(t *testing.T) {
	app, store := newTestApp(t)
	ctx := context.Background()

	empty, err := app.CreateTeam(ctx, CreateTeamRequest{Name: "Empty"})
	require.NoError(t, err)
	full, err := app.CreateTeam(ctx, CreateTeamRequest{Name: "Full"})
	require.NoError(t, err)
	sellPlayer(t, store, full.ID, money.FromUnits(100))

	assert.ErrorIs(t, app.DeleteTeam(ctx, full.ID), ErrTeamHasPlayers)
	assert.ErrorIs(t, app.DeleteTeam(ctx, 999), ErrTeamNotFound)
	require.NoError(t, app.DeleteTeam(ctx, empty.ID))

	teams, err := app.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, full.ID, teams[0].ID)
}

func TestDeleteTeam_RefusedWithLedgerHistory(t *testing.T) {
	app, store := newTestApp(t)
	ctx := context.Background()

	team, err := app.CreateTeam(ctx, CreateTeamRequest{Name: "Strikers"})
	require.NoError(t, err)
	sellPlayer(t, store, team.ID, money.FromUnits(100))

	// Undo the sale the way a reversal does, leaving only ledger rows behind.
	err = ledger.Run(ctx, store, func(tx ledger.Tx) error {
		roster, err := tx.ListPlayers(ctx, models.PlayerFilter{TeamID: &team.ID})
		if err != nil {
			return err
		}
		bid, err := tx.GetLatestAuctionEntry(ctx, roster[0].ID, team.ID)
		if err != nil {
			return err
		}
		if _, err := tx.ReverseAuctionEntry(ctx, bid.PlayerID, team.ID, bid.Price, &bid.ID); err != nil {
			return err
		}
		if err := tx.UpdatePlayerSaleState(ctx, bid.PlayerID, false, nil); err != nil {
			return err
		}
		return tx.UpdateTeamBudget(ctx, team.ID, models.DefaultTeamBudget)
	})
	require.NoError(t, err)

	assert.ErrorIs(t, app.DeleteTeam(ctx, team.ID), ErrTeamHasHistory)

	recent, err := ledger.Query(ctx, store, func(tx ledger.Tx) ([]models.AuctionRecord, error) {
		return tx.ListRecentEntries(ctx, 10)
	})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	got, err := app.GetTeam(ctx, team.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Players)
}

func TestUpdateTeam(t *testing.T) {
	app, _ := newTestApp(t)
	ctx := context.Background()

	created, err := app.CreateTeam(ctx, CreateTeamRequest{Name: "Strikers"})
	require.NoError(t, err)
	_, err = app.ListTeams(ctx)
	require.NoError(t, err)

	name := "  Titans "
	owner := int64(42)
	updated, err := app.UpdateTeam(ctx, created.ID, UpdateTeamRequest{Name: &name, OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, "Titans", updated.Name)
	require.NotNil(t, updated.OwnerID)
	assert.Equal(t, owner, *updated.OwnerID)
	assert.Equal(t, created.Budget, updated.Budget)

	teams, err := app.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, "Titans", teams[0].Name)

	// Owner only; the name is kept.
	other := int64(43)
	updated, err = app.UpdateTeam(ctx, created.ID, UpdateTeamRequest{OwnerID: &other})
	require.NoError(t, err)
	assert.Equal(t, "Titans", updated.Name)
	assert.Equal(t, other, *updated.OwnerID)

	blank := " "
	_, err = app.UpdateTeam(ctx, created.ID, UpdateTeamRequest{Name: &blank})
	assert.ErrorIs(t, err, ErrInvalidTeam)

	_, err = app.UpdateTeam(ctx, created.ID, UpdateTeamRequest{Budget: []byte(`"1.00"`)})
	assert.ErrorIs(t, err, ErrInvalidTeam)

	_, err = app.UpdateTeam(ctx, 999, UpdateTeamRequest{Name: &name})
	assert.ErrorIs(t, err, ErrTeamNotFound)

	got, err := app.GetTeam(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Titans", got.Name)
	assert.Equal(t, models.DefaultTeamBudget, got.Budget)
}
