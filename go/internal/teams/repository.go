package teams

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/pxfc-auction/go/internal/ledger"
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

// Repository implements team data access on top of the auction ledger
type Repository struct {
	store ledger.Store
}

// NewRepository creates a new teams repository
func NewRepository(store ledger.Store) *Repository {
	return &Repository{
		store: store,
	}
}

// CreateTeam inserts a team whose initial budget equals budget
func (r *Repository) CreateTeam(ctx context.Context, name string, budget money.Amount, ownerID *int64) (*models.Team, error) {
	team, err := ledger.Query(ctx, r.store, func(tx ledger.Tx) (*models.Team, error) {
		return tx.InsertTeam(ctx, name, budget, ownerID)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}
	return team, nil
}

// GetTeamView loads one team with its roster
func (r *Repository) GetTeamView(ctx context.Context, id int64) (*projection.TeamView, error) {
	return ledger.Query(ctx, r.store, func(tx ledger.Tx) (*projection.TeamView, error) {
		team, err := tx.FindTeam(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrTeamNotFound, id)
			}
			return nil, fmt.Errorf("failed to get team: %w", err)
		}
		roster, err := tx.ListPlayers(ctx, models.PlayerFilter{TeamID: &id})
		if err != nil {
			return nil, fmt.Errorf("failed to list roster: %w", err)
		}
		entries, err := tx.ListActiveEntries(ctx, &id)
		if err != nil {
			return nil, fmt.Errorf("failed to list auction entries: %w", err)
		}
		view := projection.FormatTeam(*team, roster, entries)
		return &view, nil
	})
}

// ListTeamViews loads every team with its roster in one transaction
func (r *Repository) ListTeamViews(ctx context.Context) ([]projection.TeamView, error) {
	return ledger.Query(ctx, r.store, func(tx ledger.Tx) ([]projection.TeamView, error) {
		teams, err := tx.ListTeams(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams: %w", err)
		}
		sold := true
		players, err := tx.ListPlayers(ctx, models.PlayerFilter{Sold: &sold})
		if err != nil {
			return nil, fmt.Errorf("failed to list players: %w", err)
		}
		entries, err := tx.ListActiveEntries(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list auction entries: %w", err)
		}
		return projection.FormatTeams(teams, players, entries), nil
	})
}

// UpdateTeam locks the team, applies update and persists its name and owner
func (r *Repository) UpdateTeam(ctx context.Context, id int64, update func(t *models.Team) error) (*models.Team, error) {
	return ledger.Query(ctx, r.store, func(tx ledger.Tx) (*models.Team, error) {
		team, err := tx.GetTeam(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrTeamNotFound, id)
			}
			return nil, fmt.Errorf("failed to get team: %w", err)
		}
		if err := update(team); err != nil {
			return nil, err
		}
		updated, err := tx.UpdateTeamDetails(ctx, *team)
		if err != nil {
			if errors.Is(err, ledger.ErrConstraint) {
				return nil, fmt.Errorf("%w: %w", ErrInvalidTeam, err)
			}
			return nil, fmt.Errorf("failed to update team: %w", err)
		}
		return updated, nil
	})
}

// DeleteTeam removes a team that owns no players and never appeared in the ledger
func (r *Repository) DeleteTeam(ctx context.Context, id int64) error {
	return ledger.Run(ctx, r.store, func(tx ledger.Tx) error {
		if _, err := tx.GetTeam(ctx, id); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return fmt.Errorf("%w: %d", ErrTeamNotFound, id)
			}
			return fmt.Errorf("failed to get team: %w", err)
		}
		count, err := tx.CountPlayersByTeam(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count players: %w", err)
		}
		if count > 0 {
			return fmt.Errorf("%w: %d players", ErrTeamHasPlayers, count)
		}
		entries, err := tx.CountEntriesByTeam(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count auction entries: %w", err)
		}
		if entries > 0 {
			return fmt.Errorf("%w: %d auction entries", ErrTeamHasHistory, entries)
		}
		if err := tx.DeleteTeam(ctx, id); err != nil {
			if errors.Is(err, ledger.ErrConstraint) {
				return fmt.Errorf("%w: %w", ErrTeamHasHistory, err)
			}
			return fmt.Errorf("failed to delete team: %w", err)
		}
		return nil
	})
}
