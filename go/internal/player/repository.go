package player

import (
	"context"
	"errors"
	"fmt"

	"github.com/mcdev12/pxfc-auction/go/internal/ledger"
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

// Repository implements player data access on top of the auction ledger
type Repository struct {
	store ledger.Store
}

// NewRepository creates a new player repository
func NewRepository(store ledger.Store) *Repository {
	return &Repository{
		store: store,
	}
}

// CreatePlayer inserts an unsold player
func (r *Repository) CreatePlayer(ctx context.Context, name string, category models.Category, basePrice money.Amount) (*models.Player, error) {
	player, err := ledger.Query(ctx, r.store, func(tx ledger.Tx) (*models.Player, error) {
		return tx.InsertPlayer(ctx, name, category, basePrice)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return player, nil
}

// GetPlayerView loads one player with its winning bid, if sold
func (r *Repository) GetPlayerView(ctx context.Context, id int64) (*projection.PlayerView, error) {
	return ledger.Query(ctx, r.store, func(tx ledger.Tx) (*projection.PlayerView, error) {
		player, err := findPlayer(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		var latest *models.AuctionEntry
		if player.TeamID != nil {
			entry, err := tx.GetLatestAuctionEntry(ctx, player.ID, *player.TeamID)
			switch {
			case err == nil:
				latest = entry
			case !errors.Is(err, models.ErrNotFound):
				return nil, fmt.Errorf("failed to get auction entry: %w", err)
			}
		}
		view := projection.FormatPlayer(*player, latest)
		return &view, nil
	})
}

// ListPlayerViews loads players matching filter, ordered by category rank then name
func (r *Repository) ListPlayerViews(ctx context.Context, filter models.PlayerFilter) ([]projection.PlayerView, error) {
	return ledger.Query(ctx, r.store, func(tx ledger.Tx) ([]projection.PlayerView, error) {
		players, err := tx.ListPlayers(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list players: %w", err)
		}
		entries, err := tx.ListActiveEntries(ctx, filter.TeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to list auction entries: %w", err)
		}
		return projection.FormatPlayers(players, entries), nil
	})
}

// UpdatePlayer locks the player, applies update and saves the result.
// Sold players are rejected with ErrPlayerAlreadySold.
func (r *Repository) UpdatePlayer(ctx context.Context, id int64, update func(p *models.Player) error) (*models.Player, error) {
	return ledger.Query(ctx, r.store, func(tx ledger.Tx) (*models.Player, error) {
		player, err := getPlayer(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if player.IsSold {
			return nil, fmt.Errorf("%w: player %d", ErrPlayerAlreadySold, id)
		}
		if err := update(player); err != nil {
			return nil, err
		}
		updated, err := tx.UpdatePlayerDetails(ctx, *player)
		if err != nil {
			return nil, fmt.Errorf("failed to update player: %w", err)
		}
		return updated, nil
	})
}

// DeletePlayer removes an unsold player that never appeared in the ledger
func (r *Repository) DeletePlayer(ctx context.Context, id int64) error {
	return ledger.Run(ctx, r.store, func(tx ledger.Tx) error {
		player, err := getPlayer(ctx, tx, id)
		if err != nil {
			return err
		}
		if player.IsSold {
			return fmt.Errorf("%w: player %d", ErrPlayerAlreadySold, id)
		}
		entries, err := tx.CountEntriesByPlayer(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count auction entries: %w", err)
		}
		if entries > 0 {
			return fmt.Errorf("%w: %d auction entries", ErrPlayerHasHistory, entries)
		}
		if err := tx.DeletePlayer(ctx, id); err != nil {
			if errors.Is(err, ledger.ErrConstraint) {
				return fmt.Errorf("%w: %w", ErrPlayerHasHistory, err)
			}
			return fmt.Errorf("failed to delete player: %w", err)
		}
		return nil
	})
}

func getPlayer(ctx context.Context, tx ledger.Tx, id int64) (*models.Player, error) {
	player, err := tx.GetPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}

// findPlayer is getPlayer without the row lock, for read-only views.
func findPlayer(ctx context.Context, tx ledger.Tx, id int64) (*models.Player, error) {
	player, err := tx.FindPlayer(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrPlayerNotFound, id)
		}
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return player, nil
}
