package player

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/pxfc-auction/go/internal/cache"
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

// PlayerRepository defines what the app layer needs from the repository
type PlayerRepository interface {
	CreatePlayer(ctx context.Context, name string, category models.Category, basePrice money.Amount) (*models.Player, error)
	GetPlayerView(ctx context.Context, id int64) (*projection.PlayerView, error)
	ListPlayerViews(ctx context.Context, filter models.PlayerFilter) ([]projection.PlayerView, error)
	UpdatePlayer(ctx context.Context, id int64, update func(p *models.Player) error) (*models.Player, error)
	DeletePlayer(ctx context.Context, id int64) error
}

// App handles player business logic
type App struct {
	repo      PlayerRepository
	snapshots cache.Snapshots
}

// NewApp creates a new player App
func NewApp(repo PlayerRepository, snapshots cache.Snapshots) *App {
	if snapshots == nil {
		snapshots = cache.Noop{}
	}
	return &App{
		repo:      repo,
		snapshots: snapshots,
	}
}

// CreatePlayer creates a new player with validation
func (a *App) CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*projection.PlayerView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidPlayer)
	}
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlayer, err)
	}
	if !req.BasePrice.IsPositive() {
		return nil, fmt.Errorf("%w: base_price must be positive", ErrInvalidPlayer)
	}

	player, err := a.repo.CreatePlayer(ctx, name, category, req.BasePrice)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx)

	log.Info().Int64("player_id", player.ID).Str("name", player.Name).Str("category", string(player.Category)).Msg("created player")
	view := projection.FormatPlayer(*player, nil)
	return &view, nil
}

// GetPlayer retrieves a player by ID
func (a *App) GetPlayer(ctx context.Context, id int64) (*projection.PlayerView, error) {
	return a.repo.GetPlayerView(ctx, id)
}

// ListPlayers returns every player, served from the snapshot cache when fresh
func (a *App) ListPlayers(ctx context.Context) ([]projection.PlayerView, error) {
	return cache.Load(ctx, a.snapshots, cache.SnapshotPlayers, func(ctx context.Context) ([]projection.PlayerView, error) {
		return a.repo.ListPlayerViews(ctx, models.PlayerFilter{})
	})
}

// SearchPlayers filters players by name substring, category, owning team and sale state
func (a *App) SearchPlayers(ctx context.Context, filter models.PlayerFilter) ([]projection.PlayerView, error) {
	filter.Name = strings.TrimSpace(filter.Name)
	if filter.Category != "" {
		category, err := models.ParseCategory(string(filter.Category))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPlayer, err)
		}
		filter.Category = category
	}
	return a.repo.ListPlayerViews(ctx, filter)
}

// UpdatePlayer changes name, category or base price of an unsold player
func (a *App) UpdatePlayer(ctx context.Context, id int64, req UpdatePlayerRequest) (*projection.PlayerView, error) {
	if req.Name == nil && req.Category == nil && req.BasePrice == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidPlayer)
	}

	player, err := a.repo.UpdatePlayer(ctx, id, func(p *models.Player) error {
		if req.Name != nil {
			name := strings.TrimSpace(*req.Name)
			if name == "" {
				return fmt.Errorf("%w: name cannot be empty", ErrInvalidPlayer)
			}
			p.Name = name
		}
		if req.Category != nil {
			category, err := models.ParseCategory(*req.Category)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidPlayer, err)
			}
			p.Category = category
		}
		if req.BasePrice != nil {
			if !req.BasePrice.IsPositive() {
				return fmt.Errorf("%w: base_price must be positive", ErrInvalidPlayer)
			}
			p.BasePrice = *req.BasePrice
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx)

	log.Info().Int64("player_id", player.ID).Msg("updated player")
	view := projection.FormatPlayer(*player, nil)
	return &view, nil
}

// DeletePlayer deletes an unsold player
func (a *App) DeletePlayer(ctx context.Context, id int64) error {
	if err := a.repo.DeletePlayer(ctx, id); err != nil {
		return err
	}
	a.invalidate(ctx)

	log.Info().Int64("player_id", id).Msg("deleted player")
	return nil
}

func (a *App) invalidate(ctx context.Context) {
	if err := a.snapshots.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate snapshot cache")
	}
}
