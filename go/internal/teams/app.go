package teams

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

// TeamsRepository defines what the app layer needs from the repository
type TeamsRepository interface {
	CreateTeam(ctx context.Context, name string, budget money.Amount, ownerID *int64) (*models.Team, error)
	GetTeamView(ctx context.Context, id int64) (*projection.TeamView, error)
	ListTeamViews(ctx context.Context) ([]projection.TeamView, error)
	UpdateTeam(ctx context.Context, id int64, update func(t *models.Team) error) (*models.Team, error)
	DeleteTeam(ctx context.Context, id int64) error
}

// App handles teams business logic
type App struct {
	repo          TeamsRepository
	snapshots     cache.Snapshots
	defaultBudget money.Amount
}

// NewApp creates a new teams App. A non-positive defaultBudget falls back to models.DefaultTeamBudget.
func NewApp(repo TeamsRepository, snapshots cache.Snapshots, defaultBudget money.Amount) *App {
	if snapshots == nil {
		snapshots = cache.Noop{}
	}
	if !defaultBudget.IsPositive() {
		defaultBudget = models.DefaultTeamBudget
	}
	return &App{
		repo:          repo,
		snapshots:     snapshots,
		defaultBudget: defaultBudget,
	}
}

// CreateTeam creates a new team with validation
func (a *App) CreateTeam(ctx context.Context, req CreateTeamRequest) (*projection.TeamView, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTeam)
	}
	budget := a.defaultBudget
	if req.Budget != nil {
		if *req.Budget < 0 {
			return nil, fmt.Errorf("%w: budget cannot be negative", ErrInvalidTeam)
		}
		budget = *req.Budget
	}

	team, err := a.repo.CreateTeam(ctx, name, budget, req.OwnerID)
	if err != nil {
		return nil, err
	}
	a.invalidate(ctx)

	log.Info().Int64("team_id", team.ID).Str("name", team.Name).Str("budget", team.Budget.String()).Msg("created team")
	view := projection.FormatTeam(*team, nil, nil)
	return &view, nil
}

// GetTeam retrieves a team and its roster by ID
func (a *App) GetTeam(ctx context.Context, id int64) (*projection.TeamView, error) {
	return a.repo.GetTeamView(ctx, id)
}

// ListTeams returns every team with its roster, served from the snapshot cache when fresh
func (a *App) ListTeams(ctx context.Context) ([]projection.TeamView, error) {
	return cache.Load(ctx, a.snapshots, cache.SnapshotTeams, a.repo.ListTeamViews)
}

// UpdateTeam renames a team or changes its owner. Budget edits are refused.
func (a *App) UpdateTeam(ctx context.Context, id int64, req UpdateTeamRequest) (*projection.TeamView, error) {
	if len(req.Budget) > 0 {
		return nil, fmt.Errorf("%w: budget is managed by the auction", ErrInvalidTeam)
	}
	var name string
	if req.Name != nil {
		name = strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidTeam)
		}
	}

	if _, err := a.repo.UpdateTeam(ctx, id, func(t *models.Team) error {
		if req.Name != nil {
			t.Name = name
		}
		if req.OwnerID != nil {
			owner := *req.OwnerID
			t.OwnerID = &owner
		}
		return nil
	}); err != nil {
		return nil, err
	}
	a.invalidate(ctx)

	log.Info().Int64("team_id", id).Str("name", name).Msg("updated team")
	return a.repo.GetTeamView(ctx, id)
}

// DeleteTeam deletes a team that owns no players and has no auction history
func (a *App) DeleteTeam(ctx context.Context, id int64) error {
	if err := a.repo.DeleteTeam(ctx, id); err != nil {
		return err
	}
	a.invalidate(ctx)

	log.Info().Int64("team_id", id).Msg("deleted team")
	return nil
}

func (a *App) invalidate(ctx context.Context) {
	if err := a.snapshots.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate snapshot cache")
	}
}
