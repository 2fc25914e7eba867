package teams

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcdev12/pxfc-auction/go/internal/httpapi"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

// TeamsApp defines what the service layer needs from the teams application
type TeamsApp interface {
	CreateTeam(ctx context.Context, req CreateTeamRequest) (*projection.TeamView, error)
	GetTeam(ctx context.Context, id int64) (*projection.TeamView, error)
	ListTeams(ctx context.Context) ([]projection.TeamView, error)
	UpdateTeam(ctx context.Context, id int64, req UpdateTeamRequest) (*projection.TeamView, error)
	DeleteTeam(ctx context.Context, id int64) error
}

// Service serves the teams HTTP API
type Service struct {
	app TeamsApp
}

// NewService creates a new teams HTTP service
func NewService(app TeamsApp) *Service {
	return &Service{
		app: app,
	}
}

// RegisterRoutes mounts reads on r and mutations on admin.
func (s *Service) RegisterRoutes(r chi.Router, admin chi.Router) {
	r.Get("/api/teams", s.ListTeams)
	r.Get("/api/teams/{id}", s.GetTeam)
	admin.Post("/api/teams", s.CreateTeam)
	admin.Put("/api/teams/{id}", s.UpdateTeam)
	admin.Delete("/api/teams/{id}", s.DeleteTeam)
}

// ListTeams lists all teams with rosters
func (s *Service) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := s.app.ListTeams(r.Context())
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, teams)
}

// GetTeam retrieves a team by ID
func (s *Service) GetTeam(w http.ResponseWriter, r *http.Request) {
	id, err := teamID(r)
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	team, err := s.app.GetTeam(r.Context(), id)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, team)
}

// CreateTeam creates a new team
func (s *Service) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	team, err := s.app.CreateTeam(r.Context(), req)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusCreated, team)
}

// UpdateTeam changes a team's name or owner
func (s *Service) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	id, err := teamID(r)
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	var req UpdateTeamRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	team, err := s.app.UpdateTeam(r.Context(), id, req)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, team)
}

// DeleteTeam deletes a team by ID
func (s *Service) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	id, err := teamID(r)
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	if err := s.app.DeleteTeam(r.Context(), id); err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Team deleted successfully",
	})
}

func teamID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpapi.BadRequest("team id must be a positive integer", err)
	}
	return id, nil
}

func toAPIError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidTeam):
		return &httpapi.Error{Status: http.StatusBadRequest, Code: "INVALID_TEAM", Message: err.Error(), Err: err}
	case errors.Is(err, ErrTeamNotFound):
		return &httpapi.Error{Status: http.StatusNotFound, Code: "TEAM_NOT_FOUND", Message: "team not found", Err: err}
	case errors.Is(err, ErrTeamHasPlayers):
		return &httpapi.Error{Status: http.StatusBadRequest, Code: "TEAM_HAS_PLAYERS", Message: "team still owns players; reverse their bids first", Err: err}
	case errors.Is(err, ErrTeamHasHistory):
		return &httpapi.Error{Status: http.StatusBadRequest, Code: "TEAM_HAS_HISTORY", Message: "team appears in the auction ledger and cannot be deleted", Err: err}
	default:
		return err
	}
}
