package player

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcdev12/pxfc-auction/go/internal/httpapi"
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

// PlayerApp defines what the service layer needs from the player application
type PlayerApp interface {
	CreatePlayer(ctx context.Context, req CreatePlayerRequest) (*projection.PlayerView, error)
	GetPlayer(ctx context.Context, id int64) (*projection.PlayerView, error)
	ListPlayers(ctx context.Context) ([]projection.PlayerView, error)
	SearchPlayers(ctx context.Context, filter models.PlayerFilter) ([]projection.PlayerView, error)
	UpdatePlayer(ctx context.Context, id int64, req UpdatePlayerRequest) (*projection.PlayerView, error)
	DeletePlayer(ctx context.Context, id int64) error
}

// Service serves the players HTTP API
type Service struct {
	app PlayerApp
}

// NewService creates a new player HTTP service
func NewService(app PlayerApp) *Service {
	return &Service{
		app: app,
	}
}

// RegisterRoutes mounts reads on r and mutations on admin.
func (s *Service) RegisterRoutes(r chi.Router, admin chi.Router) {
	r.Get("/api/players", s.ListPlayers)
	r.Get("/api/players/search", s.SearchPlayers)
	r.Get("/api/players/{id}", s.GetPlayer)
	admin.Post("/api/players", s.CreatePlayer)
	admin.Put("/api/players/{id}", s.UpdatePlayer)
	admin.Delete("/api/players/{id}", s.DeletePlayer)
}

// ListPlayers lists every player
func (s *Service) ListPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.app.ListPlayers(r.Context())
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, players)
}

// SearchPlayers filters players by ?name=&category=&team_id=&sold=
func (s *Service) SearchPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.PlayerFilter{
		Name:     q.Get("name"),
		Category: models.Category(q.Get("category")),
	}
	if raw := q.Get("team_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpapi.RespondError(w, r, httpapi.BadRequest("team_id must be an integer", err))
			return
		}
		filter.TeamID = &id
	}
	if raw := q.Get("sold"); raw != "" {
		sold, err := strconv.ParseBool(raw)
		if err != nil {
			httpapi.RespondError(w, r, httpapi.BadRequest("sold must be true or false", err))
			return
		}
		filter.Sold = &sold
	}

	players, err := s.app.SearchPlayers(r.Context(), filter)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, players)
}

// GetPlayer retrieves a player by ID
func (s *Service) GetPlayer(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	player, err := s.app.GetPlayer(r.Context(), id)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, player)
}

// CreatePlayer creates a new player
func (s *Service) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	player, err := s.app.CreatePlayer(r.Context(), req)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusCreated, player)
}

// UpdatePlayer updates an unsold player
func (s *Service) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	var req UpdatePlayerRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	player, err := s.app.UpdatePlayer(r.Context(), id, req)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, player)
}

// DeletePlayer deletes an unsold player
func (s *Service) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	id, err := playerID(r)
	if err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	if err := s.app.DeletePlayer(r.Context(), id); err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Player deleted successfully",
	})
}

func playerID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, httpapi.BadRequest("player id must be a positive integer", err)
	}
	return id, nil
}

func toAPIError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidPlayer):
		return &httpapi.Error{Status: http.StatusBadRequest, Code: "INVALID_PLAYER", Message: err.Error(), Err: err}
	case errors.Is(err, ErrPlayerNotFound):
		return &httpapi.Error{Status: http.StatusNotFound, Code: "PLAYER_NOT_FOUND", Message: "player not found", Err: err}
	case errors.Is(err, ErrPlayerAlreadySold):
		return &httpapi.Error{Status: http.StatusBadRequest, Code: "PLAYER_ALREADY_SOLD", Message: "sold players cannot be changed; reverse the bid first", Err: err}
	case errors.Is(err, ErrPlayerHasHistory):
		return &httpapi.Error{Status: http.StatusBadRequest, Code: "PLAYER_HAS_HISTORY", Message: "player appears in the auction ledger and cannot be deleted", Err: err}
	default:
		return err
	}
}
