package auction

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mcdev12/pxfc-auction/go/internal/httpapi"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// AuctionApp defines what the service layer needs from the bid engine
type AuctionApp interface {
	PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Result, error)
	ReverseBid(ctx context.Context, cmd ReverseBidCommand) (*Result, error)
	RecentBids(ctx context.Context, limit int) ([]RecentBid, error)
}

// Service exposes the bid engine over HTTP.
type Service struct {
	app AuctionApp
}

// NewService creates a new auction HTTP service
func NewService(app AuctionApp) *Service {
	return &Service{app: app}
}

// MutationResponse is the body returned by bid and reverse.
type MutationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Result
}

// placeBidRequest keeps bid_amount raw so a malformed amount is reported
// as an invalid bid rather than a malformed body.
type placeBidRequest struct {
	PlayerID  int64           `json:"player_id"`
	TeamID    int64           `json:"team_id"`
	BidAmount json.RawMessage `json:"bid_amount"`
}

func (r placeBidRequest) command() (PlaceBidCommand, error) {
	cmd := PlaceBidCommand{PlayerID: r.PlayerID, TeamID: r.TeamID}
	if len(r.BidAmount) == 0 {
		return cmd, ErrInvalidBid
	}
	var amount money.Amount
	if err := amount.UnmarshalJSON(r.BidAmount); err != nil {
		return cmd, ErrInvalidBid
	}
	cmd.BidAmount = amount
	return cmd, nil
}

// RegisterRoutes mounts public reads on r and mutations on admin, which is
// expected to carry the admin middleware.
func (s *Service) RegisterRoutes(r chi.Router, admin chi.Router) {
	r.Get("/api/auction/status", s.HandleStatus)
	admin.Post("/api/auction/bid", s.HandlePlaceBid)
	admin.Post("/api/auction/reverse", s.HandleReverseBid)
}

func (s *Service) HandlePlaceBid(w http.ResponseWriter, r *http.Request) {
	var req placeBidRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}
	cmd, err := req.command()
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}

	result, err := s.app.PlaceBid(r.Context(), cmd)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}

	httpapi.RespondJSON(w, http.StatusCreated, MutationResponse{
		Success: true,
		Message: "Bid placed successfully",
		Result:  *result,
	})
}

func (s *Service) HandleReverseBid(w http.ResponseWriter, r *http.Request) {
	var cmd ReverseBidCommand
	if err := httpapi.DecodeJSON(r, &cmd); err != nil {
		httpapi.RespondError(w, r, err)
		return
	}

	result, err := s.app.ReverseBid(r.Context(), cmd)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}

	httpapi.RespondJSON(w, http.StatusOK, MutationResponse{
		Success: true,
		Message: "Bid reversed successfully",
		Result:  *result,
	})
}

func (s *Service) HandleStatus(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			httpapi.RespondError(w, r, httpapi.BadRequest("limit must be between 1 and 100", err))
			return
		}
		limit = n
	}

	bids, err := s.app.RecentBids(r.Context(), limit)
	if err != nil {
		httpapi.RespondError(w, r, toAPIError(err))
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, bids)
}
