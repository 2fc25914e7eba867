package auction

import (
	"time"

	"github.com/mcdev12/pxfc-auction/go/internal/money"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

// PlaceBidCommand sells a player to a team at BidAmount.
type PlaceBidCommand struct {
	PlayerID  int64        `json:"player_id"`
	TeamID    int64        `json:"team_id"`
	BidAmount money.Amount `json:"bid_amount"`
}

// Validate checks the command shape. Store state is checked inside the transaction.
func (c PlaceBidCommand) Validate() error {
	if !c.BidAmount.IsPositive() {
		return ErrInvalidBid
	}
	if c.PlayerID <= 0 || c.TeamID <= 0 {
		return ErrInvalidCommand
	}
	return nil
}

// ReverseBidCommand returns a sold player to the pool and refunds the team.
type ReverseBidCommand struct {
	PlayerID int64 `json:"player_id"`
	TeamID   int64 `json:"team_id"`
}

func (c ReverseBidCommand) Validate() error {
	if c.PlayerID <= 0 || c.TeamID <= 0 {
		return ErrInvalidCommand
	}
	return nil
}

// Result is the post-commit state of the team and player a command touched.
type Result struct {
	Team   projection.TeamView   `json:"team"`
	Player projection.PlayerView `json:"player"`
}

// RecentBid is one row of the auction status feed.
type RecentBid struct {
	ID         int64        `json:"id"`
	Kind       string       `json:"kind"`
	PlayerID   int64        `json:"player_id"`
	Player     string       `json:"player"`
	TeamID     int64        `json:"team_id"`
	Team       string       `json:"team"`
	Price      money.Amount `json:"price"`
	ReversesID *int64       `json:"reverses_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}
