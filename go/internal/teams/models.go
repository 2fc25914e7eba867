package teams

import (
	"encoding/json"

	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// CreateTeamRequest represents a request to create a new team
type CreateTeamRequest struct {
	Name    string        `json:"name"`
	Budget  *money.Amount `json:"budget,omitempty"`
	OwnerID *int64        `json:"owner_id,omitempty"`
}

// UpdateTeamRequest changes a team's name or owner. Budgets move only through the auction.
type UpdateTeamRequest struct {
	Name    *string         `json:"name,omitempty"`
	OwnerID *int64          `json:"owner_id,omitempty"`
	Budget  json.RawMessage `json:"budget,omitempty"`
}
