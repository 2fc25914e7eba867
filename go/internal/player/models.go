package player

import (
	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// CreatePlayerRequest represents a request to create a new player
type CreatePlayerRequest struct {
	Name      string       `json:"name"`
	Category  string       `json:"category,omitempty"`
	BasePrice money.Amount `json:"base_price"`
}

// UpdatePlayerRequest changes catalog details of an unsold player. Nil fields are left alone.
type UpdatePlayerRequest struct {
	Name      *string       `json:"name,omitempty"`
	Category  *string       `json:"category,omitempty"`
	BasePrice *money.Amount `json:"base_price,omitempty"`
}
