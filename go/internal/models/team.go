package models

import (
	"time"

	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// DefaultTeamBudget is the starting purse for a team created without an explicit budget.
var DefaultTeamBudget = money.FromUnits(650000)

// Team represents an auction team and its remaining purse
type Team struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Budget        money.Amount `json:"budget"`
	InitialBudget money.Amount `json:"initial_budget"`
	OwnerID       *int64       `json:"owner_id,omitempty"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Spent is the part of the initial budget currently committed to players.
func (t Team) Spent() money.Amount {
	return t.InitialBudget - t.Budget
}
