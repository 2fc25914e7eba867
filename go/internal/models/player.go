package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// Category is a player's auction grade. It only affects display and ordering.
type Category string

const (
	CategoryAPlus  Category = "A+"
	CategoryA      Category = "A"
	CategoryAMinus Category = "A-"
	CategoryBPlus  Category = "B+"
	CategoryB      Category = "B"
	CategoryBMinus Category = "B-"
	CategoryCPlus  Category = "C+"
	CategoryC      Category = "C"
	CategoryD      Category = "D"
)

// DefaultCategory is assigned when a player is created without one.
const DefaultCategory = CategoryC

var categoryRank = map[Category]int{
	CategoryAPlus:  0,
	CategoryA:      1,
	CategoryAMinus: 2,
	CategoryBPlus:  3,
	CategoryB:      4,
	CategoryBMinus: 5,
	CategoryCPlus:  6,
	CategoryC:      7,
	CategoryD:      8,
}

// ParseCategory normalizes s and checks it against the known grades.
// An empty string yields DefaultCategory.
func ParseCategory(s string) (Category, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return DefaultCategory, nil
	}
	c := Category(s)
	if _, ok := categoryRank[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Rank orders categories from strongest (0) to weakest. Unknown values sort last.
func (c Category) Rank() int {
	if r, ok := categoryRank[c]; ok {
		return r
	}
	return len(categoryRank)
}

// Player represents a player up for auction
type Player struct {
	ID        int64        `json:"id"`
	Name      string       `json:"name"`
	Category  Category     `json:"category"`
	BasePrice money.Amount `json:"base_price"`
	IsSold    bool         `json:"is_sold"`
	TeamID    *int64       `json:"team_id,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// OwnedBy reports whether the player is sold to teamID.
func (p Player) OwnedBy(teamID int64) bool {
	return p.IsSold && p.TeamID != nil && *p.TeamID == teamID
}

// PlayerFilter narrows ListPlayers. Zero values mean "any".
type PlayerFilter struct {
	Name     string
	Category Category
	TeamID   *int64
	Sold     *bool
}
