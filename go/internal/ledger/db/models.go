package db

import (
	"database/sql"
	"time"

	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

type Team struct {
	ID            int64
	Name          string
	Budget        money.Amount
	InitialBudget money.Amount
	OwnerID       sql.NullInt64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Player struct {
	ID        int64
	Name      string
	Category  string
	BasePrice money.Amount
	IsSold    bool
	TeamID    sql.NullInt64
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Auction struct {
	ID         int64
	Kind       string
	PlayerID   int64
	TeamID     int64
	Price      money.Amount
	ReversesID sql.NullInt64
	CreatedAt  time.Time
}

type RecentAuctionRow struct {
	Auction
	PlayerName string
	TeamName   string
}
