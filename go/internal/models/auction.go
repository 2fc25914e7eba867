package models

import (
	"errors"
	"time"

	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// ErrNotFound is returned by storage when a row does not exist.
var ErrNotFound = errors.New("not found")

// EntryKind distinguishes sales from their compensating reversals in the auction ledger.
type EntryKind string

const (
	EntryKindBid      EntryKind = "BID"
	EntryKindReversal EntryKind = "REVERSAL"
)

// AuctionEntry is one append-only row of the auction ledger.
//
// A BID records a sale. A REVERSAL voids the BID named by ReversesID and
// carries the refunded price. A BID is active while no REVERSAL references it.
// ReversesID is nil only for a reversal written without a matching sale.
type AuctionEntry struct {
	ID         int64        `json:"id"`
	Kind       EntryKind    `json:"kind"`
	PlayerID   int64        `json:"player_id"`
	TeamID     int64        `json:"team_id"`
	Price      money.Amount `json:"price"`
	ReversesID *int64       `json:"reverses_id,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// NewerThan orders entries by created_at, then id.
func (e AuctionEntry) NewerThan(o AuctionEntry) bool {
	if !e.CreatedAt.Equal(o.CreatedAt) {
		return e.CreatedAt.After(o.CreatedAt)
	}
	return e.ID > o.ID
}

// AuctionRecord is a ledger row joined with display names for the status feed.
type AuctionRecord struct {
	AuctionEntry
	PlayerName string `json:"player_name"`
	TeamName   string `json:"team_name"`
}
