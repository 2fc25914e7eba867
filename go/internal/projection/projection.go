// Package projection turns ledger rows into the wire shapes served to clients.
// Every function here is pure: the same rows always produce the same view.
package projection

import (
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// PlayerView is the client representation of a player.
type PlayerView struct {
	ID        int64         `json:"id"`
	Name      string        `json:"name"`
	Category  string        `json:"category"`
	Price     money.Amount  `json:"price"`
	Sold      bool          `json:"sold"`
	TeamID    *int64        `json:"teamId"`
	BidAmount *money.Amount `json:"bidAmount,omitempty"`
}

// TeamView is the client representation of a team with its roster.
type TeamView struct {
	ID            int64        `json:"id"`
	Name          string       `json:"name"`
	Budget        money.Amount `json:"budget"`
	InitialBudget money.Amount `json:"initial_budget"`
	OwnerID       *int64       `json:"owner_id"`
	Players       []PlayerView `json:"players"`
}

// FormatPlayer builds a PlayerView. latest is the player's active ledger entry
// and is ignored unless it belongs to the player's current team.
func FormatPlayer(p models.Player, latest *models.AuctionEntry) PlayerView {
	view := PlayerView{
		ID:       p.ID,
		Name:     p.Name,
		Category: string(p.Category),
		Price:    p.BasePrice,
		Sold:     p.IsSold,
	}
	if p.TeamID != nil {
		id := *p.TeamID
		view.TeamID = &id
	}
	if latest != nil && latest.Kind == models.EntryKindBid && p.OwnedBy(latest.TeamID) && latest.PlayerID == p.ID {
		amount := latest.Price
		view.BidAmount = &amount
	}
	return view
}

// FormatTeam builds a TeamView. Players not owned by t are skipped and each
// roster entry takes its bid amount from the newest matching entry.
func FormatTeam(t models.Team, players []models.Player, entries []models.AuctionEntry) TeamView {
	latest := LatestEntries(entries)
	view := TeamView{
		ID:            t.ID,
		Name:          t.Name,
		Budget:        t.Budget,
		InitialBudget: t.InitialBudget,
		Players:       make([]PlayerView, 0, len(players)),
	}
	if t.OwnerID != nil {
		id := *t.OwnerID
		view.OwnerID = &id
	}
	for _, p := range players {
		if !p.OwnedBy(t.ID) {
			continue
		}
		var entry *models.AuctionEntry
		if e, ok := latest[Key{PlayerID: p.ID, TeamID: t.ID}]; ok {
			entry = &e
		}
		view.Players = append(view.Players, FormatPlayer(p, entry))
	}
	return view
}

// FormatPlayers builds views for a full player list.
func FormatPlayers(players []models.Player, entries []models.AuctionEntry) []PlayerView {
	latest := LatestEntries(entries)
	views := make([]PlayerView, 0, len(players))
	for _, p := range players {
		var entry *models.AuctionEntry
		if p.TeamID != nil {
			if e, ok := latest[Key{PlayerID: p.ID, TeamID: *p.TeamID}]; ok {
				entry = &e
			}
		}
		views = append(views, FormatPlayer(p, entry))
	}
	return views
}

// FormatTeams builds views for every team from one pass over players and entries.
func FormatTeams(teams []models.Team, players []models.Player, entries []models.AuctionEntry) []TeamView {
	byTeam := make(map[int64][]models.Player)
	for _, p := range players {
		if p.TeamID != nil {
			byTeam[*p.TeamID] = append(byTeam[*p.TeamID], p)
		}
	}
	views := make([]TeamView, 0, len(teams))
	for _, t := range teams {
		views = append(views, FormatTeam(t, byTeam[t.ID], entries))
	}
	return views
}

// Key identifies a (player, team) pair in the ledger.
type Key struct {
	PlayerID int64
	TeamID   int64
}

// LatestEntries picks the newest BID per pair, breaking created_at ties by id.
// Input order does not matter.
func LatestEntries(entries []models.AuctionEntry) map[Key]models.AuctionEntry {
	out := make(map[Key]models.AuctionEntry, len(entries))
	for _, e := range entries {
		if e.Kind != models.EntryKindBid {
			continue
		}
		k := Key{PlayerID: e.PlayerID, TeamID: e.TeamID}
		if cur, ok := out[k]; !ok || e.NewerThan(cur) {
			out[k] = e
		}
	}
	return out
}
