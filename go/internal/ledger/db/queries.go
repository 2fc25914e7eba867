package db

import (
	"context"
	"database/sql"

	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

const teamColumns = `id, name, budget, initial_budget, owner_id, created_at, updated_at`

const playerColumns = `id, name, category, base_price, is_sold, team_id, created_at, updated_at`

const auctionColumns = `id, kind, player_id, team_id, price, reverses_id, created_at`

func scanTeam(row interface{ Scan(...interface{}) error }) (Team, error) {
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Budget,
		&i.InitialBudget,
		&i.OwnerID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanPlayer(row interface{ Scan(...interface{}) error }) (Player, error) {
	var i Player
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.BasePrice,
		&i.IsSold,
		&i.TeamID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func scanAuction(row interface{ Scan(...interface{}) error }) (Auction, error) {
	var i Auction
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.PlayerID,
		&i.TeamID,
		&i.Price,
		&i.ReversesID,
		&i.CreatedAt,
	)
	return i, err
}

const setLockTimeout = `
SELECT set_config('lock_timeout', $1, true)
`

// SetLockTimeout bounds row-lock waits for the rest of the current transaction.
func (q *Queries) SetLockTimeout(ctx context.Context, timeout string) error {
	_, err := q.db.ExecContext(ctx, setLockTimeout, timeout)
	return err
}

const getTeamForUpdate = `
SELECT ` + teamColumns + ` FROM teams WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetTeamForUpdate(ctx context.Context, id int64) (Team, error) {
	return scanTeam(q.db.QueryRowContext(ctx, getTeamForUpdate, id))
}

const getPlayerForUpdate = `
SELECT ` + playerColumns + ` FROM players WHERE id = $1 FOR UPDATE
`

func (q *Queries) GetPlayerForUpdate(ctx context.Context, id int64) (Player, error) {
	return scanPlayer(q.db.QueryRowContext(ctx, getPlayerForUpdate, id))
}

const getTeam = `
SELECT ` + teamColumns + ` FROM teams WHERE id = $1
`

// GetTeam reads a team without locking it.
func (q *Queries) GetTeam(ctx context.Context, id int64) (Team, error) {
	return scanTeam(q.db.QueryRowContext(ctx, getTeam, id))
}

const getPlayer = `
SELECT ` + playerColumns + ` FROM players WHERE id = $1
`

// GetPlayer reads a player without locking it.
func (q *Queries) GetPlayer(ctx context.Context, id int64) (Player, error) {
	return scanPlayer(q.db.QueryRowContext(ctx, getPlayer, id))
}

const getLatestActiveBid = `
SELECT a.id, a.kind, a.player_id, a.team_id, a.price, a.reverses_id, a.created_at
FROM auction a
WHERE a.player_id = $1
  AND a.team_id = $2
  AND a.kind = 'BID'
  AND NOT EXISTS (SELECT 1 FROM auction r WHERE r.reverses_id = a.id)
ORDER BY a.created_at DESC, a.id DESC
LIMIT 1
`

type GetLatestActiveBidParams struct {
	PlayerID int64
	TeamID   int64
}

func (q *Queries) GetLatestActiveBid(ctx context.Context, arg GetLatestActiveBidParams) (Auction, error) {
	return scanAuction(q.db.QueryRowContext(ctx, getLatestActiveBid, arg.PlayerID, arg.TeamID))
}

const updateTeamBudget = `
UPDATE teams SET budget = $2, updated_at = now() WHERE id = $1
`

type UpdateTeamBudgetParams struct {
	ID     int64
	Budget money.Amount
}

func (q *Queries) UpdateTeamBudget(ctx context.Context, arg UpdateTeamBudgetParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateTeamBudget, arg.ID, arg.Budget)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updatePlayerSaleState = `
UPDATE players SET is_sold = $2, team_id = $3, updated_at = now() WHERE id = $1
`

type UpdatePlayerSaleStateParams struct {
	ID     int64
	IsSold bool
	TeamID sql.NullInt64
}

func (q *Queries) UpdatePlayerSaleState(ctx context.Context, arg UpdatePlayerSaleStateParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updatePlayerSaleState, arg.ID, arg.IsSold, arg.TeamID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertAuctionEntry = `
INSERT INTO auction (kind, player_id, team_id, price, reverses_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + auctionColumns + `
`

type InsertAuctionEntryParams struct {
	Kind       string
	PlayerID   int64
	TeamID     int64
	Price      money.Amount
	ReversesID sql.NullInt64
}

func (q *Queries) InsertAuctionEntry(ctx context.Context, arg InsertAuctionEntryParams) (Auction, error) {
	row := q.db.QueryRowContext(ctx, insertAuctionEntry,
		arg.Kind,
		arg.PlayerID,
		arg.TeamID,
		arg.Price,
		arg.ReversesID,
	)
	return scanAuction(row)
}

const listTeams = `
SELECT ` + teamColumns + ` FROM teams ORDER BY id
`

func (q *Queries) ListTeams(ctx context.Context) ([]Team, error) {
	rows, err := q.db.QueryContext(ctx, listTeams)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Team
	for rows.Next() {
		i, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createTeam = `
INSERT INTO teams (name, budget, initial_budget, owner_id)
VALUES ($1, $2, $2, $3)
RETURNING ` + teamColumns + `
`

type CreateTeamParams struct {
	Name    string
	Budget  money.Amount
	OwnerID sql.NullInt64
}

func (q *Queries) CreateTeam(ctx context.Context, arg CreateTeamParams) (Team, error) {
	return scanTeam(q.db.QueryRowContext(ctx, createTeam, arg.Name, arg.Budget, arg.OwnerID))
}

const deleteTeam = `
DELETE FROM teams WHERE id = $1
`

func (q *Queries) DeleteTeam(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteTeam, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const updateTeamDetails = `
UPDATE teams SET name = $2, owner_id = $3, updated_at = now()
WHERE id = $1
RETURNING ` + teamColumns + `
`

type UpdateTeamDetailsParams struct {
	ID      int64
	Name    string
	OwnerID sql.NullInt64
}

// UpdateTeamDetails never touches budget or initial_budget.
func (q *Queries) UpdateTeamDetails(ctx context.Context, arg UpdateTeamDetailsParams) (Team, error) {
	return scanTeam(q.db.QueryRowContext(ctx, updateTeamDetails, arg.ID, arg.Name, arg.OwnerID))
}

const countAuctionByTeam = `
SELECT count(*) FROM auction WHERE team_id = $1
`

func (q *Queries) CountAuctionByTeam(ctx context.Context, teamID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAuctionByTeam, teamID).Scan(&count)
	return count, err
}

const countAuctionByPlayer = `
SELECT count(*) FROM auction WHERE player_id = $1
`

func (q *Queries) CountAuctionByPlayer(ctx context.Context, playerID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countAuctionByPlayer, playerID).Scan(&count)
	return count, err
}

const countPlayersByTeam = `
SELECT count(*) FROM players WHERE team_id = $1
`

func (q *Queries) CountPlayersByTeam(ctx context.Context, teamID int64) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countPlayersByTeam, teamID).Scan(&count)
	return count, err
}

const listPlayers = `
SELECT ` + playerColumns + `
FROM players
WHERE ($1::text = '' OR name ILIKE '%' || $1::text || '%')
  AND ($2::text = '' OR category = $2::text)
  AND ($3::bigint IS NULL OR team_id = $3::bigint)
  AND ($4::boolean IS NULL OR is_sold = $4::boolean)
ORDER BY array_position(ARRAY['A+', 'A', 'A-', 'B+', 'B', 'B-', 'C+', 'C', 'D'], category), name, id
`

type ListPlayersParams struct {
	Name     string
	Category string
	TeamID   sql.NullInt64
	IsSold   sql.NullBool
}

func (q *Queries) ListPlayers(ctx context.Context, arg ListPlayersParams) ([]Player, error) {
	rows, err := q.db.QueryContext(ctx, listPlayers,
		arg.Name,
		arg.Category,
		arg.TeamID,
		arg.IsSold,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Player
	for rows.Next() {
		i, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createPlayer = `
INSERT INTO players (name, category, base_price)
VALUES ($1, $2, $3)
RETURNING ` + playerColumns + `
`

type CreatePlayerParams struct {
	Name      string
	Category  string
	BasePrice money.Amount
}

func (q *Queries) CreatePlayer(ctx context.Context, arg CreatePlayerParams) (Player, error) {
	return scanPlayer(q.db.QueryRowContext(ctx, createPlayer, arg.Name, arg.Category, arg.BasePrice))
}

const updatePlayerDetails = `
UPDATE players SET name = $2, category = $3, base_price = $4, updated_at = now()
WHERE id = $1
RETURNING ` + playerColumns + `
`

type UpdatePlayerDetailsParams struct {
	ID        int64
	Name      string
	Category  string
	BasePrice money.Amount
}

func (q *Queries) UpdatePlayerDetails(ctx context.Context, arg UpdatePlayerDetailsParams) (Player, error) {
	row := q.db.QueryRowContext(ctx, updatePlayerDetails,
		arg.ID,
		arg.Name,
		arg.Category,
		arg.BasePrice,
	)
	return scanPlayer(row)
}

const deletePlayer = `
DELETE FROM players WHERE id = $1
`

func (q *Queries) DeletePlayer(ctx context.Context, id int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deletePlayer, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const listActiveBids = `
SELECT a.id, a.kind, a.player_id, a.team_id, a.price, a.reverses_id, a.created_at
FROM auction a
WHERE a.kind = 'BID'
  AND ($1::bigint IS NULL OR a.team_id = $1::bigint)
  AND NOT EXISTS (SELECT 1 FROM auction r WHERE r.reverses_id = a.id)
ORDER BY a.created_at, a.id
`

func (q *Queries) ListActiveBids(ctx context.Context, teamID sql.NullInt64) ([]Auction, error) {
	rows, err := q.db.QueryContext(ctx, listActiveBids, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Auction
	for rows.Next() {
		i, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listRecentAuction = `
SELECT a.id, a.kind, a.player_id, a.team_id, a.price, a.reverses_id, a.created_at,
       p.name AS player_name, t.name AS team_name
FROM auction a
JOIN players p ON p.id = a.player_id
JOIN teams t ON t.id = a.team_id
ORDER BY a.created_at DESC, a.id DESC
LIMIT $1
`

func (q *Queries) ListRecentAuction(ctx context.Context, limit int32) ([]RecentAuctionRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecentAuction, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RecentAuctionRow
	for rows.Next() {
		var i RecentAuctionRow
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.PlayerID,
			&i.TeamID,
			&i.Price,
			&i.ReversesID,
			&i.CreatedAt,
			&i.PlayerName,
			&i.TeamName,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
