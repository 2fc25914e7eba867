package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/mcdev12/pxfc-auction/go/internal/ledger/db"
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
	"github.com/mcdev12/pxfc-auction/go/internal/sqlutil"
)

// Postgres is the production Store backed by database/sql and lib/pq.
type Postgres struct {
	db          *sql.DB
	lockTimeout time.Duration
}

// NewPostgres wraps db. A positive lockTimeout is applied with SET LOCAL
// semantics to every transaction.
func NewPostgres(db *sql.DB, lockTimeout time.Duration) *Postgres {
	return &Postgres{
		db:          db,
		lockTimeout: lockTimeout,
	}
}

// Migrate applies the embedded schema. Every statement is idempotent.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, db.Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (p *Postgres) Begin(ctx context.Context) (Tx, error) {
	tx, err := p.db.BeginTx(ctx, nil) // BEGIN
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", translate(err))
	}
	q := db.New(tx)
	if p.lockTimeout > 0 {
		if err := q.SetLockTimeout(ctx, fmt.Sprintf("%dms", p.lockTimeout.Milliseconds())); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to set lock timeout: %w", translate(err))
		}
	}
	return &postgresTx{tx: tx, queries: q}, nil
}

type postgresTx struct {
	tx      *sql.Tx
	queries *db.Queries
}

func (t *postgresTx) GetTeam(ctx context.Context, id int64) (*models.Team, error) {
	row, err := t.queries.GetTeamForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get team %d: %w", id, translate(err))
	}
	return dbTeamToModel(row), nil
}

func (t *postgresTx) GetPlayer(ctx context.Context, id int64) (*models.Player, error) {
	row, err := t.queries.GetPlayerForUpdate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get player %d: %w", id, translate(err))
	}
	return dbPlayerToModel(row), nil
}

func (t *postgresTx) FindTeam(ctx context.Context, id int64) (*models.Team, error) {
	row, err := t.queries.GetTeam(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find team %d: %w", id, translate(err))
	}
	return dbTeamToModel(row), nil
}

func (t *postgresTx) FindPlayer(ctx context.Context, id int64) (*models.Player, error) {
	row, err := t.queries.GetPlayer(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find player %d: %w", id, translate(err))
	}
	return dbPlayerToModel(row), nil
}

func (t *postgresTx) GetLatestAuctionEntry(ctx context.Context, playerID, teamID int64) (*models.AuctionEntry, error) {
	row, err := t.queries.GetLatestActiveBid(ctx, db.GetLatestActiveBidParams{
		PlayerID: playerID,
		TeamID:   teamID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get latest auction entry: %w", translate(err))
	}
	return dbAuctionToModel(row), nil
}

func (t *postgresTx) UpdateTeamBudget(ctx context.Context, teamID int64, budget money.Amount) error {
	n, err := t.queries.UpdateTeamBudget(ctx, db.UpdateTeamBudgetParams{ID: teamID, Budget: budget})
	if err != nil {
		return fmt.Errorf("failed to update team budget: %w", translate(err))
	}
	if n == 0 {
		return fmt.Errorf("failed to update team budget: team %d: %w", teamID, models.ErrNotFound)
	}
	return nil
}

func (t *postgresTx) UpdatePlayerSaleState(ctx context.Context, playerID int64, sold bool, teamID *int64) error {
	n, err := t.queries.UpdatePlayerSaleState(ctx, db.UpdatePlayerSaleStateParams{
		ID:     playerID,
		IsSold: sold,
		TeamID: sqlutil.ToNullInt64(teamID),
	})
	if err != nil {
		return fmt.Errorf("failed to update player sale state: %w", translate(err))
	}
	if n == 0 {
		return fmt.Errorf("failed to update player sale state: player %d: %w", playerID, models.ErrNotFound)
	}
	return nil
}

func (t *postgresTx) InsertAuctionEntry(ctx context.Context, playerID, teamID int64, price money.Amount) (*models.AuctionEntry, error) {
	row, err := t.queries.InsertAuctionEntry(ctx, db.InsertAuctionEntryParams{
		Kind:     string(models.EntryKindBid),
		PlayerID: playerID,
		TeamID:   teamID,
		Price:    price,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to insert auction entry: %w", translate(err))
	}
	return dbAuctionToModel(row), nil
}

func (t *postgresTx) ReverseAuctionEntry(ctx context.Context, playerID, teamID int64, refund money.Amount, reversesID *int64) (*models.AuctionEntry, error) {
	row, err := t.queries.InsertAuctionEntry(ctx, db.InsertAuctionEntryParams{
		Kind:       string(models.EntryKindReversal),
		PlayerID:   playerID,
		TeamID:     teamID,
		Price:      refund,
		ReversesID: sqlutil.ToNullInt64(reversesID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reverse auction entry: %w", translate(err))
	}
	return dbAuctionToModel(row), nil
}

func (t *postgresTx) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := t.queries.ListTeams(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", translate(err))
	}
	teams := make([]models.Team, len(rows))
	for i, row := range rows {
		teams[i] = *dbTeamToModel(row)
	}
	return teams, nil
}

func (t *postgresTx) InsertTeam(ctx context.Context, name string, budget money.Amount, ownerID *int64) (*models.Team, error) {
	row, err := t.queries.CreateTeam(ctx, db.CreateTeamParams{
		Name:    name,
		Budget:  budget,
		OwnerID: sqlutil.ToNullInt64(ownerID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", translate(err))
	}
	return dbTeamToModel(row), nil
}

func (t *postgresTx) UpdateTeamDetails(ctx context.Context, team models.Team) (*models.Team, error) {
	row, err := t.queries.UpdateTeamDetails(ctx, db.UpdateTeamDetailsParams{
		ID:      team.ID,
		Name:    team.Name,
		OwnerID: sqlutil.ToNullInt64(team.OwnerID),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", translate(err))
	}
	return dbTeamToModel(row), nil
}

func (t *postgresTx) DeleteTeam(ctx context.Context, id int64) error {
	n, err := t.queries.DeleteTeam(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", translate(err))
	}
	if n == 0 {
		return fmt.Errorf("failed to delete team %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (t *postgresTx) CountPlayersByTeam(ctx context.Context, teamID int64) (int, error) {
	n, err := t.queries.CountPlayersByTeam(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", translate(err))
	}
	return int(n), nil
}

func (t *postgresTx) CountEntriesByTeam(ctx context.Context, teamID int64) (int, error) {
	n, err := t.queries.CountAuctionByTeam(ctx, teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to count auction entries: %w", translate(err))
	}
	return int(n), nil
}

func (t *postgresTx) CountEntriesByPlayer(ctx context.Context, playerID int64) (int, error) {
	n, err := t.queries.CountAuctionByPlayer(ctx, playerID)
	if err != nil {
		return 0, fmt.Errorf("failed to count auction entries: %w", translate(err))
	}
	return int(n), nil
}

func (t *postgresTx) ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error) {
	rows, err := t.queries.ListPlayers(ctx, db.ListPlayersParams{
		Name:     filter.Name,
		Category: string(filter.Category),
		TeamID:   sqlutil.ToNullInt64(filter.TeamID),
		IsSold:   sqlutil.ToNullBool(filter.Sold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", translate(err))
	}
	players := make([]models.Player, len(rows))
	for i, row := range rows {
		players[i] = *dbPlayerToModel(row)
	}
	return players, nil
}

func (t *postgresTx) InsertPlayer(ctx context.Context, name string, category models.Category, basePrice money.Amount) (*models.Player, error) {
	row, err := t.queries.CreatePlayer(ctx, db.CreatePlayerParams{
		Name:      name,
		Category:  string(category),
		BasePrice: basePrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", translate(err))
	}
	return dbPlayerToModel(row), nil
}

func (t *postgresTx) UpdatePlayerDetails(ctx context.Context, p models.Player) (*models.Player, error) {
	row, err := t.queries.UpdatePlayerDetails(ctx, db.UpdatePlayerDetailsParams{
		ID:        p.ID,
		Name:      p.Name,
		Category:  string(p.Category),
		BasePrice: p.BasePrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", translate(err))
	}
	return dbPlayerToModel(row), nil
}

func (t *postgresTx) DeletePlayer(ctx context.Context, id int64) error {
	n, err := t.queries.DeletePlayer(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", translate(err))
	}
	if n == 0 {
		return fmt.Errorf("failed to delete player %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (t *postgresTx) ListActiveEntries(ctx context.Context, teamID *int64) ([]models.AuctionEntry, error) {
	rows, err := t.queries.ListActiveBids(ctx, sqlutil.ToNullInt64(teamID))
	if err != nil {
		return nil, fmt.Errorf("failed to list active entries: %w", translate(err))
	}
	entries := make([]models.AuctionEntry, len(rows))
	for i, row := range rows {
		entries[i] = *dbAuctionToModel(row)
	}
	return entries, nil
}

func (t *postgresTx) ListRecentEntries(ctx context.Context, limit int) ([]models.AuctionRecord, error) {
	rows, err := t.queries.ListRecentAuction(ctx, int32(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to list recent entries: %w", translate(err))
	}
	records := make([]models.AuctionRecord, len(rows))
	for i, row := range rows {
		records[i] = models.AuctionRecord{
			AuctionEntry: *dbAuctionToModel(row.Auction),
			PlayerName:   row.PlayerName,
			TeamName:     row.TeamName,
		}
	}
	return records, nil
}

func (t *postgresTx) Commit() error {
	if err := t.tx.Commit(); err != nil { // COMMIT
		if errors.Is(err, sql.ErrTxDone) {
			return ErrTxDone
		}
		return fmt.Errorf("failed to commit: %w", translate(err))
	}
	return nil
}

func (t *postgresTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil { // ROLLBACK
		if errors.Is(err, sql.ErrTxDone) {
			return ErrTxDone
		}
		return fmt.Errorf("failed to rollback: %w", translate(err))
	}
	return nil
}

// translate maps driver errors onto the package's sentinel errors while
// keeping the original in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "55P03", "57014": // lock_not_available, query_canceled
			return fmt.Errorf("%w: %w", ErrLockTimeout, err)
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return fmt.Errorf("%w: %w", ErrConflict, err)
		}
		if pqErr.Code.Class() == "23" { // integrity_constraint_violation
			return fmt.Errorf("%w: %w", ErrConstraint, err)
		}
	}
	return err
}

func dbTeamToModel(t db.Team) *models.Team {
	return &models.Team{
		ID:            t.ID,
		Name:          t.Name,
		Budget:        t.Budget,
		InitialBudget: t.InitialBudget,
		OwnerID:       sqlutil.FromNullInt64(t.OwnerID),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func dbPlayerToModel(p db.Player) *models.Player {
	return &models.Player{
		ID:        p.ID,
		Name:      p.Name,
		Category:  models.Category(p.Category),
		BasePrice: p.BasePrice,
		IsSold:    p.IsSold,
		TeamID:    sqlutil.FromNullInt64(p.TeamID),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func dbAuctionToModel(a db.Auction) *models.AuctionEntry {
	return &models.AuctionEntry{
		ID:         a.ID,
		Kind:       models.EntryKind(a.Kind),
		PlayerID:   a.PlayerID,
		TeamID:     a.TeamID,
		Price:      a.Price,
		ReversesID: sqlutil.FromNullInt64(a.ReversesID),
		CreatedAt:  a.CreatedAt,
	}
}
