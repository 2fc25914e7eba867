package ledger

import (
	"context"
	"errors"

	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

var (
	// ErrLockTimeout is returned when a row lock could not be acquired in time.
	ErrLockTimeout = errors.New("lock wait timeout")
	// ErrConflict is returned for serialization failures and deadlocks.
	ErrConflict = errors.New("transaction conflict")
	// ErrConstraint is returned when a write would break a table invariant.
	ErrConstraint = errors.New("constraint violation")
	// ErrTxDone is returned when a finished transaction is used again.
	ErrTxDone = errors.New("transaction already committed or rolled back")
)

// Store opens transactions on the auction ledger.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is a single atomic unit of work against teams, players and the auction ledger.
//
// GetTeam and GetPlayer take an exclusive lock on the row that is held until
// Commit or Rollback. FindTeam and FindPlayer read without locking and serve
// view paths. Missing rows are reported as models.ErrNotFound.
//
// Ledger rows are never deleted: DeleteTeam and DeletePlayer fail with
// ErrConstraint while any auction entry references the row.
type Tx interface {
	GetTeam(ctx context.Context, id int64) (*models.Team, error)
	GetPlayer(ctx context.Context, id int64) (*models.Player, error)
	FindTeam(ctx context.Context, id int64) (*models.Team, error)
	FindPlayer(ctx context.Context, id int64) (*models.Player, error)
	// GetLatestAuctionEntry returns the newest active BID for the pair.
	GetLatestAuctionEntry(ctx context.Context, playerID, teamID int64) (*models.AuctionEntry, error)
	UpdateTeamBudget(ctx context.Context, teamID int64, budget money.Amount) error
	UpdatePlayerSaleState(ctx context.Context, playerID int64, sold bool, teamID *int64) error
	// InsertAuctionEntry appends a BID.
	InsertAuctionEntry(ctx context.Context, playerID, teamID int64, price money.Amount) (*models.AuctionEntry, error)
	// ReverseAuctionEntry appends a REVERSAL. reversesID is nil when there is no BID to void.
	ReverseAuctionEntry(ctx context.Context, playerID, teamID int64, refund money.Amount, reversesID *int64) (*models.AuctionEntry, error)

	ListTeams(ctx context.Context) ([]models.Team, error)
	InsertTeam(ctx context.Context, name string, budget money.Amount, ownerID *int64) (*models.Team, error)
	// UpdateTeamDetails saves name and owner. Budgets are left untouched.
	UpdateTeamDetails(ctx context.Context, t models.Team) (*models.Team, error)
	DeleteTeam(ctx context.Context, id int64) error
	CountPlayersByTeam(ctx context.Context, teamID int64) (int, error)
	// CountEntriesByTeam and CountEntriesByPlayer count ledger rows of either kind.
	CountEntriesByTeam(ctx context.Context, teamID int64) (int, error)
	CountEntriesByPlayer(ctx context.Context, playerID int64) (int, error)

	ListPlayers(ctx context.Context, filter models.PlayerFilter) ([]models.Player, error)
	InsertPlayer(ctx context.Context, name string, category models.Category, basePrice money.Amount) (*models.Player, error)
	UpdatePlayerDetails(ctx context.Context, p models.Player) (*models.Player, error)
	DeletePlayer(ctx context.Context, id int64) error

	// ListActiveEntries returns active BIDs, optionally for one team, oldest first.
	ListActiveEntries(ctx context.Context, teamID *int64) ([]models.AuctionEntry, error)
	// ListRecentEntries returns the newest ledger rows of either kind.
	ListRecentEntries(ctx context.Context, limit int) ([]models.AuctionRecord, error)

	Commit() error
	Rollback() error
}

// Run executes fn inside a transaction.
// If fn returns an error the tx rolls back, else it commits.
func Run(ctx context.Context, store Store, fn func(tx Tx) error) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Query is Run for read paths that produce a value.
func Query[T any](ctx context.Context, store Store, fn func(tx Tx) (T, error)) (T, error) {
	var out T
	err := Run(ctx, store, func(tx Tx) error {
		v, err := fn(tx)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}
