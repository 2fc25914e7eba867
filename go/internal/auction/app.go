package auction

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/pxfc-auction/go/internal/broadcast"
	"github.com/mcdev12/pxfc-auction/go/internal/ledger"
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
	"github.com/mcdev12/pxfc-auction/go/internal/projection"
)

// Publisher receives committed auction events. Publish must not block.
type Publisher interface {
	Publish(event broadcast.Event)
}

// Invalidator drops cached read snapshots after a commit.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// Config tunes the bid engine.
type Config struct {
	// TxTimeout bounds a whole PlaceBid or ReverseBid, lock waits included.
	TxTimeout time.Duration
	// RecentLimit is the default size of the status feed.
	RecentLimit int
}

func DefaultConfig() Config {
	return Config{
		TxTimeout:   5 * time.Second,
		RecentLimit: 10,
	}
}

// App is the bid engine. Every mutation runs in a single ledger transaction
// and is announced to the publisher only after it commits.
type App struct {
	store     ledger.Store
	publisher Publisher
	cache     Invalidator
	clock     clockwork.Clock
	config    Config

	// commitMu makes publish order equal commit order.
	commitMu sync.Mutex
}

// NewApp creates a new bid engine
func NewApp(store ledger.Store, publisher Publisher, cache Invalidator, clock clockwork.Clock, config Config) *App {
	defaults := DefaultConfig()
	if config.TxTimeout <= 0 {
		config.TxTimeout = defaults.TxTimeout
	}
	if config.RecentLimit <= 0 {
		config.RecentLimit = defaults.RecentLimit
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &App{
		store:     store,
		publisher: publisher,
		cache:     cache,
		clock:     clock,
		config:    config,
	}
}

// PlaceBid sells cmd.PlayerID to cmd.TeamID for cmd.BidAmount.
func (a *App) PlaceBid(ctx context.Context, cmd PlaceBidCommand) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	result, err := a.execute(ctx, broadcast.EventTypeBidAccepted, func(ctx context.Context, tx ledger.Tx) (*Result, error) {
		player, err := tx.GetPlayer(ctx, cmd.PlayerID)
		if err != nil {
			return nil, notFound(err, ErrPlayerNotFound, cmd.PlayerID)
		}
		if player.IsSold {
			return nil, fmt.Errorf("%w: player %d", ErrPlayerAlreadySold, player.ID)
		}

		team, err := tx.GetTeam(ctx, cmd.TeamID)
		if err != nil {
			return nil, notFound(err, ErrTeamNotFound, cmd.TeamID)
		}
		if cmd.BidAmount < player.BasePrice {
			return nil, fmt.Errorf("%w: bid %s, base price %s", ErrBidBelowMinimum, cmd.BidAmount, player.BasePrice)
		}
		if cmd.BidAmount > team.Budget {
			return nil, fmt.Errorf("%w: bid %s, remaining budget %s", ErrInsufficientBudget, cmd.BidAmount, team.Budget)
		}

		if err := tx.UpdateTeamBudget(ctx, team.ID, team.Budget-cmd.BidAmount); err != nil {
			return nil, fmt.Errorf("failed to debit team: %w", err)
		}
		if err := tx.UpdatePlayerSaleState(ctx, player.ID, true, &team.ID); err != nil {
			return nil, fmt.Errorf("failed to mark player sold: %w", err)
		}
		if _, err := tx.InsertAuctionEntry(ctx, player.ID, team.ID, cmd.BidAmount); err != nil {
			return nil, fmt.Errorf("failed to record bid: %w", err)
		}

		return a.project(ctx, tx, player.ID, team.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("player_id", cmd.PlayerID).
		Int64("team_id", cmd.TeamID).
		Str("bid_amount", cmd.BidAmount.String()).
		Msg("bid accepted")
	return result, nil
}

// ReverseBid returns a sold player to the pool and refunds the owning team
// the price of the sale being voided.
func (a *App) ReverseBid(ctx context.Context, cmd ReverseBidCommand) (*Result, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var refund money.Amount
	result, err := a.execute(ctx, broadcast.EventTypePlayerRemoved, func(ctx context.Context, tx ledger.Tx) (*Result, error) {
		player, err := tx.GetPlayer(ctx, cmd.PlayerID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		if player == nil || !player.OwnedBy(cmd.TeamID) {
			return nil, fmt.Errorf("%w: player %d, team %d", ErrPlayerNotOwnedByTeam, cmd.PlayerID, cmd.TeamID)
		}

		team, err := tx.GetTeam(ctx, cmd.TeamID)
		if err != nil {
			return nil, notFound(err, ErrTeamNotFound, cmd.TeamID)
		}

		var reversesID *int64
		entry, err := tx.GetLatestAuctionEntry(ctx, player.ID, team.ID)
		switch {
		case err == nil:
			refund = entry.Price
			reversesID = &entry.ID
		case errors.Is(err, models.ErrNotFound):
			refund = money.Min(player.BasePrice, team.Spent())
			log.Warn().
				Bool("integrity_violation", true).
				Int64("player_id", player.ID).
				Int64("team_id", team.ID).
				Str("refund", refund.String()).
				Msg("sold player has no active auction entry, refunding base price")
		default:
			return nil, fmt.Errorf("failed to load auction entry: %w", err)
		}

		if err := tx.UpdateTeamBudget(ctx, team.ID, team.Budget+refund); err != nil {
			return nil, fmt.Errorf("failed to refund team: %w", err)
		}
		if err := tx.UpdatePlayerSaleState(ctx, player.ID, false, nil); err != nil {
			return nil, fmt.Errorf("failed to release player: %w", err)
		}
		if _, err := tx.ReverseAuctionEntry(ctx, player.ID, team.ID, refund, reversesID); err != nil {
			return nil, fmt.Errorf("failed to record reversal: %w", err)
		}

		return a.project(ctx, tx, player.ID, team.ID)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("player_id", cmd.PlayerID).
		Int64("team_id", cmd.TeamID).
		Str("refund", refund.String()).
		Msg("bid reversed")
	return result, nil
}

// RecentBids returns the newest ledger rows, newest first. limit <= 0 uses the configured default.
func (a *App) RecentBids(ctx context.Context, limit int) ([]RecentBid, error) {
	if limit <= 0 {
		limit = a.config.RecentLimit
	}
	records, err := ledger.Query(ctx, a.store, func(tx ledger.Tx) ([]models.AuctionRecord, error) {
		return tx.ListRecentEntries(ctx, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recent bids: %w", err)
	}

	bids := make([]RecentBid, 0, len(records))
	for _, r := range records {
		bids = append(bids, RecentBid{
			ID:         r.ID,
			Kind:       string(r.Kind),
			PlayerID:   r.PlayerID,
			Player:     r.PlayerName,
			TeamID:     r.TeamID,
			Team:       r.TeamName,
			Price:      r.Price,
			ReversesID: r.ReversesID,
			CreatedAt:  r.CreatedAt,
		})
	}
	return bids, nil
}

// Snapshot reads every team and player in one transaction.
func (a *App) Snapshot(ctx context.Context) (*broadcast.Snapshot, error) {
	return ledger.Query(ctx, a.store, func(tx ledger.Tx) (*broadcast.Snapshot, error) {
		teams, err := tx.ListTeams(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list teams: %w", err)
		}
		players, err := tx.ListPlayers(ctx, models.PlayerFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to list players: %w", err)
		}
		entries, err := tx.ListActiveEntries(ctx, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list auction entries: %w", err)
		}
		return &broadcast.Snapshot{
			Teams:   projection.FormatTeams(teams, players, entries),
			Players: projection.FormatPlayers(players, entries),
		}, nil
	})
}

var _ broadcast.StateProvider = (*App)(nil)

// execute runs fn in a transaction bounded by TxTimeout. On success it commits
// and publishes under commitMu, then invalidates cached snapshots.
// The caller's cancellation is detached; only TxTimeout ends a running command.
func (a *App) execute(ctx context.Context, eventType broadcast.EventType, fn func(ctx context.Context, tx ledger.Tx) (*Result, error)) (*Result, error) {
	txCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.TxTimeout)
	defer cancel()

	tx, err := a.store.Begin(txCtx)
	if err != nil {
		return nil, storageError(txCtx, err)
	}

	result, err := fn(txCtx, tx)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, ledger.ErrTxDone) {
			log.Error().Err(rbErr).Msg("rollback failed")
		}
		if isRejection(err) {
			return nil, err
		}
		return nil, storageError(txCtx, err)
	}

	a.commitMu.Lock()
	if err := tx.Commit(); err != nil {
		a.commitMu.Unlock()
		return nil, storageError(txCtx, err)
	}
	a.publisher.Publish(broadcast.NewEvent(eventType, result.Team, result.Player, a.clock.Now().UTC()))
	a.commitMu.Unlock()

	a.invalidate(ctx)
	return result, nil
}

func (a *App) invalidate(ctx context.Context) {
	if a.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := a.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate snapshot cache")
	}
}

// project reads the post-write state of the touched rows inside tx.
func (a *App) project(ctx context.Context, tx ledger.Tx, playerID, teamID int64) (*Result, error) {
	team, err := tx.GetTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload team: %w", err)
	}
	player, err := tx.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload player: %w", err)
	}
	roster, err := tx.ListPlayers(ctx, models.PlayerFilter{TeamID: &teamID})
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	entries, err := tx.ListActiveEntries(ctx, &teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list auction entries: %w", err)
	}

	var latest *models.AuctionEntry
	if player.TeamID != nil {
		if e, ok := projection.LatestEntries(entries)[projection.Key{PlayerID: player.ID, TeamID: *player.TeamID}]; ok {
			latest = &e
		}
	}

	return &Result{
		Team:   projection.FormatTeam(*team, roster, entries),
		Player: projection.FormatPlayer(*player, latest),
	}, nil
}

func notFound(err, sentinel error, id int64) error {
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: %d", sentinel, id)
	}
	return err
}

// storageError classifies a non-business failure.
func storageError(ctx context.Context, err error) error {
	if errors.Is(err, ledger.ErrLockTimeout) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrLockTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrTransactionFailed, err)
}
