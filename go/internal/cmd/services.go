package main

import (
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/pxfc-auction/go/internal/auction"
	"github.com/mcdev12/pxfc-auction/go/internal/auth"
	"github.com/mcdev12/pxfc-auction/go/internal/broadcast"
	"github.com/mcdev12/pxfc-auction/go/internal/cache"
	"github.com/mcdev12/pxfc-auction/go/internal/ledger"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
	"github.com/mcdev12/pxfc-auction/go/internal/player"
	"github.com/mcdev12/pxfc-auction/go/internal/teams"
)

type Services struct {
	Auth      *auth.Service
	Auction   *auction.Service
	Teams     *teams.Service
	Players   *player.Service
	WebSocket *broadcast.WebSocketHandler
	Hub       *broadcast.Hub
}

func setupServices(
	config *Config,
	store ledger.Store,
	hub *broadcast.Hub,
	publisher auction.Publisher,
	snapshots cache.Snapshots,
	authService *auth.Service,
	defaultBudget money.Amount,
) *Services {
	// Wire up dependency injection chain
	// Ledger store → Repository layer → App layer → Service layer
	clock := clockwork.NewRealClock()

	// Bid engine
	auctionApp := auction.NewApp(store, publisher, snapshots, clock, auction.Config{
		TxTimeout:   config.Auction.TxTimeout,
		RecentLimit: config.Auction.RecentBidsLimit,
	})
	auctionService := auction.NewService(auctionApp)

	// Teams
	teamsRepo := teams.NewRepository(store)
	teamsApp := teams.NewApp(teamsRepo, snapshots, defaultBudget)
	teamsService := teams.NewService(teamsApp)

	// Players
	playerRepo := player.NewRepository(store)
	playerApp := player.NewApp(playerRepo, snapshots)
	playerService := player.NewService(playerApp)

	// Live updates
	wsHandler := broadcast.NewWebSocketHandler(hub, auctionApp, broadcast.DefaultConnectionConfig())

	return &Services{
		Auth:      authService,
		Auction:   auctionService,
		Teams:     teamsService,
		Players:   playerService,
		WebSocket: wsHandler,
		Hub:       hub,
	}
}
