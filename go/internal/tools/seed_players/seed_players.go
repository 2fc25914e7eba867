package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mcdev12/pxfc-auction/go/internal/dbconfig"
	"github.com/mcdev12/pxfc-auction/go/internal/models"
	"github.com/mcdev12/pxfc-auction/go/internal/money"
)

// Player mirrors players.json. Sale state is never seeded; every player starts unsold.
type Player struct {
	Name      string       `json:"name"`
	Category  string       `json:"category"`
	BasePrice money.Amount `json:"base_price"`
}

func main() {
	ctx := context.Background()

	// 1) Load players.json
	data, err := os.ReadFile("go/internal/assets/players.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read players.json: %v\n", err)
		os.Exit(1)
	}
	var players []Player
	if err := json.Unmarshal(data, &players); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal players: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect to DB
	cfg := dbconfig.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid db config: %v\n", err)
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Seed players
	total, inserted, skipped, errs := len(players), 0, 0, 0
	for _, p := range players {
		category, err := models.ParseCategory(p.Category)
		if err != nil || p.Name == "" || !p.BasePrice.IsPositive() {
			fmt.Fprintf(os.Stderr, "skipping invalid player %q (category %q, base price %s)\n", p.Name, p.Category, p.BasePrice)
			errs++
			continue
		}

		tag, err := pool.Exec(ctx, `
            INSERT INTO players (name, category, base_price)
            SELECT $1, $2, $3
            WHERE NOT EXISTS (SELECT 1 FROM players WHERE name = $1)
        `, p.Name, string(category), p.BasePrice)
		if err != nil {
			fmt.Fprintf(os.Stderr, "insert player %s: %v\n", p.Name, err)
			errs++
			continue
		}
		if tag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	fmt.Printf("Players seed: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs)
}
