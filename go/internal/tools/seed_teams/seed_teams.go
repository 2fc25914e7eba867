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

// Team mirrors teams.json. A missing budget falls back to the default purse.
type Team struct {
	Name   string        `json:"name"`
	Budget *money.Amount `json:"budget"`
}

func main() {
	ctx := context.Background()

	// 1) Load the JSON snapshot
	data, err := os.ReadFile("go/internal/assets/teams.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var teams []Team
	if err := json.Unmarshal(data, &teams); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid db config: %v\n", err)
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert missing teams and count
	var (
		total    = len(teams)
		inserted int
		skipped  int
		errs     int
	)

	for _, t := range teams {
		budget := models.DefaultTeamBudget
		if t.Budget != nil {
			budget = *t.Budget
		}
		if t.Name == "" || !budget.IsPositive() {
			fmt.Fprintf(os.Stderr, "skipping invalid team %q\n", t.Name)
			errs++
			continue
		}

		// teams.name carries no unique constraint, so existence is checked inline.
		cmdTag, err := pool.Exec(ctx, `
            INSERT INTO teams (name, budget, initial_budget)
            SELECT $1, $2, $2
            WHERE NOT EXISTS (SELECT 1 FROM teams WHERE name = $1)
        `, t.Name, budget)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting team %s: %v\n", t.Name, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Teams seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
