package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx" driver for database/sql
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pkordes/rv-park/backend/internal/config"
	"github.com/pkordes/rv-park/backend/internal/lock"
	"github.com/pkordes/rv-park/backend/internal/notify"
	"github.com/pkordes/rv-park/backend/internal/repo"
	"github.com/pkordes/rv-park/backend/internal/service"
)

var databaseURL string

var rootCmd = &cobra.Command{
	Use:           "campctl",
	Short:         "Operate the RV park reservation database",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		if databaseURL == "" {
			databaseURL = os.Getenv("DATABASE_URL")
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (default $DATABASE_URL)")
}

// openSQL opens a database/sql handle for goose.
func openSQL(ctx context.Context) (*sql.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("no database: set --database-url or DATABASE_URL")
	}
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// openEngine builds a reservation engine over Postgres with the rules from
// RULES_FILE. The returned func closes the pool.
func openEngine(ctx context.Context) (*service.Engine, func(), error) {
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("no database: set --database-url or DATABASE_URL")
	}
	rules, err := config.LoadRules(os.Getenv("RULES_FILE"))
	if err != nil {
		return nil, nil, err
	}
	policy, err := rules.Policy()
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	engine := service.NewEngine(repo.NewPgStore(pool), lock.NewKeyedMutex(), notify.NewLogNotifier(log), policy, log)
	return engine, pool.Close, nil
}
