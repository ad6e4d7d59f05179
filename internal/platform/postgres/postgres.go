// Package postgres opens the shared database handle used by both the
// pipeline loader and the read API.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"resmatch/internal/platform/config"
)

const pingTimeout = 5 * time.Second

// Open connects to PostgreSQL and verifies the connection with a ping.
func Open(cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// DSN builds a lib/pq connection string from config.
func DSN(cfg config.Database) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name,
	)
}
