package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"wheres-my-food/pkg/config"
	"wheres-my-food/pkg/db/migrations"
	"wheres-my-food/pkg/logger"
)

// ConnectDB opens a pool, pings it and applies pending migrations.
func ConnectDB(ctx context.Context, cfg config.DatabaseConfig, mylog *logger.Logger) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrations.Apply(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	mylog.Action("db_connected").Info("Connected to PostgreSQL database", "host", cfg.Host, "database", cfg.Database)
	return pool, nil
}
