// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/unclebandit/outreach-backend/internal/config"
)

// Open connects to postgres and pings it. The caller owns the returned handle.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	logrus.WithFields(logrus.Fields{
		"host": cfg.Host,
		"db":   cfg.Name,
	}).Info("Connecting to database")

	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxIdleTime(time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logrus.Info("Connected to database")
	return conn, nil
}
