package postgres

import (
	"context"
	"database/sql"
)

// Client is the subset of Postgres access the adaptive agent needs
type Client interface {
	// Connect opens the pool and verifies it with a ping
	Connect(ctx context.Context) error

	// Disconnect closes the pool
	Disconnect() error

	// Exec executes a statement without returning rows
	Exec(ctx context.Context, query string, args ...interface{}) (sql.Result, error)

	// HealthCheck reports connectivity without failing the caller
	HealthCheck(ctx context.Context) (*HealthStatus, error)
}
