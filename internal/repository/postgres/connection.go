// Package postgres implements the domain repositories against PostgreSQL
// using pgx. Table names carry an environment prefix so dev, test and
// prod can share a database.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RepositoryConfig holds the shared pieces every repository needs.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names.
type TableNames struct {
	Workspaces    string
	Folders       string
	Files         string
	Users         string
	Collaborators string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Workspaces:    prefix + "workspaces",
		Folders:       prefix + "folders",
		Files:         prefix + "files",
		Users:         prefix + "users",
		Collaborators: prefix + "collaborators",
	}
}

// CreateConnectionPool creates a pgx pool with PgBouncer compatibility.
//
// Transaction-pooling PgBouncer (port 6543 on hosted Postgres) rejects
// prepared statements, so when that port is detected and the user did not
// set an explicit default_query_exec_mode, switch to cache_describe:
// extended protocol for proper JSONB encoding, no server-side prepared
// statements. Direct connections keep pgx's default mode.
//
// Interpolating table prefixes with fmt.Sprintf is safe alongside
// statement caching because the SQL text is fixed per environment before
// it reaches the server.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
