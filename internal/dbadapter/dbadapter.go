// Package dbadapter is the narrow bridge between the analysis core and a
// live PostgreSQL connection. The core only ever sees the DbClient
// interface; this package is the one place pgx is imported.
package dbadapter

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DbClient is the narrow capability the analysis core depends on: a query
// for schema loading, and a typed prepare for probing. Nothing else in the
// core is allowed to reach for pgx directly.
type DbClient interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	PrepareTyped(ctx context.Context, sql string, argOIDs []uint32) (*pgconn.StatementDescription, error)
}

// Client is the pgx-backed implementation of DbClient.
type Client struct {
	pool *pgxpool.Pool
}

var _ DbClient = (*Client)(nil)

// Connect opens a pool against uri. The pool is shared by every probe and
// schema load issued against this client; pgx serializes concurrent use
// across its internal connections.
func Connect(ctx context.Context, uri string) (*Client, error) {
	pool, err := pgxpool.New(ctx, uri)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &Client{pool: pool}, nil
}

// Close releases the underlying pool.
func (c *Client) Close() {
	c.pool.Close()
}

func (c *Client) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.pool.Query(ctx, sql, args...)
}

// PrepareTyped asks the server to prepare sql with the given parameter
// OIDs (an empty slice lets the server infer parameter types itself) and
// returns the resulting parameter/column type description. The statement
// is prepared unnamed, so the next Parse on that connection replaces it and
// no named server-side plan is retained: the core only wants the type
// metadata.
func (c *Client) PrepareTyped(ctx context.Context, sql string, argOIDs []uint32) (*pgconn.StatementDescription, error) {
	conn, err := c.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	// An unnamed ("") prepared statement is implicitly replaced by the next
	// Parse on this connection, so there's nothing to explicitly
	// deallocate here.
	pgConn := conn.Conn().PgConn()
	return pgConn.Prepare(ctx, "", sql, argOIDs)
}
