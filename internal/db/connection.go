package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Kulik199775/Web524HospitalDBQuery/internal/config"
	"github.com/Kulik199775/Web524HospitalDBQuery/internal/normalize"
)

type Options struct {
	// MaxAttempts is the number of pings before giving up; zero means one.
	MaxAttempts uint8
	// RetryDelay grows linearly with the attempt number.
	RetryDelay time.Duration
	// Timeout bounds connection setup and every single query.
	Timeout time.Duration
}

// Connection is the single read connection handed to catalog queries.
// A Connection whose setup failed, and a nil *Connection, answer every
// query with ErrNotConnected.
type Connection struct {
	db      *sql.DB
	engine  string
	name    string
	timeout time.Duration
	err     error
}

// Connect opens the database and pings it with retries. On failure it
// still returns a usable handle together with a *ConnectionError.
func Connect(ctx context.Context, cfg config.Database, opts Options) (*Connection, error) {
	conn := &Connection{
		engine:  cfg.Engine,
		name:    cfg.Database,
		timeout: opts.Timeout,
	}

	db, err := open(cfg, opts.Timeout)
	if err != nil {
		conn.err = &ConnectionError{Engine: cfg.Engine, Database: cfg.Database, Err: err}
		slog.ErrorContext(ctx, "Error opening database", "engine", cfg.Engine, "database", cfg.Database, "error", err)
		return conn, conn.err
	}

	if err := testConnection(ctx, db, cfg.Database, opts); err != nil {
		db.Close()
		conn.err = &ConnectionError{Engine: cfg.Engine, Database: cfg.Database, Err: err}
		slog.ErrorContext(ctx, "Error connecting to database", "engine", cfg.Engine, "database", cfg.Database, "error", err)
		return conn, conn.err
	}

	slog.InfoContext(ctx, "Connected to database", "engine", cfg.Engine, "database", cfg.Database)
	conn.db = db
	return conn, nil
}

// Pings the database up to MaxAttempts times to ride out transient errors.
func testConnection(ctx context.Context, db *sql.DB, name string, opts Options) error {
	maxAttempts := max(opts.MaxAttempts, 1)

	var err error
	for attempt := uint8(1); attempt <= maxAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		slog.WarnContext(ctx, "Connection failed",
			"database", name,
			"attempt", attempt,
			"max_attempts", maxAttempts,
			"error", err,
		)
		if attempt == maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(opts.RetryDelay * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("connection to %s failed after %d attempts: %w", name, maxAttempts, err)
}

func (c *Connection) Engine() string {
	if c == nil {
		return ""
	}
	return c.engine
}

func (c *Connection) Database() string {
	if c == nil {
		return ""
	}
	return c.name
}

func (c *Connection) Connected() bool {
	return c != nil && c.db != nil
}

// Err returns the error that prevented the connection, if any.
func (c *Connection) Err() error {
	if c == nil {
		return ErrNotConnected
	}
	return c.err
}

func (c *Connection) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}

func (c *Connection) notConnected() error {
	if c != nil && c.err != nil {
		return fmt.Errorf("%w: %w", ErrNotConnected, c.err)
	}
	return ErrNotConnected
}

func (c *Connection) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Query runs a read-only statement inside a transaction that is always
// rolled back, and returns its rows.
func (c *Connection) Query(ctx context.Context, query string) (*ResultSet, error) {
	if !c.Connected() {
		return nil, c.notConnected()
	}
	if ctx.Err() != nil {
		slog.ErrorContext(ctx, "Context already cancelled", "database", c.name)
		return nil, ctx.Err()
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		slog.ErrorContext(ctx, "Error starting transaction", "database", c.name, "error", err)
		return nil, &QueryExecutionError{Stage: "starting transaction", Err: err}
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		slog.ErrorContext(ctx, "Error running query", "database", c.name, "error", err)
		return nil, &QueryExecutionError{Stage: "running query", Err: err}
	}
	defer rows.Close()

	return getQueryResults(ctx, rows)
}

// Now returns the database server's current time as text.
func (c *Connection) Now(ctx context.Context) (string, error) {
	if !c.Connected() {
		return "", c.notConnected()
	}

	query, ok := nowQueries[c.engine]
	if !ok {
		return "", fmt.Errorf("no current time query for engine %q", c.engine)
	}

	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	var v any
	if err := c.db.QueryRowContext(ctx, query).Scan(&v); err != nil {
		slog.ErrorContext(ctx, "Error reading database time", "database", c.name, "error", err)
		return "", &QueryExecutionError{Stage: "reading database time", Err: err}
	}

	return fmt.Sprint(normalize.Value(v)), nil
}

func getQueryResults(ctx context.Context, rows *sql.Rows) (*ResultSet, error) {
	start := time.Now()

	cols, err := rows.ColumnTypes()
	if err != nil {
		slog.ErrorContext(ctx, "Error identifying columns", "error", err)
		return nil, &QueryExecutionError{Stage: "identifying columns", Err: err}
	}

	results := &ResultSet{
		Columns: make([]Column, len(cols)),
		Rows:    make([][]any, 0, 100),
	}

	for i, col := range cols {
		nullable, _ := col.Nullable()
		results.Columns[i] = Column{
			Ordinal:  i,
			Name:     col.Name(),
			Type:     col.DatabaseTypeName(),
			Nullable: nullable,
		}
	}

	colPointers := make([]any, len(cols))
	colValues := make([]any, len(cols))

	for rows.Next() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		for i := range colValues {
			colPointers[i] = &colValues[i]
		}

		if err := rows.Scan(colPointers...); err != nil {
			slog.ErrorContext(ctx, "Error scanning rows", "error", err)
			return nil, &QueryExecutionError{Stage: "scanning rows", Err: err}
		}

		// Scanning into *any copies driver buffers, so the values are ours.
		row := make([]any, len(cols))
		copy(row, colValues)
		results.Rows = append(results.Rows, row)
		results.RowCount++
	}

	if err = rows.Err(); err != nil {
		slog.ErrorContext(ctx, "Generic row error", "error", err)
		return nil, &QueryExecutionError{Stage: "reading rows", Err: err}
	}

	results.Duration = time.Since(start)

	return results, nil
}
