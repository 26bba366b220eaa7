package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	errx "github.com/analyst-9000/server/internal/core/error"
	logx "github.com/analyst-9000/server/pkg/logger"
)

// Config describes the analytical Postgres warehouse connection.
type Config struct {
	URL          string `envconfig:"WAREHOUSE_URL" required:"true"`
	MaxOpenConns int    `envconfig:"WAREHOUSE_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns int    `envconfig:"WAREHOUSE_MAX_IDLE_CONNS" default:"2"`
	QueryTimeout int    `envconfig:"WAREHOUSE_QUERY_TIMEOUT_SECONDS" default:"30"`
	MaxRows      int    `envconfig:"WAREHOUSE_MAX_ROWS" default:"1000"`
}

// QueryResult is the tagged outcome of one query. Query-level failures are
// reported here, never as a Go error.
type QueryResult struct {
	Success  bool             `json:"success"`
	Rows     []map[string]any `json:"rows,omitempty"`
	RowCount int              `json:"row_count"`
	Error    string           `json:"error,omitempty"`
}

// Executor runs SQL against the analytical dataset. Implementations return a
// non-nil error only for transport/connectivity failures; a query that the
// engine rejected comes back as a QueryResult with Success=false.
type Executor interface {
	Execute(ctx context.Context, query string) (*QueryResult, error)
}

// PostgresExecutor is the lib/pq-backed Executor for the TheLook eCommerce
// dataset.
type PostgresExecutor struct {
	db      *sql.DB
	timeout time.Duration
	maxRows int
}

// NewPostgresExecutor opens and pings the warehouse connection.
func NewPostgresExecutor(cfg Config) (*PostgresExecutor, error) {
	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, errx.WrapWarehouse(err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if err := db.Ping(); err != nil {
		return nil, errx.WrapWarehouse(err)
	}

	return &PostgresExecutor{
		db:      db,
		timeout: time.Duration(cfg.QueryTimeout) * time.Second,
		maxRows: cfg.MaxRows,
	}, nil
}

// Close releases the underlying connection pool.
func (e *PostgresExecutor) Close() error {
	return e.db.Close()
}

// Execute runs the query and materializes the rows. Errors raised by the
// engine for the query itself (syntax, unknown column, type mismatch) become
// a failed QueryResult so the retry loop can learn from them.
func (e *PostgresExecutor) Execute(ctx context.Context, query string) (*QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	logx.Debug().Str("sql_preview", preview(query, 200)).Msg("Executing warehouse query")

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		if isQueryError(err) {
			logx.Warn().Err(err).Msg("Warehouse rejected query")
			return &QueryResult{Success: false, Error: err.Error()}, nil
		}
		logx.Error().Err(err).Msg("Warehouse transport failure")
		return nil, errx.WrapWarehouse(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, errx.WrapWarehouse(err)
	}

	out := make([]map[string]any, 0, 16)
	for rows.Next() {
		if e.maxRows > 0 && len(out) >= e.maxRows {
			logx.Warn().Int("max_rows", e.maxRows).Msg("Warehouse result truncated")
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errx.WrapWarehouse(err)
		}
		record := make(map[string]any, len(cols))
		for i, col := range cols {
			record[col] = normalize(values[i])
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		if isQueryError(err) {
			return &QueryResult{Success: false, Error: err.Error()}, nil
		}
		return nil, errx.WrapWarehouse(err)
	}

	logx.Debug().Int("row_count", len(out)).Msg("Warehouse query succeeded")
	return &QueryResult{Success: true, Rows: out, RowCount: len(out)}, nil
}

// isQueryError reports whether the engine rejected the statement itself.
// lib/pq surfaces server-side errors as *pq.Error; anything else (dial,
// timeout, closed pool) is a transport failure.
func isQueryError(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr)
}

// normalize converts driver byte slices into strings so results marshal as
// readable JSON for the synthesizer prompt.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
