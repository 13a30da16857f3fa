// Package postgres extracts request records from the relational database.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	// Registers the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
	"github.com/custodia-labs/reqbridge/internal/core/ports/driven"
	"github.com/custodia-labs/reqbridge/internal/logger"
)

// DefaultQuery selects every product request.
//
//go:embed queries/product_requests.sql
var DefaultQuery string

// previewRows is how many rows are logged at debug level.
const previewRows = 5

var limitClause = regexp.MustCompile(`(?i)\blimit\s+\d+`)

// Ensure Extractor implements the interface.
var _ driven.RecordSource = (*Extractor)(nil)

// Extractor runs extraction queries through database/sql.
type Extractor struct {
	db *sql.DB
}

// Open connects to PostgreSQL with the pgx driver and checks the connection.
func Open(ctx context.Context, settings domain.DatabaseSettings) (*Extractor, error) {
	db, err := sql.Open("pgx", settings.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrUpstream, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: connect to %s:%d/%s: %v",
			domain.ErrUpstream, settings.Host, settings.Port, settings.Name, err)
	}

	return NewExtractor(db), nil
}

// NewExtractor wraps an existing connection pool.
func NewExtractor(db *sql.DB) *Extractor {
	return &Extractor{db: db}
}

// Close releases the connection pool.
func (e *Extractor) Close() error {
	return e.db.Close()
}

// Extract runs query and returns its columns and rows.
func (e *Extractor) Extract(ctx context.Context, query string, limit int) (domain.RecordSet, error) {
	query = WithLimit(query, limit)

	rows, err := e.db.QueryContext(ctx, query)
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("%w: query: %v", domain.ErrUpstream, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return domain.RecordSet{}, fmt.Errorf("%w: columns: %v", domain.ErrUpstream, err)
	}

	set := domain.RecordSet{Columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return domain.RecordSet{}, fmt.Errorf("%w: scan: %v", domain.ErrUpstream, err)
		}

		record := make(domain.Record, len(columns))
		for i, col := range columns {
			record[col] = normalizeValue(values[i])
		}
		set.Rows = append(set.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return domain.RecordSet{}, fmt.Errorf("%w: rows: %v", domain.ErrUpstream, err)
	}

	logger.Info("extracted %d row(s), %d column(s)", len(set.Rows), len(columns))
	for i, row := range set.Rows {
		if i == previewRows {
			break
		}
		logger.Debug("row %d: %v", i+1, row.Values(columns))
	}

	return set, nil
}

// WithLimit appends a LIMIT clause when limit is positive and the query
// has none.
func WithLimit(query string, limit int) string {
	query = strings.TrimRight(strings.TrimSpace(query), ";")
	if limit <= 0 || limitClause.MatchString(query) {
		return query
	}
	return fmt.Sprintf("%s LIMIT %d", query, limit)
}

// LoadQuery returns the query stored at path, or DefaultQuery when path is empty.
func LoadQuery(path string) (string, error) {
	if path == "" {
		return DefaultQuery, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read query file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("query file %s: %w", path, domain.ErrInvalidInput)
	}
	return string(data), nil
}

func normalizeValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return domain.ToSerial(x)
	case []byte:
		return string(x)
	default:
		return v
	}
}
