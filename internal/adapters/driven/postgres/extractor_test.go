package postgres

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/custodia-labs/reqbridge/internal/core/domain"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "requests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE product_requests (
		request_position_id INTEGER PRIMARY KEY,
		product TEXT,
		status_id INTEGER,
		price REAL,
		note BLOB
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO product_requests VALUES
		(42, 'Valve', 7, 10.5, X'6869'),
		(43, 'Pump', 7, NULL, NULL),
		(44, 'Gasket', 9, 1.25, NULL)`)
	require.NoError(t, err)

	return NewExtractor(db)
}

func TestExtractor_Extract(t *testing.T) {
	extractor := newTestExtractor(t)

	set, err := extractor.Extract(context.Background(), DefaultQuery, 0)

	require.NoError(t, err)
	assert.Equal(t, []string{"request_position_id", "product", "status_id", "price", "note"}, set.Columns)
	require.Equal(t, 3, set.Len())
	assert.Equal(t, int64(42), set.Rows[0]["request_position_id"])
	assert.Equal(t, "Valve", set.Rows[0]["product"])
	assert.Equal(t, "hi", set.Rows[0]["note"], "blobs become strings")
	assert.Nil(t, set.Rows[1]["price"])
	assert.Equal(t, domain.RecordID("44"), set.Rows[2].ID(domain.DefaultIDField))
}

func TestExtractor_Extract_AppliesLimit(t *testing.T) {
	extractor := newTestExtractor(t)

	set, err := extractor.Extract(context.Background(), DefaultQuery, 2)

	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestExtractor_Extract_QueryLimitWins(t *testing.T) {
	extractor := newTestExtractor(t)

	set, err := extractor.Extract(context.Background(), "SELECT * FROM product_requests LIMIT 1", 1000)

	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
}

func TestExtractor_Extract_Empty(t *testing.T) {
	extractor := newTestExtractor(t)

	set, err := extractor.Extract(context.Background(), "SELECT * FROM product_requests WHERE status_id = 99", 0)

	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())
	assert.Len(t, set.Columns, 5)
}

func TestExtractor_Extract_QueryError(t *testing.T) {
	extractor := newTestExtractor(t)

	_, err := extractor.Extract(context.Background(), "SELECT * FROM missing_table", 0)

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestExtractor_Extract_Cancelled(t *testing.T) {
	extractor := newTestExtractor(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extractor.Extract(ctx, DefaultQuery, 0)

	assert.ErrorIs(t, err, domain.ErrUpstream)
}

func TestWithLimit(t *testing.T) {
	tests := []struct {
		name  string
		query string
		limit int
		want  string
	}{
		{name: "appends", query: "SELECT 1", limit: 10, want: "SELECT 1 LIMIT 10"},
		{name: "zero keeps query", query: "SELECT 1", limit: 0, want: "SELECT 1"},
		{name: "existing limit", query: "SELECT 1 limit 5", limit: 10, want: "SELECT 1 limit 5"},
		{name: "trailing semicolon", query: "SELECT 1;\n", limit: 3, want: "SELECT 1 LIMIT 3"},
		{name: "multiline", query: "SELECT *\nFROM t\nLIMIT\n20", limit: 3, want: "SELECT *\nFROM t\nLIMIT\n20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WithLimit(tt.query, tt.limit))
		})
	}
}

func TestNormalizeValue(t *testing.T) {
	ts := time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC)

	assert.InDelta(t, 46309.5, normalizeValue(ts), 1e-9)
	assert.Equal(t, "abc", normalizeValue([]byte("abc")))
	assert.Equal(t, int64(7), normalizeValue(int64(7)))
	assert.Nil(t, normalizeValue(nil))
}

func TestLoadQuery(t *testing.T) {
	q, err := LoadQuery("")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(q, "SELECT"))

	path := filepath.Join(t.TempDir(), "custom.sql")
	require.NoError(t, os.WriteFile(path, []byte("SELECT id FROM t"), 0600))
	q, err = LoadQuery(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT id FROM t", q)

	blank := filepath.Join(t.TempDir(), "blank.sql")
	require.NoError(t, os.WriteFile(blank, []byte("  \n"), 0600))
	_, err = LoadQuery(blank)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = LoadQuery(filepath.Join(t.TempDir(), "absent.sql"))
	assert.Error(t, err)
}
