package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/posimport/internal/schema"
)

// badRows yields n rows that all fail to scan.
type badRows struct {
	n   int
	err error
}

func (r *badRows) Close()                                       {}
func (r *badRows) Err() error                                   { return r.err }
func (r *badRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *badRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *badRows) Values() ([]any, error)                       { return nil, nil }
func (r *badRows) RawValues() [][]byte                          { return nil }
func (r *badRows) Conn() *pgx.Conn                              { return nil }

func (r *badRows) Next() bool {
	if r.n == 0 {
		return false
	}
	r.n--
	return true
}

func (r *badRows) Scan(...any) error {
	return errors.New("cannot decode headers")
}

type rowsDB struct {
	rows pgx.Rows
}

func (d rowsDB) Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (d rowsDB) Query(context.Context, string, ...interface{}) (pgx.Rows, error) {
	return d.rows, nil
}

func (d rowsDB) QueryRow(context.Context, string, ...interface{}) pgx.Row { return nil }

func TestPgRepository_ListLogsUnreadableRows(t *testing.T) {
	var buf bytes.Buffer
	repo := NewPgRepository(rowsDB{rows: &badRows{n: 2}})
	repo.logger = slog.New(slog.NewTextHandler(&buf, nil))

	got, err := repo.List(context.Background(), schema.Menu)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 2, bytes.Count(buf.Bytes(), []byte("skipping unreadable template")))
	assert.Contains(t, buf.String(), "cannot decode headers")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestPgRepository_ListReturnsRowsError(t *testing.T) {
	repo := NewPgRepository(rowsDB{rows: &badRows{err: errors.New("connection reset")}})

	_, err := repo.List(context.Background(), schema.Menu)
	assert.ErrorContains(t, err, "connection reset")
}
