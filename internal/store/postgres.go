package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/posimport/internal/mapping"
	"github.com/JonMunkholm/posimport/internal/schema"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

const uniqueNameConstraint = "import_templates_type_name_unique"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS import_templates (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	import_type   TEXT NOT NULL,
	headers       JSONB NOT NULL,
	mapping_set   JSONB NOT NULL,
	usage_count   INTEGER NOT NULL DEFAULT 0,
	success_count INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT import_templates_type_name_unique UNIQUE (import_type, name)
)`

const templateColumns = `id, name, import_type, headers, mapping_set, usage_count, success_count, created_at, updated_at`

// PgRepository stores templates in PostgreSQL.
type PgRepository struct {
	db     DBTX
	logger *slog.Logger
}

func NewPgRepository(db DBTX) *PgRepository {
	return &PgRepository{db: db, logger: slog.Default()}
}

// Connect opens a pool sized from the given limits and verifies it.
func Connect(ctx context.Context, url string, maxConns, minConns int) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolConfig.MaxConns = int32(maxConns)
	poolConfig.MinConns = int32(minConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// Migrate creates the templates table if it does not exist.
func (r *PgRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create import_templates: %w", err)
	}
	return nil
}

func (r *PgRepository) Save(ctx context.Context, t *Template) error {
	headersJSON, err := json.Marshal(t.Headers)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	setJSON, err := mapping.Marshal(t.Set)
	if err != nil {
		return fmt.Errorf("marshal mapping set: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO import_templates (id, name, import_type, headers, mapping_set)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			headers = EXCLUDED.headers,
			mapping_set = EXCLUDED.mapping_set,
			updated_at = now()
		RETURNING usage_count, success_count, created_at, updated_at`,
		pgUUID(t.ID), t.Name, string(t.ImportType), headersJSON, setJSON,
	)

	var usage, success int32
	var createdAt, updatedAt pgtype.Timestamptz
	if err := row.Scan(&usage, &success, &createdAt, &updatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.ConstraintName == uniqueNameConstraint {
			return ErrDuplicateName
		}
		return fmt.Errorf("save template: %w", err)
	}

	t.UsageCount, t.SuccessCount = int(usage), int(success)
	t.CreatedAt, t.UpdatedAt = createdAt.Time, updatedAt.Time
	return nil
}

func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (*Template, error) {
	row := r.db.QueryRow(ctx, `SELECT `+templateColumns+` FROM import_templates WHERE id = $1`, pgUUID(id))
	t, err := scanTemplate(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	return t, nil
}

func (r *PgRepository) List(ctx context.Context, importType schema.ImportType) ([]Template, error) {
	rows, err := r.db.Query(ctx, `SELECT `+templateColumns+` FROM import_templates WHERE import_type = $1 ORDER BY name`, string(importType))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			r.logger.Warn("skipping unreadable template",
				"import_type", importType,
				"error", err,
			)
			continue
		}
		out = append(out, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return out, nil
}

func (r *PgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM import_templates WHERE id = $1`, pgUUID(id))
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgRepository) RecordUsage(ctx context.Context, id uuid.UUID, ok bool) error {
	success := 0
	if ok {
		success = 1
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE import_templates
		SET usage_count = usage_count + 1,
			success_count = success_count + $2,
			updated_at = now()
		WHERE id = $1`,
		pgUUID(id), success,
	)
	if err != nil {
		return fmt.Errorf("record template usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanTemplate scans one import_templates row selected with templateColumns.
func scanTemplate(row pgx.Row) (*Template, error) {
	var (
		id          pgtype.UUID
		name        string
		importType  string
		headersJSON []byte
		setJSON     []byte
		usage       int32
		success     int32
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	if err := row.Scan(&id, &name, &importType, &headersJSON, &setJSON, &usage, &success, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var headers []string
	if err := json.Unmarshal(headersJSON, &headers); err != nil {
		return nil, fmt.Errorf("unmarshal headers: %w", err)
	}
	set, err := mapping.Unmarshal(setJSON)
	if err != nil {
		return nil, err
	}

	return &Template{
		ID:           uuid.UUID(id.Bytes),
		Name:         name,
		ImportType:   schema.ImportType(importType),
		Headers:      headers,
		Set:          set,
		UsageCount:   int(usage),
		SuccessCount: int(success),
		CreatedAt:    timeOrZero(createdAt),
		UpdatedAt:    timeOrZero(updatedAt),
	}, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func timeOrZero(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
