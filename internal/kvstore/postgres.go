package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	selectValueSQL = `SELECT value FROM kv_store WHERE key = $1`
	upsertValueSQL = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, now())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`
)

// PgxQuerier is the subset of pgxpool.Pool used by Postgres, so tests can
// pass a pgxmock pool.
type PgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Postgres stores values in the kv_store table created by the migrations.
type Postgres struct {
	db     PgxQuerier
	tracer trace.Tracer
}

// NewPostgres wraps a pool or compatible querier.
func NewPostgres(db PgxQuerier) *Postgres {
	if db == nil {
		panic("kvstore: postgres querier cannot be nil")
	}
	return &Postgres{
		db:     db,
		tracer: otel.Tracer("ambu.internal.kvstore.postgres"),
	}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrEmptyKey
	}
	ctx, span := p.tracer.Start(ctx, "kvstore.postgres.get", trace.WithAttributes(attribute.String("kv.key", key)))
	defer span.End()

	var value string
	err := p.db.QueryRow(ctx, selectValueSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		span.RecordError(err)
		return "", false, fmt.Errorf("kvstore: postgres get %s: %w", key, err)
	}
	return value, true, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}
	ctx, span := p.tracer.Start(ctx, "kvstore.postgres.set", trace.WithAttributes(attribute.String("kv.key", key)))
	defer span.End()

	if _, err := p.db.Exec(ctx, upsertValueSQL, key, value); err != nil {
		span.RecordError(err)
		return fmt.Errorf("kvstore: postgres set %s: %w", key, err)
	}
	return nil
}
