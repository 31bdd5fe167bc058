package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekeepr/gatekeepr/internal/fieldmap"
	"github.com/gatekeepr/gatekeepr/pkg/httperr"
)

// Querier is the slice of pgxpool.Pool the store needs.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres serves object attributes from the gatekeepr_objects table, where
// each row holds the object id, its entity class and a jsonb attribute
// document.
type Postgres struct {
	db Querier
}

func NewPostgres(db Querier) *Postgres {
	return &Postgres{db: db}
}

// Connect builds a pool for the given DSN. The pool connects lazily; a bad
// address surfaces on the first Fetch, not here.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("source: postgres dsn: %w", err)
	}
	return pool, nil
}

func (p *Postgres) Fetch(ctx context.Context, objectID, entityClass string) (fieldmap.Map, error) {
	query := `SELECT entity_class, attrs FROM gatekeepr_objects WHERE object_id = $1`
	args := []any{objectID}
	if entityClass != "" {
		query += ` AND lower(entity_class) = lower($2)`
		args = append(args, entityClass)
	}

	var cls string
	var attrs []byte
	err := p.db.QueryRow(ctx, query, args...).Scan(&cls, &attrs)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, httperr.NewNotFound(fmt.Sprintf("object %q not found", objectID))
	}
	if err != nil {
		return nil, httperr.NewUpstream(fmt.Sprintf("source: fetch object %q: %v", objectID, err))
	}

	m, err := fieldmap.FromJSON(attrs)
	if err != nil {
		return nil, fmt.Errorf("source: object %q attrs: %w", objectID, err)
	}
	return withIdentity(m, objectID, cls), nil
}
