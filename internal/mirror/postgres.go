package mirror

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool is the slice of *pgxpool.Pool the mirror reads and writes through;
// pgxmock satisfies it in tests.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Postgres stores mirrors in the cart_mirror table.
type Postgres struct {
	pool DBPool
}

func NewPostgres(pool DBPool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Get(ctx context.Context, sessionID, key string) (string, bool, error) {
	var payload string
	row := p.pool.QueryRow(ctx, `SELECT payload FROM cart_mirror WHERE session_id=$1 AND key=$2`, sessionID, key)
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("select cart_mirror: %w", err)
	}
	return payload, true, nil
}

func (p *Postgres) Set(ctx context.Context, sessionID, key, value string) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO cart_mirror(session_id, key, payload)
		VALUES($1, $2, $3)
		ON CONFLICT (session_id, key) DO UPDATE SET payload=EXCLUDED.payload, updated_at=now()
	`, sessionID, key, value)
	if err != nil {
		return fmt.Errorf("upsert cart_mirror: %w", err)
	}
	return nil
}
