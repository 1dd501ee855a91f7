package credential

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists the credential in the single-row
// credentials table.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a credential repository backed by pgx.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Load returns the stored credential, or a zero value when the row is absent.
func (r *PostgresRepository) Load(ctx context.Context) (Credential, error) {
	var c Credential
	err := r.db.QueryRow(ctx,
		`SELECT access_token, account_id FROM credentials WHERE id = 1`,
	).Scan(&c.AccessToken, &c.AccountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return Credential{}, nil
	}
	if err != nil {
		return Credential{}, fmt.Errorf("load credential row: %w", err)
	}
	return c, nil
}

// Save upserts the credential row.
func (r *PostgresRepository) Save(ctx context.Context, c Credential) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO credentials (id, access_token, account_id, updated_at)
		 VALUES (1, $1, $2, NOW())
		 ON CONFLICT (id) DO UPDATE
		 SET access_token = EXCLUDED.access_token,
		     account_id   = EXCLUDED.account_id,
		     updated_at   = NOW()`,
		c.AccessToken, c.AccountID,
	)
	if err != nil {
		return fmt.Errorf("upsert credential row: %w", err)
	}
	return nil
}

// Clear deletes the credential row if present.
func (r *PostgresRepository) Clear(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `DELETE FROM credentials WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("delete credential row: %w", err)
	}
	return nil
}
