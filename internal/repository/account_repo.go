package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository - interface for checking resolved caller identities.
// Authentication itself happens upstream; this only answers whether the
// resolved username exists.
type AccountRepository interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// PostgresAccountRepository - AccountRepository implementation for the database.
type PostgresAccountRepository struct {
	DB *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new PostgresAccountRepository instance.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{DB: db}
}

// Exists reports whether an account with the given username exists.
func (r *PostgresAccountRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM account WHERE username = $1)`
	err := r.DB.QueryRow(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}
