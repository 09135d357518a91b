package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/patitas-adopcion/apiserver/types"
)

// AdministratorRepository handles persistence for administrators.
type AdministratorRepository struct {
	db *sql.DB
}

func NewAdministratorRepository(db *sql.DB) *AdministratorRepository {
	return &AdministratorRepository{db: db}
}

func (r *AdministratorRepository) GetByUsername(ctx context.Context, username string) (types.Administrator, error) {
	const query = `
		SELECT id, username, password_hash, role, created_at
		FROM administrators
		WHERE username = $1`
	var admin types.Administrator
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&admin.ID,
		&admin.Username,
		&admin.PasswordHash,
		&admin.Role,
		&admin.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Administrator{}, ErrNotFound
		}
		return types.Administrator{}, err
	}
	return admin, nil
}

func (r *AdministratorRepository) Create(ctx context.Context, admin types.Administrator) (types.Administrator, error) {
	admin.CreatedAt = time.Now()
	if admin.Role == "" {
		admin.Role = types.DefaultAdminRole
	}

	const query = `
		INSERT INTO administrators (username, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		admin.Username,
		admin.PasswordHash,
		admin.Role,
		admin.CreatedAt,
	).Scan(&admin.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Administrator{}, ErrConflict
		}
		return types.Administrator{}, err
	}
	return admin, nil
}
