package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/dbx"
	"github.com/dmitrijs2005/classroom/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, provider, uid, username, email, name, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (provider, uid) DO UPDATE SET email = EXCLUDED.email, name = EXCLUDED.name
		RETURNING id, role, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Provider, user.UID, user.UserName, user.Email, user.Name, user.Role,
	).Scan(&user.ID, &user.Role, &user.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err, "users_username_key") {
			return nil, fmt.Errorf("username: %w", common.ErrorAlreadyExists)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, provider, uid, username, email, name, role, created_at
		FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) GetByProviderUID(ctx context.Context, provider, uid string) (*models.User, error) {
	query := `
		SELECT id, provider, uid, username, email, name, role, created_at
		FROM users
		WHERE provider = $1 AND uid = $2
	`
	return r.getOne(ctx, query, provider, uid)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	u := &models.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Provider, &u.UID, &u.UserName, &u.Email, &u.Name, &u.Role, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidTextRepresentation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
