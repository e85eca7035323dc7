package accesstokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/classroom/internal/common"
	"github.com/dmitrijs2005/classroom/internal/dbx"
	"github.com/dmitrijs2005/classroom/internal/server/models"
)

const (
	secretConstraint = "access_tokens_secret_key"
	ownerConstraint  = "access_tokens_user_id_fkey"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.AccessToken) error {
	query := `
		INSERT INTO access_tokens (id, user_id, secret, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, token.ID, token.UserID, token.Secret, token.CreatedAt, token.ExpiresAt)
	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err, secretConstraint):
			return fmt.Errorf("secret: %w", common.ErrorAlreadyExists)
		case dbx.IsForeignKeyViolation(err, ownerConstraint),
			dbx.IsInvalidTextRepresentation(err):
			// user_id is a uuid column, so a malformed owner cannot exist either.
			return common.NewValidationError("owner", "does not exist")
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}
	return nil
}

func (r *PostgresRepository) FindActiveBySecret(ctx context.Context, secret string, now time.Time) (*models.AccessToken, error) {
	query := `
		SELECT id, user_id, secret, created_at, expires_at
		FROM access_tokens
		WHERE secret = $1 AND expires_at > $2
	`
	return r.getOne(ctx, query, secret, now)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.AccessToken, error) {
	query := `
		SELECT id, user_id, secret, created_at, expires_at
		FROM access_tokens
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

func (r *PostgresRepository) ListActive(ctx context.Context, now time.Time) ([]models.AccessToken, error) {
	query := `
		SELECT id, user_id, created_at, expires_at
		FROM access_tokens
		WHERE expires_at > $1
		ORDER BY created_at, id
	`
	return r.list(ctx, query, now)
}

func (r *PostgresRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]models.AccessToken, error) {
	query := `
		SELECT id, user_id, created_at, expires_at
		FROM access_tokens
		WHERE user_id = $1 AND expires_at > $2
		ORDER BY created_at, id
	`
	return r.list(ctx, query, userID, now)
}

func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	query := `
		DELETE FROM access_tokens
		WHERE id = $1 AND user_id = $2
	`
	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		if dbx.IsInvalidTextRepresentation(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM access_tokens
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, args ...any) (*models.AccessToken, error) {
	t := &models.AccessToken{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.UserID, &t.Secret, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || dbx.IsInvalidTextRepresentation(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

func (r *PostgresRepository) list(ctx context.Context, query string, args ...any) ([]models.AccessToken, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		// A malformed owner id matches no rows.
		if dbx.IsInvalidTextRepresentation(err) {
			return make([]models.AccessToken, 0), nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	tokens := make([]models.AccessToken, 0)
	for rows.Next() {
		var t models.AccessToken
		if err := rows.Scan(&t.ID, &t.UserID, &t.CreatedAt, &t.ExpiresAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return tokens, nil
}
