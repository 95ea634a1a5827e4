// Package users provides the PostgreSQL-backed repository for account
// persistence: lookups, creation and the single-column updates used by the
// auth and confirmation flows.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/dbx"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const userColumns = "id, username, email, password, refresh_token, confirmed, avatar"

// PostgresRepository implements user storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.RefreshToken, &u.Confirmed, &u.Avatar)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new account and returns it with the assigned id.
// Username/email unique violations surface as common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (username, email, password, avatar)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns + `
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.Password, user.Avatar))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

func (r *PostgresRepository) getBy(ctx context.Context, condition string, arg any) (*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE ` + condition + `
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}

// GetByID returns the account with the given id or common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByEmail returns the account with the given email or common.ErrorNotFound.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getBy(ctx, "email = $1", email)
}

// GetByRefreshToken returns the account currently holding the given refresh
// token or common.ErrorNotFound.
func (r *PostgresRepository) GetByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	return r.getBy(ctx, "refresh_token = $1", token)
}

// UpdateRefreshToken overwrites the stored refresh token; nil clears it.
func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, userID int64, token *string) error {
	query := `
		UPDATE users SET refresh_token = $1
		WHERE id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, token, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateConfirmed marks the account's email as confirmed.
func (r *PostgresRepository) UpdateConfirmed(ctx context.Context, userID int64) error {
	query := `
		UPDATE users SET confirmed = TRUE
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// UpdateAvatar overwrites the avatar URL and returns the updated account.
func (r *PostgresRepository) UpdateAvatar(ctx context.Context, userID int64, url string) (*models.User, error) {
	query := `
		UPDATE users SET avatar = $1
		WHERE id = $2
		RETURNING ` + userColumns + `
	`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, url, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return u, nil
}
