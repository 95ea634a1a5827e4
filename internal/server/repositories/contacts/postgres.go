// Package contacts provides the PostgreSQL-backed repository for per-user
// contact persistence. Every query filters on user_id; ownership is
// enforced in SQL, not in callers.
package contacts

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

const contactColumns = "id, first_name, last_name, email, phone, birthday, user_id"

// PostgresRepository implements contact storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// violation (email/phone are globally unique).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanContact(row *sql.Row) (*models.Contact, error) {
	c := &models.Contact{}
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Birthday, &c.UserID)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func collectContacts(rows *sql.Rows) ([]*models.Contact, error) {
	defer rows.Close()

	var result []*models.Contact
	for rows.Next() {
		c := &models.Contact{}
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.Birthday, &c.UserID); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SelectOwned returns the user's contacts in primary-key order, windowed by
// skip/limit. An out-of-range window yields an empty result, not an error.
func (r *PostgresRepository) SelectOwned(ctx context.Context, userID int64, skip, limit int) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + ` FROM contacts
		WHERE user_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, userID, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}
	return collectContacts(rows)
}

// GetOwned returns a single contact only if it belongs to userID; a row
// owned by someone else is indistinguishable from an absent one.
func (r *PostgresRepository) GetOwned(ctx context.Context, userID, contactID int64) (*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + ` FROM contacts
		WHERE id = $1 AND user_id = $2
	`
	c, err := scanContact(r.db.QueryRowContext(ctx, query, contactID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// Create inserts a contact owned by userID and returns the persisted row
// including its assigned id. Unique violations on email or phone surface
// as common.ErrorConflict.
func (r *PostgresRepository) Create(ctx context.Context, userID int64, f Fields) (*models.Contact, error) {
	query := `
		INSERT INTO contacts (first_name, last_name, email, phone, birthday, user_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + contactColumns + `
	`
	c, err := scanContact(r.db.QueryRowContext(ctx, query,
		f.FirstName, f.LastName, f.Email, f.Phone, f.Birthday, userID))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// Update replaces all five editable fields of the contact in place, using
// the same ownership filter as GetOwned. A miss returns ErrorNotFound and
// never creates a row.
func (r *PostgresRepository) Update(ctx context.Context, userID, contactID int64, f Fields) (*models.Contact, error) {
	query := `
		UPDATE contacts
		SET first_name = $1, last_name = $2, email = $3, phone = $4, birthday = $5
		WHERE id = $6 AND user_id = $7
		RETURNING ` + contactColumns + `
	`
	c, err := scanContact(r.db.QueryRowContext(ctx, query,
		f.FirstName, f.LastName, f.Email, f.Phone, f.Birthday, contactID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if isUniqueViolation(err) {
			return nil, common.ErrorConflict
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// Delete removes the contact under the ownership filter and returns the
// pre-deletion snapshot.
func (r *PostgresRepository) Delete(ctx context.Context, userID, contactID int64) (*models.Contact, error) {
	query := `
		DELETE FROM contacts
		WHERE id = $1 AND user_id = $2
		RETURNING ` + contactColumns + `
	`
	c, err := scanContact(r.db.QueryRowContext(ctx, query, contactID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

// SelectByField returns the user's contacts exactly matching value on a
// validated search field (case-sensitive).
func (r *PostgresRepository) SelectByField(ctx context.Context, userID int64, field SearchField, value string) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + ` FROM contacts
		WHERE user_id = $1 AND ` + field.column() + ` = $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, value)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}
	return collectContacts(rows)
}

// SelectWithBirthdays returns the user's contacts that have a birthday set,
// in primary-key order. The window computation happens in the service.
func (r *PostgresRepository) SelectWithBirthdays(ctx context.Context, userID int64) ([]*models.Contact, error) {
	query := `
		SELECT ` + contactColumns + ` FROM contacts
		WHERE user_id = $1 AND birthday IS NOT NULL
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select contacts: %w", err)
	}
	return collectContacts(rows)
}
