// Package services contains server-side business logic. This file implements
// ContactService: ownership-scoped contact CRUD, allow-listed search and the
// upcoming-birthday window.
package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/server/models"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/contacts"
	"github.com/dmitrijs2005/contactbook/internal/server/repositories/repomanager"
)

// birthdayWindow is the lookahead for upcoming birthdays: a contact counts
// when the absolute difference between the next occurrence of their
// birthday and the reference instant is strictly below this.
const birthdayWindow = 8 * 24 * time.Hour

// ContactService exposes the per-user contact directory operations. Every
// method takes the authenticated user's id; the ownership filter is applied
// by the repository on each query.
type ContactService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewContactService constructs a ContactService using repositories.
func NewContactService(db *sql.DB, m repomanager.RepositoryManager) *ContactService {
	return &ContactService{db: db, repomanager: m}
}

// List returns the user's contacts in stable primary-key order, windowed by
// skip/limit. An out-of-range window yields an empty list.
func (s *ContactService) List(ctx context.Context, userID int64, skip, limit int) ([]*models.Contact, error) {
	repo := s.repomanager.Contacts(s.db)
	return repo.SelectOwned(ctx, userID, skip, limit)
}

// Get returns a single contact owned by userID, or common.ErrorNotFound.
func (s *ContactService) Get(ctx context.Context, userID, contactID int64) (*models.Contact, error) {
	repo := s.repomanager.Contacts(s.db)
	return repo.GetOwned(ctx, userID, contactID)
}

// Create stores a new contact owned by userID and returns the persisted
// row. Email/phone uniqueness violations surface as common.ErrorConflict.
func (s *ContactService) Create(ctx context.Context, userID int64, f contacts.Fields) (*models.Contact, error) {
	repo := s.repomanager.Contacts(s.db)
	return repo.Create(ctx, userID, f)
}

// Update replaces all five editable fields of an owned contact; a miss
// returns common.ErrorNotFound and creates nothing.
func (s *ContactService) Update(ctx context.Context, userID, contactID int64, f contacts.Fields) (*models.Contact, error) {
	repo := s.repomanager.Contacts(s.db)
	return repo.Update(ctx, userID, contactID, f)
}

// Delete removes an owned contact and returns its pre-deletion snapshot.
func (s *ContactService) Delete(ctx context.Context, userID, contactID int64) (*models.Contact, error) {
	repo := s.repomanager.Contacts(s.db)
	return repo.Delete(ctx, userID, contactID)
}

// Search returns the user's contacts exactly matching value on field. The
// field name is validated against the closed allow-list before any storage
// access; unknown fields fail with common.ErrorInvalidArgument.
func (s *ContactService) Search(ctx context.Context, userID int64, field, value string) ([]*models.Contact, error) {
	parsed, err := contacts.ParseSearchField(field)
	if err != nil {
		return nil, err
	}
	repo := s.repomanager.Contacts(s.db)
	return repo.SelectByField(ctx, userID, parsed, value)
}

// nextBirthday returns the next occurrence of birthday's month/day relative
// to ref: the candidate in ref's year, pushed one year forward when it lies
// strictly before ref. time.Date normalizes Feb 29 to Mar 1 in non-leap
// years; that is the fallback used for leap-day birthdays.
func nextBirthday(birthday, ref time.Time) time.Time {
	candidate := time.Date(ref.Year(), birthday.Month(), birthday.Day(), 0, 0, 0, 0, ref.Location())
	if candidate.Before(ref) {
		candidate = time.Date(ref.Year()+1, birthday.Month(), birthday.Day(), 0, 0, 0, 0, ref.Location())
	}
	return candidate
}

// UpcomingBirthdays returns the user's contacts whose next birthday falls
// within the window around ref. The comparison uses the absolute difference
// between the candidate date and ref, not a one-sided forward window, which
// matches the product behavior for candidates computed just before ref.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID int64, ref time.Time) ([]*models.Contact, error) {
	repo := s.repomanager.Contacts(s.db)

	withBirthdays, err := repo.SelectWithBirthdays(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := []*models.Contact{}
	for _, contact := range withBirthdays {
		if contact.Birthday == nil {
			continue
		}
		diff := nextBirthday(*contact.Birthday, ref).Sub(ref)
		if diff < 0 {
			diff = -diff
		}
		if diff < birthdayWindow {
			result = append(result, contact)
		}
	}

	return result, nil
}
