package contacts

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/dmitrijs2005/contactbook/internal/server/models"
)

// Fields carries the five editable contact attributes. Update replaces all
// of them at once; there is no partial merge.
type Fields struct {
	FirstName string
	LastName  string
	Email     string
	Phone     *string
	Birthday  *time.Time
}

// SearchField is the closed set of columns a contact search may filter on.
// Anything outside this set is rejected before any SQL is built, so no
// request-supplied string ever reaches the query text.
type SearchField string

const (
	SearchFieldFirstName SearchField = "first_name"
	SearchFieldLastName  SearchField = "last_name"
	SearchFieldEmail     SearchField = "email"
)

// ParseSearchField validates a request-supplied field name against the
// allow-list. Unknown names yield common.ErrorInvalidArgument.
func ParseSearchField(s string) (SearchField, error) {
	switch SearchField(s) {
	case SearchFieldFirstName, SearchFieldLastName, SearchFieldEmail:
		return SearchField(s), nil
	default:
		return "", fmt.Errorf("%w: search field %q", common.ErrorInvalidArgument, s)
	}
}

// column returns the SQL column for a validated field. The switch is the
// only place a SearchField turns into query text.
func (f SearchField) column() string {
	switch f {
	case SearchFieldFirstName:
		return "first_name"
	case SearchFieldLastName:
		return "last_name"
	case SearchFieldEmail:
		return "email"
	}
	panic(fmt.Sprintf("unknown search field %q", string(f)))
}

// Repository is the contact storage contract. Every operation takes the
// owning user's id and must never expose or mutate another user's rows.
type Repository interface {
	SelectOwned(ctx context.Context, userID int64, skip, limit int) ([]*models.Contact, error)
	GetOwned(ctx context.Context, userID, contactID int64) (*models.Contact, error)
	Create(ctx context.Context, userID int64, f Fields) (*models.Contact, error)
	Update(ctx context.Context, userID, contactID int64, f Fields) (*models.Contact, error)
	Delete(ctx context.Context, userID, contactID int64) (*models.Contact, error)
	SelectByField(ctx context.Context, userID int64, field SearchField, value string) ([]*models.Contact, error)
	SelectWithBirthdays(ctx context.Context, userID int64) ([]*models.Contact, error)
}
