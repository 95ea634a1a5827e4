package contacts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/contactbook/internal/common"
	"github.com/jackc/pgx/v5/pgconn"
)

var contactCols = []string{"id", "first_name", "last_name", "email", "phone", "birthday", "user_id"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func strPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

func TestParseSearchField(t *testing.T) {
	for _, valid := range []string{"first_name", "last_name", "email"} {
		f, err := ParseSearchField(valid)
		if err != nil {
			t.Fatalf("ParseSearchField(%q) error: %v", valid, err)
		}
		if string(f) != valid {
			t.Fatalf("ParseSearchField(%q) = %q", valid, f)
		}
	}

	for _, invalid := range []string{"ssn", "phone", "birthday", "user_id", "", "email; DROP TABLE contacts"} {
		if _, err := ParseSearchField(invalid); !errors.Is(err, common.ErrorInvalidArgument) {
			t.Fatalf("ParseSearchField(%q): want ErrorInvalidArgument, got %v", invalid, err)
		}
	}
}

func TestSelectOwned_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT id, first_name, last_name, email, phone, birthday, user_id FROM contacts\s+WHERE user_id = \$1\s+ORDER BY id\s+OFFSET \$2 LIMIT \$3`

	bday := time.Date(2000, 6, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(contactCols).
		AddRow(int64(1), "Kate", "Duka", "kate@test.com", "0939090900", bday, int64(10)).
		AddRow(int64(2), "John", "Smith", "john@test.com", nil, nil, int64(10))

	mock.ExpectQuery(q).WithArgs(int64(10), 0, 100).WillReturnRows(rows)

	got, err := repo.SelectOwned(context.Background(), 10, 0, 100)
	if err != nil {
		t.Fatalf("SelectOwned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 rows, got %d", len(got))
	}
	if got[0].ID != 1 || got[0].Phone == nil || *got[0].Phone != "0939090900" {
		t.Fatalf("unexpected first row: %+v", got[0])
	}
	if got[1].Phone != nil || got[1].Birthday != nil {
		t.Fatalf("expected NULL phone/birthday in second row: %+v", got[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSelectOwned_QueryError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM contacts`).
		WithArgs(int64(10), 5, 10).
		WillReturnError(errors.New("db down"))

	_, err := repo.SelectOwned(context.Background(), 10, 5, 10)
	if err == nil || !regexp.MustCompile(`failed to select contacts: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestSelectOwned_RowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(contactCols).
		AddRow(int64(1), "Kate", "Duka", "kate@test.com", nil, nil, int64(10)).
		AddRow(int64(2), "John", "Smith", "john@test.com", nil, nil, int64(10)).
		RowError(1, errors.New("row-err"))

	mock.ExpectQuery(`SELECT .* FROM contacts`).
		WithArgs(int64(10), 0, 100).
		WillReturnRows(rows)

	_, err := repo.SelectOwned(context.Background(), 10, 0, 100)
	if err == nil || err.Error() != "row-err" {
		t.Fatalf("expected rows.Err 'row-err', got %v", err)
	}
}

func TestGetOwned_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT id, first_name, last_name, email, phone, birthday, user_id FROM contacts\s+WHERE id = \$1 AND user_id = \$2`

	rows := sqlmock.NewRows(contactCols).
		AddRow(int64(5), "Kate", "Duka", "kate@test.com", nil, nil, int64(10))

	mock.ExpectQuery(q).WithArgs(int64(5), int64(10)).WillReturnRows(rows)

	got, err := repo.GetOwned(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("GetOwned error: %v", err)
	}
	if got.ID != 5 || got.UserID == nil || *got.UserID != 10 {
		t.Fatalf("unexpected contact: %+v", got)
	}
}

func TestGetOwned_NotFoundOrForeignOwner(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// A row owned by another user never matches the WHERE clause, so the
	// driver reports ErrNoRows exactly as for an absent row.
	mock.ExpectQuery(`SELECT .* FROM contacts`).
		WithArgs(int64(5), int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetOwned(context.Background(), 99, 5)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetOwned_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .* FROM contacts`).
		WithArgs(int64(5), int64(10)).
		WillReturnError(errors.New("db err"))

	_, err := repo.GetOwned(context.Background(), 10, 5)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)INSERT INTO contacts \(first_name, last_name, email, phone, birthday, user_id\)\s+VALUES \(\$1, \$2, \$3, \$4, \$5, \$6\)\s+RETURNING id, first_name, last_name, email, phone, birthday, user_id`

	bday := time.Date(2000, 6, 7, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(contactCols).
		AddRow(int64(77), "Kate", "Duka", "kate@test.com", "0939090900", bday, int64(10))

	mock.ExpectQuery(q).
		WithArgs("Kate", "Duka", "kate@test.com", strPtr("0939090900"), &bday, int64(10)).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), 10, Fields{
		FirstName: "Kate",
		LastName:  "Duka",
		Email:     "kate@test.com",
		Phone:     strPtr("0939090900"),
		Birthday:  &bday,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 77 || got.FirstName != "Kate" || got.UserID == nil || *got.UserID != 10 {
		t.Fatalf("unexpected contact: %+v", got)
	}
}

func TestCreate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO contacts`).
		WithArgs("Kate", "Duka", "kate@test.com", nil, nil, int64(10)).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "contacts_email_key"})

	_, err := repo.Create(context.Background(), 10, Fields{
		FirstName: "Kate", LastName: "Duka", Email: "kate@test.com",
	})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO contacts`).
		WithArgs("Kate", "Duka", "kate@test.com", nil, nil, int64(10)).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), 10, Fields{
		FirstName: "Kate", LastName: "Duka", Email: "kate@test.com",
	})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)UPDATE contacts\s+SET first_name = \$1, last_name = \$2, email = \$3, phone = \$4, birthday = \$5\s+WHERE id = \$6 AND user_id = \$7\s+RETURNING id, first_name, last_name, email, phone, birthday, user_id`

	rows := sqlmock.NewRows(contactCols).
		AddRow(int64(5), "Katya", "Duka", "katya@test.com", nil, nil, int64(10))

	mock.ExpectQuery(q).
		WithArgs("Katya", "Duka", "katya@test.com", nil, nil, int64(5), int64(10)).
		WillReturnRows(rows)

	got, err := repo.Update(context.Background(), 10, 5, Fields{
		FirstName: "Katya", LastName: "Duka", Email: "katya@test.com",
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if got.FirstName != "Katya" || got.ID != 5 {
		t.Fatalf("unexpected contact: %+v", got)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE contacts`).
		WithArgs("Katya", "Duka", "katya@test.com", nil, nil, int64(404), int64(10)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Update(context.Background(), 10, 404, Fields{
		FirstName: "Katya", LastName: "Duka", Email: "katya@test.com",
	})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdate_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`UPDATE contacts`).
		WithArgs("Katya", "Duka", "taken@test.com", nil, nil, int64(5), int64(10)).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Update(context.Background(), 10, 5, Fields{
		FirstName: "Katya", LastName: "Duka", Email: "taken@test.com",
	})
	if !errors.Is(err, common.ErrorConflict) {
		t.Fatalf("want common.ErrorConflict, got %v", err)
	}
}

func TestDelete_ReturnsSnapshot(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)DELETE FROM contacts\s+WHERE id = \$1 AND user_id = \$2\s+RETURNING id, first_name, last_name, email, phone, birthday, user_id`

	rows := sqlmock.NewRows(contactCols).
		AddRow(int64(5), "Kate", "Duka", "kate@test.com", "0939090900", nil, int64(10))

	mock.ExpectQuery(q).WithArgs(int64(5), int64(10)).WillReturnRows(rows)

	got, err := repo.Delete(context.Background(), 10, 5)
	if err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if got.ID != 5 || got.Email != "kate@test.com" || got.Phone == nil {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestDelete_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`DELETE FROM contacts`).
		WithArgs(int64(5), int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Delete(context.Background(), 99, 5)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSelectByField_UsesValidatedColumn(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT id, first_name, last_name, email, phone, birthday, user_id FROM contacts\s+WHERE user_id = \$1 AND last_name = \$2`

	rows := sqlmock.NewRows(contactCols).
		AddRow(int64(1), "Kate", "Duka", "kate@test.com", nil, nil, int64(10))

	mock.ExpectQuery(q).WithArgs(int64(10), "Duka").WillReturnRows(rows)

	got, err := repo.SelectByField(context.Background(), 10, SearchFieldLastName, "Duka")
	if err != nil {
		t.Fatalf("SelectByField error: %v", err)
	}
	if len(got) != 1 || got[0].LastName != "Duka" {
		t.Fatalf("unexpected result: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSelectWithBirthdays_FiltersNulls(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)SELECT id, first_name, last_name, email, phone, birthday, user_id FROM contacts\s+WHERE user_id = \$1 AND birthday IS NOT NULL\s+ORDER BY id`

	bday := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(contactCols).
		AddRow(int64(3), "Ann", "Lee", "ann@test.com", nil, bday, int64(10))

	mock.ExpectQuery(q).WithArgs(int64(10)).WillReturnRows(rows)

	got, err := repo.SelectWithBirthdays(context.Background(), 10)
	if err != nil {
		t.Fatalf("SelectWithBirthdays error: %v", err)
	}
	if len(got) != 1 || got[0].Birthday == nil || !got[0].Birthday.Equal(bday) {
		t.Fatalf("unexpected result: %+v", got)
	}
}
