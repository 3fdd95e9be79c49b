package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = sqldb.Close() })

	db := bun.NewDB(sqldb, pgdialect.New())
	return NewPostgresStore(db), mock
}

var serviceColumns = []string{
	"id", "name", "description", "category", "address", "latitude", "longitude",
	"phone", "website", "operating_hours", "eligibility_criteria", "services_provided",
	"is_active", "last_verified", "created_at",
}

func TestPostgresStoreQuery(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(serviceColumns).
		AddRow(int64(4), "Food Security Initiative", "Daily meals", "food", "Secunderabad",
			17.3688, 78.5016, "+91-40-2334-5678", "https://example.com",
			[]byte(`{"monday":"7AM-9PM"}`), []byte(`{"age_minimum":18}`), []byte(`["meals"]`),
			true, now, now)

	mock.ExpectQuery(`SELECT .* FROM "social_services" AS "s" WHERE .*is_active.*lower\(s.category\).*ILIKE.*ORDER BY s.id ASC`).
		WillReturnRows(rows)

	out, err := store.Query(context.Background(), Filter{ActiveOnly: true, Category: CategoryFood, Keyword: "meal"})
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	got := out[0]
	if got.ID != 4 || got.Category != CategoryFood {
		t.Fatalf("unexpected record: %#v", got)
	}
	if got.OperatingHours["monday"] != "7AM-9PM" {
		t.Fatalf("unexpected hours: %#v", got.OperatingHours)
	}
	if got.Eligibility.AgeMinimum == nil || *got.Eligibility.AgeMinimum != 18 {
		t.Fatalf("unexpected eligibility: %#v", got.Eligibility)
	}
	if _, ok := got.Location(); !ok {
		t.Fatal("expected coordinates")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreGetNotFound(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(`SELECT .* FROM "social_services" AS "s" WHERE .*s\.id = 42`).
		WillReturnRows(sqlmock.NewRows(serviceColumns))

	_, err := store.Get(context.Background(), 42)
	if !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
}

func TestPostgresStoreDeactivate(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectExec(`(?i)UPDATE "social_services" AS "s" SET is_active = false WHERE .*id = 7`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`(?i)UPDATE "social_services" AS "s" SET is_active = false WHERE .*id = 8`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Deactivate(context.Background(), 7); err != nil {
		t.Fatalf("Deactivate() error = %v", err)
	}
	if err := store.Deactivate(context.Background(), 8); !errors.Is(err, ErrServiceNotFound) {
		t.Fatalf("expected ErrServiceNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreCreateIsActive(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	mock.ExpectQuery(`(?i)INSERT INTO "social_services" .*\bTRUE\b.*RETURNING "id"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	rec, err := store.Create(context.Background(), ServiceRecord{Name: "Clinic", Category: CategoryHealth})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if rec.ID != 12 || !rec.IsActive {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
