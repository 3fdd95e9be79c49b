package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

var _ Admin = (*PostgresStore)(nil)

// ServiceRow is the bun model for the social_services table.
type ServiceRow struct {
	bun.BaseModel `bun:"table:social_services,alias:s"`

	ID                  int64             `bun:"id,pk,autoincrement"`
	Name                string            `bun:"name,notnull"`
	Description         string            `bun:"description"`
	Category            string            `bun:"category,notnull"`
	Address             string            `bun:"address"`
	Latitude            *float64          `bun:"latitude"`
	Longitude           *float64          `bun:"longitude"`
	Phone               string            `bun:"phone"`
	Website             string            `bun:"website"`
	OperatingHours      map[string]string `bun:"operating_hours,type:jsonb"`
	EligibilityCriteria EligibilityRules  `bun:"eligibility_criteria,type:jsonb"`
	ServicesProvided    []string          `bun:"services_provided,type:jsonb"`
	IsActive            bool              `bun:"is_active,notnull"`
	LastVerified        time.Time         `bun:"last_verified,notnull"`
	CreatedAt           time.Time         `bun:"created_at,notnull"`
}

// PostgresStore persists service records through bun.
type PostgresStore struct {
	db  bun.IDB
	now func() time.Time
}

func NewPostgresStore(db bun.IDB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

func (s *PostgresStore) Query(ctx context.Context, f Filter) ([]ServiceRecord, error) {
	var rows []ServiceRow
	q := s.db.NewSelect().Model(&rows)
	if f.ActiveOnly {
		q = q.Where("s.is_active = ?", true)
	}
	if f.Category != "" {
		q = q.Where("lower(s.category) = ?", strings.ToLower(string(f.Category)))
	}
	if keyword := strings.TrimSpace(f.Keyword); keyword != "" {
		pattern := "%" + escapeLike(keyword) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("s.name ILIKE ?", pattern).
				WhereOr("s.description ILIKE ?", pattern).
				WhereOr("s.address ILIKE ?", pattern)
		})
	}
	if err := q.OrderExpr("s.id ASC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("query services: %w", err)
	}

	out := make([]ServiceRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecord())
	}
	return out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (ServiceRecord, error) {
	var row ServiceRow
	err := s.db.NewSelect().Model(&row).Where("s.id = ?", id).Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return ServiceRecord{}, fmt.Errorf("%w: id=%d", ErrServiceNotFound, id)
	}
	if err != nil {
		return ServiceRecord{}, fmt.Errorf("get service id=%d: %w", id, err)
	}
	return row.toRecord(), nil
}

func (s *PostgresStore) Create(ctx context.Context, rec ServiceRecord) (ServiceRecord, error) {
	if err := rec.Validate(); err != nil {
		return ServiceRecord{}, err
	}
	now := s.now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.LastVerified.IsZero() {
		rec.LastVerified = now
	}
	rec.IsActive = true

	row := toRow(rec)
	if _, err := s.db.NewInsert().Model(&row).Returning("id").Exec(ctx); err != nil {
		return ServiceRecord{}, fmt.Errorf("insert service: %w", err)
	}
	return row.toRecord(), nil
}

func (s *PostgresStore) Update(ctx context.Context, rec ServiceRecord) (ServiceRecord, error) {
	if err := rec.Validate(); err != nil {
		return ServiceRecord{}, err
	}
	rec.LastVerified = s.now().UTC()

	row := toRow(rec)
	res, err := s.db.NewUpdate().
		Model(&row).
		ExcludeColumn("created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return ServiceRecord{}, fmt.Errorf("update service id=%d: %w", rec.ID, err)
	}
	if err := expectAffected(res, rec.ID); err != nil {
		return ServiceRecord{}, err
	}
	return s.Get(ctx, rec.ID)
}

func (s *PostgresStore) Verify(ctx context.Context, id int64) error {
	res, err := s.db.NewUpdate().
		Model((*ServiceRow)(nil)).
		Set("last_verified = ?", s.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("verify service id=%d: %w", id, err)
	}
	return expectAffected(res, id)
}

func (s *PostgresStore) Deactivate(ctx context.Context, id int64) error {
	res, err := s.db.NewUpdate().
		Model((*ServiceRow)(nil)).
		Set("is_active = ?", false).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("deactivate service id=%d: %w", id, err)
	}
	return expectAffected(res, id)
}

func expectAffected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: id=%d", ErrServiceNotFound, id)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func toRow(rec ServiceRecord) ServiceRow {
	return ServiceRow{
		ID:                  rec.ID,
		Name:                strings.TrimSpace(rec.Name),
		Description:         rec.Description,
		Category:            strings.ToLower(strings.TrimSpace(string(rec.Category))),
		Address:             rec.Address,
		Latitude:            rec.Latitude,
		Longitude:           rec.Longitude,
		Phone:               rec.Phone,
		Website:             rec.Website,
		OperatingHours:      rec.OperatingHours,
		EligibilityCriteria: rec.Eligibility,
		ServicesProvided:    rec.ServicesProvided,
		IsActive:            rec.IsActive,
		LastVerified:        rec.LastVerified.UTC(),
		CreatedAt:           rec.CreatedAt.UTC(),
	}
}

func (r ServiceRow) toRecord() ServiceRecord {
	return ServiceRecord{
		ID:               r.ID,
		Name:             r.Name,
		Description:      r.Description,
		Category:         Category(r.Category),
		Address:          r.Address,
		Latitude:         r.Latitude,
		Longitude:        r.Longitude,
		Phone:            r.Phone,
		Website:          r.Website,
		OperatingHours:   r.OperatingHours,
		Eligibility:      r.EligibilityCriteria,
		ServicesProvided: r.ServicesProvided,
		IsActive:         r.IsActive,
		LastVerified:     r.LastVerified,
		CreatedAt:        r.CreatedAt,
	}
}
