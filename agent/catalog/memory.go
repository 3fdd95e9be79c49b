package catalog

import (
	"context"
	"fmt"
	"sync"
	"time"
)

var _ Admin = (*MemoryStore)(nil)

// MemoryStore keeps records in insertion order. Used for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records []ServiceRecord
	nextID  int64
	now     func() time.Time
}

func NewMemoryStore(seed ...ServiceRecord) (*MemoryStore, error) {
	s := &MemoryStore{nextID: 1, now: time.Now}
	for _, rec := range seed {
		if _, err := s.Create(context.Background(), rec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemoryStore) Query(ctx context.Context, f Filter) ([]ServiceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ServiceRecord, 0, len(s.records))
	for _, rec := range s.records {
		if f.Matches(rec) {
			out = append(out, clone(rec))
		}
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id int64) (ServiceRecord, error) {
	if err := ctx.Err(); err != nil {
		return ServiceRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return ServiceRecord{}, fmt.Errorf("%w: id=%d", ErrServiceNotFound, id)
	}
	return clone(s.records[idx]), nil
}

func (s *MemoryStore) Create(ctx context.Context, rec ServiceRecord) (ServiceRecord, error) {
	if err := rec.Validate(); err != nil {
		return ServiceRecord{}, err
	}
	cat, _ := ParseCategory(string(rec.Category))
	rec.Category = cat
	rec.IsActive = true

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	if rec.ID <= 0 {
		rec.ID = s.nextID
	} else if s.indexOf(rec.ID) >= 0 {
		return ServiceRecord{}, fmt.Errorf("%w: duplicate id=%d", ErrInvalidService, rec.ID)
	}
	if rec.ID >= s.nextID {
		s.nextID = rec.ID + 1
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	if rec.LastVerified.IsZero() {
		rec.LastVerified = now
	}
	s.records = append(s.records, clone(rec))
	return clone(rec), nil
}

func (s *MemoryStore) Update(ctx context.Context, rec ServiceRecord) (ServiceRecord, error) {
	if err := rec.Validate(); err != nil {
		return ServiceRecord{}, err
	}
	cat, _ := ParseCategory(string(rec.Category))
	rec.Category = cat

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(rec.ID)
	if idx < 0 {
		return ServiceRecord{}, fmt.Errorf("%w: id=%d", ErrServiceNotFound, rec.ID)
	}
	rec.CreatedAt = s.records[idx].CreatedAt
	rec.LastVerified = s.now().UTC()
	s.records[idx] = clone(rec)
	return clone(rec), nil
}

func (s *MemoryStore) Verify(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: id=%d", ErrServiceNotFound, id)
	}
	s.records[idx].LastVerified = s.now().UTC()
	return nil
}

func (s *MemoryStore) Deactivate(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("%w: id=%d", ErrServiceNotFound, id)
	}
	s.records[idx].IsActive = false
	return nil
}

func (s *MemoryStore) indexOf(id int64) int {
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(rec ServiceRecord) ServiceRecord {
	out := rec
	if rec.Latitude != nil {
		v := *rec.Latitude
		out.Latitude = &v
	}
	if rec.Longitude != nil {
		v := *rec.Longitude
		out.Longitude = &v
	}
	if rec.OperatingHours != nil {
		out.OperatingHours = make(map[string]string, len(rec.OperatingHours))
		for k, v := range rec.OperatingHours {
			out.OperatingHours[k] = v
		}
	}
	out.ServicesProvided = append([]string(nil), rec.ServicesProvided...)
	out.Eligibility.RequiredDocuments = append([]string(nil), rec.Eligibility.RequiredDocuments...)
	if rec.Eligibility.AgeMinimum != nil {
		v := *rec.Eligibility.AgeMinimum
		out.Eligibility.AgeMinimum = &v
	}
	if rec.Eligibility.AgeMaximum != nil {
		v := *rec.Eligibility.AgeMaximum
		out.Eligibility.AgeMaximum = &v
	}
	return out
}
