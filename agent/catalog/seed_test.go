package catalog

import (
	"context"
	"testing"
)

func TestSeedRecordsAreValid(t *testing.T) {
	t.Parallel()

	recs, err := SeedRecords()
	if err != nil {
		t.Fatalf("SeedRecords() error = %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("seed catalog is empty")
	}
	for _, rec := range recs {
		if err := rec.Validate(); err != nil {
			t.Fatalf("invalid seed %q: %v", rec.Name, err)
		}
		if _, ok := rec.Location(); !ok {
			t.Fatalf("seed %q has no coordinates", rec.Name)
		}
	}
}

func TestSeedIfEmpty(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	n, err := SeedIfEmpty(ctx, store)
	if err != nil {
		t.Fatalf("SeedIfEmpty() error = %v", err)
	}
	if n == 0 {
		t.Fatal("expected records to be seeded")
	}
	again, err := SeedIfEmpty(ctx, store)
	if err != nil {
		t.Fatalf("SeedIfEmpty() second call error = %v", err)
	}
	if again != 0 {
		t.Fatalf("non-empty store must not be reseeded, got %d", again)
	}
}
