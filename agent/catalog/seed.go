package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed/services.json
var seedRaw []byte

// SeedRecords returns the bundled sample listings for Hyderabad and Delhi.
func SeedRecords() ([]ServiceRecord, error) {
	var recs []ServiceRecord
	if err := json.Unmarshal(seedRaw, &recs); err != nil {
		return nil, fmt.Errorf("decode seed catalog: %w", err)
	}
	return recs, nil
}

// SeedIfEmpty loads the bundled listings into an empty store and reports how
// many were created. A store that already has records is left untouched.
func SeedIfEmpty(ctx context.Context, store Admin) (int, error) {
	existing, err := store.Query(ctx, Filter{})
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	recs, err := SeedRecords()
	if err != nil {
		return 0, err
	}
	for i, rec := range recs {
		if _, err := store.Create(ctx, rec); err != nil {
			return i, fmt.Errorf("seed %q: %w", rec.Name, err)
		}
	}
	return len(recs), nil
}
