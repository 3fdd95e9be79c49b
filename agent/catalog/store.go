package catalog

import "context"

// Store is the catalog contract consumed by the matching engine and tools.
// Query returns records in catalog insertion order.
type Store interface {
	Query(ctx context.Context, f Filter) ([]ServiceRecord, error)
	Get(ctx context.Context, id int64) (ServiceRecord, error)
}

// Admin is the mutation surface. Create always stores an active listing;
// Deactivate retires one. Records are never physically deleted.
type Admin interface {
	Store
	Create(ctx context.Context, s ServiceRecord) (ServiceRecord, error)
	Update(ctx context.Context, s ServiceRecord) (ServiceRecord, error)
	Verify(ctx context.Context, id int64) error
	Deactivate(ctx context.Context, id int64) error
}
