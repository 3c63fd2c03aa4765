package scoped

import (
	"context"

	"github.com/google/uuid"
)

// Record marks a persisted type as tenant-scoped. Types opt in by implementing it;
// Access refuses to work with anything else at compile time.
type Record interface {
	GetID() uuid.UUID
	GetTenantID() uuid.UUID
	SetTenantID(id uuid.UUID)
}

// Query narrows a collection read. Eq keys are storage field names.
type Query struct {
	Eq      map[string]any
	OrderBy string
	Limit   int
	Offset  int
}

// Store is the persistence backend behind Access.
// Every method except FindAll takes the tenant to narrow by, and implementations must
// apply that narrowing inside the same storage operation that reads or writes.
type Store[T Record] interface {
	Find(ctx context.Context, tenantID uuid.UUID, q Query) ([]T, error)
	// Get returns ErrNotFound when id does not exist within tenantID.
	Get(ctx context.Context, tenantID, id uuid.UUID) (T, error)
	// Insert returns ErrDuplicate when a per-tenant unique field collides.
	Insert(ctx context.Context, rec T) error
	// Update locates id within tenantID, applies fn and persists the result atomically.
	// If fn returns an error nothing is written.
	Update(ctx context.Context, tenantID, id uuid.UUID, fn func(T) error) (T, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	// FindAll reads across tenants. Only Override calls it.
	FindAll(ctx context.Context, q Query) ([]T, error)
}
