package audit

import "context"

const (
	// DefaultFindLimit applies when Criteria.Limit is not set.
	DefaultFindLimit = 50
	// MaxFindLimit caps a single Find.
	MaxFindLimit = 1000
)

// Reader retrieves stored events for operators.
type Reader struct {
	storage Storage
}

// NewReader creates a Reader over storage.
func NewReader(storage Storage) *Reader {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	return &Reader{storage: storage}
}

// Find returns events matching c, newest first. A non-positive limit selects
// DefaultFindLimit and larger limits are clamped to MaxFindLimit.
func (r *Reader) Find(ctx context.Context, c Criteria) ([]Event, error) {
	switch {
	case c.Limit <= 0:
		c.Limit = DefaultFindLimit
	case c.Limit > MaxFindLimit:
		c.Limit = MaxFindLimit
	}
	return r.storage.Query(ctx, c)
}
