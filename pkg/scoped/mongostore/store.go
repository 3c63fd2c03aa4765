package mongostore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/fieldops/tenancy/pkg/scoped"
)

const (
	idField     = "_id"
	tenantField = "tenant_id"
)

// ErrInvalidFilter is returned for query keys that would widen or replace the tenant filter.
var ErrInvalidFilter = errors.New("invalid filter")

// Store is a scoped.Store over a MongoDB collection. Records map their id to _id and
// their tenant to tenant_id via bson tags.
type Store[T scoped.Record] struct {
	coll *mongo.Collection
}

func New[T scoped.Record](coll *mongo.Collection) *Store[T] {
	if coll == nil {
		panic("mongostore: collection cannot be nil")
	}
	return &Store[T]{coll: coll}
}

func (s *Store[T]) Find(ctx context.Context, tenantID uuid.UUID, q scoped.Query) ([]T, error) {
	filter, err := buildFilter(q.Eq)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, append(bson.D{{Key: tenantField, Value: tenantID}}, filter...), q)
}

func (s *Store[T]) FindAll(ctx context.Context, q scoped.Query) ([]T, error) {
	filter, err := buildFilter(q.Eq)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, filter, q)
}

func (s *Store[T]) Get(ctx context.Context, tenantID, id uuid.UUID) (T, error) {
	var rec T
	err := s.coll.FindOne(ctx, byID(tenantID, id)).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return rec, scoped.ErrNotFound
	}
	return rec, err
}

func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	if rec.GetID() == uuid.Nil {
		return fmt.Errorf("%w: missing id", scoped.ErrInvalidRecord)
	}
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return mapError(err)
	}
	return nil
}

// Update reads the document within the tenant, applies fn and replaces it.
// The replace filter repeats tenant_id, so the write cannot land outside the tenant.
func (s *Store[T]) Update(ctx context.Context, tenantID, id uuid.UUID, fn func(T) error) (T, error) {
	var zero T

	rec, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return zero, err
	}
	if fn != nil {
		if err := fn(rec); err != nil {
			return zero, err
		}
	}
	if rec.GetID() != id {
		return zero, fmt.Errorf("%w: id changed", scoped.ErrInvalidRecord)
	}
	if rec.GetTenantID() != tenantID {
		return zero, scoped.ErrTenantImmutable
	}

	res, err := s.coll.ReplaceOne(ctx, byID(tenantID, id), rec)
	if err != nil {
		return zero, mapError(err)
	}
	if res.MatchedCount == 0 {
		return zero, scoped.ErrNotFound
	}
	return rec, nil
}

func (s *Store[T]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, byID(tenantID, id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return scoped.ErrNotFound
	}
	return nil
}

func (s *Store[T]) find(ctx context.Context, filter bson.D, q scoped.Query) ([]T, error) {
	opts := findOptions(q)
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func byID(tenantID, id uuid.UUID) bson.D {
	return bson.D{{Key: idField, Value: id}, {Key: tenantField, Value: tenantID}}
}

func buildFilter(eq map[string]any) (bson.D, error) {
	keys := make([]string, 0, len(eq))
	for k := range eq {
		if k == tenantField || k == "" || strings.HasPrefix(k, "$") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidFilter, k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filter := bson.D{}
	for _, k := range keys {
		filter = append(filter, bson.E{Key: k, Value: eq[k]})
	}
	return filter, nil
}

func findOptions(q scoped.Query) *options.FindOptionsBuilder {
	opts := options.Find()
	if q.OrderBy != "" {
		parts := strings.Fields(q.OrderBy)
		dir := 1
		if len(parts) > 1 && strings.EqualFold(parts[1], "desc") {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: parts[0], Value: dir}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	return opts
}

func mapError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return errors.Join(scoped.ErrDuplicate, err)
	}
	return err
}
