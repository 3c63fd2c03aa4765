package scoped

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type memoryRow struct {
	tenantID uuid.UUID
	data     []byte
	fields   map[string]any
}

// MemoryStore is an in-process Store. Records are kept as JSON so callers never share
// memory with stored state; Eq, OrderBy and unique fields use JSON field names.
type MemoryStore[T Record] struct {
	mu     sync.Mutex
	rows   map[uuid.UUID]memoryRow
	order  []uuid.UUID
	unique []string
}

// NewMemoryStore creates a store enforcing uniqueness of each field per tenant.
func NewMemoryStore[T Record](uniqueFields ...string) *MemoryStore[T] {
	return &MemoryStore[T]{
		rows:   make(map[uuid.UUID]memoryRow),
		unique: uniqueFields,
	}
}

func (s *MemoryStore[T]) Find(_ context.Context, tenantID uuid.UUID, q Query) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(q, func(r memoryRow) bool { return r.tenantID == tenantID })
}

func (s *MemoryStore[T]) FindAll(_ context.Context, q Query) ([]T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collect(q, func(memoryRow) bool { return true })
}

func (s *MemoryStore[T]) Get(_ context.Context, tenantID, id uuid.UUID) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	row, ok := s.rows[id]
	if !ok || row.tenantID != tenantID {
		return zero, ErrNotFound
	}
	return decode[T](row.data)
}

func (s *MemoryStore[T]) Insert(_ context.Context, rec T) error {
	id := rec.GetID()
	if id == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	row, err := encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rows[id]; exists {
		return ErrDuplicate
	}
	if err := s.checkUnique(id, row); err != nil {
		return err
	}
	s.rows[id] = row
	s.order = append(s.order, id)
	return nil
}

func (s *MemoryStore[T]) Update(_ context.Context, tenantID, id uuid.UUID, fn func(T) error) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	row, ok := s.rows[id]
	if !ok || row.tenantID != tenantID {
		return zero, ErrNotFound
	}

	rec, err := decode[T](row.data)
	if err != nil {
		return zero, err
	}
	if err := fn(rec); err != nil {
		return zero, err
	}
	if rec.GetID() != id {
		return zero, fmt.Errorf("%w: id changed", ErrInvalidRecord)
	}
	if rec.GetTenantID() != row.tenantID {
		return zero, ErrTenantImmutable
	}

	updated, err := encode(rec)
	if err != nil {
		return zero, err
	}
	if err := s.checkUnique(id, updated); err != nil {
		return zero, err
	}
	s.rows[id] = updated
	return rec, nil
}

func (s *MemoryStore[T]) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok || row.tenantID != tenantID {
		return ErrNotFound
	}
	delete(s.rows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// checkUnique must be called with s.mu held.
func (s *MemoryStore[T]) checkUnique(id uuid.UUID, candidate memoryRow) error {
	for _, field := range s.unique {
		want, ok := candidate.fields[field]
		if !ok || want == nil {
			continue
		}
		for otherID, other := range s.rows {
			if otherID == id || other.tenantID != candidate.tenantID {
				continue
			}
			if sameValue(other.fields[field], want) {
				return fmt.Errorf("%w: %s", ErrDuplicate, field)
			}
		}
	}
	return nil
}

// collect must be called with s.mu held.
func (s *MemoryStore[T]) collect(q Query, keep func(memoryRow) bool) ([]T, error) {
	rows := make([]memoryRow, 0, len(s.order))
	for _, id := range s.order {
		row := s.rows[id]
		if keep(row) && matches(row.fields, q.Eq) {
			rows = append(rows, row)
		}
	}

	if q.OrderBy != "" {
		field, desc := parseOrder(q.OrderBy)
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].fields[field], rows[j].fields[field]
			if desc {
				return lessValue(b, a)
			}
			return lessValue(a, b)
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(rows) {
			rows = rows[:0]
		} else {
			rows = rows[q.Offset:]
		}
	}
	if q.Limit > 0 && q.Limit < len(rows) {
		rows = rows[:q.Limit]
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		rec, err := decode[T](row.data)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func encode[T Record](rec T) (memoryRow, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return memoryRow{}, fmt.Errorf("scoped: encode record: %w", err)
	}
	fields := make(map[string]any)
	if err := json.Unmarshal(data, &fields); err != nil {
		return memoryRow{}, fmt.Errorf("scoped: index record: %w", err)
	}
	return memoryRow{tenantID: rec.GetTenantID(), data: data, fields: fields}, nil
}

func decode[T Record](data []byte) (T, error) {
	var rec T
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, fmt.Errorf("scoped: decode record: %w", err)
	}
	return rec, nil
}

func matches(fields map[string]any, eq map[string]any) bool {
	for k, v := range eq {
		if !sameValue(fields[k], v) {
			return false
		}
	}
	return true
}

func sameValue(stored, want any) bool {
	return fmt.Sprint(stored) == fmt.Sprint(want)
}

func lessValue(a, b any) bool {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return af < bf
	}
	return fmt.Sprint(a) < fmt.Sprint(b)
}

func parseOrder(orderBy string) (string, bool) {
	parts := strings.Fields(orderBy)
	if len(parts) == 0 {
		return "", false
	}
	return parts[0], len(parts) > 1 && strings.EqualFold(parts[1], "desc")
}
