package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/fieldops/tenancy/pkg/pg"
	"github.com/fieldops/tenancy/pkg/scoped"
)

const (
	idColumn     = "id"
	tenantColumn = "tenant_id"
)

// Table describes the relation behind a Store. Columns are matched against the
// record's `db` struct tags and must include id and tenant_id.
type Table struct {
	Name    string
	Columns []string
}

func (t Table) validate() error {
	if t.Name == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidTable)
	}
	if !slices.Contains(t.Columns, idColumn) || !slices.Contains(t.Columns, tenantColumn) {
		return fmt.Errorf("%w: %s must declare %s and %s", ErrInvalidTable, t.Name, idColumn, tenantColumn)
	}
	return nil
}

func (t Table) has(col string) bool {
	return slices.Contains(t.Columns, col)
}

// Store is a scoped.Store over a SQL table. Every statement it issues is narrowed by tenant_id
// except FindAll. T must be a pointer to a struct with `db` tags.
type Store[T scoped.Record] struct {
	db    *sqlx.DB
	table Table
	sb    sq.StatementBuilderType
}

// New creates a Store. It panics on a nil db and returns ErrInvalidTable for a malformed table.
func New[T scoped.Record](db *sqlx.DB, table Table) (*Store[T], error) {
	if db == nil {
		panic("sqlstore: db cannot be nil")
	}
	if err := table.validate(); err != nil {
		return nil, err
	}
	return &Store[T]{
		db:    db,
		table: table,
		sb:    sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}, nil
}

func (s *Store[T]) Find(ctx context.Context, tenantID uuid.UUID, q scoped.Query) ([]T, error) {
	sel, err := s.selectQuery(q)
	if err != nil {
		return nil, err
	}
	return s.selectRows(ctx, s.db, sel.Where(sq.Eq{tenantColumn: tenantID}))
}

func (s *Store[T]) FindAll(ctx context.Context, q scoped.Query) ([]T, error) {
	sel, err := s.selectQuery(q)
	if err != nil {
		return nil, err
	}
	return s.selectRows(ctx, s.db, sel)
}

func (s *Store[T]) Get(ctx context.Context, tenantID, id uuid.UUID) (T, error) {
	return s.getOne(ctx, s.db, s.byID(tenantID, id))
}

func (s *Store[T]) Insert(ctx context.Context, rec T) error {
	if rec.GetID() == uuid.Nil {
		return fmt.Errorf("%w: missing id", scoped.ErrInvalidRecord)
	}
	values, err := s.values(rec)
	if err != nil {
		return err
	}

	query, args, err := s.sb.Insert(s.table.Name).SetMap(values).ToSql()
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return mapError(err)
	}
	return nil
}

// Update locks the row within the tenant, applies fn and writes the result in one transaction.
func (s *Store[T]) Update(ctx context.Context, tenantID, id uuid.UUID, fn func(T) error) (T, error) {
	var zero T

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return zero, err
	}
	defer func() { _ = tx.Rollback() }()

	rec, err := s.getOne(ctx, tx, s.byID(tenantID, id).Suffix("FOR UPDATE"))
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

	values, err := s.values(rec)
	if err != nil {
		return zero, err
	}
	delete(values, idColumn)
	delete(values, tenantColumn)

	query, args, err := s.sb.Update(s.table.Name).
		SetMap(values).
		Where(sq.Eq{idColumn: id, tenantColumn: tenantID}).
		ToSql()
	if err != nil {
		return zero, err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return zero, mapError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return zero, scoped.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return zero, err
	}
	return rec, nil
}

func (s *Store[T]) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	query, args, err := s.sb.Delete(s.table.Name).
		Where(sq.Eq{idColumn: id, tenantColumn: tenantID}).
		ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return scoped.ErrNotFound
	}
	return nil
}

func (s *Store[T]) byID(tenantID, id uuid.UUID) sq.SelectBuilder {
	return s.sb.Select(s.table.Columns...).
		From(s.table.Name).
		Where(sq.Eq{idColumn: id, tenantColumn: tenantID})
}

func (s *Store[T]) selectQuery(q scoped.Query) (sq.SelectBuilder, error) {
	sel := s.sb.Select(s.table.Columns...).From(s.table.Name)

	keys := make([]string, 0, len(q.Eq))
	for k := range q.Eq {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !s.table.has(k) {
			return sel, fmt.Errorf("%w: %s", ErrUnknownColumn, k)
		}
		sel = sel.Where(sq.Eq{k: q.Eq[k]})
	}

	if q.OrderBy != "" {
		parts := strings.Fields(q.OrderBy)
		if !s.table.has(parts[0]) {
			return sel, fmt.Errorf("%w: %s", ErrUnknownColumn, parts[0])
		}
		dir := "ASC"
		if len(parts) > 1 && strings.EqualFold(parts[1], "desc") {
			dir = "DESC"
		}
		sel = sel.OrderBy(parts[0] + " " + dir)
	}
	if q.Limit > 0 {
		sel = sel.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		sel = sel.Offset(uint64(q.Offset))
	}
	return sel, nil
}

func (s *Store[T]) selectRows(ctx context.Context, db sqlx.QueryerContext, sel sq.SelectBuilder) ([]T, error) {
	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}
	out := []T{}
	if err := sqlx.SelectContext(ctx, db, &out, query, args...); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store[T]) getOne(ctx context.Context, db sqlx.QueryerContext, sel sq.SelectBuilder) (T, error) {
	var zero T
	rows, err := s.selectRows(ctx, db, sel.Limit(1))
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, scoped.ErrNotFound
	}
	return rows[0], nil
}

// values maps the table's columns to the record's fields by `db` tag.
func (s *Store[T]) values(rec T) (map[string]any, error) {
	v := reflect.Indirect(reflect.ValueOf(rec))
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", scoped.ErrInvalidRecord, rec)
	}
	fields := s.db.Mapper.FieldMap(v)

	out := make(map[string]any, len(s.table.Columns))
	for _, col := range s.table.Columns {
		f, ok := fields[col]
		if !ok {
			return nil, fmt.Errorf("%w: %s has no field for %s", ErrUnknownColumn, s.table.Name, col)
		}
		out[col] = f.Interface()
	}
	return out, nil
}

func mapError(err error) error {
	if pg.IsDuplicateKeyError(err) {
		return errors.Join(scoped.ErrDuplicate, err)
	}
	return err
}
