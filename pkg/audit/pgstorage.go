package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStorage persists events in the audit_events table.
type PgStorage struct {
	pool *pgxpool.Pool
}

func NewPgStorage(pool *pgxpool.Pool) *PgStorage {
	if pool == nil {
		panic("audit: pool cannot be nil")
	}
	return &PgStorage{pool: pool}
}

func (s *PgStorage) Store(ctx context.Context, e Event) error {
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("audit: encode metadata: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO audit_events
			(id, tenant_id, principal_id, request_id, action, resource, resource_id, result, error, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID, e.TenantID, e.PrincipalID, e.RequestID, e.Action, e.Resource, e.ResourceID,
		string(e.Result), e.Error, meta, e.CreatedAt,
	)
	if err != nil {
		return errors.Join(ErrStorageNotAvailable, err)
	}
	return nil
}

func (s *PgStorage) Query(ctx context.Context, c Criteria) ([]Event, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if c.TenantID != "" {
		add("tenant_id = $%d", c.TenantID)
	}
	if c.PrincipalID != "" {
		add("principal_id = $%d", c.PrincipalID)
	}
	if c.Action != "" {
		add("action = $%d", c.Action)
	}
	if !c.Since.IsZero() {
		add("created_at >= $%d", c.Since)
	}

	q := `SELECT id, tenant_id, principal_id, request_id, action, resource, resource_id, result, error, metadata, created_at
		FROM audit_events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"
	if c.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", c.Limit)
	}

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, errors.Join(ErrStorageNotAvailable, err)
	}
	defer rows.Close()

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Event, error) {
		var (
			e      Event
			result string
			meta   []byte
		)
		if err := row.Scan(&e.ID, &e.TenantID, &e.PrincipalID, &e.RequestID, &e.Action, &e.Resource,
			&e.ResourceID, &result, &e.Error, &meta, &e.CreatedAt); err != nil {
			return e, err
		}
		e.Result = Result(result)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return e, err
			}
		}
		return e, nil
	})
	if err != nil {
		return nil, errors.Join(ErrStorageNotAvailable, err)
	}
	return events, nil
}
