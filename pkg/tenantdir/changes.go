package tenantdir

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fieldops/tenancy/pkg/logger"
	"github.com/fieldops/tenancy/pkg/tenant"
)

// ChangesChannel is the Postgres notification channel carrying tenant changes.
const ChangesChannel = "tenants_changed"

// ChangeHandler reacts to tenant changes published by other processes.
// tenant.CachedDirectory satisfies it.
type ChangeHandler interface {
	Invalidate(ctx context.Context, t tenant.Tenant) error
	// Purge is called whenever the listener (re)connects, since changes may have been missed.
	Purge(ctx context.Context) error
}

func publishChange(ctx context.Context, tx pgx.Tx, t tenant.Tenant) error {
	payload, err := json.Marshal(t)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `SELECT pg_notify($1, $2)`, ChangesChannel, string(payload))
	return err
}

func decodeChange(payload string) (tenant.Tenant, error) {
	var t tenant.Tenant
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return tenant.Tenant{}, fmt.Errorf("%w: %v", ErrInvalidChange, err)
	}
	if t.ID == uuid.Nil || t.Slug == "" {
		return tenant.Tenant{}, fmt.Errorf("%w: missing id or slug", ErrInvalidChange)
	}
	return t, nil
}

// WatchChanges listens on ChangesChannel and forwards each change to h until ctx is done.
// A dropped connection is re-established after the reconnect interval. It returns nil
// on cancellation.
func (s *Store) WatchChanges(ctx context.Context, h ChangeHandler) error {
	for {
		err := s.listen(ctx, h)
		if ctx.Err() != nil {
			return nil
		}
		s.logger.WarnContext(ctx, "tenant change listener stopped, reconnecting",
			logger.Error(err),
			slog.Duration("retry_in", s.reconnect),
		)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.reconnect):
		}
	}
}

func (s *Store) listen(ctx context.Context, h ChangeHandler) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	// LISTEN binds to the session; keep the connection out of the pool.
	pc := conn.Hijack()
	defer pc.Close(context.WithoutCancel(ctx))

	if _, err := pc.Exec(ctx, "LISTEN "+pgx.Identifier{ChangesChannel}.Sanitize()); err != nil {
		return err
	}
	if err := h.Purge(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to purge tenant cache", logger.Error(err))
	}
	s.logger.DebugContext(ctx, "listening for tenant changes", slog.String("channel", ChangesChannel))

	for {
		n, err := pc.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		t, err := decodeChange(n.Payload)
		if err != nil {
			s.logger.WarnContext(ctx, "ignoring tenant change", logger.Error(err))
			continue
		}
		if err := h.Invalidate(ctx, t); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate tenant", logger.TenantID(t.ID), logger.Error(err))
			continue
		}
		s.logger.DebugContext(ctx, "tenant invalidated", logger.TenantID(t.ID))
	}
}
