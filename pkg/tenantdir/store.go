package tenantdir

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fieldops/tenancy/pkg/pg"
	"github.com/fieldops/tenancy/pkg/slug"
	"github.com/fieldops/tenancy/pkg/tenant"
)

const tenantColumns = `id, name, slug, subdomain, active, created_at, updated_at`

// Store is the Postgres-backed tenant directory and its administrative surface.
type Store struct {
	pool      *pgxpool.Pool
	now       func() time.Time
	reserved  map[string]struct{}
	logger    *slog.Logger
	reconnect time.Duration
}

var _ tenant.Directory = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithReservedSubdomains replaces the labels Onboard refuses as subdomains.
// Pass the resolver's set so every onboarded tenant can resolve by host.
func WithReservedSubdomains(labels ...string) Option {
	return func(s *Store) {
		s.reserved = make(map[string]struct{}, len(labels))
		for _, l := range labels {
			if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
				s.reserved[l] = struct{}{}
			}
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReconnectInterval sets the pause before WatchChanges listens again after a failure.
func WithReconnectInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.reconnect = d
		}
	}
}

func New(pool *pgxpool.Pool, opts ...Option) *Store {
	if pool == nil {
		panic("tenantdir: pool cannot be nil")
	}
	s := &Store{
		pool:      pool,
		now:       time.Now,
		logger:    slog.New(slog.DiscardHandler),
		reconnect: 2 * time.Second,
	}
	WithReservedSubdomains(tenant.DefaultReservedSubdomains...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) FindActiveBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	return s.findOne(ctx, `lower(subdomain) = lower($1)`, subdomain)
}

func (s *Store) FindActiveBySlug(ctx context.Context, slug string) (*tenant.Tenant, error) {
	return s.findOne(ctx, `lower(slug) = lower($1)`, slug)
}

func (s *Store) FindActiveByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.findOne(ctx, `id = $1`, id)
}

func (s *Store) findOne(ctx context.Context, cond string, arg any) (*tenant.Tenant, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE active AND `+cond+` LIMIT 1`, arg)
	t, err := scanTenant(row)
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// OnboardParams describes a new tenant. Slug is derived from Name when empty,
// and Subdomain defaults to the slug.
type OnboardParams struct {
	Name      string
	Slug      string
	Subdomain string
}

// Onboard creates an active tenant. It returns ErrConflict when an active tenant
// already holds the slug or subdomain.
func (s *Store) Onboard(ctx context.Context, p OnboardParams) (*tenant.Tenant, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidTenant)
	}

	sl := strings.ToLower(strings.TrimSpace(p.Slug))
	if sl == "" {
		sl = slug.Make(name)
	}
	if sl == "" {
		return nil, fmt.Errorf("%w: cannot derive slug from %q", ErrInvalidTenant, name)
	}
	if sl != slug.Make(sl) {
		return nil, fmt.Errorf("%w: slug %q is not a valid label", ErrInvalidTenant, sl)
	}

	sub := strings.ToLower(strings.TrimSpace(p.Subdomain))
	if sub == "" {
		sub = sl
	}
	if sub != slug.Make(sub) {
		return nil, fmt.Errorf("%w: subdomain %q is not a valid label", ErrInvalidTenant, sub)
	}
	if _, ok := s.reserved[sub]; ok {
		return nil, fmt.Errorf("%w: subdomain %q is reserved", ErrInvalidTenant, sub)
	}

	now := s.now().UTC()
	t := &tenant.Tenant{
		ID:        uuid.New(),
		Name:      name,
		Slug:      sl,
		Subdomain: sub,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		t.ID, t.Name, t.Slug, t.Subdomain, t.Active, t.CreatedAt, t.UpdatedAt,
	)
	if pg.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("%w: %s", ErrConflict, pg.ConstraintName(err))
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Deactivate marks the tenant inactive. The row and its data stay in place.
// The change is published on ChangesChannel in the same transaction, so every
// WatchChanges subscriber sees it once it commits.
func (s *Store) Deactivate(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	var t *tenant.Tenant
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE tenants SET active = false, updated_at = $2
			WHERE id = $1
			RETURNING `+tenantColumns, id, s.now().UTC())
		var err error
		if t, err = scanTenant(row); err != nil {
			return err
		}
		return publishChange(ctx, tx, *t)
	})
	if pg.IsNotFoundError(err) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// PrincipalRecord is a row of the principals table.
type PrincipalRecord struct {
	ID           string
	Email        string
	HomeTenantID *uuid.UUID
	Super        bool
}

// AssignPrincipal sets the principal's home tenant. Inactive tenants are refused.
func (s *Store) AssignPrincipal(ctx context.Context, principalID string, tenantID uuid.UUID) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		var active bool
		err := tx.QueryRow(ctx, `SELECT active FROM tenants WHERE id = $1 FOR SHARE`, tenantID).Scan(&active)
		if pg.IsNotFoundError(err) {
			return tenant.ErrTenantNotFound
		}
		if err != nil {
			return err
		}
		if !active {
			return ErrTenantInactive
		}

		tag, err := tx.Exec(ctx,
			`UPDATE principals SET home_tenant_id = $2, updated_at = $3 WHERE id = $1`,
			principalID, tenantID, s.now().UTC())
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrPrincipalNotFound
		}
		return nil
	})
}

// FindPrincipal loads a principal by id.
func (s *Store) FindPrincipal(ctx context.Context, id string) (*PrincipalRecord, error) {
	var p PrincipalRecord
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, home_tenant_id, is_super FROM principals WHERE id = $1`, id,
	).Scan(&p.ID, &p.Email, &p.HomeTenantID, &p.Super)
	if pg.IsNotFoundError(err) {
		return nil, ErrPrincipalNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	if err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Subdomain, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
