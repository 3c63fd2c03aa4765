package tenant

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxLabelLength matches the DNS label limit and caps header-supplied slugs.
	MaxLabelLength = 63

	DefaultIDHeader   = "X-Company-ID"
	DefaultSlugHeader = "X-Company-Slug"
)

// DefaultReservedSubdomains are host labels that never name a tenant.
var DefaultReservedSubdomains = []string{"www", "api", "admin", "app", "static", "mail", "cdn"}

// labelPattern ensures DNS-safe labels: alphanumeric start, allows hyphens, no dots
var labelPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Signals are the request observables consumed by the Resolver.
type Signals struct {
	Host       string
	TenantID   string
	TenantSlug string
	Principal  Principal
}

// Resolver maps request Signals to a Scope.
// It holds no mutable state and is safe for concurrent use.
type Resolver struct {
	dir        Directory
	reserved   map[string]struct{}
	baseDomain string
	logger     *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithReservedSubdomains replaces the default reserved label set.
func WithReservedSubdomains(labels ...string) ResolverOption {
	return func(r *Resolver) {
		r.reserved = make(map[string]struct{}, len(labels))
		for _, l := range labels {
			if l = strings.ToLower(strings.TrimSpace(l)); l != "" {
				r.reserved[l] = struct{}{}
			}
		}
	}
}

// WithBaseDomain sets the apex the service is served from (e.g. "service.example").
// When set, only hosts directly under it carry a tenant label.
func WithBaseDomain(domain string) ResolverOption {
	return func(r *Resolver) {
		r.baseDomain = strings.Trim(strings.ToLower(domain), ".")
	}
}

func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver backed by dir.
func NewResolver(dir Directory, opts ...ResolverOption) *Resolver {
	if dir == nil {
		panic("tenant: directory cannot be nil")
	}
	r := &Resolver{dir: dir, logger: slog.New(slog.DiscardHandler)}
	WithReservedSubdomains(DefaultReservedSubdomains...)(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the Scope for s. Tiers are tried in order host, header, principal;
// the first match wins and later tiers are not evaluated. Each tier performs at most
// one directory lookup. A miss or lookup failure falls through to the next tier, and
// an exhausted chain yields Unresolved. Resolve never fails.
func (r *Resolver) Resolve(ctx context.Context, s Signals) Scope {
	if label, ok := r.SubdomainFromHost(s.Host); ok {
		if t := r.lookup(ctx, SourceHost, func() (*Tenant, error) {
			return r.dir.FindActiveBySubdomain(ctx, label)
		}); t != nil {
			return Resolved(*t, SourceHost)
		}
	}

	if id, ok := parseID(s.TenantID); ok {
		if t := r.lookup(ctx, SourceHeaderID, func() (*Tenant, error) {
			return r.dir.FindActiveByID(ctx, id)
		}); t != nil {
			return Resolved(*t, SourceHeaderID)
		}
	} else if slug, ok := normalizeLabel(s.TenantSlug); ok {
		if t := r.lookup(ctx, SourceHeaderSlug, func() (*Tenant, error) {
			return r.dir.FindActiveBySlug(ctx, slug)
		}); t != nil {
			return Resolved(*t, SourceHeaderSlug)
		}
	}

	if s.Principal != nil {
		if home, ok := s.Principal.HomeTenantID(); ok && home != uuid.Nil {
			if t := r.lookup(ctx, SourcePrincipal, func() (*Tenant, error) {
				return r.dir.FindActiveByID(ctx, home)
			}); t != nil {
				return Resolved(*t, SourcePrincipal)
			}
		}
	}

	return Unresolved()
}

func (r *Resolver) lookup(ctx context.Context, src Source, find func() (*Tenant, error)) *Tenant {
	t, err := find()
	if err != nil {
		if !errors.Is(err, ErrTenantNotFound) {
			r.logger.WarnContext(ctx, "tenant lookup failed",
				slog.String("tier", src.String()),
				slog.Any("error", err),
			)
		}
		return nil
	}
	if t == nil || !t.Active {
		return nil
	}
	return t
}

// SubdomainFromHost extracts the candidate tenant label from host.
// It reports false for hosts without a subdomain, reserved labels and invalid labels.
func (r *Resolver) SubdomainFromHost(host string) (string, bool) {
	host = strings.ToLower(strings.TrimSpace(host))
	if idx := strings.LastIndex(host, ":"); idx != -1 && !strings.Contains(host[idx:], "]") {
		host = host[:idx]
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", false
	}

	parts := strings.Split(host, ".")
	if r.baseDomain != "" {
		suffix := "." + r.baseDomain
		if !strings.HasSuffix(host, suffix) {
			return "", false
		}
		parts = strings.Split(strings.TrimSuffix(host, suffix), ".")
		if len(parts) != 1 {
			return "", false
		}
	} else if len(parts) < 3 {
		// subdomain.domain.tld is the minimum shape carrying a tenant label
		return "", false
	}

	label, ok := normalizeLabel(parts[0])
	if !ok {
		return "", false
	}
	if _, reserved := r.reserved[label]; reserved {
		return "", false
	}
	return label, true
}

func normalizeLabel(v string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" || len(v) > MaxLabelLength || !labelPattern.MatchString(v) {
		return "", false
	}
	return v, true
}

func parseID(v string) (uuid.UUID, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(v)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
