package tenant

import (
	"log/slog"
	"net/http"
	"strings"
)

// SignalsFromRequest collects resolution signals from r.
func SignalsFromRequest(r *http.Request, headers HeaderNames, p Principal) Signals {
	if headers.ID == "" {
		headers.ID = DefaultIDHeader
	}
	if headers.Slug == "" {
		headers.Slug = DefaultSlugHeader
	}
	return Signals{
		Host:       r.Host,
		TenantID:   r.Header.Get(headers.ID),
		TenantSlug: r.Header.Get(headers.Slug),
		Principal:  p,
	}
}

// Middleware resolves the tenant once per request and stores the resulting Scope in the
// request context. Unresolved requests continue: scoped data access fails closed for them.
//
// A request whose tenant came from host or header while its principal belongs to another
// tenant is rejected with ErrPrincipalMismatch unless the principal is super.
func Middleware(resolver *Resolver, opts ...Option) func(http.Handler) http.Handler {
	if resolver == nil {
		panic("tenant: resolver cannot be nil")
	}

	cfg := &config{
		headers:      HeaderNames{ID: DefaultIDHeader, Slug: DefaultSlugHeader},
		errorHandler: defaultErrorHandler,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			var p Principal
			if cfg.principal != nil {
				p = cfg.principal(r)
			}

			scope := resolver.Resolve(r.Context(), SignalsFromRequest(r, cfg.headers, p))

			if err := checkPrincipal(scope, p); err != nil {
				id, _ := scope.TenantID()
				cfg.logger.WarnContext(r.Context(), "principal outside resolved tenant",
					slog.String("principal_id", p.PrincipalID()),
					slog.String("tenant_id", id.String()),
					slog.String("source", scope.Source().String()),
				)
				recordScope(r.Context(), scope)
				cfg.errorHandler(w, r, err)
				return
			}

			if scope.IsResolved() {
				id, _ := scope.TenantID()
				cfg.logger.DebugContext(r.Context(), "tenant resolved",
					slog.String("tenant_id", id.String()),
					slog.String("source", scope.Source().String()),
				)
			}

			next.ServeHTTP(w, r.WithContext(WithScope(r.Context(), scope)))
		})
	}
}

func checkPrincipal(scope Scope, p Principal) error {
	if p == nil || p.IsSuper() || !scope.IsResolved() {
		return nil
	}
	home, ok := p.HomeTenantID()
	if !ok {
		return nil
	}
	if id, _ := scope.TenantID(); id != home {
		return ErrPrincipalMismatch
	}
	return nil
}

// RequireTenant creates middleware that rejects requests without a resolved tenant.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = defaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !ScopeFromContext(r.Context()).IsResolved() {
				errorHandler(w, r, ErrTenantRequired)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
