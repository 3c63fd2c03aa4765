// Package tenant resolves the tenant that owns an inbound request and carries it through
// the request lifecycle as an immutable Scope.
//
// # Architecture
//
// The package is built around three pieces:
//
// 1. Directory - looks up active tenants by subdomain, id or slug
// 2. Resolver - turns request Signals into a Scope using a fixed precedence
// 3. Middleware - resolves once per request and stores the Scope in the request context
//
// Resolution tiers are tried in order and the first match wins:
//
//  1. host: the first label of the request host, unless it is reserved ("www", "api", ...)
//  2. header: X-Company-ID (uuid) or, when absent or malformed, X-Company-Slug
//  3. principal: the authenticated principal's home tenant
//
// A miss at any tier falls through. When every tier misses the Scope is Unresolved, which
// is a normal outcome: package scoped returns empty reads and rejects writes for it.
//
// # Usage
//
//	cache, err := tenant.NewMemoryCache(1000)
//	if err != nil {
//		return err
//	}
//	dir := tenant.NewCachedDirectory(tenantdir.New(pool), cache, time.Minute)
//	resolver := tenant.NewResolver(dir, tenant.WithBaseDomain("service.example"))
//
//	r := chi.NewRouter()
//	r.Use(tenant.Middleware(resolver,
//		tenant.WithPrincipalFunc(auth.PrincipalFromRequest),
//		tenant.WithSkipPaths("/health"),
//	))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//		scope := tenant.ScopeFromContext(r.Context())
//		if t, ok := scope.Tenant(); ok {
//			fmt.Fprintf(w, "Hello %s", t.Name)
//		}
//	}
//
// # Principal mismatch
//
// When host or header select a tenant and the request's principal belongs to a different
// one, Middleware rejects the request with ErrPrincipalMismatch. Super principals are exempt;
// their cross-tenant data access still goes through the audited override in package scoped.
//
// # Caching
//
// CachedDirectory caches active tenants only, with a TTL that bounds how long a
// deactivated tenant may keep resolving. Call Invalidate after deactivation for
// immediate effect. NewMemoryCache keeps entries in process, NewRedisCache shares them.
package tenant
