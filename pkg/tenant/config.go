package tenant

import "time"

// Config is the environment-driven configuration of tenant resolution.
type Config struct {
	// BaseDomain is the apex tenants are served under, e.g. "service.example".
	BaseDomain string `env:"TENANT_BASE_DOMAIN"`
	// ReservedSubdomains never resolve to a tenant and cannot be onboarded.
	ReservedSubdomains []string      `env:"TENANT_RESERVED_SUBDOMAINS" envDefault:"www,api,admin,app,static,mail,cdn" envSeparator:","`
	IDHeader           string        `env:"TENANT_ID_HEADER" envDefault:"X-Company-ID"`
	SlugHeader         string        `env:"TENANT_SLUG_HEADER" envDefault:"X-Company-Slug"`
	CacheTTL           time.Duration `env:"TENANT_CACHE_TTL" envDefault:"1m"`
	CacheSize          int           `env:"TENANT_CACHE_SIZE" envDefault:"1000"`
}

// Reserved returns the configured reserved labels, or DefaultReservedSubdomains when none are set.
func (c Config) Reserved() []string {
	if len(c.ReservedSubdomains) == 0 {
		return DefaultReservedSubdomains
	}
	return c.ReservedSubdomains
}

// ResolverOptions converts the config into resolver options.
func (c Config) ResolverOptions() []ResolverOption {
	opts := make([]ResolverOption, 0, 2)
	if c.BaseDomain != "" {
		opts = append(opts, WithBaseDomain(c.BaseDomain))
	}
	return append(opts, WithReservedSubdomains(c.Reserved()...))
}

// Headers returns the configured header names.
func (c Config) Headers() HeaderNames {
	return HeaderNames{ID: c.IDHeader, Slug: c.SlugHeader}
}
