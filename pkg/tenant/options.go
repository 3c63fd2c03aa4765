package tenant

import (
	"errors"
	"log/slog"
	"net/http"
)

// ErrorHandler handles errors that occur during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// PrincipalFunc returns the authenticated principal for r, or nil.
type PrincipalFunc func(r *http.Request) Principal

// HeaderNames names the explicit tenant headers.
type HeaderNames struct {
	ID   string
	Slug string
}

// config holds middleware configuration.
type config struct {
	headers      HeaderNames
	principal    PrincipalFunc
	errorHandler ErrorHandler
	skipPaths    []string
	logger       *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithHeaderNames overrides the explicit header names. Empty fields keep their defaults.
func WithHeaderNames(h HeaderNames) Option {
	return func(c *config) {
		if h.ID != "" {
			c.headers.ID = h.ID
		}
		if h.Slug != "" {
			c.headers.Slug = h.Slug
		}
	}
}

// WithPrincipalFunc sets how the authenticated principal is read from the request.
func WithPrincipalFunc(fn PrincipalFunc) Option {
	return func(c *config) {
		c.principal = fn
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass tenant resolution.
func WithSkipPaths(paths ...string) Option {
	return func(c *config) {
		c.skipPaths = append(c.skipPaths, paths...)
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantRequired):
		http.Error(w, "Tenant context required", http.StatusBadRequest)
	case errors.Is(err, ErrPrincipalMismatch):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
