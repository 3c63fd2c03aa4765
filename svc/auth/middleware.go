package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// DefaultPrincipalHeader carries the principal id set by the authenticating gateway.
const DefaultPrincipalHeader = "X-Principal-ID"

// UserLoader resolves an authenticated principal id to a User.
type UserLoader interface {
	LoadUser(ctx context.Context, id string) (*User, error)
}

// UserLoaderFunc adapts a function to UserLoader.
type UserLoaderFunc func(ctx context.Context, id string) (*User, error)

func (f UserLoaderFunc) LoadUser(ctx context.Context, id string) (*User, error) { return f(ctx, id) }

type middlewareConfig struct {
	header       string
	logger       *slog.Logger
	errorHandler func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareOption func(*middlewareConfig)

func WithPrincipalHeader(name string) MiddlewareOption {
	return func(c *middlewareConfig) {
		if name != "" {
			c.header = name
		}
	}
}

func WithLogger(l *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithErrorHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) MiddlewareOption {
	return func(c *middlewareConfig) {
		if fn != nil {
			c.errorHandler = fn
		}
	}
}

// Middleware loads the user named by the trusted principal header and stores it in the
// request context. Requests without the header continue anonymously; an unknown
// principal is rejected with 401. Token verification happens upstream.
func Middleware(loader UserLoader, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if loader == nil {
		panic("auth: user loader cannot be nil")
	}
	cfg := &middlewareConfig{
		header: DefaultPrincipalHeader,
		logger: slog.New(slog.DiscardHandler),
		errorHandler: func(w http.ResponseWriter, _ *http.Request, _ error) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
		},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(cfg.header))
			if id == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := loader.LoadUser(r.Context(), id)
			if err != nil {
				if !errors.Is(err, ErrUserNotFound) {
					cfg.logger.ErrorContext(r.Context(), "failed to load user", slog.String("principal_id", id), slog.Any("error", err))
				}
				cfg.errorHandler(w, r, errors.Join(ErrUnauthorized, err))
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUserToContext(r.Context(), user)))
		})
	}
}
