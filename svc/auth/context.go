package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/fieldops/tenancy/pkg/tenant"
)

type userContextKey struct{}

// SetUserToContext stores the authenticated user for the rest of the middleware chain.
func SetUserToContext(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUserFromContext returns nil when no user was stored.
func GetUserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userContextKey{}).(*User)
	return user
}

// PrincipalFromRequest adapts the request's user to tenant.Principal for the tenant
// middleware. It returns a nil interface, not a typed nil, when nobody is signed in.
func PrincipalFromRequest(r *http.Request) tenant.Principal {
	if u := GetUserFromContext(r.Context()); u != nil {
		return u
	}
	return nil
}

// PrincipalIDFromContext matches the audit extractor signature.
func PrincipalIDFromContext(ctx context.Context) (string, bool) {
	if u := GetUserFromContext(ctx); u != nil && u.ID != "" {
		return u.ID, true
	}
	return "", false
}

// LoggerExtractor adds principal_id to log records.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := PrincipalIDFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return slog.String("principal_id", id), true
	}
}
