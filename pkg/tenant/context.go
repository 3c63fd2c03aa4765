package tenant

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// contextKey prevents collisions with other packages using context values
type contextKey struct{}

type recorderKey struct{}

type scopeRecorder struct {
	mu    sync.Mutex
	scope Scope
}

func (r *scopeRecorder) load() Scope {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scope
}

// WithScope returns a child context carrying s.
// It also reports s to a recorder installed further up by WithScopeRecorder.
func WithScope(ctx context.Context, s Scope) context.Context {
	recordScope(ctx, s)
	return context.WithValue(ctx, contextKey{}, s)
}

// WithScopeRecorder lets outer middleware learn the Scope chosen by inner middleware.
// The returned func yields the last recorded Scope, or the Scope ctx already carried.
func WithScopeRecorder(ctx context.Context) (context.Context, func() Scope) {
	rec := &scopeRecorder{scope: ScopeFromContext(ctx)}
	return context.WithValue(ctx, recorderKey{}, rec), rec.load
}

func recordScope(ctx context.Context, s Scope) {
	if rec, ok := ctx.Value(recorderKey{}).(*scopeRecorder); ok {
		rec.mu.Lock()
		rec.scope = s
		rec.mu.Unlock()
	}
}

// ScopeFromContext returns the request Scope. A context without one yields Unresolved.
func ScopeFromContext(ctx context.Context) Scope {
	if ctx == nil {
		return Unresolved()
	}
	s, ok := ctx.Value(contextKey{}).(Scope)
	if !ok {
		return Unresolved()
	}
	return s
}

// IDFromContext provides fast access to tenant ID without exposing full tenant data
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	return ScopeFromContext(ctx).TenantID()
}

// LoggerExtractor returns a function that enriches log records with tenant ID
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
