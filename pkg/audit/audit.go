package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type logger struct {
	storage     Storage
	tenantID    Extractor
	principalID Extractor
	requestID   Extractor
	now         func() time.Time
}

type Option func(*logger)

// WithTenantIDExtractor fills Event.TenantID when an option did not set it explicitly.
func WithTenantIDExtractor(fn Extractor) Option {
	return func(l *logger) {
		l.tenantID = fn
	}
}

func WithPrincipalIDExtractor(fn Extractor) Option {
	return func(l *logger) {
		l.principalID = fn
	}
}

func WithRequestIDExtractor(fn Extractor) Option {
	return func(l *logger) {
		l.requestID = fn
	}
}

// NewLogger creates a new audit logger
func NewLogger(storage Storage, opts ...Option) Logger {
	if storage == nil {
		panic("audit: storage cannot be nil")
	}
	l := &logger{storage: storage, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// WithResource sets the resource type and ID
func WithResource(resource, id string) EventOption {
	return func(e *Event) {
		e.Resource = resource
		e.ResourceID = id
	}
}

// WithTenantID sets the tenant the action touched.
func WithTenantID(id string) EventOption {
	return func(e *Event) {
		e.TenantID = id
	}
}

// WithPrincipalID sets the acting principal.
func WithPrincipalID(id string) EventOption {
	return func(e *Event) {
		e.PrincipalID = id
	}
}

// WithMetadata adds metadata to the event
func WithMetadata(key string, value any) EventOption {
	return func(e *Event) {
		if e.Metadata == nil {
			e.Metadata = make(map[string]any)
		}
		e.Metadata[key] = value
	}
}

// Log records a successful action
func (l *logger) Log(ctx context.Context, action string, opts ...EventOption) error {
	return l.store(ctx, action, ResultSuccess, nil, opts)
}

// LogError records a failed action
func (l *logger) LogError(ctx context.Context, action string, err error, opts ...EventOption) error {
	return l.store(ctx, action, ResultError, err, opts)
}

func (l *logger) store(ctx context.Context, action string, result Result, cause error, opts []EventOption) error {
	event := Event{
		ID:        uuid.NewString(),
		Action:    action,
		Result:    result,
		CreatedAt: l.now().UTC(),
	}
	if cause != nil {
		event.Error = cause.Error()
	}
	for _, opt := range opts {
		opt(&event)
	}

	// explicit options win over context
	fill(ctx, &event.TenantID, l.tenantID)
	fill(ctx, &event.PrincipalID, l.principalID)
	fill(ctx, &event.RequestID, l.requestID)

	if err := event.Validate(); err != nil {
		return err
	}
	return l.storage.Store(ctx, event)
}

func fill(ctx context.Context, dst *string, extract Extractor) {
	if *dst != "" || extract == nil {
		return
	}
	if v, ok := extract(ctx); ok {
		*dst = v
	}
}
