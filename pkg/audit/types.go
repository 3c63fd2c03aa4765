package audit

import (
	"context"
	"fmt"
	"time"
)

// Result represents the outcome of an audited action
type Result string

const (
	ResultSuccess Result = "success"
	ResultError   Result = "error"
)

// AnonymousPrincipalID records actions attempted without an authenticated principal.
const AnonymousPrincipalID = "anonymous"

// Event represents a single audit log entry.
// TenantID is the tenant the action touched; "*" marks an action across all tenants.
type Event struct {
	ID          string         `json:"id"`
	TenantID    string         `json:"tenant_id"`
	PrincipalID string         `json:"principal_id"`
	RequestID   string         `json:"request_id,omitempty"`
	Action      string         `json:"action"`
	Resource    string         `json:"resource"`
	ResourceID  string         `json:"resource_id,omitempty"`
	Result      Result         `json:"result"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Validate checks if the event has all required fields
func (e *Event) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrEventValidation)
	}
	if e.PrincipalID == "" {
		return fmt.Errorf("%w: principal is required", ErrEventValidation)
	}
	return nil
}

// EventOption applies configuration to an Event during creation.
type EventOption func(*Event)

// Criteria filters stored events. Zero fields match everything.
type Criteria struct {
	TenantID    string
	PrincipalID string
	Action      string
	Since       time.Time
	Limit       int
}

// Storage persists audit events.
type Storage interface {
	Store(ctx context.Context, event Event) error
	Query(ctx context.Context, criteria Criteria) ([]Event, error)
}

// Logger records audited actions.
type Logger interface {
	Log(ctx context.Context, action string, opts ...EventOption) error
	LogError(ctx context.Context, action string, err error, opts ...EventOption) error
}

// Extractor pulls a request-scoped identifier out of ctx.
type Extractor func(context.Context) (string, bool)
