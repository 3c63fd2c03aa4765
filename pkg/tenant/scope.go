package tenant

import "github.com/google/uuid"

// Source identifies which resolution tier produced a Scope.
type Source uint8

const (
	SourceNone Source = iota
	SourceHost
	SourceHeaderID
	SourceHeaderSlug
	SourcePrincipal
)

func (s Source) String() string {
	switch s {
	case SourceHost:
		return "host"
	case SourceHeaderID:
		return "header_id"
	case SourceHeaderSlug:
		return "header_slug"
	case SourcePrincipal:
		return "principal"
	default:
		return "none"
	}
}

// Scope is the per-request tenant context: either a resolved tenant or its explicit absence.
// The zero value is Unresolved. A Scope is immutable once constructed; the tenant it
// carries is a copy, so callers cannot alter the value held by other holders of the Scope.
type Scope struct {
	tenant   Tenant
	resolved bool
	source   Source
}

// Unresolved returns a Scope without a tenant.
func Unresolved() Scope {
	return Scope{}
}

// Resolved returns a Scope bound to t.
func Resolved(t Tenant, source Source) Scope {
	return Scope{tenant: t, resolved: true, source: source}
}

func (s Scope) IsResolved() bool {
	return s.resolved
}

// Tenant returns a copy of the resolved tenant.
func (s Scope) Tenant() (Tenant, bool) {
	if !s.resolved {
		return Tenant{}, false
	}
	return s.tenant, true
}

func (s Scope) TenantID() (uuid.UUID, bool) {
	if !s.resolved {
		return uuid.Nil, false
	}
	return s.tenant.ID, true
}

func (s Scope) Source() Source {
	return s.source
}
