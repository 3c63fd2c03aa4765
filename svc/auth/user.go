package auth

import (
	"github.com/google/uuid"

	"github.com/fieldops/tenancy/pkg/tenant"
)

// User is an authenticated principal. HomeTenant is nil for principals not yet
// assigned to a company, which happens during the migration window.
type User struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	HomeTenant *uuid.UUID `json:"home_tenant,omitempty"`
	Super      bool       `json:"super"`
}

var _ tenant.Principal = (*User)(nil)

func (u *User) PrincipalID() string { return u.ID }

func (u *User) HomeTenantID() (uuid.UUID, bool) {
	if u.HomeTenant == nil || *u.HomeTenant == uuid.Nil {
		return uuid.Nil, false
	}
	return *u.HomeTenant, true
}

func (u *User) IsSuper() bool { return u.Super }
