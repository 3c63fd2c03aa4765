package jobs

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldops/tenancy/pkg/scoped"
	"github.com/fieldops/tenancy/pkg/scoped/sqlstore"
	"github.com/fieldops/tenancy/pkg/validator"
)

const maxNameLength = 200

// ErrInvalidJob is returned for create or update payloads that fail validation.
var ErrInvalidJob = errors.New("invalid job")

type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var statuses = []Status{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled}

func (s Status) Valid() bool { return slices.Contains(statuses, s) }

// Job is a unit of field work. Name is unique within a tenant.
type Job struct {
	ID          uuid.UUID  `json:"id" db:"id" bson:"_id"`
	TenantID    uuid.UUID  `json:"tenant_id" db:"tenant_id" bson:"tenant_id"`
	ContactID   *uuid.UUID `json:"contact_id,omitempty" db:"contact_id" bson:"contact_id,omitempty"`
	Name        string     `json:"name" db:"name" bson:"name"`
	Status      Status     `json:"status" db:"status" bson:"status"`
	Customer    string     `json:"customer" db:"customer" bson:"customer"`
	AmountCents int64      `json:"amount_cents" db:"amount_cents" bson:"amount_cents"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at" bson:"updated_at"`
}

var _ scoped.Record = (*Job)(nil)

func (j *Job) GetID() uuid.UUID         { return j.ID }
func (j *Job) GetTenantID() uuid.UUID   { return j.TenantID }
func (j *Job) SetTenantID(id uuid.UUID) { j.TenantID = id }

func (j *Job) validate() error {
	j.Name = strings.TrimSpace(j.Name)
	if err := validator.Apply(
		validator.Required("name", j.Name),
		validator.MaxLen("name", j.Name, maxNameLength),
		validator.MaxLen("customer", j.Customer, maxNameLength),
		validator.OneOf("status", j.Status, statuses...),
		validator.NonNegative("amount_cents", j.AmountCents),
	); err != nil {
		return errors.Join(ErrInvalidJob, err)
	}
	return nil
}

// UniqueFields lists the per-tenant unique fields for in-memory and document stores.
var UniqueFields = []string{"name"}

// Table describes the jobs relation for sqlstore.
var Table = sqlstore.Table{
	Name: "jobs",
	Columns: []string{
		"id", "tenant_id", "contact_id", "name", "status",
		"customer", "amount_cents", "created_at", "updated_at",
	},
}
