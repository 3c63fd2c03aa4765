package jobs

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldops/tenancy/pkg/scoped"
	"github.com/fieldops/tenancy/pkg/tenant"
)

// Resource names jobs in logs and audit events.
const Resource = "job"

type handler struct {
	access    *scoped.Access[*Job]
	principal tenant.PrincipalFunc
	logger    *slog.Logger
	now       func() time.Time
}

type createRequest struct {
	Name        string     `json:"name"`
	Status      Status     `json:"status"`
	Customer    string     `json:"customer"`
	AmountCents int64      `json:"amount_cents"`
	ContactID   *uuid.UUID `json:"contact_id"`
	TenantID    *uuid.UUID `json:"tenant_id"`
}

// updateRequest applies only the fields present.
type updateRequest struct {
	Name        *string    `json:"name"`
	Status      *Status    `json:"status"`
	Customer    *string    `json:"customer"`
	AmountCents *int64     `json:"amount_cents"`
	TenantID    *uuid.UUID `json:"tenant_id"`
}

type listResponse struct {
	Items []*Job `json:"items"`
}

func (h *handler) list(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	items, err := h.access.List(r.Context(), q)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.writeError(w, r, scoped.ErrNotFound)
		return
	}
	job, err := h.access.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Join(ErrInvalidJob, err))
		return
	}

	now := h.now().UTC()
	job := &Job{
		ID:          uuid.New(),
		ContactID:   req.ContactID,
		Name:        req.Name,
		Status:      req.Status,
		Customer:    req.Customer,
		AmountCents: req.AmountCents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if job.Status == "" {
		job.Status = StatusScheduled
	}
	// A client-supplied tenant is ignored; Access pins the job to the request's tenant.
	if req.TenantID != nil {
		job.TenantID = *req.TenantID
	}
	if err := job.validate(); err != nil {
		h.writeError(w, r, err)
		return
	}

	created, err := h.access.Create(r.Context(), job)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.writeError(w, r, scoped.ErrNotFound)
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, errors.Join(ErrInvalidJob, err))
		return
	}

	updated, err := h.access.Update(r.Context(), id, func(j *Job) error {
		req.apply(j)
		j.UpdatedAt = h.now().UTC()
		return j.validate()
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (req updateRequest) apply(j *Job) {
	if req.Name != nil {
		j.Name = *req.Name
	}
	if req.Status != nil {
		j.Status = *req.Status
	}
	if req.Customer != nil {
		j.Customer = *req.Customer
	}
	if req.AmountCents != nil {
		j.AmountCents = *req.AmountCents
	}
	if req.TenantID != nil {
		j.TenantID = *req.TenantID
	}
}

func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r)
	if !ok {
		h.writeError(w, r, scoped.ErrNotFound)
		return
	}
	if err := h.access.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listAll is the cross-tenant listing for super principals. The reason query parameter is
// mandatory; the optional tenant parameter narrows to one tenant.
func (h *handler) listAll(w http.ResponseWriter, r *http.Request) {
	var p tenant.Principal
	if h.principal != nil {
		p = h.principal(r)
	}
	o, err := h.access.Override(r.Context(), p, r.URL.Query().Get("reason"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q, err := queryFromRequest(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	var items []*Job
	if raw := r.URL.Query().Get("tenant"); raw != "" {
		target, perr := uuid.Parse(raw)
		if perr != nil {
			h.writeError(w, r, errors.Join(ErrInvalidJob, perr))
			return
		}
		items, err = o.ListTenant(r.Context(), target, q)
	} else {
		items, err = o.ListAll(r.Context(), q)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Items: items})
}

func queryFromRequest(r *http.Request) (scoped.Query, error) {
	v := r.URL.Query()
	q := scoped.Query{OrderBy: "created_at"}
	if s := v.Get("status"); s != "" {
		if !Status(s).Valid() {
			return q, errors.Join(ErrInvalidJob, errors.New("unknown status filter"))
		}
		q.Eq = map[string]any{"status": s}
	}
	for name, dst := range map[string]*int{"limit": &q.Limit, "offset": &q.Offset} {
		raw := v.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return q, errors.Join(ErrInvalidJob, errors.New("invalid "+name))
		}
		*dst = n
	}
	if q.Limit == 0 || q.Limit > 100 {
		q.Limit = 100
	}
	return q, nil
}

func idParam(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}
