package jobs

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldops/tenancy/pkg/logger"
	"github.com/fieldops/tenancy/pkg/scoped"
	"github.com/fieldops/tenancy/pkg/validator"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, scoped.ErrTenantRequired):
		return http.StatusBadRequest, "tenant context required"
	case errors.Is(err, ErrInvalidJob):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, scoped.ErrNotFound):
		return http.StatusNotFound, "job not found"
	case errors.Is(err, scoped.ErrTenantImmutable):
		return http.StatusUnprocessableEntity, "tenant cannot be changed"
	case errors.Is(err, scoped.ErrDuplicate):
		return http.StatusConflict, "job name already exists"
	case errors.Is(err, scoped.ErrNotSuperPrincipal):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, scoped.ErrOverrideReason):
		return http.StatusBadRequest, "reason is required"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "job request failed", logger.Error(err))
	}
	resp := errorResponse{Error: msg}
	if fields, ok := validator.Extract(err); ok {
		resp.Error = "invalid job"
		resp.Fields = fields.Map()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
