package jobs

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldops/tenancy/pkg/scoped"
	"github.com/fieldops/tenancy/pkg/tenant"
)

// RouterOptions configures the jobs module.
type RouterOptions struct {
	// Principal identifies the caller for the cross-tenant admin route.
	// Without it the admin route always answers 403.
	Principal tenant.PrincipalFunc
	Logger    *slog.Logger
}

// Router mounts the tenant-scoped job endpoints.
//
//	r.Mount("/jobs", jobs.Router(access, jobs.RouterOptions{Principal: auth.PrincipalFromRequest}))
func Router(access *scoped.Access[*Job], opts RouterOptions) chi.Router {
	if access == nil {
		panic("jobs: access cannot be nil")
	}
	h := &handler{
		access:    access,
		principal: opts.Principal,
		logger:    opts.Logger,
		now:       time.Now,
	}
	if h.logger == nil {
		h.logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.MethodNotAllowed(methodNotAllowed)
	r.Get("/admin/all", h.listAll)
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Patch("/", h.update)
		r.Delete("/", h.delete)
	})
	return r
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
}
