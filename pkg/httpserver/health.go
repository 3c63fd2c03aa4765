package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/fieldops/tenancy/pkg/logger"
)

// Check verifies a single dependency.
type Check func(context.Context) error

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// LivenessHandler always answers 200; it proves the process is serving.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeReport(w, http.StatusOK, healthReport{Status: "alive"})
	}
}

// ReadinessHandler runs every check with timeout and answers 503 if any fails.
func ReadinessHandler(log *slog.Logger, timeout time.Duration, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		report := healthReport{Status: "ready", Checks: make(map[string]string, len(names))}
		code := http.StatusOK
		for _, name := range names {
			if err := checks[name](ctx); err != nil {
				log.WarnContext(ctx, "readiness check failed", slog.String("check", name), logger.Error(err))
				report.Checks[name] = "failing"
				report.Status = "not_ready"
				code = http.StatusServiceUnavailable
				continue
			}
			report.Checks[name] = "ok"
		}
		writeReport(w, code, report)
	}
}

func writeReport(w http.ResponseWriter, code int, report healthReport) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(report)
}
