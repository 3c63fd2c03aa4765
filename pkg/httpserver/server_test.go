package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/tenancy/pkg/httpserver"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpserver.New(httpserver.Config{ShutdownTimeout: time.Second}, httpserver.WithLogger(discardLogger()))
	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln, handler) }()

	url := "http://" + ln.Addr().String()
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return string(body) == "pong"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}

	t.Run("cannot be restarted", func(t *testing.T) {
		ln2, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		err = srv.Serve(context.Background(), ln2, handler)
		assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)
	})
}

func TestServer_RunInvalidAddr(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.Config{Addr: "256.0.0.1:bad"}, httpserver.WithLogger(discardLogger()))
	err := srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestServer_ShutdownBeforeRun(t *testing.T) {
	t.Parallel()

	srv := httpserver.New(httpserver.Config{})
	assert.NoError(t, srv.Shutdown(context.Background()))
	assert.NoError(t, srv.Shutdown(context.Background()))
}

func TestLivenessHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpserver.LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	failing := func(context.Context) error { return errors.New("connection refused") }

	tests := []struct {
		name       string
		checks     map[string]httpserver.Check
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			checks:     map[string]httpserver.Check{"postgres": ok, "redis": ok},
			wantCode:   http.StatusOK,
			wantStatus: "ready",
			wantChecks: map[string]string{"postgres": "ok", "redis": "ok"},
		},
		{
			name:       "one failing",
			checks:     map[string]httpserver.Check{"postgres": ok, "redis": failing},
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "not_ready",
			wantChecks: map[string]string{"postgres": "ok", "redis": "failing"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			h := httpserver.ReadinessHandler(discardLogger(), time.Second, tt.checks)
			h(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, tt.wantChecks, body.Checks)
		})
	}
}
