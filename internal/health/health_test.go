package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func failing(msg string) func(context.Context) error {
	return func(context.Context) error { return errors.New(msg) }
}

func serve(t *testing.T, handler *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	mux := http.NewServeMux()
	handler.Mount(mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestWorse(t *testing.T) {
	require.Equal(t, StatusDegraded, worse(StatusHealthy, StatusDegraded))
	require.Equal(t, StatusUnhealthy, worse(StatusUnhealthy, StatusDegraded))
	require.Equal(t, StatusHealthy, worse(StatusHealthy, StatusHealthy))
}

func TestHealthz_ReportsChecks(t *testing.T) {
	handler := NewHandler("v1.2.3")
	handler.RegisterChecker("storage", NewPingChecker("storage", func(context.Context) error { return nil }))

	rec := serve(t, handler, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	require.Equal(t, StatusHealthy, report.Status)
	require.Equal(t, "v1.2.3", report.Version)
	require.Contains(t, report.Checks, "storage")
}

func TestHealthz_UnhealthyIs503(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("storage", NewPingChecker("storage", failing("connection refused")))

	rec := serve(t, handler, "/healthz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	require.Equal(t, StatusUnhealthy, report.Status)
	require.Equal(t, "connection refused", report.Checks["storage"].Message)
}

func TestLivez_IgnoresChecks(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("storage", NewPingChecker("storage", failing("down")))

	rec := serve(t, handler, "/livez")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ok", rec.Body.String())
}

func TestReadyz(t *testing.T) {
	handler := NewHandler("dev")
	require.Equal(t, "ready", serve(t, handler, "/readyz").Body.String())

	handler.RegisterChecker("storage", NewPingChecker("storage", failing("down")))
	rec := serve(t, handler, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "not ready", rec.Body.String())
}

func TestEvaluate_ChecksGetDeadline(t *testing.T) {
	handler := NewHandler("dev")
	handler.RegisterChecker("deadline", NewPingChecker("deadline", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			return errors.New("no deadline")
		}
		return nil
	}))

	status, checks := handler.Evaluate(context.Background())
	require.Equal(t, StatusHealthy, status, checks["deadline"].Message)
}

func TestPingChecker_MeasuresDuration(t *testing.T) {
	check := NewPingChecker("slow", func(context.Context) error {
		time.Sleep(10 * time.Millisecond)
		return nil
	}).Check(context.Background())

	require.Equal(t, "slow", check.Name)
	require.Equal(t, StatusHealthy, check.Status)
	require.GreaterOrEqual(t, check.DurationMs, int64(10))
}
