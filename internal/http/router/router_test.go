package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	accountctrl "github.com/devinmiller/Identity/internal/http/controllers/account"
	healthctrl "github.com/devinmiller/Identity/internal/http/controllers/health"
	accountsvc "github.com/devinmiller/Identity/internal/http/services/account"
	healthsvc "github.com/devinmiller/Identity/internal/http/services/health"
	"github.com/devinmiller/Identity/internal/metrics"
	"github.com/devinmiller/Identity/internal/rate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (rate.Result, error) {
	return rate.Result{Allowed: false, RetryAfter: 10 * time.Second, WindowTTL: 10 * time.Second}, nil
}

func testHandler(t *testing.T, login rate.Limiter) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	require.NoError(t, metrics.Register(reg))
	return New(Deps{
		Account: accountctrl.NewControllers(accountsvc.Services{}),
		Health: healthctrl.NewControllers(healthsvc.NewServices(healthsvc.Deps{
			CacheCheck: func(context.Context) error { return nil },
		})),
		LoginLimiter: login,
		Gatherer:     reg,
	})
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	h := testHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestRouter_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := testHandler(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "NOT_FOUND")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/login", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_LoginPostIsRateLimited(t *testing.T) {
	h := testHandler(t, denyAll{})

	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("button=login"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "11", rec.Header().Get("Retry-After"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}
