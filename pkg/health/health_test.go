package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okCheck() CheckFunc {
	return func(_ context.Context) error { return nil }
}

func downCheck(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func decodeReport(t *testing.T, w *httptest.ResponseRecorder) probeReport {
	t.Helper()
	var body probeReport
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestLiveEndpointAllPassing(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, okCheck())
	h.AddLivenessCheck("gc", time.Second, okCheck())

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, "ok", decodeReport(t, w).Status)
}

func TestLiveEndpointFailingProbe(t *testing.T) {
	h := New()
	h.AddLivenessCheck("database", time.Second, downCheck("connection refused"))

	// Probes start healthy; drive past the failure threshold.
	ctx := context.Background()
	for range defaultFailureThreshold {
		h.liveness[0].tick(ctx)
	}

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeReport(t, w)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "connection refused", body.Checks["database"])
}

func TestLiveEndpointFailureBelowThreshold(t *testing.T) {
	h := New()
	h.AddLivenessCheck("flaky", time.Second, downCheck("temporary"))

	ctx := context.Background()
	for range defaultFailureThreshold - 1 {
		h.liveness[0].tick(ctx)
	}

	w := httptest.NewRecorder()
	h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, w.Code, "flapping below the threshold stays healthy")
}

func TestReadyEndpointGate(t *testing.T) {
	h := New()
	h.AddReadinessCheck("database", time.Second, okCheck())

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "not ready before SetReady")
	assert.Contains(t, decodeReport(t, w).Checks, "_readiness")

	h.SetReady(true)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	h.SetReady(false)
	w = httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "draining flips readiness off")
}

func TestReadyEndpointOneProbeFailing(t *testing.T) {
	h := New()
	h.AddReadinessCheck("database", time.Second, okCheck())
	h.AddReadinessCheck("warmup", time.Second, downCheck("still warming"))
	h.SetReady(true)

	ctx := context.Background()
	for range defaultFailureThreshold {
		h.readiness[1].tick(ctx)
	}

	w := httptest.NewRecorder()
	h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decodeReport(t, w)
	assert.Contains(t, body.Checks, "warmup")
	assert.NotContains(t, body.Checks, "database")
}

func TestIsReady(t *testing.T) {
	h := New()
	h.AddReadinessCheck("database", time.Second, okCheck())

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestProbeRecovery(t *testing.T) {
	failing := true
	h := New()
	h.AddLivenessCheck("flaky", time.Second, func(_ context.Context) error {
		if failing {
			return errors.New("down")
		}
		return nil
	})
	p := h.liveness[0]
	ctx := context.Background()

	for range defaultFailureThreshold {
		p.tick(ctx)
	}
	assert.False(t, p.healthy())

	failing = false
	p.tick(ctx)
	assert.True(t, p.healthy(), "one pass recovers at the default success threshold")
}

func TestProbeLastError(t *testing.T) {
	h := New()
	h.AddLivenessCheck("database", time.Second, downCheck("timeout"))
	p := h.liveness[0]

	assert.Nil(t, p.err())
	p.tick(context.Background())
	assert.EqualError(t, p.err(), "timeout")
}

func TestStopIsIdempotent(t *testing.T) {
	h := New()
	h.AddLivenessCheck("goroutines", time.Second, okCheck())

	h.Start(context.Background(), 50*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.AddLivenessCheck("probe", time.Second, downCheck("err"))
	h.AddReadinessCheck("probe", time.Second, okCheck())
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, 10*time.Millisecond)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				h.IsReady()

				w := httptest.NewRecorder()
				h.LiveEndpoint(w, httptest.NewRequest(http.MethodGet, "/livez", nil))

				w = httptest.NewRecorder()
				h.ReadyEndpoint(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(100000)(context.Background()))

	err := GoroutineCountCheck(0)(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds threshold")
}

func TestUptimeGraceCheck(t *testing.T) {
	check := UptimeGraceCheck(time.Now(), time.Hour)
	assert.Error(t, check(context.Background()), "inside the grace period")

	check = UptimeGraceCheck(time.Now().Add(-2*time.Hour), time.Hour)
	assert.NoError(t, check(context.Background()))
}
