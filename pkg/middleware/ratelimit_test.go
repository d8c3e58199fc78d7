package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimit_AllowsWithinBurst(t *testing.T) {
	handler := RateLimit(10, 5, testLogger())(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimit_BlocksOverBurst(t *testing.T) {
	handler := RateLimit(1, 2, testLogger())(okHandler())

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.2:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		lastCode = rec.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

func TestRateLimit_PerIPIsolation(t *testing.T) {
	handler := RateLimit(1, 1, testLogger())(okHandler())

	// Exhaust the first client's bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.3:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	// A different client is unaffected.
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.RemoteAddr = "10.0.0.4:1234"
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestVisitorStore_CleanupEvictsStale(t *testing.T) {
	s := &visitorStore{
		visitors: make(map[string]*visitor),
		rps:      1,
		burst:    1,
		ttl:      time.Minute,
		nowFunc:  time.Now,
	}

	s.getVisitor("10.0.0.5")
	assert.Len(t, s.visitors, 1)

	// Advance the clock past the TTL.
	s.nowFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
	s.cleanup()
	assert.Empty(t, s.visitors)
}
