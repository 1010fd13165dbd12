package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
}

func newTestLimiter() *RateLimiter {
	return NewRateLimiter(Limit{PerMinute: 10, Burst: 10}, Limit{PerMinute: 2, Burst: 2}, "location", 3*time.Minute)
}

func TestRateLimitMiddleware_GlobalBurst(t *testing.T) {
	mw := newTestLimiter().Middleware(okHandler())
	ip := "1.2.3.4:1234"

	// 10 unique params fit in the global burst
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest("GET", fmt.Sprintf("/weather?location=city%d", i), nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Result().StatusCode, "request %d", i+1)
	}

	req := httptest.NewRequest("GET", "/weather?location=city10", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Result().StatusCode)

	var resp map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	assert.True(t, strings.Contains(resp["error"].(string), "Rate limit exceeded"))
	assert.Equal(t, "Too Many Requests (global limit)", resp["message"])
}

func TestRateLimitMiddleware_PerParamBurst(t *testing.T) {
	mw := newTestLimiter().Middleware(okHandler())
	ip := "2.3.4.5:2345"

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("GET", "/weather?location=London", nil)
		req.RemoteAddr = ip
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Result().StatusCode)
	}

	// same location with different case shares the bucket
	req := httptest.NewRequest("GET", "/weather?location=LONDON", nil)
	req.RemoteAddr = ip
	w := httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	require.Equal(t, http.StatusTooManyRequests, w.Result().StatusCode)

	var resp map[string]interface{}
	_ = json.NewDecoder(w.Body).Decode(&resp)
	assert.Equal(t, "Too Many Requests (per-param limit)", resp["message"])

	// another client is unaffected
	req = httptest.NewRequest("GET", "/weather?location=London", nil)
	req.RemoteAddr = "9.9.9.9:1"
	w = httptest.NewRecorder()
	mw.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
}

func TestGetIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.1, 10.0.0.2")
	assert.Equal(t, "10.0.0.1", getIP(req))

	req = httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	assert.Equal(t, "192.168.1.5", getIP(req))

	req.RemoteAddr = "nonsense"
	assert.Equal(t, "nonsense", getIP(req))
}

func TestSweep(t *testing.T) {
	rl := newTestLimiter()
	mw := rl.Middleware(okHandler())
	req := httptest.NewRequest("GET", "/weather?location=Paris", nil)
	mw.ServeHTTP(httptest.NewRecorder(), req)

	g, p := rl.visitorCount()
	assert.Equal(t, 1, g)
	assert.Equal(t, 1, p)

	rl.Sweep(time.Now().Add(time.Minute))
	g, p = rl.visitorCount()
	assert.Equal(t, 1, g)
	assert.Equal(t, 1, p)

	rl.Sweep(time.Now().Add(4 * time.Minute))
	g, p = rl.visitorCount()
	assert.Equal(t, 0, g)
	assert.Equal(t, 0, p)
}

func TestNewRateLimiterFromConfig(t *testing.T) {
	rl := NewRateLimiterFromConfig()
	assert.Equal(t, Limit{PerMinute: 10, Burst: 10}, rl.global)
	assert.Equal(t, Limit{PerMinute: 2, Burst: 2}, rl.param)
	assert.Equal(t, "location", rl.paramKey)
	assert.Equal(t, 3*time.Minute, rl.idleTTL)
}
