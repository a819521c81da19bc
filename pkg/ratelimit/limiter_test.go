package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowWithinBurst(t *testing.T) {
	limiter := NewLimiter(3, 1.0, 0)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
}

func TestKeysAreIndependent(t *testing.T) {
	limiter := NewLimiter(1, 0.1, 0)

	assert.True(t, limiter.Allow("10.0.0.1"))
	assert.False(t, limiter.Allow("10.0.0.1"))
	assert.True(t, limiter.Allow("10.0.0.2"))
	assert.Equal(t, 2, limiter.ActiveBuckets())
}

func TestRefill(t *testing.T) {
	// 100 tokens per second so the test does not need long sleeps
	limiter := NewLimiter(1, 100.0, 0)

	require.True(t, limiter.Allow("10.0.0.1"))
	require.False(t, limiter.Allow("10.0.0.1"))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func TestReset(t *testing.T) {
	limiter := NewLimiter(2, 0.1, 0)

	require.True(t, limiter.Allow("10.0.0.1"))
	require.True(t, limiter.Allow("10.0.0.1"))
	require.False(t, limiter.Allow("10.0.0.1"))

	limiter.Reset("10.0.0.1")
	assert.True(t, limiter.Allow("10.0.0.1"))
}

func TestLimitByIP(t *testing.T) {
	limiter := NewLimiter(2, 0.1, 0)
	handler := LimitByIP(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remoteAddr string) int {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = remoteAddr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234"))
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:1234"))

	// Different source port, same IP: still limited
	assert.Equal(t, http.StatusTooManyRequests, do("10.0.0.1:9999"))

	// Different IP gets its own bucket
	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234"))
}

func TestLimitByIP_ForwardedFor(t *testing.T) {
	limiter := NewLimiter(1, 0.1, 0)
	handler := LimitByIP(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.254:1234" // the proxy
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.254")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The forwarded client IP was charged, not the proxy's
	assert.True(t, limiter.Allow("10.0.0.254"))
	assert.False(t, limiter.Allow("203.0.113.7"))
}
