package limiter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func TestGetLimiter_SameInstancePerIP(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)

	a := l.GetLimiter("10.0.0.1")
	b := l.GetLimiter("10.0.0.1")
	c := l.GetLimiter("10.0.0.2")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
}

func TestMiddleware_EnforcesLimit(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(0.001), 1)
	handler := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	request := func() int {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.RemoteAddr = "10.0.0.1:5000"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, request())
	assert.Equal(t, http.StatusTooManyRequests, request())

	// Another IP has its own bucket.
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)
	r.RemoteAddr = "10.0.0.2:5000"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	assert.Equal(t, http.StatusOK, w.Code)
}
