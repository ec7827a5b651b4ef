package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenBucketLimiterBounds(t *testing.T) {
	limiter := newTokenBucketLimiter(1, 1)

	if !limiter.Allow() {
		t.Fatalf("expected first request to pass")
	}
	if limiter.Allow() {
		t.Fatalf("expected second immediate request to be rejected")
	}
}

func TestTokenBucketLimiterSanitizesInput(t *testing.T) {
	limiter := newTokenBucketLimiter(-5, -1)
	if !limiter.Allow() {
		t.Fatalf("expected sanitized limiter to allow a request")
	}
}

func TestNilLimiterAllows(t *testing.T) {
	var adapter *limiterAdapter
	if !adapter.Allow() {
		t.Fatalf("expected nil adapter to allow")
	}
}

func TestRateLimitMiddlewarePassthrough(t *testing.T) {
	invoked := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		invoked = true
		w.WriteHeader(http.StatusNoContent)
	})

	handler := rateLimitMiddleware(nil, next)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if !invoked {
		t.Fatalf("expected next handler to run without a limiter")
	}
}
