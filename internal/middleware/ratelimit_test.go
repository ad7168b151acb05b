package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimitRejectsOverBurst(t *testing.T) {
	handler := RateLimit(3, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	statuses := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/analyze", nil)
		req.RemoteAddr = "203.0.113.9:1000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	for i := 0; i < 3; i++ {
		if statuses[i] != http.StatusOK {
			t.Fatalf("request %d status = %d, want 200", i, statuses[i])
		}
	}
	if statuses[3] != http.StatusTooManyRequests {
		t.Fatalf("request 4 status = %d, want 429", statuses[3])
	}
}

func TestRateLimitBucketsPerClient(t *testing.T) {
	handler := RateLimit(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(addr string) int {
		req := httptest.NewRequest(http.MethodGet, "/v1/analyze", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := send("203.0.113.1:1000"); code != http.StatusOK {
		t.Fatalf("first client status = %d", code)
	}
	if code := send("203.0.113.1:1000"); code != http.StatusTooManyRequests {
		t.Fatalf("exhausted client status = %d, want 429", code)
	}
	if code := send("203.0.113.2:1000"); code != http.StatusOK {
		t.Fatalf("fresh client status = %d, want 200", code)
	}
}
