package utility

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newTestContext(headers map[string]string) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return e.NewContext(req, httptest.NewRecorder())
}

func TestGetRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "forwarded for takes first entry",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1, 10.0.0.2"},
			want:    "203.0.113.7",
		},
		{
			name: "forwarded for wins over real ip",
			headers: map[string]string{
				"X-Forwarded-For": "203.0.113.8",
				"X-Real-IP":       "203.0.113.9",
			},
			want: "203.0.113.8",
		},
		{
			name:    "real ip when no forwarded for",
			headers: map[string]string{"X-Real-IP": "203.0.113.9"},
			want:    "203.0.113.9",
		},
		{
			name:    "falls back to remote address",
			headers: nil,
			want:    "192.0.2.1",
		},
	}

	for _, tt := range tests {
		c := newTestContext(tt.headers)
		if got := GetRealIP(c); got != tt.want {
			t.Errorf("%s: GetRealIP() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCheckIPRateLimit(t *testing.T) {
	ip := "198.51.100.10"
	for i := 0; i < 10; i++ {
		if err := CheckIPRateLimit(ip); err != nil {
			t.Fatalf("attempt %d: unexpected error: %v", i+1, err)
		}
	}
	if err := CheckIPRateLimit(ip); err == nil {
		t.Fatal("attempt 11: expected rate limit error, got nil")
	}

	// Other addresses are tracked independently.
	if err := CheckIPRateLimit("198.51.100.11"); err != nil {
		t.Fatalf("different IP unexpectedly limited: %v", err)
	}
}

func TestCheckIPRateLimitWindowExpires(t *testing.T) {
	ip := "198.51.100.12"
	stale := make([]time.Time, 10)
	for i := range stale {
		stale[i] = time.Now().Add(-16 * time.Minute)
	}
	IPRateLimiter.Store(ip, stale)

	if err := CheckIPRateLimit(ip); err != nil {
		t.Fatalf("expired attempts still counted: %v", err)
	}
}
