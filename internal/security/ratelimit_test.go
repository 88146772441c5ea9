package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d denied, want allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Error("request over budget allowed, want denied")
	}

	// A different client has its own bucket
	if !rl.Allow("5.6.7.8") {
		t.Error("fresh client denied, want allowed")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{
			name:   "no proxy headers",
			remote: "192.0.2.1:5000",
			want:   "192.0.2.1:5000",
		},
		{
			name:    "single forwarded address",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7"},
			remote:  "192.0.2.1:5000",
			want:    "203.0.113.7",
		},
		{
			name:    "chained proxies take the first entry",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7, 198.51.100.2, 10.0.0.1"},
			remote:  "192.0.2.1:5000",
			want:    "203.0.113.7",
		},
		{
			name:    "chained proxies without spaces",
			headers: map[string]string{"X-Forwarded-For": "203.0.113.7,198.51.100.2"},
			remote:  "192.0.2.1:5000",
			want:    "203.0.113.7",
		},
		{
			name:    "x-real-ip fallback",
			headers: map[string]string{"X-Real-IP": "203.0.113.9"},
			remote:  "192.0.2.1:5000",
			want:    "203.0.113.9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}

			if got := GetClientIP(r); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
