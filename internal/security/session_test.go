package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewSessionID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id := NewSessionID()
		if id == "" {
			t.Fatal("NewSessionID() returned empty string")
		}
		if seen[id] {
			t.Fatalf("duplicate session ID generated: %s", id)
		}
		seen[id] = true
	}
}

func TestSessionCookieFlags(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(r *http.Request)
		wantSecure bool
	}{
		{
			name:       "plain http",
			setup:      func(r *http.Request) {},
			wantSecure: false,
		},
		{
			name: "behind https proxy",
			setup: func(r *http.Request) {
				r.Header.Set("X-Forwarded-Proto", "https")
			},
			wantSecure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			tt.setup(r)

			cookie := SessionCookie(r, "session_id", "abc", time.Now().Add(time.Hour))
			if cookie.Secure != tt.wantSecure {
				t.Errorf("Secure = %v, want %v", cookie.Secure, tt.wantSecure)
			}
			if !cookie.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}
			if cookie.SameSite != http.SameSiteLaxMode {
				t.Errorf("SameSite = %v, want Lax", cookie.SameSite)
			}
			if cookie.Path != "/" {
				t.Errorf("Path = %q, want /", cookie.Path)
			}
		})
	}
}

func TestExpiredCookieMatchesSessionCookieFlags(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-Proto", "https")

	set := SessionCookie(r, "session_id", "abc", time.Now().Add(time.Hour))
	clear := ExpiredCookie(r, "session_id")

	if clear.MaxAge != -1 {
		t.Errorf("MaxAge = %d, want -1", clear.MaxAge)
	}
	if clear.Value != "" {
		t.Errorf("Value = %q, want empty", clear.Value)
	}

	// The clearing cookie must carry the same attributes or browsers
	// treat it as a different cookie and leave the original in place
	if clear.Path != set.Path {
		t.Errorf("Path = %q, want %q", clear.Path, set.Path)
	}
	if clear.Secure != set.Secure {
		t.Errorf("Secure = %v, want %v", clear.Secure, set.Secure)
	}
	if clear.HttpOnly != set.HttpOnly {
		t.Errorf("HttpOnly = %v, want %v", clear.HttpOnly, set.HttpOnly)
	}
	if clear.SameSite != set.SameSite {
		t.Errorf("SameSite = %v, want %v", clear.SameSite, set.SameSite)
	}
}
