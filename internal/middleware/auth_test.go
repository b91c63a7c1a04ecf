package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestLocalOnly(t *testing.T) {
	handler := LocalOnly(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		remote string
		xff    string
		want   int
	}{
		{"ipv4 loopback", "127.0.0.1:5555", "", http.StatusNoContent},
		{"ipv6 loopback", "[::1]:5555", "", http.StatusNoContent},
		{"lan peer", "192.168.1.20:5555", "", http.StatusForbidden},
		{"spoofed header", "192.168.1.20:5555", "127.0.0.1", http.StatusForbidden},
		{"garbage", "not-an-addr", "", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}
