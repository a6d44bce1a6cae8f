package server

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSAllowAll(t *testing.T) {
	h := CORSMiddlewareWithConfig(CORSConfig{}, ok)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin = %q, want *", got)
	}
	if w.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("credentials must not be allowed with wildcard origin")
	}
}

func TestCORSRestricted(t *testing.T) {
	h := CORSMiddlewareWithConfig(CORSConfig{AllowedOrigins: []string{"https://good.example"}}, ok)

	tests := []struct {
		name       string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
	}{
		{"allowed", http.MethodGet, "https://good.example", http.StatusOK, "https://good.example"},
		{"other origin passes without headers", http.MethodGet, "https://evil.example", http.StatusOK, ""},
		{"other origin preflight refused", http.MethodOptions, "https://evil.example", http.StatusForbidden, ""},
		{"allowed preflight", http.MethodOptions, "https://good.example", http.StatusNoContent, "https://good.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/normalize", nil)
			req.Header.Set("Origin", tt.origin)
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantOrigin)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SecurityHeaders(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	for _, h := range []string{"X-Content-Type-Options", "X-Frame-Options", "Referrer-Policy", "Content-Security-Policy"} {
		if w.Header().Get(h) == "" {
			t.Errorf("%s not set", h)
		}
	}
}

func TestAbsPath(t *testing.T) {
	if got := AbsPath("data"); !filepath.IsAbs(got) {
		t.Errorf("AbsPath(data) = %q, want absolute", got)
	}
}
