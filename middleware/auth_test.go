package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAPIKeyAuth(t *testing.T) {
	auth := NewAPIKeyAuth([]string{"test-key-123"}, true)
	handler := auth.Middleware(createTestHandler())

	send := func(authorization string, path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	tests := []struct {
		name          string
		authorization string
		path          string
		wantCode      int
	}{
		{"valid key", "Bearer test-key-123", "/v1/models", http.StatusOK},
		{"missing header", "", "/v1/models", http.StatusUnauthorized},
		{"wrong scheme", "Basic test-key-123", "/v1/models", http.StatusUnauthorized},
		{"invalid key", "Bearer wrong-key", "/v1/models", http.StatusUnauthorized},
		{"health whitelisted", "", "/health", http.StatusOK},
		{"metrics whitelisted", "", "/metrics", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := send(tt.authorization, tt.path); code != tt.wantCode {
				t.Errorf("got %d, want %d", code, tt.wantCode)
			}
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	auth := NewAPIKeyAuth(nil, false)
	handler := auth.Middleware(createTestHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("got %d, want 200 when auth disabled", w.Code)
	}
}

func TestMaskAPIKey(t *testing.T) {
	if got := maskAPIKey("sk-1234567890abcdef"); got != "sk-12345****" {
		t.Errorf("maskAPIKey = %q", got)
	}
	if got := maskAPIKey("short"); got != "****" {
		t.Errorf("maskAPIKey short = %q, must not leak short keys", got)
	}
}
