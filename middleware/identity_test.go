package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"n8n2api/types"
)

func TestIdentityMiddleware(t *testing.T) {
	var captured types.CallerIdentity
	var hadIdentity bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, hadIdentity = IdentityFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	mw := NewIdentity().Middleware(next)

	t.Run("verified headers populate context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/models", nil)
		req.Header.Set("X-User-Id", "u42")
		req.Header.Set("X-User-Name", "Ada")
		req.Header.Set("X-User-Email", "ada@example.com")
		req.Header.Set("X-User-Role", "admin")
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", w.Code)
		}
		if !hadIdentity {
			t.Fatal("identity missing from context")
		}
		want := types.CallerIdentity{ID: "u42", Name: "Ada", Email: "ada@example.com", Role: "admin"}
		if captured != want {
			t.Errorf("identity = %+v, want %+v", captured, want)
		}
	})

	t.Run("missing user id rejected before router", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("health exempt", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		mw.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", w.Code)
		}
	})
}
