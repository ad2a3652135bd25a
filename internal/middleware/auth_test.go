package middleware_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/minsu-kang/taskhub-api/internal/middleware"
)

type stubVerifier struct {
	userID string
	err    error
}

func (s stubVerifier) Verify(token string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.userID, nil
}

func echoUserID() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, middleware.GetUserID(r))
	})
}

func TestAuth_Bearer(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		verifier   stubVerifier
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			header:     "Bearer good-token",
			verifier:   stubVerifier{userID: "user-1"},
			wantStatus: http.StatusOK,
			wantBody:   "user-1",
		},
		{
			name:       "missing header",
			header:     "",
			verifier:   stubVerifier{userID: "user-1"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong scheme",
			header:     "Basic dXNlcjpwYXNz",
			verifier:   stubVerifier{userID: "user-1"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "rejected token",
			header:     "Bearer bad-token",
			verifier:   stubVerifier{err: fmt.Errorf("expired")},
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := middleware.NewAuth(middleware.AuthConfig{Verifier: tt.verifier})
			if err != nil {
				t.Fatalf("NewAuth: %v", err)
			}

			req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			auth.Middleware(echoUserID()).ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				var body struct {
					Error struct {
						Code string `json:"code"`
					} `json:"error"`
				}
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("decode error body: %v", err)
				}
				if body.Error.Code != "UNAUTHORIZED" {
					t.Errorf("error code = %q", body.Error.Code)
				}
			}
		})
	}
}

func TestAuth_PublicPaths(t *testing.T) {
	auth, err := middleware.NewAuth(middleware.AuthConfig{Verifier: stubVerifier{err: fmt.Errorf("never called")}})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}

	for _, p := range []string{"/health", "/api/v1/auth/register", "/api/v1/auth/login"} {
		req := httptest.NewRequest(http.MethodPost, p, nil)
		w := httptest.NewRecorder()

		auth.Middleware(echoUserID()).ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("path %s: status = %d, want 200 without credentials", p, w.Code)
		}
	}

	// /me is protected even though it lives under /auth
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	w := httptest.NewRecorder()
	auth.Middleware(echoUserID()).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("/api/v1/auth/me: status = %d, want 401", w.Code)
	}
}

func TestAuth_DevMode(t *testing.T) {
	auth, err := middleware.NewAuth(middleware.AuthConfig{DevMode: true})
	if err != nil {
		t.Fatalf("NewAuth: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	req.Header.Set("X-User-ID", "dev-user")
	w := httptest.NewRecorder()
	auth.Middleware(echoUserID()).ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "dev-user" {
		t.Errorf("dev mode: status=%d body=%q", w.Code, w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/tasks", nil)
	w = httptest.NewRecorder()
	auth.Middleware(echoUserID()).ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("dev mode without header: status = %d, want 401", w.Code)
	}
}

func TestNewAuth_RequiresVerifier(t *testing.T) {
	if _, err := middleware.NewAuth(middleware.AuthConfig{}); err == nil {
		t.Error("expected error when Verifier is nil outside dev mode")
	}
}
