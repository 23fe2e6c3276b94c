package gotrue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"presupuesto/internal/auth"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL)
}

func TestSignUp(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr error
	}{
		{"created", http.StatusOK, nil},
		{"email taken 422", http.StatusUnprocessableEntity, auth.ErrEmailTaken},
		{"email taken 409", http.StatusConflict, auth.ErrEmailTaken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/signup" {
					t.Errorf("path = %s, want /signup", r.URL.Path)
				}
				if r.Method != http.MethodPost {
					t.Errorf("method = %s, want POST", r.Method)
				}
				var body map[string]string
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("decode body: %v", err)
				}
				if body["email"] != "ana@example.com" {
					t.Errorf("email = %q", body["email"])
				}
				w.WriteHeader(tt.status)
			})

			err := c.SignUp(context.Background(), "ana@example.com", "secreta1")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("SignUp() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSignIn(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok-123"})
	})

	token, err := c.SignIn(context.Background(), "ana@example.com", "secreta1")
	if err != nil {
		t.Fatalf("SignIn() error = %v", err)
	}
	if token != "tok-123" {
		t.Errorf("token = %q, want tok-123", token)
	}
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnauthorized} {
		c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(status)
		})
		_, err := c.SignIn(context.Background(), "ana@example.com", "mala")
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			t.Errorf("status %d: error = %v, want ErrInvalidCredentials", status, err)
		}
	}
}

func TestSignIn_EmptyToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})
	if _, err := c.SignIn(context.Background(), "ana@example.com", "secreta1"); err == nil {
		t.Fatal("SignIn() expected error on empty access token")
	}
}

func TestUpdateUser(t *testing.T) {
	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/user" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok-123" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	err := c.UpdateUser(context.Background(), "tok-123", auth.UserUpdate{
		Email:    "nueva@example.com",
		FullName: "Ana Torres",
	})
	if err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if got["email"] != "nueva@example.com" {
		t.Errorf("email = %v", got["email"])
	}
	if _, ok := got["password"]; ok {
		t.Error("password should not be sent when empty")
	}
}

func TestUpdateUser_NoFieldsSkipsRequest(t *testing.T) {
	called := false
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		called = true
	})

	if err := c.UpdateUser(context.Background(), "tok-123", auth.UserUpdate{}); err != nil {
		t.Fatalf("UpdateUser() error = %v", err)
	}
	if called {
		t.Error("no request expected for an empty update")
	}
}

func TestUpdateUser_Unauthorized(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	err := c.UpdateUser(context.Background(), "caducado", auth.UserUpdate{Email: "x@example.com"})
	if !errors.Is(err, auth.ErrUnauthenticated) {
		t.Errorf("error = %v, want ErrUnauthenticated", err)
	}
}

func TestSignOut_ToleratesExpiredToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := c.SignOut(context.Background(), "caducado"); err != nil {
		t.Errorf("SignOut() error = %v, want nil", err)
	}
}
