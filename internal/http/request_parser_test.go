package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestRequireMethod(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		allowed []string
		wantNil bool
	}{
		{"allowed single", http.MethodPost, []string{http.MethodPost}, true},
		{"allowed one of two", http.MethodDelete, []string{http.MethodDelete, http.MethodPost}, true},
		{"rejected", http.MethodGet, []string{http.MethodPost}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(tt.method, "/test", nil)
			got := RequireMethod(r, tt.allowed...)
			if (got == nil) != tt.wantNil {
				t.Errorf("RequireMethod() nil = %v, want %v", got == nil, tt.wantNil)
			}
			if got != nil {
				w := httptest.NewRecorder()
				got.Write(w)
				if w.Code != http.StatusMethodNotAllowed {
					t.Errorf("Status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
				}
				if w.Header().Get("Allow") == "" {
					t.Error("Allow header not set")
				}
			}
		})
	}
}

func TestFormFloat(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  float64
	}{
		{"plain decimal", "12.50", 12.50},
		{"comma decimal", "12,50", 12.50},
		{"integer", "300", 300},
		{"whitespace", "  7.5  ", 7.5},
		{"empty", "", 0},
		{"garbage", "abc", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			if tt.value != "" {
				form.Set("amount", tt.value)
			}
			r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if err := r.ParseForm(); err != nil {
				t.Fatalf("ParseForm() error = %v", err)
			}

			if got := formFloat(r, "amount"); got != tt.want {
				t.Errorf("formFloat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"on", true},
		{"true", true},
		{"1", true},
		{"yes", true},
		{"YES", true},
		{"off", false},
		{"false", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run("value_"+tt.value, func(t *testing.T) {
			form := url.Values{"flag": {tt.value}}
			r := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(form.Encode()))
			r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if err := r.ParseForm(); err != nil {
				t.Fatalf("ParseForm() error = %v", err)
			}

			if got := formBool(r, "flag"); got != tt.want {
				t.Errorf("formBool(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  hola  ", "hola"},
		{"strips control chars", "a\x00b\x01c", "abc"},
		{"keeps newlines and tabs", "a\tb\nc", "a\tb\nc"},
		{"plain text unchanged", "Comida semanal", "Comida semanal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
