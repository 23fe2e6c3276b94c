// Utilities for parsing and validating request data shared by handlers.
package http

import (
	"net/http"
	"strconv"
	"strings"
)

// RequireMethod checks the request method against the allowed set and
// returns an error response builder on mismatch, nil otherwise.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}

// RequireDeleteOrPOST is a convenience function for DELETE/POST handlers.
// HTMX forms submit deletes as POST when hx-delete is not available.
func RequireDeleteOrPOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodDelete, http.MethodPost)
}

// ParseFormOrFail parses the request form, returning an error response on
// failure and nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato de solicitud no válido")
	}
	return nil
}

// formValue returns a sanitized, trimmed form field.
func formValue(r *http.Request, key string) string {
	return sanitizeInput(r.Form.Get(key))
}

// formFloat parses a float form field, 0 when absent or malformed.
func formFloat(r *http.Request, key string) float64 {
	v := strings.TrimSpace(r.Form.Get(key))
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return 0
	}
	return f
}

// formBool interprets checkbox-style form fields.
func formBool(r *http.Request, key string) bool {
	switch strings.ToLower(strings.TrimSpace(r.Form.Get(key))) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// sanitizeInput trims whitespace and strips control characters except
// tab, newline and carriage return.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
