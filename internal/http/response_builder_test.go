package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	if w.Code != http.StatusOK {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "test" {
		t.Errorf("Body = %q, want %q", w.Body.String(), "test")
	}
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerGroupChanged("created").
		TriggerFormReset().
		TriggerBalancesRefresh().
		TriggerSuccessNotification("Grupo creado").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if trigger == "" {
		t.Fatal("HX-Trigger header not set")
	}

	// Verify trigger contains expected events
	expectedParts := []string{
		`"group:created"`,
		`"form:reset"`,
		`"balances:refresh"`,
		`"show-notification"`,
		`"type":"success"`,
		`"message":"Grupo creado"`,
	}
	for _, part := range expectedParts {
		if !strings.Contains(trigger, part) {
			t.Errorf("HX-Trigger missing %q: %s", part, trigger)
		}
	}
}

func TestHTMXResponseBuilder_TransactionTriggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerTransactionChanged("deleted").
		TriggerBalancesRefresh().
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	if !strings.Contains(trigger, `"transaction:deleted"`) {
		t.Errorf("Missing transaction:deleted trigger: %s", trigger)
	}
	if !strings.Contains(trigger, `"balances:refresh"`) {
		t.Errorf("Missing balances:refresh trigger: %s", trigger)
	}
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	if w.Header().Get("X-Custom") != "value" {
		t.Errorf("Custom header not set")
	}
	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("datos inválidos"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error">datos inválidos</div>`,
		},
		{
			name:       "not found",
			builder:    NotFoundError("Grupo no encontrado"),
			wantStatus: http.StatusNotFound,
			wantBody:   `<div class="error">Grupo no encontrado</div>`,
		},
		{
			name:       "unauthorized",
			builder:    UnauthorizedError("Sesión expirada"),
			wantStatus: http.StatusUnauthorized,
			wantBody:   `<div class="error">Sesión expirada</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("algo salió mal"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">algo salió mal</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Body.String() != tt.wantBody {
				t.Errorf("Body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()
	BadRequestError(`<script>alert("x")</script>`).Write(w)

	if strings.Contains(w.Body.String(), "<script>") {
		t.Errorf("Body not escaped: %s", w.Body.String())
	}
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowedError("POST, PUT").Write(w)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusMethodNotAllowed)
	}
	if got := w.Header().Get("Allow"); got != "POST, PUT" {
		t.Errorf("Allow = %q, want %q", got, "POST, PUT")
	}
}

func TestValidationErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()
	ValidationErrorResponse(map[string]string{
		"name": "el nombre es obligatorio",
	}).Write(w)

	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-field="name"`) {
		t.Errorf("Body missing field marker: %s", body)
	}
	if !strings.Contains(body, "el nombre es obligatorio") {
		t.Errorf("Body missing message: %s", body)
	}
}
