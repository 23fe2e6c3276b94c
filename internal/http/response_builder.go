// Package http provides the web server: session handling, HTMX handlers
// and the cached read views they serve.
//
// This file implements a fluent builder for HTMX responses: HX-Trigger
// headers plus consistent HTML bodies.
package http

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
)

// HTMXResponseBuilder accumulates triggers, headers and a body, then
// writes them in one shot.
type HTMXResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       strings.Builder
	headers    http.Header
}

// NewHTMXResponse creates a response builder with default 200 status.
func NewHTMXResponse() *HTMXResponseBuilder {
	return &HTMXResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(http.Header),
	}
}

// Status sets the HTTP status code for the response.
func (b *HTMXResponseBuilder) Status(code int) *HTMXResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *HTMXResponseBuilder) Trigger(name string, data any) *HTMXResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerGroupChanged signals that a group was created, updated or
// deleted so group lists and balances re-render.
func (b *HTMXResponseBuilder) TriggerGroupChanged(action string) *HTMXResponseBuilder {
	return b.Trigger("group:"+action, struct{}{})
}

// TriggerTransactionChanged signals a transaction mutation.
func (b *HTMXResponseBuilder) TriggerTransactionChanged(action string) *HTMXResponseBuilder {
	return b.Trigger("transaction:"+action, struct{}{})
}

// TriggerBalancesRefresh tells the dashboard to re-fetch derived balances.
func (b *HTMXResponseBuilder) TriggerBalancesRefresh() *HTMXResponseBuilder {
	return b.Trigger("balances:refresh", struct{}{})
}

// TriggerFormReset adds the form:reset trigger.
func (b *HTMXResponseBuilder) TriggerFormReset() *HTMXResponseBuilder {
	return b.Trigger("form:reset", struct{}{})
}

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
)

// TriggerNotification adds a show-notification trigger.
func (b *HTMXResponseBuilder) TriggerNotification(notifType NotificationType, message string, durationMs int) *HTMXResponseBuilder {
	return b.Trigger("show-notification", map[string]any{
		"type":     string(notifType),
		"message":  message,
		"duration": durationMs,
	})
}

// TriggerSuccessNotification is a convenience method for success notifications.
func (b *HTMXResponseBuilder) TriggerSuccessNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationSuccess, message, 3000)
}

// TriggerErrorNotification is a convenience method for error notifications.
func (b *HTMXResponseBuilder) TriggerErrorNotification(message string) *HTMXResponseBuilder {
	return b.TriggerNotification(NotificationError, message, 5000)
}

// Header adds a custom header to the response.
func (b *HTMXResponseBuilder) Header(name, value string) *HTMXResponseBuilder {
	b.headers.Set(name, value)
	return b
}

// BodyString sets the response body as a string.
func (b *HTMXResponseBuilder) BodyString(content string) *HTMXResponseBuilder {
	b.body.Reset()
	b.body.WriteString(content)
	return b
}

// BodyHTML sets the response body as HTML content.
func (b *HTMXResponseBuilder) BodyHTML(html string) *HTMXResponseBuilder {
	b.headers.Set("Content-Type", "text/html; charset=utf-8")
	return b.BodyString(html)
}

// Write sends the built response to the http.ResponseWriter.
func (b *HTMXResponseBuilder) Write(w http.ResponseWriter) {
	dst := w.Header()
	for name, values := range b.headers {
		for _, v := range values {
			dst.Set(name, v)
		}
	}

	if len(b.triggers) > 0 {
		if encoded, err := json.Marshal(b.triggers); err == nil {
			dst.Set("HX-Trigger", string(encoded))
		}
	}

	w.WriteHeader(b.statusCode)
	if b.body.Len() > 0 {
		_, _ = w.Write([]byte(b.body.String()))
	}
}

// ErrorResponse creates a standard error response. The message is
// HTML-escaped.
func ErrorResponse(statusCode int, message string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(statusCode).
		BodyHTML(`<div class="error">` + template.HTMLEscapeString(message) + `</div>`)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// UnprocessableEntityError creates a 422 Unprocessable Entity error response.
func UnprocessableEntityError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// UnauthorizedError creates a 401 response.
func UnauthorizedError(message string) *HTMXResponseBuilder {
	return ErrorResponse(http.StatusUnauthorized, message)
}

// MethodNotAllowedError creates a 405 Method Not Allowed error response.
func MethodNotAllowedError(allowedMethods string) *HTMXResponseBuilder {
	return NewHTMXResponse().
		Status(http.StatusMethodNotAllowed).
		Header("Allow", allowedMethods)
}

// ValidationErrorResponse renders a field error map as a 422 list.
func ValidationErrorResponse(fields map[string]string) *HTMXResponseBuilder {
	var html strings.Builder
	html.WriteString(`<div class="error"><ul>`)
	for field, msg := range fields {
		html.WriteString(`<li data-field="`)
		html.WriteString(template.HTMLEscapeString(field))
		html.WriteString(`">`)
		html.WriteString(template.HTMLEscapeString(msg))
		html.WriteString(`</li>`)
	}
	html.WriteString(`</ul></div>`)
	return NewHTMXResponse().
		Status(http.StatusUnprocessableEntity).
		BodyHTML(html.String())
}
