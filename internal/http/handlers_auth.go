package http

import (
	"errors"
	"html/template"
	"net/http"

	"presupuesto/internal/auth"
	"presupuesto/internal/core"
)

// handleLogin renders the login page on GET and signs the user in on POST.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if _, _, err := s.session(r); err == nil {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		s.render(w, r, "login.html", nil)

	case http.MethodPost:
		if resp := ParseFormOrFail(r); resp != nil {
			resp.Write(w)
			return
		}
		email := formValue(r, "email")
		password := r.Form.Get("password")

		if errs := core.ValidateCredentials(email, password); errs.HasErrors() {
			ValidationErrorResponse(errs).Write(w)
			return
		}

		token, err := s.provider.SignIn(r.Context(), email, password)
		if err != nil {
			if errors.Is(err, auth.ErrInvalidCredentials) {
				UnauthorizedError("Correo o contraseña incorrectos").Write(w)
				return
			}
			s.logger.ErrorContext(r.Context(), "Sign-in failed", "error", err)
			InternalServerError("Error al iniciar sesión").Write(w)
			return
		}

		s.setSessionCookie(w, token)
		NewHTMXResponse().Header("HX-Redirect", "/").Write(w)

	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

// handleSignup registers a new account and signs it in.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		s.render(w, r, "signup.html", nil)
		return
	}
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	email := formValue(r, "email")
	password := r.Form.Get("password")

	if errs := core.ValidateCredentials(email, password); errs.HasErrors() {
		ValidationErrorResponse(errs).Write(w)
		return
	}

	if err := s.provider.SignUp(r.Context(), email, password); err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			UnprocessableEntityError("Este correo ya está registrado").Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Sign-up failed", "error", err)
		InternalServerError("Error al crear la cuenta").Write(w)
		return
	}

	// Providers that require email confirmation reject this sign-in; the
	// user lands on the login page after confirming.
	token, err := s.provider.SignIn(r.Context(), email, password)
	if err != nil {
		NewHTMXResponse().
			BodyHTML(`<div class="success">Cuenta creada. Revisa tu correo para confirmarla.</div>`).
			Write(w)
		return
	}

	s.setSessionCookie(w, token)
	NewHTMXResponse().Header("HX-Redirect", "/").Write(w)
}

// handleMagicLink requests a one-time sign-in link.
func (s *Server) handleMagicLink(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	email := formValue(r, "email")
	if errs := core.ValidateCredentials(email, "placeholder"); errs["email"] != "" {
		ValidationErrorResponse(core.FieldErrors{"email": errs["email"]}).Write(w)
		return
	}

	if err := s.provider.MagicLink(r.Context(), email); err != nil {
		s.logger.ErrorContext(r.Context(), "Magic link request failed", "error", err)
		InternalServerError("No se pudo enviar el enlace").Write(w)
		return
	}

	NewHTMXResponse().
		BodyHTML(`<div class="success">Enlace enviado a ` + template.HTMLEscapeString(email) + `</div>`).
		Write(w)
}

// handleLogout revokes the session and clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}

	if _, token, err := s.session(r); err == nil {
		if err := s.provider.SignOut(r.Context(), token); err != nil {
			s.logger.WarnContext(r.Context(), "Sign-out failed", "error", err)
		}
	}

	s.clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
