package http

import (
	"net/http"
	"strings"

	"presupuesto/internal/auth"
	"presupuesto/internal/core"
	"presupuesto/internal/services"
)

// handleProfilePage renders the profile settings page.
func (s *Server) handleProfilePage(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	profile, err := s.budget.Profile(r.Context(), sess.UserID, sess.Email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Profile load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando el perfil").Write(w)
		return
	}

	events, err := s.budget.AuditTrail(r.Context(), sess.UserID, 20)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Audit trail load failed", "error", err, "user_id", sess.UserID)
	}

	type auditView struct {
		Entity     string
		Action     string
		OccurredAt string
	}
	history := make([]auditView, 0, len(events))
	for _, ev := range events {
		history = append(history, auditView{
			Entity:     ev.Entity,
			Action:     ev.Action,
			OccurredAt: ev.OccurredAt.Format("02/01/2006 15:04"),
		})
	}

	data := struct {
		Email        string
		FullName     string
		GeneralLimit string
		History      []auditView
	}{
		Email:        sess.Email,
		FullName:     profile.FullName,
		GeneralLimit: profile.GeneralLimit.Format(core.PEN),
		History:      history,
	}
	s.render(w, r, "profile.html", data)
}

// handleUpdateProfile applies name, general limit and credential changes.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	limitStr := strings.TrimSpace(r.Form.Get("general_limit"))
	limitCents, err := core.ParseDecimalToCents(limitStr)
	if err != nil {
		ValidationErrorResponse(core.FieldErrors{"general_limit": "límite no válido"}).Write(w)
		return
	}

	input := services.ProfileInput{
		FullName:          formValue(r, "full_name"),
		Email:             formValue(r, "email"),
		GeneralLimitCents: limitCents,
	}

	if err := s.budget.UpdateProfile(r.Context(), sess.UserID, input); err != nil {
		if ve, ok := services.AsValidationError(err); ok {
			ValidationErrorResponse(ve.Fields).Write(w)
			return
		}
		s.logger.ErrorContext(r.Context(), "Profile update failed", "error", err, "user_id", sess.UserID)
		InternalServerError("No se pudo actualizar el perfil").Write(w)
		return
	}

	// Propagate credential changes to the identity provider when present.
	newPassword := r.Form.Get("password")
	if newPassword != "" || input.Email != sess.Email {
		if _, token, err := s.session(r); err == nil {
			upd := auth.UserUpdate{FullName: input.FullName, Password: newPassword}
			if input.Email != sess.Email {
				upd.Email = input.Email
			}
			if err := s.provider.UpdateUser(r.Context(), token, upd); err != nil {
				s.logger.WarnContext(r.Context(), "Provider user update failed", "error", err, "user_id", sess.UserID)
			}
		}
	}

	s.InvalidateUser(sess.UserID)
	NewHTMXResponse().
		TriggerBalancesRefresh().
		TriggerSuccessNotification("Perfil actualizado").
		BodyHTML(`<div class="success">Perfil actualizado</div>`).
		Write(w)
}
