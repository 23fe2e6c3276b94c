package http

import (
	"errors"
	"html/template"
	"net/http"

	"presupuesto/internal/auth"
	"presupuesto/internal/services"
)

// handleGroupsPage renders the group management page.
func (s *Server) handleGroupsPage(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	groups, err := s.budget.ListGroups(r.Context(), sess.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Groups load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando los grupos").Write(w)
		return
	}

	balances, err := s.cachedBalances(r.Context(), sess.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Balances load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando los saldos").Write(w)
		return
	}

	data := struct {
		Email      string
		GroupCount int
		Groups     []groupView
	}{
		Email:      sess.Email,
		GroupCount: len(groups),
		Groups:     toGroupViews(balances),
	}
	s.render(w, r, "groups.html", data)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	input := services.GroupInput{
		Name:       formValue(r, "name"),
		Percentage: formFloat(r, "percentage"),
		CanSpend:   formBool(r, "can_spend"),
	}

	_, err := s.budget.CreateGroup(r.Context(), sess.UserID, input)
	if err != nil {
		s.writeGroupError(w, r, err, "crear")
		return
	}

	s.InvalidateUser(sess.UserID)
	NewHTMXResponse().
		TriggerGroupChanged("created").
		TriggerBalancesRefresh().
		TriggerFormReset().
		BodyHTML(`<div class="success">Grupo creado: ` + template.HTMLEscapeString(input.Name) + `</div>`).
		Write(w)
}

func (s *Server) handleUpdateGroup(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if resp := RequireMethod(r, http.MethodPost, http.MethodPut); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	id := r.PathValue("id")
	input := services.GroupInput{
		Name:       formValue(r, "name"),
		Percentage: formFloat(r, "percentage"),
		CanSpend:   formBool(r, "can_spend"),
	}

	if err := s.budget.UpdateGroup(r.Context(), sess.UserID, id, input); err != nil {
		s.writeGroupError(w, r, err, "actualizar")
		return
	}

	s.InvalidateUser(sess.UserID)
	NewHTMXResponse().
		TriggerGroupChanged("updated").
		TriggerBalancesRefresh().
		BodyHTML(`<div class="success">Grupo actualizado</div>`).
		Write(w)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	id := r.PathValue("id")
	if err := s.budget.DeleteGroup(r.Context(), sess.UserID, id); err != nil {
		s.writeGroupError(w, r, err, "eliminar")
		return
	}

	s.InvalidateUser(sess.UserID)
	NewHTMXResponse().
		TriggerGroupChanged("deleted").
		TriggerBalancesRefresh().
		BodyHTML(`<div class="success">Grupo eliminado junto con sus transacciones</div>`).
		Write(w)
}

func (s *Server) writeGroupError(w http.ResponseWriter, r *http.Request, err error, verb string) {
	if ve, ok := services.AsValidationError(err); ok {
		ValidationErrorResponse(ve.Fields).Write(w)
		return
	}
	if errors.Is(err, services.ErrNotFound) {
		NotFoundError("Grupo no encontrado").Write(w)
		return
	}
	s.logger.ErrorContext(r.Context(), "Group mutation failed", "error", err)
	InternalServerError("No se pudo " + verb + " el grupo").Write(w)
}
