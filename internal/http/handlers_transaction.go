package http

import (
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"presupuesto/internal/auth"
	"presupuesto/internal/core"
	"presupuesto/internal/services"
)

// handleTransactionsPage renders the transaction list and entry form.
func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	groups, err := s.budget.ListGroups(r.Context(), sess.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Groups load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando los grupos").Write(w)
		return
	}

	txs, err := s.cachedTransactions(r.Context(), sess.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transactions load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando las transacciones").Write(w)
		return
	}

	type groupOption struct {
		ID   string
		Name string
	}
	options := make([]groupOption, 0, len(groups))
	for _, g := range groups {
		options = append(options, groupOption{ID: g.ID, Name: g.Name})
	}

	data := struct {
		Email        string
		Groups       []groupOption
		Transactions []transactionView
	}{
		Email:        sess.Email,
		Groups:       options,
		Transactions: toTransactionViews(txs),
	}
	s.render(w, r, "transactions.html", data)
}

// handleTransactionsPartial renders just the transaction list.
func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	txs, err := s.cachedTransactions(r.Context(), sess.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Transactions load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando las transacciones").Write(w)
		return
	}
	s.render(w, r, "transaction_list.html", struct{ Transactions []transactionView }{
		Transactions: toTransactionViews(txs),
	})
}

// parseTransactionInput builds a TransactionInput from form fields. The
// amount arrives as a decimal string and is stored as cents.
func parseTransactionInput(r *http.Request) (services.TransactionInput, *HTMXResponseBuilder) {
	amountStr := strings.TrimSpace(r.Form.Get("amount"))
	cents, err := core.ParseDecimalToCents(amountStr)
	if err != nil {
		return services.TransactionInput{}, UnprocessableEntityError("Monto no válido")
	}

	return services.TransactionInput{
		GroupID: formValue(r, "group_id"),
		Amount:  core.Money{Cents: cents},
		Type:    core.TransactionType(formValue(r, "type")),
		Concept: formValue(r, "concept"),
	}, nil
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	input, errResp := parseTransactionInput(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	_, err := s.budget.CreateTransaction(r.Context(), sess.UserID, input)
	if err != nil {
		s.writeTransactionError(w, r, err, "registrar")
		return
	}

	s.InvalidateUser(sess.UserID)
	NewHTMXResponse().
		TriggerTransactionChanged("created").
		TriggerBalancesRefresh().
		TriggerFormReset().
		BodyHTML(`<div class="success">Movimiento registrado: ` +
			template.HTMLEscapeString(input.Concept) + `, ` +
			template.HTMLEscapeString(formatSoles(input.Amount.Cents)) + `</div>`).
		Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if resp := RequireMethod(r, http.MethodPost, http.MethodPut); resp != nil {
		resp.Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	input, errResp := parseTransactionInput(r)
	if errResp != nil {
		errResp.Write(w)
		return
	}

	id := r.PathValue("id")
	if err := s.budget.UpdateTransaction(r.Context(), sess.UserID, id, input); err != nil {
		s.writeTransactionError(w, r, err, "actualizar")
		return
	}

	s.InvalidateUser(sess.UserID)
	NewHTMXResponse().
		TriggerTransactionChanged("updated").
		TriggerBalancesRefresh().
		BodyHTML(`<div class="success">Movimiento actualizado</div>`).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if resp := RequireDeleteOrPOST(r); resp != nil {
		resp.Write(w)
		return
	}

	id := r.PathValue("id")
	if err := s.budget.DeleteTransaction(r.Context(), sess.UserID, id); err != nil {
		s.writeTransactionError(w, r, err, "eliminar")
		return
	}

	s.InvalidateUser(sess.UserID)
	NewHTMXResponse().
		TriggerTransactionChanged("deleted").
		TriggerBalancesRefresh().
		BodyHTML(`<div class="success">Movimiento eliminado</div>`).
		Write(w)
}

// handleConvert converts an amount between PEN and USD using the cached
// exchange rate.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request, _ auth.Session) {
	amountStr := strings.TrimSpace(r.URL.Query().Get("amount"))
	from := core.Currency(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("from"))))
	to := core.Currency(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("to"))))

	amount, err := strconv.ParseFloat(strings.ReplaceAll(amountStr, ",", "."), 64)
	if err != nil || amount < 0 {
		UnprocessableEntityError("Monto no válido").Write(w)
		return
	}

	converted, err := s.rates.Convert(r.Context(), amount, from, to)
	if err != nil {
		UnprocessableEntityError("Moneda no soportada").Write(w)
		return
	}

	result := core.Money{Cents: core.CentsFromFloat(converted)}
	NewHTMXResponse().
		BodyHTML(`<span class="converted">` + template.HTMLEscapeString(result.Format(to)) + `</span>`).
		Write(w)
}

func (s *Server) writeTransactionError(w http.ResponseWriter, r *http.Request, err error, verb string) {
	if ve, ok := services.AsValidationError(err); ok {
		ValidationErrorResponse(ve.Fields).Write(w)
		return
	}
	if errors.Is(err, services.ErrNotFound) {
		NotFoundError("Movimiento no encontrado").Write(w)
		return
	}
	s.logger.ErrorContext(r.Context(), "Transaction mutation failed", "error", err)
	InternalServerError("No se pudo " + verb + " el movimiento").Write(w)
}
