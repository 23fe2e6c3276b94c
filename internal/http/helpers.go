package http

import (
	"net/http"

	"presupuesto/internal/core"
	"presupuesto/internal/log"
)

// render executes a template, falling back to a 500 when templates failed
// to load at startup.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	logger := log.FromContext(r.Context())
	if s.templates == nil {
		logger.ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		logger.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// formatSoles formats cents in the local currency.
func formatSoles(cents int64) string {
	return core.Money{Cents: cents}.Format(core.PEN)
}

// groupView is the template-facing shape of a group balance.
type groupView struct {
	ID         string
	Name       string
	Percentage string
	CanSpend   bool
	MaxAmount  string
	Available  string
	Overspent  bool
}

func toGroupViews(balances []core.GroupBalance) []groupView {
	views := make([]groupView, 0, len(balances))
	for _, b := range balances {
		views = append(views, groupView{
			ID:         b.ID,
			Name:       b.Name,
			Percentage: core.FormatPercentage(b.Percentage),
			CanSpend:   b.CanSpend,
			MaxAmount:  formatSoles(b.MaxAmount.Cents),
			Available:  formatSoles(b.Available.Cents),
			Overspent:  b.Available.Cents < 0,
		})
	}
	return views
}

// transactionView is the template-facing shape of a transaction.
type transactionView struct {
	ID        string
	GroupID   string
	Concept   string
	Amount    string
	Type      string
	IsIncome  bool
	CreatedAt string
}

func toTransactionViews(txs []core.Transaction) []transactionView {
	views := make([]transactionView, 0, len(txs))
	for _, tx := range txs {
		views = append(views, transactionView{
			ID:        tx.ID,
			GroupID:   tx.GroupID,
			Concept:   tx.Concept,
			Amount:    formatSoles(tx.Amount.Cents),
			Type:      string(tx.Type),
			IsIncome:  tx.Type == core.Income,
			CreatedAt: tx.CreatedAt.Format("02/01/2006 15:04"),
		})
	}
	return views
}
