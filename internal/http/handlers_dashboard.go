package http

import (
	"context"
	"net/http"

	"presupuesto/internal/auth"
	"presupuesto/internal/core"
)

// handleDashboard renders the main page: summary plus per-group balances.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	if r.URL.Path != "/" {
		NotFoundError("Página no encontrada").Write(w)
		return
	}

	profile, err := s.budget.Profile(r.Context(), sess.UserID, sess.Email)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Profile load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando el perfil").Write(w)
		return
	}

	data := struct {
		Email        string
		FullName     string
		GeneralLimit string
	}{
		Email:        sess.Email,
		FullName:     profile.FullName,
		GeneralLimit: formatSoles(profile.GeneralLimit.Cents),
	}
	s.render(w, r, "dashboard.html", data)
}

// cachedBalances serves per-group balances through the per-user cache.
func (s *Server) cachedBalances(ctx context.Context, userID string) ([]core.GroupBalance, error) {
	if balances, found := s.balancesCache.Get(userID); found {
		s.logger.DebugContext(ctx, "Balances cache hit", "user_id", userID)
		return balances, nil
	}
	balances, err := s.budget.Balances(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.balancesCache.Set(userID, balances)
	return balances, nil
}

func (s *Server) cachedSummary(ctx context.Context, userID string) (core.Summary, error) {
	if summary, found := s.summaryCache.Get(userID); found {
		return summary, nil
	}
	summary, err := s.budget.Summary(ctx, userID)
	if err != nil {
		return core.Summary{}, err
	}
	s.summaryCache.Set(userID, summary)
	return summary, nil
}

func (s *Server) cachedTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	if txs, found := s.txCache.Get(userID); found {
		return txs, nil
	}
	txs, err := s.budget.ListTransactions(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.txCache.Set(userID, txs)
	return txs, nil
}

// handleBalancesPartial renders the per-group balance list.
func (s *Server) handleBalancesPartial(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	balances, err := s.cachedBalances(r.Context(), sess.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Balances load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando los saldos").Write(w)
		return
	}
	s.render(w, r, "balances.html", struct{ Groups []groupView }{Groups: toGroupViews(balances)})
}

// handleSummaryPartial renders the general summary bar.
func (s *Server) handleSummaryPartial(w http.ResponseWriter, r *http.Request, sess auth.Session) {
	summary, err := s.cachedSummary(r.Context(), sess.UserID)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Summary load failed", "error", err, "user_id", sess.UserID)
		InternalServerError("Error cargando el resumen").Write(w)
		return
	}
	data := struct {
		GeneralMax     string
		TotalAvailable string
		Negative       bool
	}{
		GeneralMax:     formatSoles(summary.GeneralMax.Cents),
		TotalAvailable: formatSoles(summary.TotalAvailable.Cents),
		Negative:       summary.TotalAvailable.Cents < 0,
	}
	s.render(w, r, "summary.html", data)
}
