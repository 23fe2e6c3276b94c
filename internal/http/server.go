package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"presupuesto/internal/auth"
	"presupuesto/internal/cache"
	"presupuesto/internal/core"
	"presupuesto/internal/log"
	"presupuesto/internal/middleware/ratelimit"
	"presupuesto/internal/middleware/security"
	"presupuesto/internal/middleware/trace"
	"presupuesto/internal/rates"
	"presupuesto/internal/services"
	appweb "presupuesto/web"
)

// Options carries the dependencies the server needs.
type Options struct {
	Addr       string
	Budget     *services.BudgetService
	Rates      *rates.Service
	Provider   auth.Provider
	Tokens     *auth.Tokens
	CookieName string
	Logger     *log.Logger
}

type Server struct {
	http.Server
	templates  *template.Template
	budget     *services.BudgetService
	rates      *rates.Service
	provider   auth.Provider
	tokens     *auth.Tokens
	cookieName string
	logger     *log.Logger

	// Per-user read views, invalidated after every mutation.
	balancesCache *cache.LRUCache[[]core.GroupBalance]
	summaryCache  *cache.LRUCache[core.Summary]
	txCache       *cache.LRUCache[[]core.Transaction]
	cacheManager  *cache.Manager

	limiter      *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run server.
func NewServer(opts Options) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              opts.Addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		budget:     opts.Budget,
		rates:      opts.Rates,
		provider:   opts.Provider,
		tokens:     opts.Tokens,
		cookieName: opts.CookieName,
		logger:     opts.Logger.WithComponent(log.ComponentHTTP),

		balancesCache: cache.NewLRUCache[[]core.GroupBalance](200, 5*time.Minute),
		summaryCache:  cache.NewLRUCache[core.Summary](200, 5*time.Minute),
		txCache:       cache.NewLRUCache[[]core.Transaction](200, 5*time.Minute),
		cacheManager:  cache.NewManager(),

		limiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	s.cacheManager.Register(s.balancesCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.txCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	// Auth surface, reachable without a session.
	mux.HandleFunc("/login", s.handleLogin)
	mux.HandleFunc("/signup", s.handleSignup)
	mux.HandleFunc("/magic-link", s.handleMagicLink)
	mux.HandleFunc("/logout", s.handleLogout)

	// Pages.
	mux.HandleFunc("/", s.requirePage(s.handleDashboard))
	mux.HandleFunc("/groups", s.requirePage(s.handleGroupsPage))
	mux.HandleFunc("/transactions", s.requirePage(s.handleTransactionsPage))
	mux.HandleFunc("/profile", s.requirePage(s.handleProfilePage))

	// Mutations and partials.
	mux.HandleFunc("/groups/create", s.requireSession(s.handleCreateGroup))
	mux.HandleFunc("/groups/{id}/update", s.requireSession(s.handleUpdateGroup))
	mux.HandleFunc("/groups/{id}/delete", s.requireSession(s.handleDeleteGroup))
	mux.HandleFunc("/transactions/create", s.requireSession(s.handleCreateTransaction))
	mux.HandleFunc("/transactions/{id}/update", s.requireSession(s.handleUpdateTransaction))
	mux.HandleFunc("/transactions/{id}/delete", s.requireSession(s.handleDeleteTransaction))
	mux.HandleFunc("/profile/update", s.requireSession(s.handleUpdateProfile))
	mux.HandleFunc("/ui/balances", s.requireSession(s.handleBalancesPartial))
	mux.HandleFunc("/ui/summary", s.requireSession(s.handleSummaryPartial))
	mux.HandleFunc("/ui/transactions", s.requireSession(s.handleTransactionsPartial))
	mux.HandleFunc("/ui/convert", s.requireSession(s.handleConvert))

	traceMW := trace.NewMiddleware(clientIP)
	headersMW := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limitMW := s.limiter.Middleware(clientIP)
	loggerMW := log.Middleware(s.logger)

	s.Handler = traceMW.Middleware(headersMW.Middleware(limitMW(loggerMW(mux))))

	return s
}

// Shutdown stops the background cleanup routines and the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// InvalidateUser drops every cached read view for the user. Called after
// mutations so the next read recomputes from current rows.
func (s *Server) InvalidateUser(userID string) {
	s.balancesCache.Delete(userID)
	s.summaryCache.Delete(userID)
	s.txCache.Delete(userID)
}

// session extracts and validates the session cookie, if any.
func (s *Server) session(r *http.Request) (auth.Session, string, error) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil {
		return auth.Session{}, "", auth.ErrUnauthenticated
	}
	sess, err := s.tokens.Parse(cookie.Value)
	if err != nil {
		return auth.Session{}, "", err
	}
	return sess, cookie.Value, nil
}

// requirePage redirects unauthenticated page requests to /login.
func (s *Server) requirePage(next func(http.ResponseWriter, *http.Request, auth.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _, err := s.session(r)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, sess)
	}
}

// requireSession rejects unauthenticated partial/mutation requests with
// 401 and an HX-Redirect so HTMX sends the browser to the login page.
func (s *Server) requireSession(next func(http.ResponseWriter, *http.Request, auth.Session)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, _, err := s.session(r)
		if err != nil {
			UnauthorizedError("Sesión expirada").
				Header("HX-Redirect", "/login").
				Write(w)
			return
		}
		next(w, r, sess)
	}
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int((24 * time.Hour).Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
