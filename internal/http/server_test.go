package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"presupuesto/internal/auth"
	authmemory "presupuesto/internal/auth/memory"
	"presupuesto/internal/log"
	"presupuesto/internal/rates"
	"presupuesto/internal/services"
	storememory "presupuesto/internal/store/memory"
)

type testEnv struct {
	srv    *Server
	repo   *storememory.Repository
	rates  *rates.Service
	tokens *auth.Tokens
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})

	repo := storememory.New()
	budget := services.NewBudgetService(repo, logger)

	tokens := auth.NewTokens("test-secret", time.Hour)
	provider := authmemory.New(tokens)

	rateSvc := rates.NewService("", rates.WithDefaultRate(3.75))

	srv := NewServer(Options{
		Addr:       ":0",
		Budget:     budget,
		Rates:      rateSvc,
		Provider:   provider,
		Tokens:     tokens,
		CookieName: "test_session",
		Logger:     logger,
	})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	// Seed an account every test can sign in with.
	if err := provider.SignUp(context.Background(), "ana@example.com", "secreta1"); err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}

	return &testEnv{srv: srv, repo: repo, rates: rateSvc, tokens: tokens}
}

// signIn performs a form login and returns the session cookie plus the
// authenticated user id.
func (e *testEnv) signIn(t *testing.T) (*http.Cookie, string) {
	t.Helper()

	form := url.Values{"email": {"ana@example.com"}, "password": {"secreta1"}}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	e.srv.Handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("HX-Redirect") != "/" {
		t.Fatalf("login HX-Redirect = %q, want %q", rr.Header().Get("HX-Redirect"), "/")
	}

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "test_session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("session cookie not set after login")
	}

	sess, err := e.tokens.Parse(cookie.Value)
	if err != nil {
		t.Fatalf("Parse(cookie) error = %v", err)
	}
	return cookie, sess.UserID
}

func (e *testEnv) do(method, target string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := env.do(http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestPagesRedirectWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/", "/groups", "/transactions", "/profile"} {
		rr := env.do(http.MethodGet, path, nil, nil)
		if rr.Code != http.StatusSeeOther {
			t.Errorf("%s status = %d, want %d", path, rr.Code, http.StatusSeeOther)
		}
		if loc := rr.Header().Get("Location"); loc != "/login" {
			t.Errorf("%s Location = %q, want /login", path, loc)
		}
	}
}

func TestPartialsRejectWithoutSession(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/groups/create", url.Values{"name": {"Comida"}}, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if rr.Header().Get("HX-Redirect") != "/login" {
		t.Errorf("HX-Redirect = %q, want /login", rr.Header().Get("HX-Redirect"))
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {"ana@example.com"}, "password": {"equivocada"}}
	rr := env.do(http.MethodPost, "/login", form, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Correo o contraseña incorrectos") {
		t.Errorf("body = %s", rr.Body.String())
	}
}

func TestSignupThenPagesRender(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {"luis@example.com"}, "password": {"secreta2"}}
	rr := env.do(http.MethodPost, "/signup", form, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("signup status = %d, body = %s", rr.Code, rr.Body.String())
	}

	cookie, _ := env.signIn(t)
	for _, path := range []string{"/", "/groups", "/transactions", "/profile"} {
		rr := env.do(http.MethodGet, path, nil, cookie)
		if rr.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, rr.Code)
		}
	}
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)

	form := url.Values{"email": {"ana@example.com"}, "password": {"secreta1"}}
	rr := env.do(http.MethodPost, "/signup", form, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
}

func TestGroupLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	cookie, userID := env.signIn(t)

	rr := env.do(http.MethodPost, "/groups/create",
		url.Values{"name": {"Comida"}, "percentage": {"25"}}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "group:created") {
		t.Errorf("HX-Trigger = %q, missing group:created", trigger)
	}

	groups, err := env.repo.ListGroups(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Comida" {
		t.Fatalf("groups = %+v, want one named Comida", groups)
	}
	id := groups[0].ID

	rr = env.do(http.MethodGet, "/ui/balances", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("balances status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Comida") {
		t.Errorf("balances body missing group name: %s", rr.Body.String())
	}

	rr = env.do(http.MethodPost, "/groups/"+id+"/update",
		url.Values{"name": {"Mercado"}, "percentage": {"30"}}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", rr.Code, rr.Body.String())
	}

	rr = env.do(http.MethodPost, "/groups/"+id+"/delete", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", rr.Code, rr.Body.String())
	}
	groups, _ = env.repo.ListGroups(context.Background(), userID)
	if len(groups) != 0 {
		t.Errorf("groups after delete = %+v, want none", groups)
	}
}

func TestGroupValidationOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.signIn(t)

	rr := env.do(http.MethodPost, "/groups/create",
		url.Values{"name": {""}, "percentage": {"150"}}, cookie)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, `data-field="name"`) {
		t.Errorf("body missing name error: %s", body)
	}
	if !strings.Contains(body, `data-field="percentage"`) {
		t.Errorf("body missing percentage error: %s", body)
	}
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	env := newTestEnv(t)
	cookie, userID := env.signIn(t)

	rr := env.do(http.MethodPost, "/transactions/create",
		url.Values{
			"type":    {"expense"},
			"amount":  {"45,90"},
			"concept": {"Mercado semanal"},
		}, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("create status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if trigger := rr.Header().Get("HX-Trigger"); !strings.Contains(trigger, "transaction:created") {
		t.Errorf("HX-Trigger = %q, missing transaction:created", trigger)
	}

	txs, err := env.repo.ListTransactions(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	if txs[0].Amount.Cents != 4590 {
		t.Errorf("amount = %d cents, want 4590", txs[0].Amount.Cents)
	}

	rr = env.do(http.MethodGet, "/ui/transactions", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Mercado semanal") {
		t.Errorf("list body missing concept: %s", rr.Body.String())
	}

	rr = env.do(http.MethodPost, "/transactions/"+txs[0].ID+"/delete", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", rr.Code, rr.Body.String())
	}
}

func TestTransactionRejectsBadAmount(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.signIn(t)

	rr := env.do(http.MethodPost, "/transactions/create",
		url.Values{"type": {"expense"}, "amount": {"abc"}, "concept": {"x"}}, cookie)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", rr.Code, rr.Body.String())
	}
}

func TestMutatingUnknownGroupReturns404(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.signIn(t)

	rr := env.do(http.MethodPost, "/groups/no-such-id/update",
		url.Values{"name": {"Viajes"}, "percentage": {"10"}}, cookie)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404, body = %s", rr.Code, rr.Body.String())
	}
}

func TestConvertEndpoint(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.signIn(t)
	env.rates.Set(4.0)

	rr := env.do(http.MethodGet, "/ui/convert?amount=100&from=PEN&to=USD", nil, cookie)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "$25.00") {
		t.Errorf("body = %s, want converted $25.00", rr.Body.String())
	}

	rr = env.do(http.MethodGet, "/ui/convert?amount=abc&from=PEN&to=USD", nil, cookie)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad amount status = %d, want 422", rr.Code)
	}
}

func TestLogoutClearsSession(t *testing.T) {
	env := newTestEnv(t)
	cookie, _ := env.signIn(t)

	rr := env.do(http.MethodPost, "/logout", nil, cookie)
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("logout status = %d, want 303", rr.Code)
	}

	var cleared bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == "test_session" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("session cookie not cleared on logout")
	}
}
