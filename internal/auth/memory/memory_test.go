package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"presupuesto/internal/auth"
)

func newProvider() (*Provider, *auth.Tokens) {
	tokens := auth.NewTokens("test-secret", time.Hour)
	return New(tokens), tokens
}

func TestSignUpAndSignIn(t *testing.T) {
	p, tokens := newProvider()
	ctx := context.Background()

	if err := p.SignUp(ctx, "ana@example.com", "secret1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	token, err := p.SignIn(ctx, "ana@example.com", "secret1")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	session, err := tokens.Parse(token)
	if err != nil {
		t.Fatalf("Parse issued token: %v", err)
	}
	if session.Email != "ana@example.com" || session.UserID == "" {
		t.Fatalf("unexpected session %+v", session)
	}

	// Email lookup is case-insensitive.
	if _, err := p.SignIn(ctx, "ANA@example.com", "secret1"); err != nil {
		t.Fatalf("case-insensitive SignIn: %v", err)
	}
}

func TestSignInRejectsBadCredentials(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()
	_ = p.SignUp(ctx, "ana@example.com", "secret1")

	if _, err := p.SignIn(ctx, "ana@example.com", "wrong"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := p.SignIn(ctx, "nobody@example.com", "secret1"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
}

func TestSignUpRejectsDuplicate(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()
	_ = p.SignUp(ctx, "ana@example.com", "secret1")

	if err := p.SignUp(ctx, "Ana@Example.com", "other12"); !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("duplicate sign up: got %v, want ErrEmailTaken", err)
	}
}

func TestUpdateUser(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()
	_ = p.SignUp(ctx, "ana@example.com", "secret1")
	token, _ := p.SignIn(ctx, "ana@example.com", "secret1")

	err := p.UpdateUser(ctx, token, auth.UserUpdate{
		Email:    "ana.quispe@example.com",
		Password: "newpass1",
		FullName: "Ana Quispe",
	})
	if err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}

	if _, err := p.SignIn(ctx, "ana@example.com", "newpass1"); err == nil {
		t.Fatal("old email should no longer sign in")
	}
	if _, err := p.SignIn(ctx, "ana.quispe@example.com", "newpass1"); err != nil {
		t.Fatalf("SignIn after update: %v", err)
	}

	if err := p.UpdateUser(ctx, "garbage-token", auth.UserUpdate{FullName: "X"}); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("bad token: got %v, want ErrUnauthenticated", err)
	}
}

func TestTokenParseRejectsTampering(t *testing.T) {
	p, _ := newProvider()
	ctx := context.Background()
	_ = p.SignUp(ctx, "ana@example.com", "secret1")
	token, _ := p.SignIn(ctx, "ana@example.com", "secret1")

	other := auth.NewTokens("different-secret", time.Hour)
	if _, err := other.Parse(token); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("wrong secret: got %v, want ErrUnauthenticated", err)
	}

	expired := auth.NewTokens("test-secret", -time.Hour)
	tok, err := expired.Issue("uid", "x@example.com")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := auth.NewTokens("test-secret", time.Hour).Parse(tok); !errors.Is(err, auth.ErrUnauthenticated) {
		t.Fatalf("expired token: got %v, want ErrUnauthenticated", err)
	}
}
