// Package memory implements the auth provider port in process, for local
// development and tests. Passwords are bcrypt-hashed; tokens are issued
// with the same codec the HTTP session middleware verifies.
package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"presupuesto/internal/auth"
)

type account struct {
	id           string
	email        string
	passwordHash []byte
	fullName     string
}

type Provider struct {
	tokens *auth.Tokens

	mu       sync.Mutex
	accounts map[string]*account // keyed by lowercased email
	byID     map[string]*account
}

func New(tokens *auth.Tokens) *Provider {
	return &Provider{
		tokens:   tokens,
		accounts: make(map[string]*account),
		byID:     make(map[string]*account),
	}
}

func (p *Provider) SignUp(_ context.Context, email, password string) error {
	key := strings.ToLower(strings.TrimSpace(email))

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.accounts[key]; exists {
		return auth.ErrEmailTaken
	}
	acct := &account{
		id:           uuid.NewString(),
		email:        strings.TrimSpace(email),
		passwordHash: hash,
	}
	p.accounts[key] = acct
	p.byID[acct.id] = acct
	return nil
}

func (p *Provider) SignIn(_ context.Context, email, password string) (string, error) {
	key := strings.ToLower(strings.TrimSpace(email))

	p.mu.Lock()
	acct, exists := p.accounts[key]
	p.mu.Unlock()

	if !exists {
		return "", auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(password)); err != nil {
		return "", auth.ErrInvalidCredentials
	}
	return p.tokens.Issue(acct.id, acct.email)
}

// MagicLink is accepted but delivers nothing; there is no mail transport
// in process. Unknown addresses are not revealed.
func (p *Provider) MagicLink(_ context.Context, email string) error {
	return nil
}

func (p *Provider) SignOut(_ context.Context, _ string) error {
	// Stateless tokens; nothing to revoke in process.
	return nil
}

func (p *Provider) UpdateUser(_ context.Context, accessToken string, upd auth.UserUpdate) error {
	session, err := p.tokens.Parse(accessToken)
	if err != nil {
		return auth.ErrUnauthenticated
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	acct, exists := p.byID[session.UserID]
	if !exists {
		return auth.ErrUnauthenticated
	}

	if upd.Email != "" && !strings.EqualFold(upd.Email, acct.email) {
		newKey := strings.ToLower(strings.TrimSpace(upd.Email))
		if _, taken := p.accounts[newKey]; taken {
			return auth.ErrEmailTaken
		}
		delete(p.accounts, strings.ToLower(acct.email))
		acct.email = strings.TrimSpace(upd.Email)
		p.accounts[newKey] = acct
	}
	if upd.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(upd.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		acct.passwordHash = hash
	}
	if upd.FullName != "" {
		acct.fullName = upd.FullName
	}
	return nil
}
