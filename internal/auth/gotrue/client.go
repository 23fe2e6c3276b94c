// Package gotrue implements the auth provider port against a
// GoTrue-compatible HTTP identity service (the kind Supabase hosts).
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"presupuesto/internal/auth"
)

// Client is a thin pass-through to the identity service. No retries; every
// failure is wrapped with the operation that produced it.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewWithHTTPClient creates a client using a caller-supplied http.Client.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	c := New(baseURL)
	c.client = hc
	return c
}

func (c *Client) SignUp(ctx context.Context, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.post(ctx, "/signup", "", body)
	if err != nil {
		return fmt.Errorf("sign up: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnprocessableEntity, http.StatusConflict:
		return auth.ErrEmailTaken
	default:
		return fmt.Errorf("sign up: %s", readError(resp))
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.post(ctx, "/token?grant_type=password", "", body)
	if err != nil {
		return "", fmt.Errorf("sign in: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return "", auth.ErrInvalidCredentials
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sign in: %s", readError(resp))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("sign in: decode response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("sign in: empty access token in response")
	}
	return payload.AccessToken, nil
}

func (c *Client) MagicLink(ctx context.Context, email string) error {
	resp, err := c.post(ctx, "/magiclink", "", map[string]string{"email": email})
	if err != nil {
		return fmt.Errorf("magic link: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("magic link: %s", readError(resp))
	}
	return nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.post(ctx, "/logout", accessToken, nil)
	if err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	defer resp.Body.Close()

	// GoTrue answers 204; an already-expired token is not worth surfacing.
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("sign out: %s", readError(resp))
	}
	return nil
}

func (c *Client) UpdateUser(ctx context.Context, accessToken string, upd auth.UserUpdate) error {
	body := map[string]any{}
	if upd.Email != "" {
		body["email"] = upd.Email
	}
	if upd.Password != "" {
		body["password"] = upd.Password
	}
	if upd.FullName != "" {
		body["data"] = map[string]string{"full_name": upd.FullName}
	}
	if len(body) == 0 {
		return nil
	}

	resp, err := c.do(ctx, http.MethodPut, "/user", accessToken, body)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return auth.ErrUnauthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("update user: %s", readError(resp))
	}
	return nil
}

func (c *Client) post(ctx context.Context, path, token string, body any) (*http.Response, error) {
	return c.do(ctx, http.MethodPost, path, token, body)
}

func (c *Client) do(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call identity service: %w", err)
	}
	return resp, nil
}

// readError extracts a short error description from a failed response
// without trusting the backend text enough to show it to users.
func readError(resp *http.Response) string {
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
	}()

	var payload struct {
		Message     string `json:"msg"`
		Description string `json:"error_description"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&payload); err == nil {
		if payload.Message != "" {
			return fmt.Sprintf("status %d: %s", resp.StatusCode, payload.Message)
		}
		if payload.Description != "" {
			return fmt.Sprintf("status %d: %s", resp.StatusCode, payload.Description)
		}
	}
	slog.Debug("Identity service returned unparseable error body", "status", resp.StatusCode)
	return fmt.Sprintf("status %d", resp.StatusCode)
}
