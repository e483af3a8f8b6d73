// Package identity delegates authentication to an external membership
// service. The directory itself stores no accounts; it only verifies that
// a bearer token belongs to a member before accepting writes.
package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// ErrUnauthorized is returned for missing, malformed or rejected tokens.
var ErrUnauthorized = eris.New("identity: unauthorized")

// User is the authenticated member as reported by the identity service.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Provider verifies tokens. Swappable for a stub in tests.
type Provider interface {
	GetUser(ctx context.Context, token string) (*User, error)
}

// Option configures the HTTP provider.
type Option func(*httpProvider)

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(p *httpProvider) {
		p.http = hc
	}
}

type httpProvider struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewProvider creates an identity provider backed by the membership API.
func NewProvider(baseURL, apiKey string, opts ...Option) Provider {
	p := &httpProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

func (p *httpProvider) GetUser(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/me", nil)
	if err != nil {
		return nil, eris.Wrap(err, "identity: create request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if p.apiKey != "" {
		req.Header.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "identity: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, ErrUnauthorized
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(resp.Body)
		return nil, eris.Errorf("identity: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var u User
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, eris.Wrap(err, "identity: decode response")
	}
	return &u, nil
}

type ctxKey struct{}

// WithUser stores the authenticated user on a context.
func WithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

// FromContext returns the authenticated user, or nil.
func FromContext(ctx context.Context) *User {
	u, _ := ctx.Value(ctxKey{}).(*User)
	return u
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}
