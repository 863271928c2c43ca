package api

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// expirySkew is how long before the recorded expiry a token is already
// treated as stale, absorbing clock drift and request latency.
const expirySkew = 30 * time.Second

// RefreshFunc obtains a fresh bearer token.
type RefreshFunc func(ctx context.Context) (string, error)

// TokenProvider caches the API bearer token and refreshes it before
// expiry. Construct one explicitly and hand it to the API client; there
// is no package-level token state.
type TokenProvider struct {
	mu      sync.Mutex
	token   string
	expiry  time.Time
	refresh RefreshFunc
}

// NewTokenProvider seeds the provider with an initial token (may be
// empty) and an optional refresh callback.
func NewTokenProvider(initial string, refresh RefreshFunc) *TokenProvider {
	p := &TokenProvider{refresh: refresh}
	if initial != "" {
		p.store(initial)
	}
	return p
}

// Token returns the cached token, refreshing it first when it is
// missing or expires within the skew window.
func (p *TokenProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && (p.expiry.IsZero() || time.Until(p.expiry) > expirySkew) {
		return p.token, nil
	}
	if p.refresh == nil {
		if p.token != "" {
			// Expired but not refreshable: let the server reject it.
			return p.token, nil
		}
		return "", errors.New("no token available and no refresh configured")
	}

	token, err := p.refresh(ctx)
	if err != nil {
		return "", err
	}
	p.store(token)
	return p.token, nil
}

// Invalidate drops the cached token so the next call refreshes.
func (p *TokenProvider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.token = ""
	p.expiry = time.Time{}
}

// store records the token and, when it parses as a JWT, its expiry.
// The signature is not verified here; only the exp claim is read.
func (p *TokenProvider) store(token string) {
	p.token = token
	p.expiry = time.Time{}

	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err == nil && claims.ExpiresAt != nil {
		p.expiry = claims.ExpiresAt.Time
	}
}
