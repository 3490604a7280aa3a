package models

import (
	"context"
	"time"
)

// SessionTTL is how long an idle session lives
const SessionTTL = 24 * time.Hour

// Token represents a delegated Microsoft Graph access token
type Token struct {
	AccessToken string    `json:"access_token"`
	Scope       string    `json:"scope,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Valid reports whether the token is present and not expired at now
func (t *Token) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" {
		return false
	}
	return t.ExpiresAt.IsZero() || now.Before(t.ExpiresAt)
}

// OAuthConfig holds OAuth configuration for the delegated sign-in
type OAuthConfig struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURI  string   `json:"redirect_uri"`
	Scopes       []string `json:"scopes"`
	AuthURL      string   `json:"auth_url"`
	TokenURL     string   `json:"token_url"`
}

// UserSession represents a signed-in dashboard user
type UserSession struct {
	SessionID    string    `json:"session_id"`
	Token        *Token    `json:"-"`
	UserName     string    `json:"user_name"`
	UserEmail    string    `json:"user_email"` // mail, or userPrincipalName when mail is empty
	SignedInAt   time.Time `json:"signed_in_at"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// IsExpired checks if the session has been idle longer than SessionTTL
func (s *UserSession) IsExpired(now time.Time) bool {
	return now.Sub(s.LastAccessed) > SessionTTL
}

// Touch updates the last accessed timestamp
func (s *UserSession) Touch(now time.Time) {
	s.LastAccessed = now
}

// HasValidToken checks if the session carries a usable delegated token
func (s *UserSession) HasValidToken(now time.Time) bool {
	return s.Token.Valid(now) && s.UserEmail != ""
}

// DelegatedIdentity is the signed-in user a connector acts on behalf of
type DelegatedIdentity struct {
	AccessToken       string
	UserPrincipalName string
}

// Key identifies whose drive the identity reads; empty for app-only access
func (d *DelegatedIdentity) Key() string {
	if d == nil {
		return ""
	}
	return d.UserPrincipalName
}

type delegatedKey struct{}

// WithDelegated attaches the caller's signed-in identity to ctx
func WithDelegated(ctx context.Context, id *DelegatedIdentity) context.Context {
	return context.WithValue(ctx, delegatedKey{}, id)
}

// DelegatedFrom returns the identity attached to ctx, or nil for anonymous
// callers
func DelegatedFrom(ctx context.Context) *DelegatedIdentity {
	id, _ := ctx.Value(delegatedKey{}).(*DelegatedIdentity)
	return id
}
