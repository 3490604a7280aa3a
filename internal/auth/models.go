package auth

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// OAuthState represents OAuth state for security during the flow
type OAuthState struct {
	State     string    `json:"state"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GenerateSecureState creates a cryptographically secure random state string
func GenerateSecureState() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// IsValid checks if the OAuth state is still valid at now
func (s *OAuthState) IsValid(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// profile is the subset of GET /me the dashboard needs
type profile struct {
	DisplayName       string `json:"displayName"`
	Mail              string `json:"mail"`
	UserPrincipalName string `json:"userPrincipalName"`
}

func (p profile) email() string {
	if p.Mail != "" {
		return p.Mail
	}
	return p.UserPrincipalName
}

// SessionStatus is returned by the validate-session endpoint
type SessionStatus struct {
	Valid        bool   `json:"valid"`
	RequiresAuth bool   `json:"requires_auth"`
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
}
