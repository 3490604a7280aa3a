package auth

import "errors"

var (
	ErrInvalidState       = errors.New("invalid state")
	ErrStateExpired       = errors.New("state expired")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrOAuthIncomplete    = errors.New("OAuth configuration incomplete: client id and secret are required")
	ErrTokenExchange      = errors.New("token exchange failed")
	ErrProfileUnavailable = errors.New("failed to read the signed-in user's profile")
)
