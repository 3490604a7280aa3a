package auth

import "ctox-dashboard/pkg/models"

// Provider defines the authorization endpoints of the identity platform
type Provider interface {
	GetOAuthConfig() *models.OAuthConfig
	BuildAuthURL(state string) (string, error)
}
