package auth

import (
	"net/url"
	"strings"

	"ctox-dashboard/pkg/models"
)

// MicrosoftProvider is the Microsoft identity platform authorization-code flow
type MicrosoftProvider struct {
	config *models.OAuthConfig
}

// NewMicrosoftProvider wraps the tenant's OAuth settings
func NewMicrosoftProvider(config *models.OAuthConfig) *MicrosoftProvider {
	return &MicrosoftProvider{config: config}
}

// GetOAuthConfig returns the OAuth configuration
func (p *MicrosoftProvider) GetOAuthConfig() *models.OAuthConfig {
	return p.config
}

// BuildAuthURL constructs the authorization URL the browser is sent to
func (p *MicrosoftProvider) BuildAuthURL(state string) (string, error) {
	if p.config.ClientID == "" {
		return "", ErrOAuthIncomplete
	}

	params := url.Values{}
	params.Add("client_id", p.config.ClientID)
	params.Add("redirect_uri", p.config.RedirectURI)
	params.Add("response_type", "code")
	params.Add("scope", strings.Join(p.config.Scopes, " "))
	params.Add("state", state)
	params.Add("response_mode", "query")

	return p.config.AuthURL + "?" + params.Encode(), nil
}
