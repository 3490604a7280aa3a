// Package config assembles the server settings from the environment and the
// Microsoft Graph secrets from an optional TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"ctox-dashboard/internal/providers/graph"
	"ctox-dashboard/pkg/models"

	"github.com/pelletier/go-toml"
)

const (
	defaultPort        = "8080"
	defaultDataDir     = "."
	defaultFrontendURL = "http://localhost:4200"
	defaultSecretsFile = ".secrets.toml"
	defaultLibrary     = "Documents"
	defaultRateLimit   = 10
	defaultRedirectURI = "http://localhost:8080/auth/callback"
	authorityURL       = "https://login.microsoftonline.com"
)

var (
	ErrMissingGraphSecrets = errors.New("microsoft graph settings missing: tenant_id, client_id and client_secret are required")
	ErrInsufficientSecrets = errors.New("secrets lack a target: set graph.hostname and graph.site_path or onedrive.user_upn")
)

// delegatedScopes are requested by the user sign-in
var delegatedScopes = []string{"openid", "profile", "offline_access", "User.Read", "Files.ReadWrite"}

// GraphSecrets is the [graph] table of the secrets file
type GraphSecrets struct {
	TenantID     string `toml:"tenant_id"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	Hostname     string `toml:"hostname"`
	SitePath     string `toml:"site_path"`
	LibraryName  string `toml:"library_name"`
}

// OneDriveSecrets is the [onedrive] table of the secrets file
type OneDriveSecrets struct {
	UserUPN string `toml:"user_upn"`
}

// Secrets holds the Microsoft Graph credentials and library target
type Secrets struct {
	Graph    GraphSecrets    `toml:"graph"`
	OneDrive OneDriveSecrets `toml:"onedrive"`
}

// Config holds the server settings
type Config struct {
	Port        string
	DataDir     string
	Domain      string
	FrontendURL string
	LogLevel    string
	RateLimit   float64
	RedirectURI string
	SecretsFile string
	Secrets     Secrets
}

// Load reads the settings from the environment. The secrets file named by
// CTOX_SECRETS_FILE is optional; GRAPH_* and ONEDRIVE_USER_UPN override it.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", defaultPort),
		DataDir:     getEnv("DATA_DIR", defaultDataDir),
		Domain:      os.Getenv("DOMAIN"),
		FrontendURL: getEnv("FRONTEND_URL", defaultFrontendURL),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RateLimit:   defaultRateLimit,
		RedirectURI: getEnv("GRAPH_REDIRECT_URI", defaultRedirectURI),
		SecretsFile: getEnv("CTOX_SECRETS_FILE", defaultSecretsFile),
	}

	if v := os.Getenv("RATE_LIMIT"); v != "" {
		limit, err := strconv.ParseFloat(v, 64)
		if err != nil || limit <= 0 {
			return nil, fmt.Errorf("invalid RATE_LIMIT %q", v)
		}
		cfg.RateLimit = limit
	}

	secrets, err := LoadSecrets(cfg.SecretsFile)
	if err != nil {
		return nil, err
	}
	secrets.applyEnv()
	if secrets.Graph.LibraryName == "" {
		secrets.Graph.LibraryName = defaultLibrary
	}
	cfg.Secrets = secrets

	return cfg, nil
}

// LoadSecrets reads a TOML secrets file. A missing file yields empty secrets.
func LoadSecrets(path string) (Secrets, error) {
	var s Secrets
	if path == "" {
		return s, nil
	}

	tree, err := toml.LoadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}
	if err := tree.Unmarshal(&s); err != nil {
		return s, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}
	return s, nil
}

func (s *Secrets) applyEnv() {
	override(&s.Graph.TenantID, "GRAPH_TENANT_ID")
	override(&s.Graph.ClientID, "GRAPH_CLIENT_ID")
	override(&s.Graph.ClientSecret, "GRAPH_CLIENT_SECRET")
	override(&s.Graph.Hostname, "GRAPH_HOSTNAME")
	override(&s.Graph.SitePath, "GRAPH_SITE_PATH")
	override(&s.Graph.LibraryName, "GRAPH_LIBRARY_NAME")
	override(&s.OneDrive.UserUPN, "ONEDRIVE_USER_UPN")
}

// ConnectorConfig selects the connector mode. A signed-in user's delegated
// token wins, then a SharePoint site, then an app-only OneDrive.
func (s Secrets) ConnectorConfig(delegated *models.DelegatedIdentity) (graph.Config, error) {
	g := s.Graph
	if g.TenantID == "" || g.ClientID == "" || g.ClientSecret == "" {
		return graph.Config{}, ErrMissingGraphSecrets
	}
	cfg := graph.Config{TenantID: g.TenantID, ClientID: g.ClientID, ClientSecret: g.ClientSecret}

	switch {
	case delegated != nil && delegated.AccessToken != "" && delegated.UserPrincipalName != "":
		cfg.OneDrive = &graph.OneDriveConfig{
			UserPrincipalName: delegated.UserPrincipalName,
			DelegatedToken:    delegated.AccessToken,
		}
	case g.Hostname != "" && g.SitePath != "":
		library := g.LibraryName
		if library == "" {
			library = defaultLibrary
		}
		cfg.Site = &graph.SiteConfig{
			Hostname:    g.Hostname,
			SitePath:    sitePath(g.Hostname, g.SitePath),
			LibraryName: library,
		}
	case s.OneDrive.UserUPN != "":
		cfg.OneDrive = &graph.OneDriveConfig{UserPrincipalName: s.OneDrive.UserUPN}
	default:
		return graph.Config{}, ErrInsufficientSecrets
	}
	return cfg, nil
}

// sitePath accepts "sites/Team" as well as "https://{hostname}/sites/Team"
func sitePath(hostname, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		prefix := "https://" + hostname + "/"
		if strings.HasPrefix(strings.ToLower(path), strings.ToLower(prefix)) {
			path = path[len(prefix):]
		}
	}
	return strings.Trim(path, "/")
}

// OAuthConfig returns the delegated sign-in settings for the tenant
func (c *Config) OAuthConfig() *models.OAuthConfig {
	tenant := c.Secrets.Graph.TenantID
	if tenant == "" {
		tenant = "common"
	}
	return &models.OAuthConfig{
		ClientID:     c.Secrets.Graph.ClientID,
		ClientSecret: c.Secrets.Graph.ClientSecret,
		RedirectURI:  c.RedirectURI,
		Scopes:       append([]string{}, delegatedScopes...),
		AuthURL:      authorityURL + "/" + tenant + "/oauth2/v2.0/authorize",
		TokenURL:     authorityURL + "/" + tenant + "/oauth2/v2.0/token",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func override(field *string, key string) {
	if v := os.Getenv(key); v != "" {
		*field = v
	}
}
