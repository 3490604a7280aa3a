package graph

import "fmt"

// Config is the provider configuration. Exactly one of OneDrive or Site must
// be set; the choice is fixed for the lifetime of a Connector.
type Config struct {
	TenantID     string
	ClientID     string
	ClientSecret string

	OneDrive *OneDriveConfig
	Site     *SiteConfig
}

// OneDriveConfig addresses a user's personal OneDrive
type OneDriveConfig struct {
	UserPrincipalName string
	// DelegatedToken is an already-authenticated user's token. When set it is
	// used verbatim and requests go to /me/drive.
	DelegatedToken string
}

// SiteConfig addresses a document library of a SharePoint site
type SiteConfig struct {
	Hostname    string
	SitePath    string // e.g. "sites/Team", without leading or trailing slash
	LibraryName string
}

// Mode names the addressing mode
type Mode string

const (
	ModeOneDrive   Mode = "onedrive"
	ModeSharePoint Mode = "sharepoint"
)

func (c Config) validate() error {
	switch {
	case c.OneDrive != nil && c.Site != nil:
		return ErrAmbiguousMode
	case c.OneDrive == nil && c.Site == nil:
		return fmt.Errorf("%w: neither OneDrive nor SharePoint site configured", ErrConfiguration)
	}

	if c.OneDrive != nil {
		if c.OneDrive.DelegatedToken != "" {
			return nil
		}
		if c.OneDrive.UserPrincipalName == "" {
			return fmt.Errorf("%w: user principal name is required", ErrConfiguration)
		}
	}
	if c.Site != nil && (c.Site.Hostname == "" || c.Site.SitePath == "") {
		return fmt.Errorf("%w: hostname and site path are required", ErrConfiguration)
	}
	if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}
