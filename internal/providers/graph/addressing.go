package graph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
)

// addressing resolves logical paths and the drive base URL for one mode
type addressing interface {
	mode() Mode
	normalize(path string) (string, error)
	driveURL(ctx context.Context) (string, error)
}

// oneDriveAddressing targets a user's OneDrive. Paths are relative to Documents/.
type oneDriveAddressing struct {
	graphURL  string
	upn       string
	delegated bool
}

func (a *oneDriveAddressing) mode() Mode { return ModeOneDrive }

const documentsMarker = "/documents/"

func (a *oneDriveAddressing) normalize(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", ErrEmptyPath
	}

	if strings.HasPrefix(p, "/") {
		// server-relative, e.g. /personal/<upn>/Documents/Folder/file.xlsx
		if idx := strings.Index(strings.ToLower(p), documentsMarker); idx != -1 {
			return p[idx+len(documentsMarker):], nil
		}
		p = strings.TrimLeft(p, "/")
	}

	if !strings.HasPrefix(strings.ToLower(p), "documents/") {
		p = "Documents/" + p
	}
	return p, nil
}

func (a *oneDriveAddressing) driveURL(context.Context) (string, error) {
	if a.delegated {
		return a.graphURL + "/me/drive", nil
	}
	return a.graphURL + "/users/" + url.PathEscape(a.upn) + "/drive", nil
}

// siteAddressing targets a document library of a SharePoint site. The site
// and drive ids are discovered on first use and cached.
type siteAddressing struct {
	conn   *Connector
	config SiteConfig

	mu      sync.Mutex // protects the below fields
	siteID  string
	driveID string
}

func (a *siteAddressing) mode() Mode { return ModeSharePoint }

func (a *siteAddressing) normalize(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return "", ErrEmptyPath
	}
	if !strings.HasPrefix(p, "/") {
		return p, nil
	}

	prefix := "/" + a.config.SitePath + "/" + a.config.LibraryName + "/"
	if !strings.HasPrefix(p, prefix) {
		return "", fmt.Errorf("%w: expected prefix %q, got %q", ErrPathMismatch, prefix, p)
	}
	return p[len(prefix):], nil
}

func (a *siteAddressing) driveURL(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.driveID == "" {
		if err := a.discover(ctx); err != nil {
			return "", err
		}
	}
	return a.conn.graphURL + "/drives/" + url.PathEscape(a.driveID), nil
}

func (a *siteAddressing) discover(ctx context.Context) error {
	if a.siteID == "" {
		var site siteResponse
		siteURL := fmt.Sprintf("%s/sites/%s:/%s", a.conn.graphURL, a.config.Hostname, escapePath(a.config.SitePath))
		if err := a.conn.getJSON(ctx, siteURL, &site); err != nil {
			return fmt.Errorf("failed to resolve site %s/%s: %w", a.config.Hostname, a.config.SitePath, err)
		}
		a.siteID = site.ID
	}

	var drives drivesResponse
	if err := a.conn.getJSON(ctx, a.conn.graphURL+"/sites/"+url.PathEscape(a.siteID)+"/drives", &drives); err != nil {
		return fmt.Errorf("failed to list drives of site %s: %w", a.config.SitePath, err)
	}

	for _, d := range drives.Value {
		if strings.EqualFold(d.Name, a.config.LibraryName) {
			a.driveID = d.ID
			return nil
		}
	}
	for _, d := range drives.Value {
		if d.DriveType == "documentLibrary" {
			a.driveID = d.ID
			return nil
		}
	}
	return fmt.Errorf("%w: %q in %s", ErrLibraryNotFound, a.config.LibraryName, a.config.SitePath)
}

// escapePath percent-encodes every segment of a slash separated path
func escapePath(p string) string {
	segments := strings.Split(p, "/")
	for i, s := range segments {
		segments[i] = strings.ReplaceAll(url.PathEscape(s), ":", "%3A")
	}
	return strings.Join(segments, "/")
}
