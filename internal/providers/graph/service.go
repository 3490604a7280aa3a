package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"ctox-dashboard/internal/tabular"
	"ctox-dashboard/pkg/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	defaultGraphURL     = "https://graph.microsoft.com/v1.0"
	defaultAuthorityURL = "https://login.microsoftonline.com"

	metadataTimeout = 30 * time.Second
	downloadTimeout = 180 * time.Second
	uploadTimeout   = 300 * time.Second
	deleteTimeout   = 60 * time.Second
)

// Connector provides read access (plus overwrite upload) to one OneDrive or
// SharePoint document library through Microsoft Graph
type Connector struct {
	httpClient   *http.Client
	graphURL     string
	authorityURL string
	clock        clockwork.Clock
	log          *zap.Logger
	config       Config

	once   sync.Once
	err    error
	tokens accessTokenProvider
	addr   addressing
}

// Option customizes a Connector
type Option func(*Connector)

// WithBaseURLs points the connector at other Graph and login endpoints
func WithBaseURLs(graphURL, authorityURL string) Option {
	return func(c *Connector) {
		if graphURL != "" {
			c.graphURL = strings.TrimSuffix(graphURL, "/")
		}
		if authorityURL != "" {
			c.authorityURL = strings.TrimSuffix(authorityURL, "/")
		}
	}
}

// WithClock sets the clock used for token expiry
func WithClock(clock clockwork.Clock) Option {
	return func(c *Connector) { c.clock = clock }
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Connector) { c.httpClient = client }
}

// WithLogger sets the logger
func WithLogger(log *zap.Logger) Option {
	return func(c *Connector) { c.log = log }
}

// NewConnector creates a connector. The configuration is validated on first use.
func NewConnector(config Config, opts ...Option) *Connector {
	c := &Connector{
		httpClient:   &http.Client{},
		graphURL:     defaultGraphURL,
		authorityURL: defaultAuthorityURL,
		clock:        clockwork.NewRealClock(),
		log:          zap.NewNop(),
		config:       config,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Connector) init() error {
	c.once.Do(func() {
		if err := c.config.validate(); err != nil {
			c.err = err
			return
		}

		if od := c.config.OneDrive; od != nil {
			c.addr = &oneDriveAddressing{graphURL: c.graphURL, upn: od.UserPrincipalName, delegated: od.DelegatedToken != ""}
			if od.DelegatedToken != "" {
				c.tokens = staticToken(od.DelegatedToken)
				return
			}
		} else {
			c.addr = &siteAddressing{conn: c, config: *c.config.Site}
		}
		c.tokens = newClientCredentials(c.httpClient, c.authorityURL, c.config.TenantID, c.config.ClientID, c.config.ClientSecret, c.clock)
	})
	return c.err
}

// Mode returns the addressing mode
func (c *Connector) Mode() (Mode, error) {
	if err := c.init(); err != nil {
		return "", err
	}
	return c.addr.mode(), nil
}

// Normalize converts a logical or server-relative path to a path relative to
// the drive root of the configured mode
func (c *Connector) Normalize(path string) (string, error) {
	if err := c.init(); err != nil {
		return "", err
	}
	return c.addr.normalize(path)
}

// itemURL builds {drive}/root:/{path}{suffix}
func (c *Connector) itemURL(ctx context.Context, path, suffix string) (string, error) {
	rel, err := c.Normalize(path)
	if err != nil {
		return "", err
	}
	base, err := c.addr.driveURL(ctx)
	if err != nil {
		return "", err
	}
	return base + "/root:/" + escapePath(rel) + suffix, nil
}

// List returns the children of a folder; an empty folder path lists the root
func (c *Connector) List(ctx context.Context, folderPath string) ([]models.RemoteEntry, error) {
	if err := c.init(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	var apiURL string
	if strings.TrimSpace(folderPath) == "" {
		base, err := c.addr.driveURL(ctx)
		if err != nil {
			return nil, err
		}
		apiURL = base + "/root/children"
	} else {
		u, err := c.itemURL(ctx, folderPath, ":/children")
		if err != nil {
			return nil, err
		}
		apiURL = u
	}

	var entries []models.RemoteEntry
	for apiURL != "" {
		var page listResponse
		if err := c.getJSON(ctx, apiURL, &page); err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", folderPath, err)
		}
		for _, item := range page.Value {
			entries = append(entries, convertDriveItem(item))
		}
		apiURL = page.NextLink
	}

	c.log.Debug("listed folder", zap.String("folder", folderPath), zap.Int("items", len(entries)))
	return entries, nil
}

// convertDriveItem converts a DriveItem to RemoteEntry format
func convertDriveItem(item DriveItem) models.RemoteEntry {
	return models.RemoteEntry{
		ID:           item.ID,
		Name:         item.Name,
		IsFolder:     item.Folder != nil,
		IsFile:       item.File != nil,
		Size:         item.Size,
		LastModified: item.LastModifiedDateTime,
		WebURL:       item.WebURL,
	}
}

// Download returns the content of a file
func (c *Connector) Download(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, downloadTimeout)
	defer cancel()

	apiURL, err := c.itemURL(ctx, path, ":/content")
	if err != nil {
		return nil, err
	}

	resp, err := c.do(ctx, http.MethodGet, apiURL, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apiError(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read content of %s: %w", path, err)
	}
	return data, nil
}

// Upload writes content to path in a single request. overwrite selects
// replace over fail when the item already exists.
func (c *Connector) Upload(ctx context.Context, path string, content []byte, overwrite bool) (models.RemoteEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	apiURL, err := c.itemURL(ctx, path, ":/content")
	if err != nil {
		return models.RemoteEntry{}, err
	}

	behavior := "fail"
	if overwrite {
		behavior = "replace"
	}
	apiURL += "?" + url.Values{"@microsoft.graph.conflictBehavior": {behavior}}.Encode()

	resp, err := c.do(ctx, http.MethodPut, apiURL, bytes.NewReader(content), "application/octet-stream")
	if err != nil {
		return models.RemoteEntry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RemoteEntry{}, apiError(resp)
	}

	var item DriveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return models.RemoteEntry{}, fmt.Errorf("failed to decode upload response: %w", err)
	}

	c.log.Info("uploaded file", zap.String("path", path), zap.Int("bytes", len(content)))
	return convertDriveItem(item), nil
}

// Delete removes a file or folder. It returns false when the item does not exist.
func (c *Connector) Delete(ctx context.Context, path string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	apiURL, err := c.itemURL(ctx, path, "")
	if err != nil {
		return false, err
	}

	resp, err := c.do(ctx, http.MethodDelete, apiURL, nil, "")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusNoContent:
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return true, nil
	default:
		return false, apiError(resp)
	}
}

// Exists reports whether path can be downloaded. Every failure, not only
// not-found, is reported as false.
func (c *Connector) Exists(ctx context.Context, path string) bool {
	_, err := c.Download(ctx, path)
	if err != nil && !errors.Is(err, ErrNotFound) {
		c.log.Debug("existence check failed", zap.String("path", path), zap.Error(err))
	}
	return err == nil
}

// CreateFolder creates a folder under its parent, renaming on conflict
func (c *Connector) CreateFolder(ctx context.Context, folderPath string) (models.RemoteEntry, error) {
	if err := c.init(); err != nil {
		return models.RemoteEntry{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	folderPath = strings.TrimSpace(folderPath)
	if folderPath == "" {
		return models.RemoteEntry{}, ErrEmptyPath
	}

	name := folderPath
	parent := ""
	if idx := strings.LastIndex(folderPath, "/"); idx != -1 {
		name = folderPath[idx+1:]
		parent = folderPath[:idx]
	}

	var apiURL string
	if parent == "" {
		base, err := c.addr.driveURL(ctx)
		if err != nil {
			return models.RemoteEntry{}, err
		}
		apiURL = base + "/root/children"
	} else {
		u, err := c.itemURL(ctx, parent, ":/children")
		if err != nil {
			return models.RemoteEntry{}, err
		}
		apiURL = u
	}

	body, err := json.Marshal(createFolderRequest{Name: name, ConflictBehavior: "rename"})
	if err != nil {
		return models.RemoteEntry{}, err
	}

	resp, err := c.do(ctx, http.MethodPost, apiURL, bytes.NewReader(body), "application/json")
	if err != nil {
		return models.RemoteEntry{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return models.RemoteEntry{}, apiError(resp)
	}

	var item DriveItem
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return models.RemoteEntry{}, fmt.Errorf("failed to decode folder response: %w", err)
	}
	return convertDriveItem(item), nil
}

// ReadTabular downloads a spreadsheet and parses its first worksheet
func (c *Connector) ReadTabular(ctx context.Context, path string) (*tabular.Table, error) {
	data, err := c.Download(ctx, path)
	if err != nil {
		return nil, err
	}
	table, err := tabular.Read(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

// WriteTabular encodes table as xlsx and uploads it to path
func (c *Connector) WriteTabular(ctx context.Context, path string, table *tabular.Table, overwrite bool) (models.RemoteEntry, error) {
	var buf bytes.Buffer
	if err := tabular.Write(&buf, table, ""); err != nil {
		return models.RemoteEntry{}, err
	}
	return c.Upload(ctx, path, buf.Bytes(), overwrite)
}

// getJSON performs an authenticated GET and decodes the JSON answer.
// 404 maps to ErrNotFound.
func (c *Connector) getJSON(ctx context.Context, apiURL string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, apiURL, nil, "")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, apiError(resp))
	}
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Connector) do(ctx context.Context, method, apiURL string, body io.Reader, contentType string) (*http.Response, error) {
	token, err := c.tokens.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

// apiError reads a Graph error body into an *APIError
func apiError(resp *http.Response) *APIError {
	e := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return e
	}
	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.Error.Code != "" {
		e.Code = er.Error.Code
		e.Message = er.Error.Message
		return e
	}
	e.Message = strings.TrimSpace(string(body))
	return e
}
