package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	graphScope         = "https://graph.microsoft.com/.default"
	defaultTokenTTL    = 3600
	tokenExpiryLeeway  = 60 * time.Second
	tokenRequestBudget = 30 * time.Second
)

type accessTokenProvider interface {
	accessToken(ctx context.Context) (string, error)
}

// staticToken is a delegated token supplied by a signed-in user
type staticToken string

func (s staticToken) accessToken(context.Context) (string, error) {
	return string(s), nil
}

// clientCredentials acquires app-only tokens and caches them until shortly
// before expiry
type clientCredentials struct {
	httpClient   *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	clock        clockwork.Clock

	mu        sync.Mutex // protects the below fields
	token     string
	expiresAt time.Time
}

func newClientCredentials(httpClient *http.Client, authorityURL, tenantID, clientID, clientSecret string, clock clockwork.Clock) *clientCredentials {
	return &clientCredentials{
		httpClient:   httpClient,
		tokenURL:     strings.TrimSuffix(authorityURL, "/") + "/" + url.PathEscape(tenantID) + "/oauth2/v2.0/token",
		clientID:     clientID,
		clientSecret: clientSecret,
		clock:        clock,
	}
}

func (c *clientCredentials) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock.Now()
	if c.token != "" && now.Before(c.expiresAt) {
		return c.token, nil
	}

	ctx, cancel := context.WithTimeout(ctx, tokenRequestBudget)
	defer cancel()

	data := url.Values{}
	data.Set("client_id", c.clientID)
	data.Set("client_secret", c.clientSecret)
	data.Set("grant_type", "client_credentials")
	data.Set("scope", graphScope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTokenAcquisition, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read token response: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("%w: status %d: %s", ErrTokenAcquisition, resp.StatusCode, string(body))
	}
	if tr.AccessToken == "" {
		reason := tr.ErrorDescription
		if reason == "" {
			reason = tr.Error
		}
		if reason == "" {
			reason = fmt.Sprintf("status %d", resp.StatusCode)
		}
		return "", fmt.Errorf("%w: %s", ErrTokenAcquisition, reason)
	}

	ttl := tr.ExpiresIn
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	c.token = tr.AccessToken
	c.expiresAt = now.Add(time.Duration(ttl)*time.Second - tokenExpiryLeeway)
	return c.token, nil
}
