package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ctox-dashboard/pkg/models"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const defaultGraphURL = "https://graph.microsoft.com/v1.0"

// Service handles the delegated Microsoft sign-in of dashboard users
type Service struct {
	store      *MemoryStore
	httpClient *http.Client
	provider   Provider
	graphURL   string
	clock      clockwork.Clock
	log        *zap.Logger
	onChange   func()
}

// Option configures a Service
type Option func(*Service)

// WithHTTPClient replaces the client used for token and profile requests
func WithHTTPClient(c *http.Client) Option {
	return func(s *Service) { s.httpClient = c }
}

// WithGraphURL points profile lookups at another Graph root
func WithGraphURL(u string) Option {
	return func(s *Service) { s.graphURL = strings.TrimRight(u, "/") }
}

func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// OnChange registers a hook run after every sign-in and sign-out
func OnChange(fn func()) Option {
	return func(s *Service) { s.onChange = fn }
}

func NewService(provider Provider, opts ...Option) *Service {
	s := &Service{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		provider:   provider,
		graphURL:   defaultGraphURL,
		clock:      clockwork.NewRealClock(),
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = NewMemoryStore(s.clock)
	return s
}

// Close stops the background session cleanup
func (s *Service) Close() {
	s.store.Close()
}

// InitiateOAuth starts the OAuth flow for a session, returning the auth URL
func (s *Service) InitiateOAuth(sessionID string) (string, error) {
	oauthState, err := s.store.GenerateState(sessionID)
	if err != nil {
		return "", err
	}
	return s.provider.BuildAuthURL(oauthState.State)
}

// HandleCallback exchanges the code for a delegated token, resolves the
// user's identity and stores the signed-in session
func (s *Service) HandleCallback(ctx context.Context, code, state string) (*models.UserSession, error) {
	oauthState, err := s.store.ConsumeState(state)
	if err != nil {
		return nil, err
	}

	config := s.provider.GetOAuthConfig()
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, ErrOAuthIncomplete
	}

	token, err := s.exchangeCodeForToken(ctx, config, code)
	if err != nil {
		return nil, err
	}

	me, err := s.fetchProfile(ctx, token)
	if err != nil {
		return nil, err
	}

	session := &models.UserSession{SessionID: oauthState.SessionID}
	if existing, err := s.store.GetSession(oauthState.SessionID); err == nil {
		session = existing
	}
	session.Token = token
	session.UserName = me.DisplayName
	session.UserEmail = me.email()
	session.SignedInAt = s.clock.Now()
	s.store.StoreSession(session)

	s.log.Info("user signed in", zap.String("user", session.UserEmail))
	s.changed()
	return session, nil
}

// exchangeCodeForToken exchanges authorization code for access token
func (s *Service) exchangeCodeForToken(ctx context.Context, config *models.OAuthConfig, code string) (*models.Token, error) {
	data := url.Values{}
	data.Set("client_id", config.ClientID)
	data.Set("client_secret", config.ClientSecret)
	data.Set("code", code)
	data.Set("grant_type", "authorization_code")
	data.Set("redirect_uri", config.RedirectURI)
	data.Set("scope", strings.Join(config.Scopes, " "))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrTokenExchange, resp.StatusCode)
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		Scope       string `json:"scope"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExchange, err)
	}
	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("%w: empty access token", ErrTokenExchange)
	}

	token := &models.Token{
		AccessToken: tokenResponse.AccessToken,
		Scope:       tokenResponse.Scope,
	}
	if tokenResponse.ExpiresIn > 0 {
		token.ExpiresAt = s.clock.Now().Add(time.Duration(tokenResponse.ExpiresIn) * time.Second)
	}
	return token, nil
}

func (s *Service) fetchProfile(ctx context.Context, token *models.Token) (profile, error) {
	var me profile

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.graphURL+"/me?$select=displayName,mail,userPrincipalName", nil)
	if err != nil {
		return me, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return me, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return me, fmt.Errorf("%w: status %d: %s", ErrProfileUnavailable, resp.StatusCode, body)
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil {
		return me, fmt.Errorf("%w: %v", ErrProfileUnavailable, err)
	}
	if me.email() == "" {
		return me, fmt.Errorf("%w: no mail or user principal name", ErrProfileUnavailable)
	}
	return me, nil
}

// GetSession returns a live session
func (s *Service) GetSession(sessionID string) (*models.UserSession, error) {
	return s.store.GetSession(sessionID)
}

// GetSessionCount returns the number of stored sessions
func (s *Service) GetSessionCount() int {
	return s.store.SessionCount()
}

// SignOut forgets the session. Signing out an unknown session is not an error.
func (s *Service) SignOut(sessionID string) {
	if s.store.DeleteSession(sessionID) {
		s.log.Info("user signed out", zap.String("session", sessionID))
		s.changed()
	}
}

// Delegated returns the identity signed in under sessionID, or nil when the
// session is unknown, expired or holds no valid token
func (s *Service) Delegated(sessionID string) *models.DelegatedIdentity {
	if sessionID == "" {
		return nil
	}
	session, err := s.store.GetSession(sessionID)
	if err != nil || !session.HasValidToken(s.clock.Now()) {
		return nil
	}
	return &models.DelegatedIdentity{
		AccessToken:       session.Token.AccessToken,
		UserPrincipalName: session.UserEmail,
	}
}

func (s *Service) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
