package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signIn(t *testing.T, s *Service, sessionID string) {
	t.Helper()
	state, err := s.store.GenerateState(sessionID)
	require.NoError(t, err)
	_, err = s.HandleCallback(context.Background(), "good-code", state.State)
	require.NoError(t, err)
}

func TestBuildAuthURL(t *testing.T) {
	f := newFakeIdentity(t)
	s := f.service(t, clockwork.NewFakeClock())

	authURL, err := s.InitiateOAuth("session-1")
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(authURL, f.server.URL+"/authorize?"))
	assert.Equal(t, "client", u.Query().Get("client_id"))
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, "User.Read Files.ReadWrite", u.Query().Get("scope"))
	assert.Len(t, u.Query().Get("state"), 64)
}

func TestHandleCallback_Success(t *testing.T) {
	f := newFakeIdentity(t)
	clock := clockwork.NewFakeClock()
	changes := 0
	s := f.service(t, clock, OnChange(func() { changes++ }))

	state, err := s.store.GenerateState("session-1")
	require.NoError(t, err)

	session, err := s.HandleCallback(context.Background(), "good-code", state.State)
	require.NoError(t, err)
	assert.Equal(t, "session-1", session.SessionID)
	assert.Equal(t, "Ana", session.UserName)
	assert.Equal(t, "ana@contoso.com", session.UserEmail)
	assert.Equal(t, clock.Now().Add(time.Hour), session.Token.ExpiresAt)
	assert.Equal(t, 1, changes)

	// states are single use
	_, err = s.HandleCallback(context.Background(), "good-code", state.State)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestHandleCallback_MailPreferredOverUPN(t *testing.T) {
	f := newFakeIdentity(t)
	f.profile.Mail = "ana.mail@contoso.com"
	s := f.service(t, clockwork.NewFakeClock())

	signIn(t, s, "session-1")
	assert.Equal(t, "ana.mail@contoso.com", s.Delegated("session-1").UserPrincipalName)
}

func TestHandleCallback_Errors(t *testing.T) {
	f := newFakeIdentity(t)
	clock := clockwork.NewFakeClock()
	s := f.service(t, clock)

	_, err := s.HandleCallback(context.Background(), "good-code", "invalid-state")
	assert.ErrorIs(t, err, ErrInvalidState)

	state, err := s.store.GenerateState("session-1")
	require.NoError(t, err)
	clock.Advance(11 * time.Minute)
	_, err = s.HandleCallback(context.Background(), "good-code", state.State)
	assert.ErrorIs(t, err, ErrStateExpired)

	state, err = s.store.GenerateState("session-1")
	require.NoError(t, err)
	_, err = s.HandleCallback(context.Background(), "bad-code", state.State)
	assert.ErrorIs(t, err, ErrTokenExchange)

	f.profile = profile{}
	state, err = s.store.GenerateState("session-1")
	require.NoError(t, err)
	_, err = s.HandleCallback(context.Background(), "good-code", state.State)
	assert.ErrorIs(t, err, ErrProfileUnavailable)

	assert.Nil(t, s.Delegated("session-1"))
}

func TestHandleCallback_IncompleteConfig(t *testing.T) {
	f := newFakeIdentity(t)
	cfg := f.oauthConfig()
	cfg.ClientSecret = ""
	s := NewService(NewMicrosoftProvider(cfg), WithClock(clockwork.NewFakeClock()))
	t.Cleanup(s.Close)

	state, err := s.store.GenerateState("session-1")
	require.NoError(t, err)
	_, err = s.HandleCallback(context.Background(), "good-code", state.State)
	assert.ErrorIs(t, err, ErrOAuthIncomplete)
	assert.Zero(t, f.tokenHits.Load())
}

func TestDelegated_ScopedToSession(t *testing.T) {
	f := newFakeIdentity(t)
	clock := clockwork.NewFakeClock()
	s := f.service(t, clock)

	signIn(t, s, "first")
	clock.Advance(time.Minute)
	f.profile.UserPrincipalName = "bruno@contoso.com"
	signIn(t, s, "second")

	// anonymous and unknown callers never see another user's token
	assert.Nil(t, s.Delegated(""))
	assert.Nil(t, s.Delegated("someone-else"))

	id := s.Delegated("first")
	require.NotNil(t, id)
	assert.Equal(t, "user-token", id.AccessToken)
	assert.Equal(t, "ana@contoso.com", id.UserPrincipalName)
	assert.Equal(t, "bruno@contoso.com", s.Delegated("second").UserPrincipalName)

	s.SignOut("second")
	assert.Nil(t, s.Delegated("second"))
	assert.Equal(t, "ana@contoso.com", s.Delegated("first").UserPrincipalName)

	// the delegated token expires after an hour
	clock.Advance(time.Hour)
	assert.Nil(t, s.Delegated("first"))
}

func TestSessions_AreCopiedInAndOut(t *testing.T) {
	f := newFakeIdentity(t)
	s := f.service(t, clockwork.NewFakeClock())
	signIn(t, s, "session-1")

	session, err := s.GetSession("session-1")
	require.NoError(t, err)
	session.UserEmail = "mallory@contoso.com"

	again, err := s.GetSession("session-1")
	require.NoError(t, err)
	assert.Equal(t, "ana@contoso.com", again.UserEmail)
}

func TestSignIn_ConcurrentWithLookups(t *testing.T) {
	f := newFakeIdentity(t)
	s := f.service(t, clockwork.NewFakeClock())
	signIn(t, s, "session-1")

	var wg sync.WaitGroup
	for n := 0; n < 4; n++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			state, err := s.store.GenerateState("session-1")
			if err != nil {
				return
			}
			_, _ = s.HandleCallback(context.Background(), "good-code", state.State)
		}()
		go func() {
			defer wg.Done()
			_ = s.Delegated("session-1")
			_, _ = s.GetSession("session-1")
		}()
	}
	wg.Wait()

	assert.Equal(t, "ana@contoso.com", s.Delegated("session-1").UserPrincipalName)
}

func TestSignOut_UnknownSessionIsSilent(t *testing.T) {
	f := newFakeIdentity(t)
	changes := 0
	s := f.service(t, clockwork.NewFakeClock(), OnChange(func() { changes++ }))

	s.SignOut("missing")
	assert.Zero(t, changes)

	signIn(t, s, "session-1")
	s.SignOut("session-1")
	assert.Equal(t, 2, changes)
	assert.Zero(t, s.GetSessionCount())
}

func TestSessionExpiry(t *testing.T) {
	f := newFakeIdentity(t)
	clock := clockwork.NewFakeClock()
	s := f.service(t, clock)

	signIn(t, s, "session-1")
	clock.Advance(25 * time.Hour)

	// the hourly sweep may remove it first
	_, err := s.GetSession("session-1")
	assert.True(t, errors.Is(err, ErrSessionExpired) || errors.Is(err, ErrSessionNotFound), err)
	assert.Zero(t, s.GetSessionCount())
}

func TestTokenEndpointFailure(t *testing.T) {
	f := newFakeIdentity(t)
	f.tokenCode = http.StatusInternalServerError
	s := f.service(t, clockwork.NewFakeClock())

	state, err := s.store.GenerateState("session-1")
	require.NoError(t, err)
	_, err = s.HandleCallback(context.Background(), "good-code", state.State)
	require.ErrorIs(t, err, ErrTokenExchange)
	assert.Contains(t, err.Error(), "status 500")
}
