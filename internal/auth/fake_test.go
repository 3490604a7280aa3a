package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ctox-dashboard/pkg/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

// fakeIdentity serves the token endpoint and GET /me
type fakeIdentity struct {
	server    *httptest.Server
	tokenHits atomic.Int32
	profile   profile
	tokenCode int
}

func newFakeIdentity(t *testing.T) *fakeIdentity {
	t.Helper()
	f := &fakeIdentity{
		profile:   profile{DisplayName: "Ana", UserPrincipalName: "ana@contoso.com"},
		tokenCode: http.StatusOK,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		require.NoError(t, r.ParseForm())
		if f.tokenCode != http.StatusOK {
			w.WriteHeader(f.tokenCode)
			return
		}
		if r.PostForm.Get("grant_type") != "authorization_code" || r.PostForm.Get("code") != "good-code" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "user-token",
			"scope":        "Files.ReadWrite",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/v1.0/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer user-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.profile)
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIdentity) oauthConfig() *models.OAuthConfig {
	return &models.OAuthConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURI:  "http://localhost:8080/auth/callback",
		Scopes:       []string{"User.Read", "Files.ReadWrite"},
		AuthURL:      f.server.URL + "/authorize",
		TokenURL:     f.server.URL + "/token",
	}
}

func (f *fakeIdentity) service(t *testing.T, clock clockwork.Clock, opts ...Option) *Service {
	t.Helper()
	opts = append([]Option{WithClock(clock), WithGraphURL(f.server.URL + "/v1.0")}, opts...)
	s := NewService(NewMicrosoftProvider(f.oauthConfig()), opts...)
	t.Cleanup(s.Close)
	return s
}
