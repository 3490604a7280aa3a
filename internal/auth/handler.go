package auth

import (
	"net/http"
	"net/url"
	"time"

	"ctox-dashboard/pkg/models"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// Handler handles authentication-related HTTP requests
type Handler struct {
	authService *Service
	frontendURL string
}

// NewHandler creates a new Handler instance
func NewHandler(authService *Service, frontendURL string) *Handler {
	return &Handler{
		authService: authService,
		frontendURL: frontendURL,
	}
}

// RegisterRoutes registers authentication routes with the Echo instance
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/auth/login", h.handleLogin)
	e.GET("/auth/callback", h.handleCallback)
	e.GET("/auth/validate-session", h.handleValidateSession)
	e.DELETE("/auth/signout", h.handleSignOut)
	e.GET("/health", h.handleHealth)
}

// Identify attaches the delegated identity of the request's session_id to the
// request context. Requests without a signed-in session stay anonymous and
// are served with app-only access.
func (h *Handler) Identify(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if id := h.authService.Delegated(c.QueryParam("session_id")); id != nil {
			req := c.Request()
			c.SetRequest(req.WithContext(models.WithDelegated(req.Context(), id)))
		}
		return next(c)
	}
}

// handleLogin redirects the browser to the Microsoft sign-in page. A session
// id is minted when the caller has none.
func (h *Handler) handleLogin(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	authURL, err := h.authService.InitiateOAuth(sessionID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": err.Error(),
		})
	}

	return c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// handleCallback completes the sign-in and returns to the frontend
func (h *Handler) handleCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")

	if errorParam := c.QueryParam("error"); errorParam != "" {
		return h.redirect(c, url.Values{
			"error":             {errorParam},
			"error_description": {c.QueryParam("error_description")},
		})
	}
	if code == "" {
		return h.redirect(c, url.Values{"error": {"missing_code"}})
	}
	if state == "" {
		return h.redirect(c, url.Values{"error": {"missing_state"}})
	}

	session, err := h.authService.HandleCallback(c.Request().Context(), code, state)
	if err != nil {
		return h.redirect(c, url.Values{"error": {"auth_failed"}, "message": {err.Error()}})
	}

	return h.redirect(c, url.Values{"success": {"true"}, "session_id": {session.SessionID}})
}

func (h *Handler) redirect(c echo.Context, params url.Values) error {
	return c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/callback?"+params.Encode())
}

// handleValidateSession reports whether a session is signed in
func (h *Handler) handleValidateSession(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "session_id is required",
		})
	}

	session, err := h.authService.GetSession(sessionID)
	if err != nil || !session.HasValidToken(h.authService.clock.Now()) {
		return c.JSON(http.StatusOK, SessionStatus{RequiresAuth: true})
	}

	return c.JSON(http.StatusOK, SessionStatus{
		Valid:     true,
		UserName:  session.UserName,
		UserEmail: session.UserEmail,
	})
}

// handleSignOut forgets the session's delegated token
func (h *Handler) handleSignOut(c echo.Context) error {
	sessionID := c.QueryParam("session_id")
	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "session_id is required",
		})
	}

	h.authService.SignOut(sessionID)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Successfully signed out",
	})
}

// handleHealth returns the health status of the backend service
func (h *Handler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"sessions":  h.authService.GetSessionCount(),
		"timestamp": h.authService.clock.Now().UTC().Format(time.RFC3339),
	})
}
