package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

var (
	allowMethods  = []string{echo.GET, echo.POST, echo.DELETE, echo.OPTIONS}
	allowHeaders  = []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization}
	exposeHeaders = []string{echo.HeaderContentDisposition, echo.HeaderXRequestID}
)

// AllowedOrigins returns the origins CORS accepts for domain. An empty
// domain allows the local development frontends.
func AllowedOrigins(domain string) []string {
	if domain == "" {
		return []string{"http://localhost:4200", "http://localhost:3000"}
	}

	origins := []string{"https://" + domain}
	if isLocal(domain) {
		origins = append(origins, "http://"+domain)
	}
	return origins
}

// CORSConfig returns CORS middleware restricted to the dashboard's domain
func CORSConfig(domain string) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     AllowedOrigins(domain),
		AllowMethods:     allowMethods,
		AllowHeaders:     allowHeaders,
		ExposeHeaders:    exposeHeaders,
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	})
}

// SecurityHeaders adds security headers to all responses
func SecurityHeaders(domain string) echo.MiddlewareFunc {
	csp := "default-src 'none'; frame-ancestors 'self'"
	if domain != "" && !isLocal(domain) {
		csp = "default-src 'none'; frame-ancestors https://" + domain
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Response().Header()
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "SAMEORIGIN")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Content-Security-Policy", csp)
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=(), usb=()")

			// HSTS only when the request arrived over HTTPS, directly or via a proxy
			if c.Request().Header.Get("X-Forwarded-Proto") == "https" || c.Request().TLS != nil {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			return next(c)
		}
	}
}

func isLocal(domain string) bool {
	return strings.Contains(domain, "localhost") || strings.Contains(domain, "127.0.0.1")
}
