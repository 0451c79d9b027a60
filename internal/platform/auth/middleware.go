package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const principalKey contextKey = "principal"

// CookieName is the cookie used as an alternative token transport.
const CookieName = "token"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	ID    uuid.UUID
	Role  string
	Email string
}

// PrincipalSource resolves a token subject to a live principal. It must fail
// for unknown or deactivated accounts.
type PrincipalSource interface {
	Principal(ctx context.Context, userID uuid.UUID) (*Principal, error)
}

// Middleware authenticates requests from a bearer header or the token cookie
// and attaches the resolved principal to the request context.
func Middleware(tokens TokenConfig, source PrincipalSource) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr := extractToken(c)
			if tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "not authenticated")
			}

			userID, err := tokens.ParseSubject(tokenStr)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
			}

			p, err := source.Principal(c.Request().Context(), userID)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "account not found or deactivated")
			}

			ctx := context.WithValue(c.Request().Context(), principalKey, p)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return ""
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// FromContext returns the authenticated principal, or nil on public routes.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey).(*Principal)
	return p
}

// WithPrincipal returns a context carrying the given principal. Used by tests
// and internal callers that act on behalf of a user.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// SessionCookie builds the httpOnly token cookie. Secure is set outside
// development so the cookie never travels over plain HTTP in production.
func SessionCookie(token string, maxAge int, production bool) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   production,
		SameSite: http.SameSiteStrictMode,
	}
}
