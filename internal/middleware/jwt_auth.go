package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/anonto42/socialnet/backend/internal/models"
	"github.com/labstack/echo/v4"
)

// UserContextKey holds the *models.JwtCustomClaims of the authenticated user
const UserContextKey = "user"

// TokenAuthenticator turns a bearer token into the claims of a local user
type TokenAuthenticator func(ctx context.Context, token string) (*models.JwtCustomClaims, error)

// TokenParser is satisfied by services.TokenManager
type TokenParser interface {
	Parse(tokenString string) (*models.JwtCustomClaims, error)
}

// LocalJWTAuthenticator accepts tokens issued by this service
func LocalJWTAuthenticator(parser TokenParser) TokenAuthenticator {
	return func(_ context.Context, token string) (*models.JwtCustomClaims, error) {
		return parser.Parse(token)
	}
}

// JWTAuthMiddleware checks the bearer token against each authenticator in turn
// and stores the first successful claims in the context.
func JWTAuthMiddleware(authenticators ...TokenAuthenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing Authorization header")
			}

			// Expecting "Bearer <token>"
			scheme, tokenString, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || tokenString == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid Authorization header format")
			}

			for _, authenticate := range authenticators {
				claims, err := authenticate(c.Request().Context(), tokenString)
				if err == nil && claims != nil {
					c.Set(UserContextKey, claims)
					return next(c)
				}
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
	}
}
