package middleware

// builder.go holds the capability-token middleware for the write surface.
// The external visual builder authenticates every call with a short-lived
// brand-scoped JWT minted by the token endpoint. The middleware verifies
// signature and expiry and exposes the trusted claims to handlers; scope
// enforcement is a separate, stackable middleware so routes can require
// exactly the scope they need.

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/brand-cms/internal/utils"
)

// Context key under which verified builder claims are stored.
const builderClaimsKey = "builder_claims"

// BuilderAuth returns an Echo middleware that validates a builder capability
// token and stores its claims in the request context. Expired tokens get a
// distinct message because expiry is the one failure the builder can resolve
// on its own by requesting a fresh deeplink.
func BuilderAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims, err := utils.ParseBuilderToken(secret, raw)
			if err != nil {
				if errors.Is(err, utils.ErrTokenExpired) {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "token expired"})
				}
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set(builderClaimsKey, claims)
			return next(c)
		}
	}
}

// RequireScope returns a middleware that enforces that the verified
// capability token carries the given scope. It assumes BuilderAuth ran
// earlier in the chain; a missing claim set is treated as forbidden rather
// than panicking on a misregistered route.
func RequireScope(scope string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := GetBuilderClaims(c)
			if !ok || !claims.HasScope(scope) {
				return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
			}
			return next(c)
		}
	}
}

// GetBuilderClaims retrieves the verified capability claims stored by
// BuilderAuth. The second return is false when the middleware did not run.
func GetBuilderClaims(c echo.Context) (utils.BuilderClaims, bool) {
	v := c.Get(builderClaimsKey)
	claims, ok := v.(utils.BuilderClaims)
	return claims, ok
}
