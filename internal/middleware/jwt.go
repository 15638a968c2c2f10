package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinebook/internal/logger"
	"github.com/iliyamo/cinebook/internal/utils"
)

// SessionVerifier validates a raw session token.  *service.AuthService
// satisfies it.
type SessionVerifier interface {
	VerifySession(token string) (*utils.SessionClaims, error)
}

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and stores its claims in the context.  Handlers read them through
// Claims(c); RequireRole reads the "role" value.
func JWTAuth(v SessionVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims, err := v.VerifySession(raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, _ := claims.UserID()

			c.Set(ctxClaims, claims)
			c.Set(ctxUserID, claims.Subject)
			c.Set(ctxRole, claims.Role)
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithUserID(req.Context(), uid)))
			return next(c)
		}
	}
}
