package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinebook/internal/utils"
)

// Keys under which JWTAuth stores the session in the echo context.
const (
	ctxClaims = "claims"
	ctxUserID = "user_id"
	ctxRole   = "role"
)

// Claims returns the session claims stored by JWTAuth, or nil for
// unauthenticated requests.
func Claims(c echo.Context) *utils.SessionClaims {
	cl, _ := c.Get(ctxClaims).(*utils.SessionClaims)
	return cl
}

// currentUserID returns the authenticated user id as a string, or "anon".
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(ctxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
