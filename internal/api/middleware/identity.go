package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	// UserIDHeader carries the authenticated caller's opaque identifier.
	// Token validation happens upstream; this service only consumes the
	// resulting identity.
	UserIDHeader = "X-User-ID"

	userIDContextKey = "user_id"
)

// RequireIdentity rejects requests without an authenticated user id and makes
// the id available to handlers.
func RequireIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID := c.Request().Header.Get(UserIDHeader)
		if userID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{
				"error": "missing " + UserIDHeader + " header",
			})
		}
		c.Set(userIDContextKey, userID)
		return next(c)
	}
}

// UserID returns the authenticated caller's id set by RequireIdentity.
func UserID(c echo.Context) string {
	userID, _ := c.Get(userIDContextKey).(string)
	return userID
}
