package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"go.pilab.hu/tubedash/services"
)

// userIDContextKey is the echo context key holding the authenticated user ID.
const userIDContextKey = "auth_user_id"

// SessionAuth returns echo middleware that resolves the Bearer session token
// from the Authorization header and stores the authenticated user ID on the
// request context. Requests without a valid session are rejected with 401.
func SessionAuth(auth *services.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing_token"})
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token"})
			}

			session, err := auth.Authenticate(c.Request().Context(), parts[1])
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid_token"})
			}

			c.Set(userIDContextKey, session.UserID)
			return next(c)
		}
	}
}

// UserID returns the authenticated user ID stored by SessionAuth, or "" when
// the request did not pass through it.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDContextKey).(string)
	return id
}
