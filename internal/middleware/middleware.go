package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ErwanHenry/kaspa-ecosystem-sub001/internal/models"
)

// BearerAuth validates the Authorization header against the configured key.
// An empty configured key means the operator surface is not set up: requests
// get a service-unavailable class response so a misconfigured deployment is
// distinguishable from a bad credential.
func BearerAuth(expected string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if expected == "" {
				return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
					Code:    "not_configured",
					Message: "dispatch API key is not configured",
				})
			}

			header := c.Request().Header.Get("Authorization")
			token := strings.TrimPrefix(header, "Bearer ")
			if token == header || token == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Code:    "unauthorized",
					Message: "missing bearer credential",
				})
			}
			if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Code:    "unauthorized",
					Message: "invalid bearer credential",
				})
			}
			return next(c)
		}
	}
}

// CORS configures CORS headers.
func CORS() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Access-Control-Allow-Origin", "*")
			c.Response().Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Response().Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Callback-Secret")
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
