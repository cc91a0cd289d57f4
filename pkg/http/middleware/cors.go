package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds CORS configuration. A "*" entry allows anything; for headers
// "*" echoes whatever the preflight asked for.
type CORSConfig struct {
	AllowOrigins []string
	AllowMethods []string
	AllowHeaders []string
}

// AllowAll permits every origin, method and header.
var AllowAll = CORSConfig{
	AllowOrigins: []string{"*"},
	AllowMethods: []string{"*"},
	AllowHeaders: []string{"*"},
}

// CORS returns CORS middleware.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			header := c.Response().Header()
			origin := req.Header.Get(echo.HeaderOrigin)

			// Check if origin is allowed
			if len(cfg.AllowOrigins) > 0 && !contains(cfg.AllowOrigins, origin) {
				return next(c)
			}

			header.Add(echo.HeaderVary, echo.HeaderOrigin)
			if origin != "" {
				header.Set(echo.HeaderAccessControlAllowOrigin, origin)
			} else if contains(cfg.AllowOrigins, "*") {
				header.Set(echo.HeaderAccessControlAllowOrigin, "*")
			}

			if req.Method != http.MethodOptions {
				return next(c)
			}

			// Preflight
			methods := strings.Join(cfg.AllowMethods, ", ")
			if contains(cfg.AllowMethods, "*") {
				if m := req.Header.Get(echo.HeaderAccessControlRequestMethod); m != "" {
					methods = m
				}
			}
			if methods != "" {
				header.Set(echo.HeaderAccessControlAllowMethods, methods)
			}

			headers := strings.Join(cfg.AllowHeaders, ", ")
			if contains(cfg.AllowHeaders, "*") {
				if h := req.Header.Get(echo.HeaderAccessControlRequestHeaders); h != "" {
					headers = h
				}
			}
			if headers != "" {
				header.Set(echo.HeaderAccessControlAllowHeaders, headers)
			}

			return c.NoContent(http.StatusNoContent)
		}
	}
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == "*" || item == v {
			return true
		}
	}
	return false
}
