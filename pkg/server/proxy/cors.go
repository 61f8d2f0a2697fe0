package proxy

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsAllowHeaders = "Content-Type, Authorization, X-Request-ID"
	corsMaxAge       = "86400"
)

// permissiveCORS stamps CORS headers on every response, including errors and
// unknown routes, and answers OPTIONS with 204 and no body.
func permissiveCORS(allowOrigins []string) echo.MiddlewareFunc {
	wildcard := false
	allowed := make(map[string]struct{}, len(allowOrigins))
	for _, origin := range allowOrigins {
		if origin == "*" {
			wildcard = true
		}
		allowed[strings.TrimRight(origin, "/")] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			header := ctx.Response().Header()
			origin := ctx.Request().Header.Get(echo.HeaderOrigin)

			switch {
			case wildcard:
				header.Set(echo.HeaderAccessControlAllowOrigin, "*")
			case origin != "":
				if _, ok := allowed[origin]; ok {
					header.Set(echo.HeaderAccessControlAllowOrigin, origin)
					header.Add(echo.HeaderVary, echo.HeaderOrigin)
				}
			}
			header.Set(echo.HeaderAccessControlAllowMethods, corsAllowMethods)
			header.Set(echo.HeaderAccessControlAllowHeaders, corsAllowHeaders)

			if ctx.Request().Method == http.MethodOptions {
				header.Set(echo.HeaderAccessControlMaxAge, corsMaxAge)
				return ctx.NoContent(http.StatusNoContent)
			}
			return next(ctx)
		}
	}
}
