package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	echo "github.com/labstack/echo/v4"
)

const ctxClientKey = "client_key"

// ClientKeyFromCtx returns the key requests are rate limited by: the
// authenticated token's caller or, without auth, the client address.
func ClientKeyFromCtx(c echo.Context) string {
	if v, ok := c.Get(ctxClientKey).(string); ok && v != "" {
		return v
	}
	return c.RealIP()
}

// TokenMiddleware authenticates requests using the X-API-Key header or, for
// gateway pushes that cannot set headers, a token query parameter. An empty
// token disables the check.
func TokenMiddleware(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if token == "" {
				return next(c)
			}

			got := strings.TrimSpace(c.Request().Header.Get("X-API-Key"))
			if got == "" {
				got = strings.TrimSpace(c.QueryParam("token"))
			}
			if got == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "missing api key"})
			}
			if subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid api key"})
			}

			c.Set(ctxClientKey, "token:"+c.RealIP())
			return next(c)
		}
	}
}
