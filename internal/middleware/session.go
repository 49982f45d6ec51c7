package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/restaurantpro/internal/backend"
	"github.com/suteetoe/restaurantpro/pkg/logger"
	"github.com/suteetoe/restaurantpro/prometheus"
	"go.uber.org/zap"
)

const identityKey = "identity"

// Identity returns the owner resolved by a session gate
func Identity(c echo.Context) (backend.Identity, bool) {
	id, ok := c.Get(identityKey).(backend.Identity)
	return id, ok && id.ID != ""
}

// resolve asks the auth service who owns token. Any failure counts as signed out.
func resolve(c echo.Context, auth backend.AuthService, token string) (backend.Identity, bool) {
	if token == "" {
		return backend.Identity{}, false
	}
	id, err := auth.GetUser(c.Request().Context(), token)
	if err != nil || id.ID == "" {
		logger.FromEcho(c).Info("Session rejected", zap.Error(err))
		prometheus.RecordAuthError("session_rejected")
		return backend.Identity{}, false
	}
	if id.Token == "" {
		id.Token = token
	}
	c.Set(identityKey, id)
	return id, true
}

func cookieToken(c echo.Context, cookieName string) string {
	cookie, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// SessionGate guards pages. Requests without a valid session cookie are
// redirected to loginPath before the handler runs.
func SessionGate(auth backend.AuthService, cookieName, loginPath string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := resolve(c, auth, cookieToken(c, cookieName)); !ok {
				return c.Redirect(http.StatusFound, loginPath)
			}
			return next(c)
		}
	}
}

// APISessionGate guards JSON endpoints. The token comes from an
// "Authorization: Bearer" header or else the session cookie.
func APISessionGate(auth backend.AuthService, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := cookieToken(c, cookieName)
			if header := c.Request().Header.Get(echo.HeaderAuthorization); header != "" {
				parts := strings.SplitN(header, " ", 2)
				if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
					return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization header format"})
				}
				token = parts[1]
			}

			if _, ok := resolve(c, auth, token); !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
			}
			return next(c)
		}
	}
}
