package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/restaurantpro/internal/backend"
)

func (h *Handler) setSession(c echo.Context, s *backend.Session) {
	c.SetCookie(&http.Cookie{
		Name:     h.opts.CookieName,
		Value:    s.AccessToken,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSession(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) sessionToken(c echo.Context) string {
	cookie, err := c.Cookie(h.opts.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
