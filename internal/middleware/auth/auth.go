// Package auth gates routes on the caller's bearer token. Identity and
// role end up in the echo context; ownership checks stay in the services.
package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/tokens"
)

const (
	ContextUserID = "user_id"
	ContextRole   = "role"
)

type Middleware struct {
	JWTSecret []byte
}

func New(secret []byte) *Middleware {
	return &Middleware{JWTSecret: secret}
}

func bearerToken(c echo.Context) string {
	h := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func (m *Middleware) resolve(c echo.Context) error {
	raw := bearerToken(c)
	if raw == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
	}

	claims, err := tokens.AccessClaimsFromToken(raw, m.JWTSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
	}

	var userID uint
	if _, err := fmt.Sscan(claims.Subject, &userID); err != nil || userID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token subject")
	}

	c.Set(ContextUserID, userID)
	c.Set(ContextRole, claims.Role)
	return nil
}

// RequireLogin admits any authenticated caller.
func (m *Middleware) RequireLogin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := m.resolve(c); err != nil {
			return err
		}
		return next(c)
	}
}

// AdminOnly admits authenticated callers with the admin role.
func (m *Middleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := m.resolve(c); err != nil {
			return err
		}
		if role, _ := c.Get(ContextRole).(string); role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

// UserID reads the authenticated caller's id set by RequireLogin/AdminOnly.
func UserID(c echo.Context) (uint, error) {
	id, ok := c.Get(ContextUserID).(uint)
	if !ok || id == 0 {
		return 0, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return id, nil
}
