package httpserver

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openshop/storefront/internal/logging"
	"github.com/openshop/storefront/internal/middleware/auth"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/service"
	"github.com/openshop/storefront/internal/transport"
)

type AuthHandler struct {
	Auth *service.AuthService
}

func (h *AuthHandler) Register(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("bad_request", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.Auth.Register(c.Request().Context(), req)
	if err != nil {
		l.Warn("register_failed", "email", req.Email, "error", err)
		return respondError(c, err)
	}

	l.Info("registered", "user_id", res.User.ID)
	return respond(c, http.StatusCreated, "registration successful", res)
}

func (h *AuthHandler) Login(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := h.Auth.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, repo.ErrForbidden) {
			l.Warn("login_rejected", "email", req.Email)
			return c.JSON(http.StatusUnauthorized, Response{
				Success: false, Code: "unauthorized", Message: "invalid email or password",
			})
		}
		l.Error("login_failed", "status", 500, "error", err)
		return respondError(c, err)
	}

	l.Info("logged_in", "user_id", res.User.ID)
	return respond(c, http.StatusOK, "login successful", res)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}

	res, err := h.Auth.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, repo.ErrForbidden) || errors.Is(err, repo.ErrNotFound) {
			l.Warn("refresh_rejected")
			return c.JSON(http.StatusUnauthorized, Response{
				Success: false, Code: "unauthorized", Message: "invalid refresh token",
			})
		}
		l.Error("refresh_failed", "status", 500, "error", err)
		return respondError(c, err)
	}

	return respond(c, http.StatusOK, "token refreshed", res)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil || req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refresh_token is required")
	}
	if err := h.Auth.Logout(c.Request().Context(), req.RefreshToken); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) Profile(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	user, err := h.Auth.GetProfile(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", user)
}

func (h *AuthHandler) UpdateProfile(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.Auth.UpdateProfile(c.Request().Context(), userID, req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "profile updated", user)
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth_change_password")

	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req transport.ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.Auth.ChangePassword(c.Request().Context(), userID, req); err != nil {
		l.Warn("change_password_failed", "user_id", userID, "error", err)
		return respondError(c, err)
	}

	l.Info("password_changed", "user_id", userID)
	return respond(c, http.StatusOK, "password changed", nil)
}

func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req transport.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil || req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}
	if err := h.Auth.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return respondError(c, err)
	}
	// The answer never reveals whether the address is registered.
	return respond(c, http.StatusOK, "if the email exists, a reset link was sent", nil)
}

func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.Auth.ResetPassword(c.Request().Context(), req); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "password reset", nil)
}
