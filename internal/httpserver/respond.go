package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/service"
	"github.com/openshop/storefront/internal/util"
)

// Response is the envelope every endpoint answers with.
type Response struct {
	Success    bool             `json:"success"`
	Code       string           `json:"code,omitempty"`
	Message    string           `json:"message,omitempty"`
	Data       any              `json:"data,omitempty"`
	Pagination *util.Pagination `json:"pagination,omitempty"`
}

func respond(c echo.Context, status int, message string, data any) error {
	return c.JSON(status, Response{Success: true, Message: message, Data: data})
}

func respondList(c echo.Context, data any, p util.Pagination) error {
	return c.JSON(http.StatusOK, Response{Success: true, Data: data, Pagination: &p})
}

// classify maps the error taxonomy onto HTTP status and a stable code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, repo.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repo.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, repo.ErrInsufficientStock):
		return http.StatusBadRequest, "insufficient_stock"
	case errors.Is(err, repo.ErrCartEmpty):
		return http.StatusBadRequest, "cart_empty"
	case errors.Is(err, repo.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, repo.ErrReferenced):
		return http.StatusBadRequest, "referential_conflict"
	case errors.Is(err, repo.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// respondError shapes an expected failure; unexpected errors answer 500
// with the detail suppressed.
func respondError(c echo.Context, err error) error {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	return c.JSON(status, Response{Success: false, Code: code, Message: msg})
}

func paramUint(c echo.Context, name string) (uint, error) {
	v, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || v == 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	return uint(v), nil
}

func pageLimit(c echo.Context) (page, limit int) {
	page = util.ParseIntDefault(c.QueryParam("page"), 1)
	limit = util.ParseIntDefault(c.QueryParam("limit"), util.DefaultPageSize)
	return page, limit
}
