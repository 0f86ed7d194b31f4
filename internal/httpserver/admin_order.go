package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/openshop/storefront/internal/events"
	"github.com/openshop/storefront/internal/logging"
	"github.com/openshop/storefront/internal/middleware/auth"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/service"
	"github.com/openshop/storefront/internal/transport"
	"github.com/openshop/storefront/internal/util"
)

type AdminOrderHandler struct {
	Orders *service.OrderService
	Events *events.Producer
}

func orderFilterFromQuery(c echo.Context) repo.OrderFilter {
	f := repo.OrderFilter{
		Status:        c.QueryParam("status"),
		PaymentStatus: c.QueryParam("payment_status"),
		Search:        c.QueryParam("search"),
	}
	if v := c.QueryParam("from_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			f.FromDate = &t
		}
	}
	if v := c.QueryParam("to_date"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			end := t.Add(24*time.Hour - time.Nanosecond)
			f.ToDate = &end
		}
	}
	return f
}

func (h *AdminOrderHandler) List(c echo.Context) error {
	page, limit := pageLimit(c)
	offset, limit := util.Calculate(page, limit)

	total, orders, err := h.Orders.List(c.Request().Context(), orderFilterFromQuery(c), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, orders, util.NewPagination(page, limit, total))
}

func (h *AdminOrderHandler) Details(c echo.Context) error {
	// userID 0 lifts the ownership scope for admins.
	details, err := h.Orders.Details(c.Request().Context(), c.Param("number"), 0)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", details)
}

func (h *AdminOrderHandler) UpdateStatus(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_order_status")

	adminID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req transport.UpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.Orders.UpdateStatus(c.Request().Context(), adminID, c.Param("number"), req)
	if err != nil {
		l.Warn("status_update_failed", "order_number", c.Param("number"), "to", req.Status, "error", err)
		return respondError(c, err)
	}

	l.Info("order_status_updated", "order_number", order.OrderNumber, "status", order.Status)
	if err := h.Events.PublishEvent(c.Request().Context(), events.TopicOrderEvents, order.OrderNumber, map[string]any{
		"event":        "order_status_updated",
		"order_number": order.OrderNumber,
		"status":       order.Status,
	}); err != nil {
		l.Warn("publish_failed", "topic", events.TopicOrderEvents, "error", err)
	}

	return respond(c, http.StatusOK, "order status updated", order)
}

func (h *AdminOrderHandler) Statistics(c echo.Context) error {
	stats, err := h.Orders.Statistics(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", stats)
}
