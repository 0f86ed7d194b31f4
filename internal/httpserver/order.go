package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openshop/storefront/internal/events"
	"github.com/openshop/storefront/internal/logging"
	"github.com/openshop/storefront/internal/middleware/auth"
	"github.com/openshop/storefront/internal/service"
	"github.com/openshop/storefront/internal/transport"
	"github.com/openshop/storefront/internal/util"
)

// OrderHandler serves the customer-facing order endpoints. Every route is
// scoped to the authenticated user.
type OrderHandler struct {
	Orders *service.OrderService
	Events *events.Producer
}

func (h *OrderHandler) Create(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "order_create")

	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.Orders.Create(c.Request().Context(), userID, req)
	if err != nil {
		l.Warn("order_create_failed", "user_id", userID, "error", err)
		return respondError(c, err)
	}

	l.Info("order_created", "user_id", userID, "order_number", order.OrderNumber)
	if err := h.Events.PublishEvent(c.Request().Context(), events.TopicOrderEvents, order.OrderNumber, map[string]any{
		"event":        "order_created",
		"order_number": order.OrderNumber,
		"user_id":      userID,
		"total_amount": order.TotalAmount,
	}); err != nil {
		l.Warn("publish_failed", "topic", events.TopicOrderEvents, "error", err)
	}

	return respond(c, http.StatusCreated, "order created", order)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	page, limit := pageLimit(c)
	offset, limit := util.Calculate(page, limit)

	total, orders, err := h.Orders.ListByUser(c.Request().Context(), userID, c.QueryParam("status"), offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, orders, util.NewPagination(page, limit, total))
}

func (h *OrderHandler) Details(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	details, err := h.Orders.Details(c.Request().Context(), c.Param("number"), userID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", details)
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "order_cancel")

	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req transport.CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	order, err := h.Orders.Cancel(c.Request().Context(), userID, c.Param("number"), req.Reason)
	if err != nil {
		l.Warn("order_cancel_failed", "user_id", userID, "order_number", c.Param("number"), "error", err)
		return respondError(c, err)
	}

	l.Info("order_cancelled", "user_id", userID, "order_number", order.OrderNumber)
	if err := h.Events.PublishEvent(c.Request().Context(), events.TopicOrderEvents, order.OrderNumber, map[string]any{
		"event":        "order_cancelled",
		"order_number": order.OrderNumber,
		"user_id":      userID,
	}); err != nil {
		l.Warn("publish_failed", "topic", events.TopicOrderEvents, "error", err)
	}

	return respond(c, http.StatusOK, "order cancelled", order)
}
