package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openshop/storefront/internal/logging"
	"github.com/openshop/storefront/internal/middleware/auth"
	"github.com/openshop/storefront/internal/service"
	"github.com/openshop/storefront/internal/transport"
)

type CartHandler struct {
	Cart *service.CartService
}

func (h *CartHandler) Get(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	cart, err := h.Cart.GetCart(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", cart)
}

func (h *CartHandler) Add(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart_add")

	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.Cart.Add(c.Request().Context(), userID, req); err != nil {
		l.Warn("cart_add_failed", "user_id", userID, "product_id", req.ProductID, "error", err)
		return respondError(c, err)
	}

	cart, err := h.Cart.GetCart(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "item added to cart", cart)
}

func (h *CartHandler) UpdateItem(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	itemID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.Cart.UpdateQuantity(c.Request().Context(), userID, itemID, req.Quantity); err != nil {
		return respondError(c, err)
	}

	cart, err := h.Cart.GetCart(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "cart updated", cart)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	itemID, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	if err := h.Cart.Remove(c.Request().Context(), userID, itemID); err != nil {
		return respondError(c, err)
	}

	cart, err := h.Cart.GetCart(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "item removed", cart)
}

func (h *CartHandler) Clear(c echo.Context) error {
	userID, err := auth.UserID(c)
	if err != nil {
		return err
	}
	if err := h.Cart.Clear(c.Request().Context(), userID); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "cart cleared", nil)
}
