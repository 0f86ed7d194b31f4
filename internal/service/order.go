package service

import (
	"context"
	"fmt"

	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/transport"
)

type OrderService struct {
	Repo *repo.GormRepo
}

func (s *OrderService) Create(ctx context.Context, userID uint, req transport.CreateOrderRequest) (*models.Order, error) {
	if req.CustomerName == "" {
		return nil, fmt.Errorf("%w: customer_name is required", ErrValidation)
	}
	if req.CustomerPhone == "" {
		return nil, fmt.Errorf("%w: customer_phone is required", ErrValidation)
	}
	if req.ShippingAddress == "" {
		return nil, fmt.Errorf("%w: shipping_address is required", ErrValidation)
	}
	if req.ShippingFee < 0 {
		return nil, fmt.Errorf("%w: shipping_fee cannot be negative", ErrValidation)
	}

	return s.Repo.CreateOrder(ctx, userID, repo.CreateOrderInput{
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		ShippingAddress: req.ShippingAddress,
		Notes:           req.Notes,
		ShippingFee:     req.ShippingFee,
	})
}

// Cancel handles a customer-initiated cancellation, scoped to the caller's
// own orders.
func (s *OrderService) Cancel(ctx context.Context, userID uint, number, reason string) (*models.Order, error) {
	if reason == "" {
		reason = "Cancelled by customer"
	}
	return s.Repo.CancelOrder(ctx, number, userID, userID, reason)
}

// AdminCancel cancels any user's order. Admin role is checked at the
// transport layer.
func (s *OrderService) AdminCancel(ctx context.Context, adminID uint, number, reason string) (*models.Order, error) {
	if reason == "" {
		reason = "Cancelled by admin"
	}
	return s.Repo.CancelOrder(ctx, number, 0, adminID, reason)
}

func (s *OrderService) UpdateStatus(ctx context.Context, adminID uint, number string, req transport.UpdateOrderStatusRequest) (*models.Order, error) {
	switch req.Status {
	case models.OrderStatusPending, models.OrderStatusProcessing,
		models.OrderStatusShipping, models.OrderStatusDelivered:
	case models.OrderStatusCancelled:
		return s.AdminCancel(ctx, adminID, number, req.Notes)
	default:
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, req.Status)
	}
	return s.Repo.UpdateOrderStatus(ctx, number, req.Status, req.Notes, adminID)
}

func (s *OrderService) ListByUser(ctx context.Context, userID uint, status string, offset, limit int) (int64, []repo.OrderSummary, error) {
	return s.Repo.ListOrdersByUser(ctx, userID, status, offset, limit)
}

func (s *OrderService) List(ctx context.Context, f repo.OrderFilter, offset, limit int) (int64, []repo.OrderSummary, error) {
	return s.Repo.ListOrders(ctx, f, offset, limit)
}

// Details returns the order with items and history. userID zero is the
// admin path and skips the ownership scope.
func (s *OrderService) Details(ctx context.Context, number string, userID uint) (*repo.OrderDetails, error) {
	return s.Repo.GetOrderDetails(ctx, number, userID)
}

func (s *OrderService) Statistics(ctx context.Context) (*repo.OrderStatistics, error) {
	return s.Repo.OrderStatistics(ctx)
}
