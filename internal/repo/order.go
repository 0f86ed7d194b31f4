package repo

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"github.com/openshop/storefront/internal/models"
)

// GenerateOrderNumber builds the public order token: "ORD" + millisecond
// epoch + 3-digit random suffix. Collisions are accepted as negligible,
// there is no retry loop.
func GenerateOrderNumber() string {
	return fmt.Sprintf("ORD%d%03d", time.Now().UnixMilli(), rand.Intn(1000))
}

// orderTransitions is the full set of permitted status changes.
var orderTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusShipping, models.OrderStatusCancelled},
	models.OrderStatusShipping:   {models.OrderStatusDelivered},
}

func CanTransition(from, to string) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

type CreateOrderInput struct {
	CustomerName    string
	CustomerPhone   string
	CustomerEmail   string
	ShippingAddress string
	Notes           string
	ShippingFee     float64
}

// CreateOrder converts the user's cart into an order inside one transaction:
// per-line live product re-read, guarded stock decrement, snapshot inserts,
// cart clear and the initial history row. Any failure rolls the whole
// operation back.
func (r *GormRepo) CreateOrder(ctx context.Context, userID uint, in CreateOrderInput) (*models.Order, error) {
	var order *models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart []models.CartItem
		if err := tx.Where("user_id = ?", userID).Order("created_at ASC").Find(&cart).Error; err != nil {
			return err
		}
		if len(cart) == 0 {
			return ErrCartEmpty
		}

		var subtotal float64
		items := make([]models.OrderItem, 0, len(cart))

		for _, line := range cart {
			var prod models.Product
			if err := tx.First(&prod, line.ProductID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product %d", ErrNotFound, line.ProductID)
				}
				return err
			}
			if prod.Status != models.ProductStatusActive {
				return fmt.Errorf("%w: product %q is not available", ErrInvalidState, prod.Name)
			}

			// Guarded decrement: the WHERE clause makes the stock check and
			// the decrement one atomic statement, so a concurrent checkout
			// cannot oversell the same row.
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock_quantity >= ?", prod.ID, line.Quantity).
				Updates(map[string]any{
					"stock_quantity": gorm.Expr("stock_quantity - ?", line.Quantity),
					"sold_count":     gorm.Expr("sold_count + ?", line.Quantity),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("%w: %s", ErrInsufficientStock, prod.Name)
			}

			var image string
			tx.Model(&models.ProductImage{}).
				Select("image_url").
				Where("product_id = ? AND is_primary", prod.ID).
				Limit(1).Scan(&image)

			lineTotal := prod.Price * float64(line.Quantity)
			subtotal += lineTotal
			items = append(items, models.OrderItem{
				ProductID:    prod.ID,
				ProductName:  prod.Name,
				ProductImage: image,
				Quantity:     line.Quantity,
				UnitPrice:    prod.Price,
				TotalPrice:   lineTotal,
			})
		}

		order = &models.Order{
			UserID:          userID,
			OrderNumber:     GenerateOrderNumber(),
			CustomerName:    in.CustomerName,
			CustomerPhone:   in.CustomerPhone,
			CustomerEmail:   in.CustomerEmail,
			ShippingAddress: in.ShippingAddress,
			Notes:           in.Notes,
			Subtotal:        subtotal,
			ShippingFee:     in.ShippingFee,
			TotalAmount:     subtotal + in.ShippingFee,
			Status:          models.OrderStatusPending,
			PaymentStatus:   models.PaymentStatusUnpaid,
			PaymentMethod:   "COD",
			Items:           items,
		}
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		if err := tx.Where("user_id = ?", userID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: nil,
			NewStatus: models.OrderStatusPending,
			Notes:     "Order created",
			ChangedBy: userID,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// getOrderByNumber scopes by user unless userID is zero (admin path).
func getOrderByNumber(tx *gorm.DB, number string, userID uint) (*models.Order, error) {
	q := tx.Where("order_number = ?", number)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var order models.Order
	if err := q.First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderByNumber(ctx context.Context, number string, userID uint) (*models.Order, error) {
	return getOrderByNumber(r.DB.WithContext(ctx), number, userID)
}

// StatusHistoryEntry joins the acting user's name onto a history row.
type StatusHistoryEntry struct {
	models.OrderStatusHistory
	ChangedByName string `json:"changed_by_name"`
}

type OrderDetails struct {
	models.Order
	StatusHistory []StatusHistoryEntry `json:"status_history"`
}

func (r *GormRepo) GetOrderDetails(ctx context.Context, number string, userID uint) (*OrderDetails, error) {
	order, err := getOrderByNumber(r.DB.WithContext(ctx), number, userID)
	if err != nil {
		return nil, err
	}

	if err := r.DB.WithContext(ctx).
		Where("order_id = ?", order.ID).
		Find(&order.Items).Error; err != nil {
		return nil, err
	}

	var history []StatusHistoryEntry
	err = r.DB.WithContext(ctx).Model(&models.OrderStatusHistory{}).
		Select("order_status_histories.*, users.full_name AS changed_by_name").
		Joins("LEFT JOIN users ON users.id = order_status_histories.changed_by").
		Where("order_status_histories.order_id = ?", order.ID).
		Order("order_status_histories.created_at DESC").
		Scan(&history).Error
	if err != nil {
		return nil, err
	}

	return &OrderDetails{Order: *order, StatusHistory: history}, nil
}

// restoreStock compensates one order item: stock comes back in full,
// sold_count is decremented with a floor at zero so a racing double
// cancellation can never drive it negative.
func restoreStock(tx *gorm.DB, item models.OrderItem) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", item.ProductID).
		Updates(map[string]any{
			"stock_quantity": gorm.Expr("stock_quantity + ?", item.Quantity),
			"sold_count": gorm.Expr(
				"CASE WHEN sold_count > ? THEN sold_count - ? ELSE 0 END",
				item.Quantity, item.Quantity,
			),
		}).Error
}

// CancelOrder cancels a pending or processing order, restoring stock for
// every line. userID zero means the admin path (unscoped lookup).
func (r *GormRepo) CancelOrder(ctx context.Context, number string, userID, actor uint, reason string) (*models.Order, error) {
	var order *models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = getOrderByNumber(tx, number, userID)
		if err != nil {
			return err
		}

		if order.Status != models.OrderStatusPending && order.Status != models.OrderStatusProcessing {
			return fmt.Errorf("%w: cannot cancel order in status %q", ErrInvalidState, order.Status)
		}

		var items []models.OrderItem
		if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if err := restoreStock(tx, item); err != nil {
				return err
			}
		}

		oldStatus := order.Status
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).
			Update("status", models.OrderStatusCancelled).Error; err != nil {
			return err
		}
		order.Status = models.OrderStatusCancelled

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: &oldStatus,
			NewStatus: models.OrderStatusCancelled,
			Notes:     reason,
			ChangedBy: actor,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateOrderStatus performs an admin status change. Transitioning to
// delivered settles payment (COD is considered paid on delivery);
// transitioning to cancelled runs the same stock restoration as a customer
// cancellation.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, number, newStatus, notes string, actor uint) (*models.Order, error) {
	var order *models.Order

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = getOrderByNumber(tx, number, 0)
		if err != nil {
			return err
		}

		if !CanTransition(order.Status, newStatus) {
			return fmt.Errorf("%w: cannot move order from %q to %q", ErrInvalidState, order.Status, newStatus)
		}

		if newStatus == models.OrderStatusCancelled {
			var items []models.OrderItem
			if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
				return err
			}
			for _, item := range items {
				if err := restoreStock(tx, item); err != nil {
					return err
				}
			}
		}

		updates := map[string]any{"status": newStatus}
		if newStatus == models.OrderStatusDelivered {
			updates["payment_status"] = models.PaymentStatusPaid
			order.PaymentStatus = models.PaymentStatusPaid
		}
		if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Updates(updates).Error; err != nil {
			return err
		}

		oldStatus := order.Status
		order.Status = newStatus

		if notes == "" {
			notes = "Status updated by admin"
		}
		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			OldStatus: &oldStatus,
			NewStatus: newStatus,
			Notes:     notes,
			ChangedBy: actor,
		}
		return tx.Create(&history).Error
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// OrderSummary is a listing row with the item count attached.
type OrderSummary struct {
	models.Order
	ItemsCount int64 `json:"items_count"`
}

const itemsCountSelect = `orders.*,
	(SELECT COUNT(*) FROM order_items WHERE order_items.order_id = orders.id) AS items_count`

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uint, status string, offset, limit int) (int64, []OrderSummary, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var rows []OrderSummary
	err := q.Select(itemsCountSelect).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return 0, nil, err
	}
	return total, rows, nil
}

type OrderFilter struct {
	Status        string
	PaymentStatus string
	Search        string
	FromDate      *time.Time
	ToDate        *time.Time
}

func (r *GormRepo) orderQuery(ctx context.Context, f OrderFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.PaymentStatus != "" {
		q = q.Where("payment_status = ?", f.PaymentStatus)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("order_number LIKE ? OR customer_name LIKE ? OR customer_phone LIKE ?", like, like, like)
	}
	if f.FromDate != nil {
		q = q.Where("created_at >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("created_at <= ?", *f.ToDate)
	}
	return q
}

func (r *GormRepo) ListOrders(ctx context.Context, f OrderFilter, offset, limit int) (int64, []OrderSummary, error) {
	var total int64
	if err := r.orderQuery(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var rows []OrderSummary
	err := r.orderQuery(ctx, f).Select(itemsCountSelect).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return 0, nil, err
	}
	return total, rows, nil
}

type OrderStatistics struct {
	TotalOrders       int64   `json:"total_orders"`
	PendingOrders     int64   `json:"pending_orders"`
	ProcessingOrders  int64   `json:"processing_orders"`
	ShippingOrders    int64   `json:"shipping_orders"`
	CompletedOrders   int64   `json:"completed_orders"`
	CancelledOrders   int64   `json:"cancelled_orders"`
	TotalRevenue      float64 `json:"total_revenue"`
	AverageOrderValue float64 `json:"average_order_value"`
}

func (r *GormRepo) OrderStatistics(ctx context.Context) (*OrderStatistics, error) {
	var stats OrderStatistics
	err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select(`COUNT(*) AS total_orders,
			SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END) AS pending_orders,
			SUM(CASE WHEN status = 'processing' THEN 1 ELSE 0 END) AS processing_orders,
			SUM(CASE WHEN status = 'shipping' THEN 1 ELSE 0 END) AS shipping_orders,
			SUM(CASE WHEN status = 'delivered' THEN 1 ELSE 0 END) AS completed_orders,
			SUM(CASE WHEN status = 'cancelled' THEN 1 ELSE 0 END) AS cancelled_orders,
			COALESCE(SUM(total_amount), 0) AS total_revenue,
			COALESCE(AVG(total_amount), 0) AS average_order_value`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
