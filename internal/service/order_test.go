package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/transport"
)

var orderRequest = transport.CreateOrderRequest{
	CustomerName:    "Nguyen Van A",
	CustomerPhone:   "0901234567",
	CustomerEmail:   "a@example.com",
	ShippingAddress: "1 Main St",
	ShippingFee:     30,
}

func TestCreateOrderFromCart(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)
	xperia := seedProduct(t, r, cat, "Xperia", "xperia", 250, 4)

	require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 2}))
	require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: xperia.ID, Quantity: 1}))

	order, err := orders.Create(ctx, user.ID, orderRequest)
	require.NoError(t, err)

	require.Regexp(t, regexp.MustCompile(`^ORD\d{13}\d{3}$`), order.OrderNumber)
	require.Equal(t, models.OrderStatusPending, order.Status)
	require.Equal(t, models.PaymentStatusUnpaid, order.PaymentStatus)
	require.Equal(t, 450.0, order.Subtotal)
	require.Equal(t, 480.0, order.TotalAmount)
	require.Len(t, order.Items, 2)

	// live stock moved, sold counters follow
	require.Equal(t, 8, reloadProduct(t, r, nokia.ID).StockQuantity)
	require.Equal(t, 2, reloadProduct(t, r, nokia.ID).SoldCount)
	require.Equal(t, 3, reloadProduct(t, r, xperia.ID).StockQuantity)

	cart, err := carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items, "checkout clears the cart")

	details, err := orders.Details(ctx, order.OrderNumber, user.ID)
	require.NoError(t, err)
	require.Len(t, details.StatusHistory, 1)
	require.Nil(t, details.StatusHistory[0].OldStatus)
	require.Equal(t, models.OrderStatusPending, details.StatusHistory[0].NewStatus)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	r := InitTestDB(t)
	orders := OrderService{Repo: r}

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)

	_, err := orders.Create(context.Background(), user.ID, orderRequest)
	require.ErrorIs(t, err, repo.ErrCartEmpty)
}

func TestCreateOrderInsufficientStockRollsBack(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)
	xperia := seedProduct(t, r, cat, "Xperia", "xperia", 250, 4)

	require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 2}))
	require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: xperia.ID, Quantity: 4}))

	// stock moved between carting and checkout
	require.NoError(t, r.DB.Model(&models.Product{}).Where("id = ?", xperia.ID).
		Update("stock_quantity", 1).Error)

	_, err := orders.Create(ctx, user.ID, orderRequest)
	require.ErrorIs(t, err, repo.ErrInsufficientStock)

	// the whole transaction rolled back, including the first line's decrement
	require.Equal(t, 10, reloadProduct(t, r, nokia.ID).StockQuantity)
	require.Equal(t, 0, reloadProduct(t, r, nokia.ID).SoldCount)

	cart, err := carts.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2, "cart survives a failed checkout")

	var count int64
	require.NoError(t, r.DB.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestOrderSnapshotSurvivesProductChanges(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 1}))
	order, err := orders.Create(ctx, user.ID, orderRequest)
	require.NoError(t, err)

	require.NoError(t, r.DB.Model(&models.Product{}).Where("id = ?", nokia.ID).
		Updates(map[string]any{"name": "Nokia Classic", "price": 999.0}).Error)

	details, err := orders.Details(ctx, order.OrderNumber, user.ID)
	require.NoError(t, err)
	require.Equal(t, "Nokia", details.Items[0].ProductName)
	require.Equal(t, 100.0, details.Items[0].UnitPrice)
}

func TestCancelOrderRestoresStock(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 3}))
	order, err := orders.Create(ctx, user.ID, orderRequest)
	require.NoError(t, err)
	require.Equal(t, 7, reloadProduct(t, r, nokia.ID).StockQuantity)

	cancelled, err := orders.Cancel(ctx, user.ID, order.OrderNumber, "changed my mind")
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, 10, reloadProduct(t, r, nokia.ID).StockQuantity)
	require.Equal(t, 0, reloadProduct(t, r, nokia.ID).SoldCount)

	// a cancelled order cannot be cancelled again
	_, err = orders.Cancel(ctx, user.ID, order.OrderNumber, "")
	require.ErrorIs(t, err, repo.ErrInvalidState)

	details, err := orders.Details(ctx, order.OrderNumber, user.ID)
	require.NoError(t, err)
	require.Len(t, details.StatusHistory, 2)
}

func TestCancelOrderScopedToOwner(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	alice := seedUser(t, r, "alice@example.com", models.RoleCustomer)
	bob := seedUser(t, r, "bob@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, carts.Add(ctx, alice.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 1}))
	order, err := orders.Create(ctx, alice.ID, orderRequest)
	require.NoError(t, err)

	_, err = orders.Cancel(ctx, bob.ID, order.OrderNumber, "")
	require.ErrorIs(t, err, repo.ErrNotFound)

	_, err = orders.Details(ctx, order.OrderNumber, bob.ID)
	require.ErrorIs(t, err, repo.ErrNotFound)
}

func TestOrderStatusTransitions(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	admin := seedUser(t, r, "admin@example.com", models.RoleAdmin)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 1}))
	order, err := orders.Create(ctx, user.ID, orderRequest)
	require.NoError(t, err)

	// pending cannot skip straight to delivered
	_, err = orders.UpdateStatus(ctx, admin.ID, order.OrderNumber,
		transport.UpdateOrderStatusRequest{Status: models.OrderStatusDelivered})
	require.ErrorIs(t, err, repo.ErrInvalidState)

	_, err = orders.UpdateStatus(ctx, admin.ID, order.OrderNumber,
		transport.UpdateOrderStatusRequest{Status: "teleported"})
	require.ErrorIs(t, err, ErrValidation)

	for _, status := range []string{
		models.OrderStatusProcessing, models.OrderStatusShipping, models.OrderStatusDelivered,
	} {
		order, err = orders.UpdateStatus(ctx, admin.ID, order.OrderNumber,
			transport.UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
		require.Equal(t, status, order.Status)
	}

	// delivery settles COD payment
	require.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)

	// delivered is terminal
	_, err = orders.UpdateStatus(ctx, admin.ID, order.OrderNumber,
		transport.UpdateOrderStatusRequest{Status: models.OrderStatusCancelled})
	require.ErrorIs(t, err, repo.ErrInvalidState)

	details, err := orders.Details(ctx, order.OrderNumber, 0)
	require.NoError(t, err)
	require.Len(t, details.StatusHistory, 4)
	require.Equal(t, "Test User", details.StatusHistory[0].ChangedByName)
}

func TestAdminCancelRestoresStock(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	admin := seedUser(t, r, "admin@example.com", models.RoleAdmin)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 4}))
	order, err := orders.Create(ctx, user.ID, orderRequest)
	require.NoError(t, err)

	_, err = orders.UpdateStatus(ctx, admin.ID, order.OrderNumber,
		transport.UpdateOrderStatusRequest{Status: models.OrderStatusProcessing})
	require.NoError(t, err)

	// admin cancel routes through the same restoration path
	cancelled, err := orders.UpdateStatus(ctx, admin.ID, order.OrderNumber,
		transport.UpdateOrderStatusRequest{Status: models.OrderStatusCancelled, Notes: "out of region"})
	require.NoError(t, err)
	require.Equal(t, models.OrderStatusCancelled, cancelled.Status)
	require.Equal(t, 10, reloadProduct(t, r, nokia.ID).StockQuantity)
}

func TestOrderStatistics(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	admin := seedUser(t, r, "admin@example.com", models.RoleAdmin)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 100)

	numbers := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		require.NoError(t, carts.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 1}))
		order, err := orders.Create(ctx, user.ID, orderRequest)
		require.NoError(t, err)
		numbers = append(numbers, order.OrderNumber)
	}

	for _, status := range []string{models.OrderStatusProcessing, models.OrderStatusShipping, models.OrderStatusDelivered} {
		_, err := orders.UpdateStatus(ctx, admin.ID, numbers[0], transport.UpdateOrderStatusRequest{Status: status})
		require.NoError(t, err)
	}
	_, err := orders.Cancel(ctx, user.ID, numbers[1], "")
	require.NoError(t, err)

	stats, err := orders.Statistics(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalOrders)
	require.EqualValues(t, 1, stats.PendingOrders)
	require.EqualValues(t, 1, stats.CompletedOrders)
	require.EqualValues(t, 1, stats.CancelledOrders)
	require.Equal(t, 390.0, stats.TotalRevenue)
	require.Equal(t, 130.0, stats.AverageOrderValue)
}

func TestListOrders(t *testing.T) {
	r := InitTestDB(t)
	carts := CartService{Repo: r}
	orders := OrderService{Repo: r}
	ctx := context.Background()

	alice := seedUser(t, r, "alice@example.com", models.RoleCustomer)
	bob := seedUser(t, r, "bob@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	nokia := seedProduct(t, r, cat, "Nokia", "nokia", 100, 100)

	for _, u := range []*models.User{alice, alice, bob} {
		require.NoError(t, carts.Add(ctx, u.ID, transport.AddToCartRequest{ProductID: nokia.ID, Quantity: 2}))
		_, err := orders.Create(ctx, u.ID, orderRequest)
		require.NoError(t, err)
	}

	total, rows, err := orders.ListByUser(ctx, alice.ID, "", 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Len(t, rows, 2)
	require.EqualValues(t, 1, rows[0].ItemsCount)

	total, rows, err = orders.List(ctx, repo.OrderFilter{Status: models.OrderStatusPending}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
	require.Len(t, rows, 3)

	total, _, err = orders.List(ctx, repo.OrderFilter{Search: "Nguyen"}, 0, 20)
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
}
