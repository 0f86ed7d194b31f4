package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/transport"
)

func TestCartAddAccumulates(t *testing.T) {
	r := InitTestDB(t)
	svc := CartService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	prod := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: prod.ID, Quantity: 2}))
	require.NoError(t, svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: prod.ID, Quantity: 3}))

	cart, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "same product merges into one line")
	require.Equal(t, 5, cart.Items[0].Quantity)
	require.Equal(t, 1, cart.Summary.ItemsCount)
	require.Equal(t, 5, cart.Summary.TotalQuantity)
	require.Equal(t, 500.0, cart.Summary.Subtotal)
}

func TestCartAddStockLimit(t *testing.T) {
	r := InitTestDB(t)
	svc := CartService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	prod := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: prod.ID, Quantity: 8}))

	// 8 already in the cart, 3 more would exceed the 10 in stock
	err := svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: prod.ID, Quantity: 3})
	require.ErrorIs(t, err, repo.ErrInsufficientStock)

	require.NoError(t, svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: prod.ID, Quantity: 2}))
}

func TestCartAddRejections(t *testing.T) {
	r := InitTestDB(t)
	svc := CartService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	inactive := models.Product{
		CategoryID: cat.ID, Name: "Old", Slug: "old",
		Price: 10, StockQuantity: 5, Status: models.ProductStatusInactive,
	}
	require.NoError(t, r.DB.Create(&inactive).Error)

	err := svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: inactive.ID, Quantity: 1})
	require.ErrorIs(t, err, repo.ErrInvalidState)

	err = svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: 999, Quantity: 1})
	require.ErrorIs(t, err, repo.ErrNotFound)

	err = svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: inactive.ID, Quantity: 0})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCartOwnership(t *testing.T) {
	r := InitTestDB(t)
	svc := CartService{Repo: r}
	ctx := context.Background()

	alice := seedUser(t, r, "alice@example.com", models.RoleCustomer)
	bob := seedUser(t, r, "bob@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	prod := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, svc.Add(ctx, alice.ID, transport.AddToCartRequest{ProductID: prod.ID, Quantity: 1}))

	cart, err := svc.GetCart(ctx, alice.ID)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	require.ErrorIs(t, svc.UpdateQuantity(ctx, bob.ID, itemID, 2), repo.ErrNotFound)
	require.ErrorIs(t, svc.Remove(ctx, bob.ID, itemID), repo.ErrNotFound)

	require.NoError(t, svc.UpdateQuantity(ctx, alice.ID, itemID, 2))
	require.NoError(t, svc.Remove(ctx, alice.ID, itemID))
}

func TestCartUpdateAndClear(t *testing.T) {
	r := InitTestDB(t)
	svc := CartService{Repo: r}
	ctx := context.Background()

	user := seedUser(t, r, "a@example.com", models.RoleCustomer)
	cat := seedCategory(t, r, "Phones", "phones")
	prod := seedProduct(t, r, cat, "Nokia", "nokia", 100, 10)

	require.NoError(t, svc.Add(ctx, user.ID, transport.AddToCartRequest{ProductID: prod.ID, Quantity: 1}))

	cart, err := svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	itemID := cart.Items[0].ID

	require.ErrorIs(t, svc.UpdateQuantity(ctx, user.ID, itemID, 11), repo.ErrInsufficientStock)
	require.ErrorIs(t, svc.UpdateQuantity(ctx, user.ID, itemID, 0), ErrValidation)
	require.NoError(t, svc.UpdateQuantity(ctx, user.ID, itemID, 10))

	require.NoError(t, svc.Clear(ctx, user.ID))
	cart, err = svc.GetCart(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, cart.Items)
}
