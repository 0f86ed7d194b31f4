package service

import (
	"context"
	"fmt"

	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/transport"
)

type CartService struct {
	Repo *repo.GormRepo
}

type CartSummary struct {
	ItemsCount    int     `json:"items_count"`
	TotalQuantity int     `json:"total_quantity"`
	Subtotal      float64 `json:"subtotal"`
}

type Cart struct {
	Items   []repo.CartLine `json:"items"`
	Summary CartSummary     `json:"summary"`
}

func (s *CartService) GetCart(ctx context.Context, userID uint) (*Cart, error) {
	lines, err := s.Repo.GetCartLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	cart := Cart{Items: lines}
	for _, line := range lines {
		cart.Summary.ItemsCount++
		cart.Summary.TotalQuantity += line.Quantity
		cart.Summary.Subtotal += line.Price * float64(line.Quantity)
	}
	return &cart, nil
}

// Add validates availability against live stock, counting what is already
// in the cart, then upserts the line.
func (s *CartService) Add(ctx context.Context, userID uint, req transport.AddToCartRequest) error {
	if req.ProductID == 0 {
		return fmt.Errorf("%w: product_id is required", ErrValidation)
	}
	if req.Quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	prod, err := s.Repo.GetProductByID(ctx, req.ProductID)
	if err != nil {
		return err
	}
	if prod.Status != models.ProductStatusActive {
		return fmt.Errorf("%w: product is not available", repo.ErrInvalidState)
	}

	requested := req.Quantity
	lines, err := s.Repo.GetCartLines(ctx, userID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if line.ProductID == req.ProductID {
			requested += line.Quantity
			break
		}
	}
	if prod.StockQuantity < requested {
		return fmt.Errorf("%w: %s", repo.ErrInsufficientStock, prod.Name)
	}

	item := models.CartItem{UserID: userID, ProductID: req.ProductID, Quantity: req.Quantity}
	return s.Repo.AddToCart(ctx, &item)
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}

	item, err := s.Repo.GetCartItemForUser(ctx, itemID, userID)
	if err != nil {
		return err
	}

	prod, err := s.Repo.GetProductByID(ctx, item.ProductID)
	if err != nil {
		return err
	}
	if prod.StockQuantity < quantity {
		return fmt.Errorf("%w: %s", repo.ErrInsufficientStock, prod.Name)
	}

	return s.Repo.UpdateCartQuantity(ctx, itemID, quantity)
}

func (s *CartService) Remove(ctx context.Context, userID, itemID uint) error {
	if _, err := s.Repo.GetCartItemForUser(ctx, itemID, userID); err != nil {
		return err
	}
	return s.Repo.RemoveCartItem(ctx, itemID)
}

func (s *CartService) Clear(ctx context.Context, userID uint) error {
	return s.Repo.ClearCart(ctx, userID)
}
