package service

import (
	"context"
	"fmt"

	"github.com/openshop/storefront/internal/logging"
	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/slug"
	"github.com/openshop/storefront/internal/transport"
)

// ImageFiles removes stored image files. Remove tolerates files that are
// already gone.
type ImageFiles interface {
	Remove(url string) error
}

type CatalogService struct {
	Repo  *repo.GormRepo
	Files ImageFiles
}

func (s *CatalogService) ListCategories(ctx context.Context, f repo.CategoryFilter) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx, f)
}

// CategoryDetails is a category with its children and the number of active
// products in it.
type CategoryDetails struct {
	models.Category
	Children     []models.Category `json:"children"`
	ProductCount int64             `json:"product_count"`
}

func (s *CatalogService) GetCategoryBySlug(ctx context.Context, slugStr string) (*CategoryDetails, error) {
	cat, err := s.Repo.GetCategoryBySlug(ctx, slugStr)
	if err != nil {
		return nil, err
	}

	children, err := s.Repo.ListCategories(ctx, repo.CategoryFilter{ParentID: &cat.ID})
	if err != nil {
		return nil, err
	}

	count, err := s.Repo.CountActiveProductsInCategory(ctx, cat.ID)
	if err != nil {
		return nil, err
	}

	return &CategoryDetails{Category: *cat, Children: children, ProductCount: count}, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}

	slugStr := slug.Make(req.Name)
	taken, err := s.Repo.CategorySlugTaken(ctx, slugStr, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: category with this name already exists", repo.ErrConflict)
	}

	if req.ParentID != nil {
		if _, err := s.Repo.GetCategoryByID(ctx, *req.ParentID); err != nil {
			return nil, fmt.Errorf("parent category: %w", err)
		}
	}

	cat := models.Category{
		Name:        req.Name,
		Slug:        slugStr,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		ParentID:    req.ParentID,
		IsActive:    true,
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		cat.DisplayOrder = *req.DisplayOrder
	}

	if err := s.Repo.CreateCategory(ctx, &cat); err != nil {
		return nil, err
	}
	return &cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id uint, req transport.UpdateCategoryRequest) (*models.Category, error) {
	cat, err := s.Repo.GetCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil && *req.Name != cat.Name {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		newSlug := slug.Make(*req.Name)
		taken, err := s.Repo.CategorySlugTaken(ctx, newSlug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: category with this name already exists", repo.ErrConflict)
		}
		cat.Name = *req.Name
		cat.Slug = newSlug
	}

	if req.ParentID != nil {
		if *req.ParentID == id {
			return nil, fmt.Errorf("%w: category cannot be its own parent", repo.ErrInvalidState)
		}
		if _, err := s.Repo.GetCategoryByID(ctx, *req.ParentID); err != nil {
			return nil, fmt.Errorf("parent category: %w", err)
		}
		cat.ParentID = req.ParentID
	}
	if req.Description != nil {
		cat.Description = *req.Description
	}
	if req.ImageURL != nil {
		cat.ImageURL = *req.ImageURL
	}
	if req.IsActive != nil {
		cat.IsActive = *req.IsActive
	}
	if req.DisplayOrder != nil {
		cat.DisplayOrder = *req.DisplayOrder
	}

	if err := s.Repo.SaveCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uint) error {
	return s.Repo.DeleteCategory(ctx, id)
}

func (s *CatalogService) ListProducts(ctx context.Context, f repo.ProductFilter, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, f, offset, limit)
}

func (s *CatalogService) GetProductBySlug(ctx context.Context, slugStr string) (*models.Product, error) {
	return s.Repo.GetProductBySlug(ctx, slugStr)
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return s.Repo.GetProductByID(ctx, id)
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	slugStr := slug.Make(req.Name)
	taken, err := s.Repo.ProductSlugTaken(ctx, slugStr, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: product with this name already exists", repo.ErrConflict)
	}

	if _, err := s.Repo.GetCategoryByID(ctx, req.CategoryID); err != nil {
		return nil, fmt.Errorf("category: %w", err)
	}

	status := req.Status
	if status == "" {
		status = models.ProductStatusActive
	}

	prod := models.Product{
		CategoryID:    req.CategoryID,
		Name:          req.Name,
		Slug:          slugStr,
		Description:   req.Description,
		Price:         req.Price,
		ComparePrice:  req.ComparePrice,
		StockQuantity: req.StockQuantity,
		SKU:           req.SKU,
		Status:        status,
	}
	for i, img := range req.Images {
		prod.Images = append(prod.Images, models.ProductImage{
			ImageURL:     img.ImageURL,
			AltText:      img.AltText,
			IsPrimary:    i == 0,
			DisplayOrder: i,
		})
	}

	if err := s.Repo.CreateProduct(ctx, &prod); err != nil {
		return nil, err
	}
	return &prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id uint, req transport.UpdateProductRequest) (*models.Product, error) {
	prod, err := s.Repo.GetProductByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var newSlug string
	if req.Name != nil && *req.Name != prod.Name {
		if *req.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		newSlug = slug.Make(*req.Name)
		taken, err := s.Repo.ProductSlugTaken(ctx, newSlug, id)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, fmt.Errorf("%w: product with this name already exists", repo.ErrConflict)
		}
	}
	if req.Price != nil && *req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrValidation)
	}
	if req.CategoryID != nil {
		if _, err := s.Repo.GetCategoryByID(ctx, *req.CategoryID); err != nil {
			return nil, fmt.Errorf("category: %w", err)
		}
	}

	return s.Repo.UpdateProduct(ctx, id, req, newSlug)
}

// DeleteProduct removes the product and cleans up its stored image files.
// Missing files are ignored.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	images, err := s.Repo.DeleteProduct(ctx, id)
	if err != nil {
		return err
	}

	if s.Files != nil {
		l := logging.FromContext(ctx)
		for _, img := range images {
			if err := s.Files.Remove(img.ImageURL); err != nil {
				l.Warn("image_cleanup_failed", "url", img.ImageURL, "error", err)
			}
		}
	}
	return nil
}

func (s *CatalogService) UpdateStock(ctx context.Context, id uint, req transport.UpdateStockRequest) (*models.Product, error) {
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
	}
	switch req.Action {
	case repo.StockActionSet, repo.StockActionIncrease, repo.StockActionDecrease:
	default:
		return nil, fmt.Errorf("%w: action must be set, increase or decrease", ErrValidation)
	}
	return s.Repo.UpdateStock(ctx, id, req.Action, req.Quantity)
}

// AddImages appends uploaded images after the product's existing ones.
func (s *CatalogService) AddImages(ctx context.Context, productID uint, imgs []transport.ImageRequest) ([]models.ProductImage, error) {
	prod, err := s.Repo.GetProductByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	order := len(prod.Images)
	added := make([]models.ProductImage, 0, len(imgs))
	for _, in := range imgs {
		alt := in.AltText
		if alt == "" {
			alt = prod.Name
		}
		img := models.ProductImage{
			ProductID:    productID,
			ImageURL:     in.ImageURL,
			AltText:      alt,
			IsPrimary:    in.IsPrimary,
			DisplayOrder: order,
		}
		order++
		if err := s.Repo.AddImage(ctx, &img); err != nil {
			return nil, err
		}
		added = append(added, img)
	}
	return added, nil
}

func (s *CatalogService) DeleteImage(ctx context.Context, id uint) error {
	img, err := s.Repo.GetImage(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.DeleteImage(ctx, id); err != nil {
		return err
	}
	if s.Files != nil {
		if err := s.Files.Remove(img.ImageURL); err != nil {
			logging.FromContext(ctx).Warn("image_cleanup_failed", "url", img.ImageURL, "error", err)
		}
	}
	return nil
}
