package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/transport"
)

type CategoryFilter struct {
	IsActive *bool
	ParentID *uint
	RootOnly bool
}

func (r *GormRepo) ListCategories(ctx context.Context, f CategoryFilter) ([]models.Category, error) {
	q := r.DB.WithContext(ctx).Model(&models.Category{})
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.RootOnly {
		q = q.Where("parent_id IS NULL")
	} else if f.ParentID != nil {
		q = q.Where("parent_id = ?", *f.ParentID)
	}

	var cats []models.Category
	if err := q.Order("display_order ASC, name ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	return cats, nil
}

func (r *GormRepo) GetCategoryByID(ctx context.Context, id uint) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).First(&cat, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cat, nil
}

func (r *GormRepo) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var cat models.Category
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&cat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cat, nil
}

// CategorySlugTaken reports whether another category already owns the slug.
// excludeID is ignored when zero.
func (r *GormRepo) CategorySlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	q := r.DB.WithContext(ctx).Model(&models.Category{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Create(cat).Error
}

func (r *GormRepo) SaveCategory(ctx context.Context, cat *models.Category) error {
	return r.DB.WithContext(ctx).Save(cat).Error
}

// DeleteCategory refuses to delete a category that still has products or
// child categories pointing at it.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return fmt.Errorf("%w: category has products", ErrReferenced)
		}

		var children int64
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return fmt.Errorf("%w: category has subcategories", ErrReferenced)
		}

		res := tx.Delete(&models.Category{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *GormRepo) CountActiveProductsInCategory(ctx context.Context, categoryID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.Product{}).
		Where("category_id = ? AND status = ?", categoryID, models.ProductStatusActive).
		Count(&n).Error
	return n, err
}

type ProductFilter struct {
	CategoryID uint
	Status     string
	Search     string
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string
	SortOrder  string
}

// sortColumns whitelists the columns a listing may be ordered by.
var sortColumns = map[string]bool{
	"created_at": true,
	"price":      true,
	"name":       true,
	"sold_count": true,
	"view_count": true,
}

func (r *GormRepo) productQuery(ctx context.Context, f ProductFilter) *gorm.DB {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	return q
}

func (r *GormRepo) ListProducts(ctx context.Context, f ProductFilter, offset, limit int) (int64, []models.Product, error) {
	var total int64
	if err := r.productQuery(ctx, f).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	sortBy := f.SortBy
	if !sortColumns[sortBy] {
		sortBy = "created_at"
	}
	dir := "DESC"
	if f.SortOrder == "asc" {
		dir = "ASC"
	}

	var items []models.Product
	err := r.productQuery(ctx, f).
		Preload("Images").
		Order(sortBy + " " + dir).
		Offset(offset).Limit(limit).
		Find(&items).Error
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetProductByID(ctx context.Context, id uint) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Preload("Images").First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &prod, nil
}

// GetProductBySlug loads the product for the public detail page and bumps
// its view counter.
func (r *GormRepo) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).Preload("Images").Where("slug = ?", slug).First(&prod).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", prod.ID).
		Update("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
		return nil, err
	}
	prod.ViewCount++
	return &prod, nil
}

func (r *GormRepo) ProductSlugTaken(ctx context.Context, slug string, excludeID uint) (bool, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	return r.DB.WithContext(ctx).Create(prod).Error
}

// UpdateProduct applies the non-nil fields of req. newSlug is empty unless
// the caller regenerated it from a changed name.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uint, req transport.UpdateProductRequest, newSlug string) (*models.Product, error) {
	var prod models.Product
	if err := r.DB.WithContext(ctx).First(&prod, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.CategoryID != nil {
		prod.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		prod.Name = *req.Name
	}
	if newSlug != "" {
		prod.Slug = newSlug
	}
	if req.Description != nil {
		prod.Description = *req.Description
	}
	if req.Price != nil {
		prod.Price = *req.Price
	}
	if req.ComparePrice != nil {
		prod.ComparePrice = req.ComparePrice
	}
	if req.StockQuantity != nil {
		prod.StockQuantity = *req.StockQuantity
	}
	if req.SKU != nil {
		prod.SKU = *req.SKU
	}
	if req.Status != nil {
		prod.Status = *req.Status
	}

	if err := r.DB.WithContext(ctx).Save(&prod).Error; err != nil {
		return nil, err
	}
	return &prod, nil
}

// DeleteProduct removes the product and its image rows, returning the image
// records so the caller can clean up stored files.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uint) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Find(&images).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Product{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return images, nil
}

const (
	StockActionSet      = "set"
	StockActionIncrease = "increase"
	StockActionDecrease = "decrease"
)

// UpdateStock applies a stock adjustment. Decrease floors at zero instead of
// failing; order creation pre-checks sufficiency on its own.
func (r *GormRepo) UpdateStock(ctx context.Context, id uint, action string, quantity int) (*models.Product, error) {
	var expr any
	switch action {
	case StockActionSet:
		expr = quantity
	case StockActionIncrease:
		expr = gorm.Expr("stock_quantity + ?", quantity)
	case StockActionDecrease:
		expr = gorm.Expr("CASE WHEN stock_quantity > ? THEN stock_quantity - ? ELSE 0 END", quantity, quantity)
	default:
		return nil, fmt.Errorf("%w: unknown stock action %q", ErrInvalidState, action)
	}

	res := r.DB.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
		Update("stock_quantity", expr)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.GetProductByID(ctx, id)
}

// AddImage inserts a product image; marking it primary demotes any existing
// primary image of the product.
func (r *GormRepo) AddImage(ctx context.Context, img *models.ProductImage) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if img.IsPrimary {
			if err := tx.Model(&models.ProductImage{}).
				Where("product_id = ?", img.ProductID).
				Update("is_primary", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(img).Error
	})
}

func (r *GormRepo) ListImages(ctx context.Context, productID uint) ([]models.ProductImage, error) {
	var images []models.ProductImage
	err := r.DB.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("is_primary DESC, display_order ASC").
		Find(&images).Error
	return images, err
}

func (r *GormRepo) GetImage(ctx context.Context, id uint) (*models.ProductImage, error) {
	var img models.ProductImage
	if err := r.DB.WithContext(ctx).First(&img, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &img, nil
}

func (r *GormRepo) DeleteImage(ctx context.Context, id uint) error {
	res := r.DB.WithContext(ctx).Delete(&models.ProductImage{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
