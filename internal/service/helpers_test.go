package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
)

func InitTestDB(t *testing.T) *repo.GormRepo {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to connect to in-memory db")
	require.NoError(t, db.AutoMigrate(models.All()...), "failed to migrate tables")

	return repo.New(db)
}

func seedCategory(t *testing.T, r *repo.GormRepo, name, slug string) *models.Category {
	t.Helper()
	cat := models.Category{Name: name, Slug: slug, IsActive: true}
	require.NoError(t, r.DB.Create(&cat).Error)
	return &cat
}

func seedProduct(t *testing.T, r *repo.GormRepo, cat *models.Category, name, slug string, price float64, stock int) *models.Product {
	t.Helper()
	prod := models.Product{
		CategoryID:    cat.ID,
		Name:          name,
		Slug:          slug,
		Price:         price,
		StockQuantity: stock,
		Status:        models.ProductStatusActive,
	}
	require.NoError(t, r.DB.Create(&prod).Error)
	return &prod
}

func seedUser(t *testing.T, r *repo.GormRepo, email, role string) *models.User {
	t.Helper()
	user := models.User{Email: email, PasswordHash: "x", FullName: "Test User", Role: role}
	require.NoError(t, r.DB.Create(&user).Error)
	return &user
}

func reloadProduct(t *testing.T, r *repo.GormRepo, id uint) *models.Product {
	t.Helper()
	var prod models.Product
	require.NoError(t, r.DB.First(&prod, id).Error)
	return &prod
}
