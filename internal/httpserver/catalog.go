package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openshop/storefront/internal/logging"
	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/search"
	"github.com/openshop/storefront/internal/service"
	"github.com/openshop/storefront/internal/util"
)

// CatalogHandler serves the public, read-only side of the catalog.
type CatalogHandler struct {
	Catalog *service.CatalogService
	Search  *search.Service
}

func (h *CatalogHandler) ListCategories(c echo.Context) error {
	f := repo.CategoryFilter{RootOnly: c.QueryParam("root") == "true"}
	active := true
	f.IsActive = &active
	if v := c.QueryParam("parent_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			pid := uint(id)
			f.ParentID = &pid
		}
	}

	cats, err := h.Catalog.ListCategories(c.Request().Context(), f)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", cats)
}

func (h *CatalogHandler) GetCategory(c echo.Context) error {
	details, err := h.Catalog.GetCategoryBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", details)
}

func productFilterFromQuery(c echo.Context) repo.ProductFilter {
	f := repo.ProductFilter{
		Search:    c.QueryParam("search"),
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
	}
	if v := c.QueryParam("category_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 32); err == nil {
			f.CategoryID = uint(id)
		}
	}
	if v := c.QueryParam("min_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.MinPrice = &p
		}
	}
	if v := c.QueryParam("max_price"); v != "" {
		if p, err := strconv.ParseFloat(v, 64); err == nil {
			f.MaxPrice = &p
		}
	}
	return f
}

func (h *CatalogHandler) ListProducts(c echo.Context) error {
	f := productFilterFromQuery(c)
	f.Status = models.ProductStatusActive

	page, limit := pageLimit(c)
	offset, limit := util.Calculate(page, limit)

	total, products, err := h.Catalog.ListProducts(c.Request().Context(), f, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, products, util.NewPagination(page, limit, total))
}

func (h *CatalogHandler) GetProduct(c echo.Context) error {
	prod, err := h.Catalog.GetProductBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", prod)
}

// SearchProducts answers full-text queries from Elasticsearch when it is
// configured, and falls back to the SQL LIKE listing otherwise.
func (h *CatalogHandler) SearchProducts(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "product_search")

	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}

	page, limit := pageLimit(c)
	offset, limit := util.Calculate(page, limit)

	if h.Search.Enabled() {
		total, products, err := h.Search.Search(c.Request().Context(), query, offset, limit)
		if err == nil {
			return respondList(c, products, util.NewPagination(page, limit, total))
		}
		l.Warn("es_search_failed", "query", query, "error", err)
	}

	f := repo.ProductFilter{Search: query, Status: models.ProductStatusActive}
	total, products, err := h.Catalog.ListProducts(c.Request().Context(), f, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, products, util.NewPagination(page, limit, total))
}
