package httpserver

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/openshop/storefront/internal/events"
	"github.com/openshop/storefront/internal/logging"
	"github.com/openshop/storefront/internal/models"
	"github.com/openshop/storefront/internal/repo"
	"github.com/openshop/storefront/internal/search"
	"github.com/openshop/storefront/internal/service"
	"github.com/openshop/storefront/internal/storage"
	"github.com/openshop/storefront/internal/transport"
	"github.com/openshop/storefront/internal/util"
)

// AdminCatalogHandler owns the write side of the catalog. Search indexing
// and event publishing are best effort: the database write is the source
// of truth and a broker outage never fails the request.
type AdminCatalogHandler struct {
	Catalog *service.CatalogService
	Search  *search.Service
	Events  *events.Producer
	Images  *storage.LocalStore
}

func (h *AdminCatalogHandler) syncProduct(c echo.Context, event string, prod *models.Product) {
	l := logging.FromContext(c.Request().Context())
	ctx := c.Request().Context()

	if h.Search.Enabled() {
		if err := h.Search.IndexProduct(ctx, prod); err != nil {
			l.Warn("es_index_failed", "product_id", prod.ID, "error", err)
		}
	}
	key := strconv.FormatUint(uint64(prod.ID), 10)
	if err := h.Events.PublishEvent(ctx, events.TopicProductEvents, key, map[string]any{
		"event":      event,
		"product_id": prod.ID,
		"name":       prod.Name,
	}); err != nil {
		l.Warn("publish_failed", "topic", events.TopicProductEvents, "error", err)
	}
}

func (h *AdminCatalogHandler) ListCategories(c echo.Context) error {
	cats, err := h.Catalog.ListCategories(c.Request().Context(), repo.CategoryFilter{})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", cats)
}

func (h *AdminCatalogHandler) CreateCategory(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_category_create")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	cat, err := h.Catalog.CreateCategory(c.Request().Context(), req)
	if err != nil {
		l.Warn("category_create_failed", "name", req.Name, "error", err)
		return respondError(c, err)
	}

	l.Info("category_created", "category_id", cat.ID, "slug", cat.Slug)
	return respond(c, http.StatusCreated, "category created", cat)
}

func (h *AdminCatalogHandler) UpdateCategory(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var req transport.UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	cat, err := h.Catalog.UpdateCategory(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "category updated", cat)
}

func (h *AdminCatalogHandler) DeleteCategory(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_category_delete")

	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	if err := h.Catalog.DeleteCategory(c.Request().Context(), id); err != nil {
		l.Warn("category_delete_failed", "category_id", id, "error", err)
		return respondError(c, err)
	}

	l.Info("category_deleted", "category_id", id)
	return respond(c, http.StatusOK, "category deleted", nil)
}

func (h *AdminCatalogHandler) ListProducts(c echo.Context) error {
	f := productFilterFromQuery(c)
	f.Status = c.QueryParam("status")

	page, limit := pageLimit(c)
	offset, limit := util.Calculate(page, limit)

	total, products, err := h.Catalog.ListProducts(c.Request().Context(), f, offset, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respondList(c, products, util.NewPagination(page, limit, total))
}

func (h *AdminCatalogHandler) GetProduct(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	prod, err := h.Catalog.GetProduct(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "", prod)
}

func (h *AdminCatalogHandler) CreateProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_product_create")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	prod, err := h.Catalog.CreateProduct(c.Request().Context(), req)
	if err != nil {
		l.Warn("product_create_failed", "name", req.Name, "error", err)
		return respondError(c, err)
	}

	l.Info("product_created", "product_id", prod.ID, "slug", prod.Slug)
	h.syncProduct(c, "product_created", prod)
	return respond(c, http.StatusCreated, "product created", prod)
}

func (h *AdminCatalogHandler) UpdateProduct(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var req transport.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	prod, err := h.Catalog.UpdateProduct(c.Request().Context(), id, req)
	if err != nil {
		return respondError(c, err)
	}

	h.syncProduct(c, "product_updated", prod)
	return respond(c, http.StatusOK, "product updated", prod)
}

func (h *AdminCatalogHandler) DeleteProduct(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_product_delete")

	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	if err := h.Catalog.DeleteProduct(c.Request().Context(), id); err != nil {
		l.Warn("product_delete_failed", "product_id", id, "error", err)
		return respondError(c, err)
	}

	if h.Search.Enabled() {
		if err := h.Search.DeleteProduct(c.Request().Context(), id); err != nil {
			l.Warn("es_delete_failed", "product_id", id, "error", err)
		}
	}
	key := strconv.FormatUint(uint64(id), 10)
	if err := h.Events.PublishEvent(c.Request().Context(), events.TopicProductEvents, key, map[string]any{
		"event":      "product_deleted",
		"product_id": id,
	}); err != nil {
		l.Warn("publish_failed", "topic", events.TopicProductEvents, "error", err)
	}

	l.Info("product_deleted", "product_id", id)
	return respond(c, http.StatusOK, "product deleted", nil)
}

func (h *AdminCatalogHandler) UpdateStock(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_stock_update")

	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	var req transport.UpdateStockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	prod, err := h.Catalog.UpdateStock(c.Request().Context(), id, req)
	if err != nil {
		l.Warn("stock_update_failed", "product_id", id, "action", req.Action, "error", err)
		return respondError(c, err)
	}

	l.Info("stock_updated", "product_id", id, "action", req.Action, "stock", prod.StockQuantity)
	h.syncProduct(c, "stock_updated", prod)
	return respond(c, http.StatusOK, "stock updated", prod)
}

// UploadImages accepts multipart files, stores them on disk and attaches
// them to the product.
func (h *AdminCatalogHandler) UploadImages(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "admin_image_upload")

	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}

	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	files := form.File["images"]
	if len(files) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "no images provided")
	}

	var reqs []transport.ImageRequest
	for _, f := range files {
		url, err := h.Images.Save(f)
		if err != nil {
			l.Error("image_save_failed", "status", 500, "filename", f.Filename, "error", err)
			return respondError(c, err)
		}
		reqs = append(reqs, transport.ImageRequest{ImageURL: url, AltText: f.Filename})
	}

	imgs, err := h.Catalog.AddImages(c.Request().Context(), id, reqs)
	if err != nil {
		return respondError(c, err)
	}

	l.Info("images_uploaded", "product_id", id, "count", len(imgs))
	return respond(c, http.StatusCreated, "images uploaded", imgs)
}

func (h *AdminCatalogHandler) DeleteImage(c echo.Context) error {
	id, err := paramUint(c, "id")
	if err != nil {
		return err
	}
	if err := h.Catalog.DeleteImage(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return respond(c, http.StatusOK, "image deleted", nil)
}
