package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusAvailable = "available"
	statusOwned     = "owned"

	errListProducts  = "failed to load products"
	errInvalidID     = "invalid product id"
	errInvalidStatus = "status must be 'available' or 'owned'"
	errGetSummary    = "failed to load summary"
)

// CreateProductRequest is the JSON payload for POST /api/v1/products.
type CreateProductRequest struct {
	Name        string   `json:"name" binding:"required,max=200" example:"Widget"`
	Description string   `json:"description" binding:"max=2000" example:"A very useful widget"`
	Price       *float64 `json:"price" binding:"required,gte=0" example:"9.99"`
	ImageURL    string   `json:"image_url" binding:"omitempty,url" example:"https://example.com/widget.png"`
}

// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        status  query     string  false  "available (default) or owned"  Enums(available,owned)
// @Success      200     {object}  map[string]interface{}  "count, products"
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Router       /api/v1/products [get]
// @Security     BearerAuth
func (h *Handler) listProducts(c *gin.Context) {
	userID, _ := currentUserID(c)
	status := c.DefaultQuery("status", statusAvailable)

	var (
		products []models.Product
		err      error
	)
	switch status {
	case statusAvailable:
		products, err = h.services.ListAvailable(c.Request.Context())
	case statusOwned:
		products, err = h.services.ListOwned(c.Request.Context(), userID)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidStatus})
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errListProducts, "catalog_list_failed", err, "status", status)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(products), "products": products})
}

// @Summary      Add a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Param        input  body      CreateProductRequest  true  "product"
// @Success      201    {object}  models.Product
// @Failure      400    {object}  map[string]string
// @Failure      401    {object}  map[string]string
// @Router       /api/v1/products [post]
// @Security     BearerAuth
func (h *Handler) createProduct(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req CreateProductRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	p, err := h.services.AddProduct(c.Request.Context(), userID, service.ProductParams{
		Name:        req.Name,
		Description: req.Description,
		Price:       *req.Price,
		ImageURL:    req.ImageURL,
	})
	h.metrics.RecordCatalog("add", err)
	if err != nil {
		h.respondCatalogError(c, "catalog_add_failed", err, "user_id", userID)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// @Summary      Buy a product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "product id"
// @Success      200  {object}  models.Product
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/products/{id}/buy [post]
// @Security     BearerAuth
func (h *Handler) buyProductAPI(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	p, err := h.services.Buy(c.Request.Context(), userID, id)
	h.metrics.RecordCatalog("buy", err)
	if err != nil {
		h.respondCatalogError(c, "catalog_buy_failed", err, "user_id", userID, "product_id", id)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Return a product
// @Tags         products
// @Produce      json
// @Param        id   path      int  true  "product id"
// @Success      200  {object}  models.Product
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/products/{id}/return [post]
// @Security     BearerAuth
func (h *Handler) returnProductAPI(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, ok := productIDParam(c)
	if !ok {
		return
	}
	p, err := h.services.Return(c.Request.Context(), userID, id)
	h.metrics.RecordCatalog("return", err)
	if err != nil {
		h.respondCatalogError(c, "catalog_return_failed", err, "user_id", userID, "product_id", id)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Catalog counts
// @Tags         products
// @Produce      json
// @Success      200  {object}  models.CatalogSummary
// @Failure      401  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/summary [get]
// @Security     BearerAuth
func (h *Handler) getSummary(c *gin.Context) {
	sum, err := h.services.Summary(c.Request.Context())
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetSummary, "catalog_summary_failed", err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

func productIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidID})
		return 0, false
	}
	return id, true
}

// respondCatalogError maps catalog sentinels to status codes; anything else is a 500.
func (h *Handler) respondCatalogError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	switch {
	case errors.Is(err, service.ErrInvalidProduct):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrProductUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		h.logAndJSONError(c, http.StatusInternalServerError, "internal error", logKey, err, kv...)
	}
}
