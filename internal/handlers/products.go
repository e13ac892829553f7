package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) addProductPage(c *gin.Context) {
	h.render(c, http.StatusOK, "add-product.html", gin.H{"title": "Add product", "form": productForm{}})
}

func (h *Handler) addProductSubmit(c *gin.Context) {
	userID, _ := currentUserID(c)

	var form productForm
	bindErr := c.ShouldBind(&form)
	errs := map[string]string{}
	if bindErr != nil {
		errs = fieldErrors(bindErr)
	}
	price, err := parsePrice(form.Price)
	if err != nil && errs["Price"] == "" {
		errs["Price"] = "Price must be a non-negative number."
	}
	if len(errs) > 0 {
		h.render(c, http.StatusBadRequest, "add-product.html", gin.H{"title": "Add product", "form": form, "errors": errs})
		return
	}

	_, err = h.services.AddProduct(c.Request.Context(), userID, service.ProductParams{
		Name:        form.Name,
		Description: form.Description,
		Price:       price,
		ImageURL:    form.ImageURL,
	})
	h.metrics.RecordCatalog("add", err)
	switch {
	case err == nil:
		h.addFlash(c, flashSuccess, "Product added successfully!")
		c.Redirect(http.StatusFound, "/products")
	case errors.Is(err, service.ErrInvalidProduct):
		h.render(c, http.StatusBadRequest, "add-product.html", gin.H{
			"title":  "Add product",
			"form":   form,
			"errors": map[string]string{"Name": "Name must not be blank."},
		})
	default:
		h.internalError(c, "catalog_add_failed", err, "user_id", userID)
	}
}

func parsePrice(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, service.ErrInvalidProduct
	}
	return v, nil
}

func (h *Handler) productsPage(c *gin.Context) {
	products, err := h.services.ListAvailable(c.Request.Context())
	if err != nil {
		h.internalError(c, "catalog_list_failed", err, "status", "available")
		return
	}
	h.render(c, http.StatusOK, "product.html", gin.H{"title": "Products", "products": products})
}

func (h *Handler) productsOwnedPage(c *gin.Context) {
	userID, _ := currentUserID(c)
	products, err := h.services.ListOwned(c.Request.Context(), userID)
	if err != nil {
		h.internalError(c, "catalog_list_failed", err, "status", "owned", "user_id", userID)
		return
	}
	h.render(c, http.StatusOK, "products-owned.html", gin.H{"title": "Products owned", "products": products})
}

// buyProduct moves a product to the owned list; every outcome lands on /products_owned.
func (h *Handler) buyProduct(c *gin.Context) {
	h.toggleProduct(c, "buy", "/products_owned")
}

// returnProduct moves a product back to the available list.
func (h *Handler) returnProduct(c *gin.Context) {
	h.toggleProduct(c, "return", "/products")
}

func (h *Handler) toggleProduct(c *gin.Context, op, target string) {
	userID, _ := currentUserID(c)
	productID, err := strconv.Atoi(c.Param("product_id"))
	if err != nil || productID <= 0 {
		h.addFlash(c, flashDanger, "Product not found.")
		c.Redirect(http.StatusFound, target)
		return
	}

	ctx := c.Request.Context()
	var name string
	if op == "buy" {
		p, e := h.services.Buy(ctx, userID, productID)
		name, err = p.Name, e
	} else {
		p, e := h.services.Return(ctx, userID, productID)
		name, err = p.Name, e
	}
	h.metrics.RecordCatalog(op, err)

	switch {
	case err == nil:
		dest := "products owned"
		if op == "return" {
			dest = "products available"
		}
		h.addFlash(c, flashSuccess, fmt.Sprintf("Product '%s' moved to %s successfully.", name, dest))
	case errors.Is(err, service.ErrProductNotFound):
		h.addFlash(c, flashDanger, "Product not found.")
	case errors.Is(err, service.ErrProductUnavailable):
		h.addFlash(c, flashDanger, "Product is already owned by someone else.")
	case errors.Is(err, service.ErrNotOwner):
		h.addFlash(c, flashDanger, "You can only return products you own.")
	default:
		h.internalError(c, "catalog_"+op+"_failed", err, "user_id", userID, "product_id", productID)
		return
	}
	c.Redirect(http.StatusFound, target)
}
