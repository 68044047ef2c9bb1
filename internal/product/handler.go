package product

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ListPublicProducts godoc
// @Summary List active catalog products
// @Tags products
// @Produce json
// @Param search query string false "Search in name and description"
// @Param category query string false "Filter by category"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Router /products [get]
func (h *Handler) ListPublicProducts(c *gin.Context) {
	h.list(c, true)
}

// ListProducts godoc
// @Summary List all products including inactive
// @Tags products
// @Produce json
// @Param search query string false "Search in name and description"
// @Param category query string false "Filter by category"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(20)
// @Security BearerAuth
// @Router /admin/products [get]
func (h *Handler) ListProducts(c *gin.Context) {
	h.list(c, false)
}

func (h *Handler) list(c *gin.Context, activeOnly bool) {
	filter := ProductFilter{
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		ActiveOnly: activeOnly,
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))

	rows, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": total, "page": filter.Page, "limit": filter.Limit})
}

// GetProduct godoc
// @Summary Fetch one product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Router /products/{id} [get]
func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// CreateProduct godoc
// @Summary Create a product
// @Tags products
// @Accept json
// @Produce json
// @Param request body ProductRequest true "Product payload"
// @Security BearerAuth
// @Router /admin/products [post]
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product created", "data": p})
}

// UpdateProduct godoc
// @Summary Update a product
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body ProductRequest true "Product payload"
// @Security BearerAuth
// @Router /admin/products/{id} [put]
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated", "data": p})
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Security BearerAuth
// @Router /admin/products/{id} [delete]
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (h *Handler) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
}
