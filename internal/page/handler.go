package page

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

// GetPublicPage godoc
// @Summary Fetch a published page by slug
// @Tags pages
// @Produce json
// @Param slug path string true "Page slug"
// @Router /pages/{slug} [get]
func (h *Handler) GetPublicPage(c *gin.Context) {
	p, err := h.service.GetPublishedBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// ListPages godoc
// @Summary List all pages including drafts
// @Tags pages
// @Produce json
// @Security BearerAuth
// @Router /admin/pages [get]
func (h *Handler) ListPages(c *gin.Context) {
	pages, err := h.service.List(c.Request.Context(), false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch pages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": pages})
}

// GetPage godoc
// @Summary Fetch a page by ID including drafts
// @Tags pages
// @Produce json
// @Param id path int true "Page ID"
// @Security BearerAuth
// @Router /admin/pages/{id} [get]
func (h *Handler) GetPage(c *gin.Context) {
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

// CreatePage godoc
// @Summary Create a page
// @Tags pages
// @Accept json
// @Produce json
// @Param request body PageRequest true "Page payload"
// @Security BearerAuth
// @Router /admin/pages [post]
func (h *Handler) CreatePage(c *gin.Context) {
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.Create(c.Request.Context(), &req, c.GetUint("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Page created", "data": p})
}

// UpdatePage godoc
// @Summary Update a page
// @Tags pages
// @Accept json
// @Produce json
// @Param id path int true "Page ID"
// @Param request body PageRequest true "Page payload"
// @Security BearerAuth
// @Router /admin/pages/{id} [put]
func (h *Handler) UpdatePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req PageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, &req, c.GetUint("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Page updated", "data": p})
}

// PublishPage godoc
// @Summary Publish or unpublish a page
// @Tags pages
// @Accept json
// @Produce json
// @Param id path int true "Page ID"
// @Security BearerAuth
// @Router /admin/pages/{id}/publish [patch]
func (h *Handler) PublishPage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req struct {
		IsPublished *bool `json:"is_published" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.service.SetPublished(c.Request.Context(), id, *req.IsPublished, c.GetUint("user_id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Page updated", "data": p})
}

// DeletePage godoc
// @Summary Delete a page
// @Tags pages
// @Produce json
// @Param id path int true "Page ID"
// @Security BearerAuth
// @Router /admin/pages/{id} [delete]
func (h *Handler) DeletePage(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Page deleted"})
}

func (h *Handler) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrSlugTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidSlug):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
