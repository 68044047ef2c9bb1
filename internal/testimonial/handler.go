package testimonial

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

// ListPublicTestimonials godoc
// @Summary List approved testimonials for the public site
// @Tags testimonials
// @Produce json
// @Router /testimonials [get]
func (h *Handler) ListPublicTestimonials(c *gin.Context) {
	rows, err := h.service.ListPublic(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch testimonials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// ListTestimonials godoc
// @Summary List all testimonials including unapproved
// @Tags testimonials
// @Produce json
// @Security BearerAuth
// @Router /admin/testimonials [get]
func (h *Handler) ListTestimonials(c *gin.Context) {
	rows, err := h.service.ListAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch testimonials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// CreateTestimonial godoc
// @Summary Create a testimonial
// @Tags testimonials
// @Accept json
// @Produce json
// @Param request body TestimonialRequest true "Testimonial payload"
// @Security BearerAuth
// @Router /admin/testimonials [post]
func (h *Handler) CreateTestimonial(c *gin.Context) {
	var req TestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create testimonial"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Testimonial created", "data": t})
}

// UpdateTestimonial godoc
// @Summary Update a testimonial
// @Tags testimonials
// @Accept json
// @Produce json
// @Param id path int true "Testimonial ID"
// @Param request body TestimonialRequest true "Testimonial payload"
// @Security BearerAuth
// @Router /admin/testimonials/{id} [put]
func (h *Handler) UpdateTestimonial(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req TestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Testimonial updated", "data": t})
}

// ApproveTestimonial godoc
// @Summary Approve or hide a testimonial
// @Tags testimonials
// @Accept json
// @Produce json
// @Param id path int true "Testimonial ID"
// @Security BearerAuth
// @Router /admin/testimonials/{id}/approve [patch]
func (h *Handler) ApproveTestimonial(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req struct {
		IsApproved *bool `json:"is_approved" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.service.SetApproved(c.Request.Context(), id, *req.IsApproved)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Testimonial updated", "data": t})
}

// DeleteTestimonial godoc
// @Summary Delete a testimonial
// @Tags testimonials
// @Produce json
// @Param id path int true "Testimonial ID"
// @Security BearerAuth
// @Router /admin/testimonials/{id} [delete]
func (h *Handler) DeleteTestimonial(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Testimonial deleted"})
}

func (h *Handler) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid testimonial ID"})
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
