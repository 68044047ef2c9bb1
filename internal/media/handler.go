package media

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

// Upload godoc
// @Summary Upload a media file
// @Description Accepts images and PDFs up to 10 MB via multipart form field "file"
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param alt_text formData string false "Alt text for images"
// @Security BearerAuth
// @Router /admin/media [post]
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}

	item, err := h.service.Upload(
		c.Request.Context(),
		file,
		c.PostForm("alt_text"),
		c.GetUint("user_id"),
		func(dst string) error { return c.SaveUploadedFile(file, dst) },
	)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "File uploaded",
		"data":    item,
		"url":     item.URL(),
	})
}

// ListMedia godoc
// @Summary List uploaded media
// @Tags media
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(24)
// @Security BearerAuth
// @Router /admin/media [get]
func (h *Handler) ListMedia(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "24"))

	rows, total, err := h.service.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch media"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows, "total": total, "page": page, "limit": limit})
}

// UpdateMedia godoc
// @Summary Update media alt text
// @Tags media
// @Accept json
// @Produce json
// @Param id path int true "Media ID"
// @Security BearerAuth
// @Router /admin/media/{id} [patch]
func (h *Handler) UpdateMedia(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	var req struct {
		AltText string `json:"alt_text"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.service.UpdateAltText(c.Request.Context(), id, req.AltText)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Media updated", "data": item})
}

// DeleteMedia godoc
// @Summary Delete a media file
// @Tags media
// @Produce json
// @Param id path int true "Media ID"
// @Security BearerAuth
// @Router /admin/media/{id} [delete]
func (h *Handler) DeleteMedia(c *gin.Context) {
	id, ok := h.pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Media deleted"})
}

func (h *Handler) pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid media ID"})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrUnsupportedType), errors.Is(err, ErrTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
