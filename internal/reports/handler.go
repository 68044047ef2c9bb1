package reports

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calicantus/studio-cms-backend/internal/dateutil"
)

type Handler struct {
	service Service
	loc     *time.Location
}

func NewHandler(service Service, loc *time.Location) *Handler {
	return &Handler{service: service, loc: loc}
}

// BookingsReport godoc
// @Summary Export bookings as csv, excel or pdf
// @Tags reports
// @Produce octet-stream
// @Param from query string false "Start date (YYYY-MM-DD), default 30 days ago"
// @Param to query string false "End date (YYYY-MM-DD), default today"
// @Param format query string false "csv, excel or pdf" default(excel)
// @Security BearerAuth
// @Router /admin/reports/bookings [get]
func (h *Handler) BookingsReport(c *gin.Context) {
	now := time.Now().In(h.loc)
	fromKey := c.DefaultQuery("from", dateutil.KeyOf(now.AddDate(0, 0, -30), h.loc))
	toKey := c.DefaultQuery("to", dateutil.KeyOf(now, h.loc))
	format := c.DefaultQuery("format", FormatExcel)

	data, fname, mime, err := h.service.BookingsReport(c.Request.Context(), fromKey, toKey, format)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fname))
	c.Data(http.StatusOK, mime, data)
}

// SchedulePDF godoc
// @Summary Download the printable weekly schedule
// @Tags reports
// @Produce octet-stream
// @Param week_of query string false "Any date (YYYY-MM-DD) inside the wanted week, default this week"
// @Security BearerAuth
// @Router /admin/reports/schedule [get]
func (h *Handler) SchedulePDF(c *gin.Context) {
	data, fname, mime, err := h.service.WeeklySchedulePDF(c.Request.Context(), c.Query("week_of"))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", fname))
	c.Data(http.StatusOK, mime, data)
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, ErrInvalidRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
