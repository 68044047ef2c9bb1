package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/calicantus/studio-cms-backend/middleware"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type bookRequest struct {
	EventID uint `json:"event_id" binding:"required" example:"42"`
}

// BookClass godoc
// @Summary Book a spot in a class
// @Description Books the authenticated member into a class, waitlisting when full
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body bookRequest true "Event to book"
// @Security BearerAuth
// @Router /bookings [post]
func (h *Handler) BookClass(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := c.GetUint("user_id")
	b, err := h.service.BookClass(c.Request.Context(), userID, req.EventID)
	if err != nil {
		h.fail(c, err)
		return
	}

	msg := "Booking confirmed"
	if b.Status == StatusWaitlist {
		msg = "Class is full, you have been added to the waitlist"
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg, "data": b})
}

// CancelBooking godoc
// @Summary Cancel a booking
// @Description Cancels a booking, promoting the earliest waitlisted member if a confirmed spot frees up
// @Tags bookings
// @Produce json
// @Param id path int true "Booking ID"
// @Security BearerAuth
// @Router /bookings/{id} [delete]
func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid booking ID"})
		return
	}

	userID := c.GetUint("user_id")
	staff := false
	if v, ok := c.Get("access_context"); ok {
		if ac, ok := v.(middleware.AccessContext); ok {
			staff = ac.IsStaff()
		}
	}

	b, err := h.service.CancelBooking(c.Request.Context(), userID, uint(id), staff)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "data": b})
}

// MyBookings godoc
// @Summary List my bookings
// @Tags bookings
// @Produce json
// @Security BearerAuth
// @Router /bookings/my [get]
func (h *Handler) MyBookings(c *gin.Context) {
	userID := c.GetUint("user_id")
	rows, err := h.service.MyBookings(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// EventBookings godoc
// @Summary List bookings for a class event
// @Description Staff view of who is booked or waitlisted for an event
// @Tags bookings
// @Produce json
// @Param id path int true "Event ID"
// @Security BearerAuth
// @Router /events/{id}/bookings [get]
func (h *Handler) EventBookings(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid event ID"})
		return
	}
	rows, err := h.service.EventBookings(c.Request.Context(), uint(id))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrEventNotFound), errors.Is(err, ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrAlreadyBooked), errors.Is(err, ErrAlreadyCanceled):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEventStarted):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrNotYourBooking):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Something went wrong"})
	}
}
