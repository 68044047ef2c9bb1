package classes

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/calicantus/studio-cms-backend/internal/dateutil"
	"github.com/calicantus/studio-cms-backend/utils"
)

// How long an expanded calendar window may be served from Redis. Any
// schedule mutation bumps the cache version, so this only bounds how
// long an idle key lingers.
const calendarCacheTTL = 2 * time.Minute

type Handler struct {
	service *Service
	loc     *time.Location
}

func NewHandler(service *Service, loc *time.Location) *Handler {
	return &Handler{service: service, loc: loc}
}

// GetCalendar godoc
// @Summary      Expanded class calendar for a date window
// @Tags         classes
// @Produce      json
// @Param        from  query  string  false  "start date (YYYY-MM-DD), default today"
// @Param        to    query  string  false  "end date (YYYY-MM-DD), default +30 days"
// @Success      200  {array}  classes.Occurrence
// @Router       /calendar [get]
func (h *Handler) GetCalendar(c *gin.Context) {
	now := time.Now().In(h.loc)
	fromKey := c.DefaultQuery("from", dateutil.KeyOf(now, h.loc))
	toKey := c.DefaultQuery("to", dateutil.KeyOf(now.AddDate(0, 0, 30), h.loc))

	cacheKey := fmt.Sprintf("calendar:%d:%s:%s", utils.CalendarCacheVersion(), fromKey, toKey)
	if cached, ok := utils.GetCachedCalendar(cacheKey); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
		return
	}

	occurrences, err := h.service.GetCalendar(c.Request.Context(), fromKey, toKey)
	if err != nil {
		h.fail(c, err)
		return
	}

	body := gin.H{"count": len(occurrences), "occurrences": occurrences}
	if payload, err := json.Marshal(body); err == nil {
		utils.CacheCalendar(cacheKey, string(payload), calendarCacheTTL)
	}
	c.JSON(http.StatusOK, body)
}

// GetEvent godoc
// @Summary      Fetch one class event row
// @Tags         classes
// @Produce      json
// @Param        id  path  int  true  "event id"
// @Success      200  {object}  classes.ClassEvent
// @Router       /events/{id} [get]
func (h *Handler) GetEvent(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	ev, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ev)
}

// CreateEvent godoc
// @Summary      Create a class, optionally with a recurrence rule
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        request  body  classes.CreateEventRequest  true  "event payload"
// @Success      201  {object}  map[string]interface{}
// @Router       /events [post]
func (h *Handler) CreateEvent(c *gin.Context) {
	var req CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, syncRes, err := h.service.CreateEvent(c.Request.Context(), &req, actorID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()

	resp := gin.H{"event": ev}
	if syncRes != nil {
		resp["sync"] = syncRes
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateEvent godoc
// @Summary      Update a class event; template edits resync the series
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        id       path  int                         true  "event id"
// @Param        request  body  classes.UpdateEventRequest  true  "event payload"
// @Success      200  {object}  map[string]interface{}
// @Router       /events/{id} [put]
func (h *Handler) UpdateEvent(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, syncRes, err := h.service.UpdateEvent(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()

	resp := gin.H{"event": ev}
	if syncRes != nil {
		resp["sync"] = syncRes
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteEvent godoc
// @Summary      Delete a class event
// @Tags         classes
// @Produce      json
// @Param        id  path  int  true  "event id"
// @Success      200  {object}  classes.SyncResult
// @Router       /events/{id} [delete]
func (h *Handler) DeleteEvent(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.DeleteEvent(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted", "result": res})
}

// GetPattern godoc
// @Summary      Fetch a recurrence pattern
// @Tags         classes
// @Produce      json
// @Param        id  path  int  true  "pattern id"
// @Success      200  {object}  classes.RecurrencePattern
// @Router       /patterns/{id} [get]
func (h *Handler) GetPattern(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pattern, err := h.service.GetPattern(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pattern)
}

// UpdatePattern godoc
// @Summary      Rewrite a recurrence rule and resync the series
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        id       path  int                           true  "pattern id"
// @Param        request  body  classes.UpdatePatternRequest  true  "pattern payload"
// @Success      200  {object}  map[string]interface{}
// @Router       /patterns/{id} [put]
func (h *Handler) UpdatePattern(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req UpdatePatternRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pattern, syncRes, err := h.service.UpdatePattern(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()
	c.JSON(http.StatusOK, gin.H{"pattern": pattern, "sync": syncRes})
}

// SetPatternStatus godoc
// @Summary      Activate or deactivate a series
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        id  path  int  true  "pattern id"
// @Success      200  {object}  classes.SyncResult
// @Router       /patterns/{id}/status [patch]
func (h *Handler) SetPatternStatus(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.SetPatternActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()
	c.JSON(http.StatusOK, gin.H{"message": "Pattern status updated", "sync": res})
}

// DeletePattern godoc
// @Summary      Delete a series, preserving booked occurrences
// @Tags         classes
// @Produce      json
// @Param        id  path  int  true  "pattern id"
// @Success      200  {object}  classes.SyncResult
// @Router       /patterns/{id} [delete]
func (h *Handler) DeletePattern(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.DeletePattern(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()
	c.JSON(http.StatusOK, gin.H{"message": "Pattern deleted", "result": res})
}

// SyncPattern godoc
// @Summary      Force a reconciliation run for one series
// @Tags         classes
// @Produce      json
// @Param        id           path   int  true   "pattern id"
// @Param        future_days  query  int  false  "override forward horizon"
// @Param        past_days    query  int  false  "regenerate this many past days"
// @Success      200  {object}  classes.SyncResult
// @Router       /patterns/{id}/sync [post]
func (h *Handler) SyncPattern(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	opts := &SyncOptions{}
	opts.FutureDays, _ = strconv.Atoi(c.Query("future_days"))
	opts.PastDays, _ = strconv.Atoi(c.Query("past_days"))

	res, err := h.service.ResyncPattern(c.Request.Context(), id, opts)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()
	c.JSON(http.StatusOK, res)
}

// SyncAllPatterns godoc
// @Summary      Reconcile every active series
// @Tags         classes
// @Produce      json
// @Success      200  {object}  classes.SyncResult
// @Router       /patterns/sync [post]
func (h *Handler) SyncAllPatterns(c *gin.Context) {
	res, err := h.service.ResyncAll(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()
	c.JSON(http.StatusOK, res)
}

// ListExceptions godoc
// @Summary      List a series' excluded dates
// @Tags         classes
// @Produce      json
// @Param        id  path  int  true  "pattern id"
// @Success      200  {array}  classes.RecurringException
// @Router       /patterns/{id}/exceptions [get]
func (h *Handler) ListExceptions(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	exceptions, err := h.service.ListExceptions(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(exceptions), "exceptions": exceptions})
}

// AddException godoc
// @Summary      Exclude one date from a series
// @Tags         classes
// @Accept       json
// @Produce      json
// @Param        id       path  int                       true  "pattern id"
// @Param        request  body  classes.ExceptionRequest  true  "exception payload"
// @Success      201  {object}  classes.SyncResult
// @Router       /patterns/{id}/exceptions [post]
func (h *Handler) AddException(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req ExceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.service.AddException(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()
	c.JSON(http.StatusCreated, gin.H{"message": "Exception added", "sync": res})
}

// RemoveException godoc
// @Summary      Re-include a previously excluded date
// @Tags         classes
// @Produce      json
// @Param        id    path  int     true  "pattern id"
// @Param        date  path  string  true  "date (YYYY-MM-DD)"
// @Success      200  {object}  classes.SyncResult
// @Router       /patterns/{id}/exceptions/{date} [delete]
func (h *Handler) RemoveException(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.RemoveException(c.Request.Context(), id, c.Param("date"))
	if err != nil {
		h.fail(c, err)
		return
	}
	utils.BumpCalendarCache()
	c.JSON(http.StatusOK, gin.H{"message": "Exception removed", "sync": res})
}

// ============================
// helpers

func (h *Handler) pathID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, ErrDuplicateException):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidTime), errors.Is(err, ErrInvalidPatternType):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func actorID(c *gin.Context) uint {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
