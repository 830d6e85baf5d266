package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Response status strings.
const (
	statusOK       = "ok"
	statusStarted  = "started"
	statusCanceled = "canceled"
	statusSpeedSet = "speed_set"
	statusSkipped  = "skipped"
)

// SpeedRequest is the body of POST /transmission/speed.
type SpeedRequest struct {
	// Multiplier of the base rate; 2 halves the interval.
	Factor *float64 `json:"factor" binding:"required" example:"2"`
}

// SkipRequest is the body of POST /transmission/skip.
type SkipRequest struct {
	// Entries to move the playback cursor by; negative rewinds.
	Delta *int `json:"delta" binding:"required" example:"-10"`
}

// respondWithStatusAndState writes status and the current transmission
// snapshot.
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	resp["state"] = h.services.Transmission.Status()
	c.JSON(http.StatusOK, resp)
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Start transmission
// @Description  No-op when a session is already running or paused.
// @Tags         transmission
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/transmission/start [post]
// @Security     BearerAuth
func (h *Handler) startTransmission(c *gin.Context) {
	if err := h.services.Transmission.Start(c.Request.Context()); err != nil {
		h.writeError(c, "transmission_start_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusStarted, nil)
}

// @Summary      Pause or resume transmission
// @Tags         transmission
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/transmission/toggle [post]
// @Security     BearerAuth
func (h *Handler) toggleTransmission(c *gin.Context) {
	state, err := h.services.Transmission.Toggle(c.Request.Context())
	if err != nil {
		h.writeError(c, "transmission_toggle_failed", err)
		return
	}
	h.respondWithStatusAndState(c, strings.ToLower(state), nil)
}

// @Summary      Cancel transmission
// @Description  Returns to idle, rewinds the source and clears the history.
// @Tags         transmission
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/v1/transmission/cancel [post]
// @Security     BearerAuth
func (h *Handler) cancelTransmission(c *gin.Context) {
	if err := h.services.Transmission.Cancel(c.Request.Context()); err != nil {
		h.writeError(c, "transmission_cancel_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusCanceled, nil)
}

// @Summary      Set transmission speed
// @Tags         transmission
// @Accept       json
// @Produce      json
// @Param        body  body   SpeedRequest  true  "Speed factor"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/transmission/speed [post]
// @Security     BearerAuth
func (h *Handler) setSpeed(c *gin.Context) {
	var req SpeedRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	interval, err := h.services.Transmission.SetSpeed(c.Request.Context(), *req.Factor)
	if err != nil {
		h.writeError(c, "transmission_speed_failed", err, "factor", *req.Factor)
		return
	}
	h.respondWithStatusAndState(c, statusSpeedSet, gin.H{"interval_ms": interval.Milliseconds()})
}

// @Summary      Move the playback cursor
// @Tags         transmission
// @Accept       json
// @Produce      json
// @Param        body  body   SkipRequest  true  "Cursor delta"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/v1/transmission/skip [post]
// @Security     BearerAuth
func (h *Handler) skip(c *gin.Context) {
	var req SkipRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	if err := h.services.Transmission.Skip(c.Request.Context(), *req.Delta); err != nil {
		h.writeError(c, "transmission_skip_failed", err, "delta", *req.Delta)
		return
	}
	h.respondWithStatusAndState(c, statusSkipped, nil)
}

// @Summary      Get transmission state
// @Tags         transmission
// @Produce      json
// @Success      200  {object}  models.TransmissionStatus
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/transmission/state [get]
// @Security     BearerAuth
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Transmission.Status())
}

// @Summary      Export the session history
// @Tags         transmission
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, entries"
// @Router       /api/v1/history [get]
// @Security     BearerAuth
func (h *Handler) getHistory(c *gin.Context) {
	entries := h.services.Transmission.History()
	c.JSON(http.StatusOK, gin.H{
		"count":   len(entries),
		"entries": entries,
	})
}
