package handlers

import (
	"net/http"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	statusConnected    = "connected"
	statusDisconnected = "disconnected"
	statusLoaded       = "loaded"
)

// TemperatureRunRequest is a stored run replayed with recomputed
// compositions. Equation overrides the configured constants.
type TemperatureRunRequest struct {
	models.BulkSource
	Equation *calculation.EquationParams `json:"equation,omitempty"`
}

// @Summary      Connect the field device
// @Description  Opens the configured serial port, binds the live source and starts streaming.
// @Tags         source
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/source/live [post]
// @Security     BearerAuth
func (h *Handler) connectLive(c *gin.Context) {
	st, err := h.services.Device.Connect(c.Request.Context())
	if err != nil {
		h.writeError(c, "device_connect_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusConnected, "state": st})
}

// @Summary      Disconnect the field device
// @Tags         source
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      409  {object}  map[string]string
// @Router       /api/v1/source/live/disconnect [post]
// @Security     BearerAuth
func (h *Handler) disconnectLive(c *gin.Context) {
	if err := h.services.Device.Disconnect(c.Request.Context()); err != nil {
		h.writeError(c, "device_disconnect_failed", err)
		return
	}
	h.respondWithStatusAndState(c, statusDisconnected, nil)
}

// @Summary      Load a run for playback
// @Tags         source
// @Accept       json
// @Produce      json
// @Param        body  body   models.BulkSource  true  "Recorded run"
// @Success      200   {object}  map[string]interface{}  "status, plate_count, state"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/source/playback [post]
// @Security     BearerAuth
func (h *Handler) loadPlayback(c *gin.Context) {
	var src models.BulkSource
	if !h.bindJSONOrBadRequest(c, &src) {
		return
	}
	plates, err := h.services.Source.LoadPlayback(c.Request.Context(), src)
	if err != nil {
		h.writeError(c, "playback_load_failed", err, "entries", len(src.Entries))
		return
	}
	h.respondWithStatusAndState(c, statusLoaded, gin.H{"plate_count": plates})
}

// @Summary      Load a temperature-only run
// @Description  Compositions and distilled mass are recomputed on every sample.
// @Tags         source
// @Accept       json
// @Produce      json
// @Param        body  body   TemperatureRunRequest  true  "Recorded temperatures"
// @Success      200   {object}  map[string]interface{}  "status, plate_count, state"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/source/temperatures [post]
// @Security     BearerAuth
func (h *Handler) loadTemperatures(c *gin.Context) {
	var req TemperatureRunRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	plates, err := h.services.Source.LoadTemperatureReplay(c.Request.Context(), req.BulkSource, req.Equation)
	if err != nil {
		h.writeError(c, "temperature_replay_load_failed", err, "entries", len(req.Entries))
		return
	}
	h.respondWithStatusAndState(c, statusLoaded, gin.H{"plate_count": plates})
}

// @Summary      List serial ports
// @Tags         source
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "ports"
// @Router       /api/v1/modbus/ports [get]
// @Security     BearerAuth
func (h *Handler) listPorts(c *gin.Context) {
	ports, err := h.services.Device.Ports()
	if err != nil {
		h.writeError(c, "list_ports_failed", err)
		return
	}
	if ports == nil {
		ports = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"ports": ports})
}
