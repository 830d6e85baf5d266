package handlers

import (
	"net/http"

	"distillation_monitor/internal/models"

	"github.com/gin-gonic/gin"
)

// @Summary      Get operator settings
// @Tags         settings
// @Produce      json
// @Success      200  {object}  models.Settings
// @Router       /api/v1/settings [get]
// @Security     BearerAuth
func (h *Handler) getSettings(c *gin.Context) {
	st, err := h.services.Settings.GetSettings(c.Request.Context())
	if err != nil {
		h.writeError(c, "settings_load_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Save operator settings
// @Description  Applies to the next device connect.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        body  body   models.Settings  true  "Settings"
// @Success      200   {object}  models.Settings
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/settings [put]
// @Security     BearerAuth
func (h *Handler) saveSettings(c *gin.Context) {
	var st models.Settings
	if !h.bindJSONOrBadRequest(c, &st) {
		return
	}
	saved, err := h.services.Settings.SaveSettings(c.Request.Context(), st)
	if err != nil {
		h.writeError(c, "settings_save_failed", err)
		return
	}
	c.JSON(http.StatusOK, saved)
}
