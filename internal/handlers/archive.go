package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// @Summary      List archived sessions
// @Tags         archive
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, sessions"
// @Router       /api/v1/sessions [get]
// @Security     BearerAuth
func (h *Handler) listSessions(c *gin.Context) {
	sessions, err := h.services.Monitoring.Sessions(c.Request.Context())
	if err != nil {
		h.writeError(c, "sessions_list_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// @Summary      Get an archived run
// @Tags         archive
// @Produce      json
// @Param        id   path  string  true  "Session id"
// @Success      200  {object}  map[string]interface{}  "session_id, count, entries"
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/sessions/{id}/samples [get]
// @Security     BearerAuth
func (h *Handler) getSessionSamples(c *gin.Context) {
	id := c.Param("id")
	entries, err := h.services.Monitoring.SessionSamples(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, "session_samples_failed", err, "session_id", id)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": id,
		"count":      len(entries),
		"entries":    entries,
	})
}
