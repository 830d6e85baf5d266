package handlers

import (
	"net/http"

	"distillation_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

const errInvalidBodyPref = "invalid body: "

// statusForKind maps an error kind onto an HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case service.KindValidation, service.KindInvalidSpeed, service.KindEmpty,
		service.KindPlateMismatch, service.KindRootFinding:
		return http.StatusBadRequest
	case service.KindNotFound, service.KindEndOfData:
		return http.StatusNotFound
	case service.KindNoProvider, service.KindNotRunning, service.KindConflict:
		return http.StatusConflict
	case service.KindConnection, service.KindRead, service.KindProviderUnavailable:
		return http.StatusBadGateway
	case service.KindCanceled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError classifies err and writes {"error", "kind"}. Server-side
// failures are logged under logKey.
func (h *Handler) writeError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	kind := service.Classify(err)
	code := statusForKind(kind)
	if h.log != nil {
		fields := append([]interface{}{"err", err, "kind", kind}, kv...)
		if code >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(code, gin.H{"error": err.Error(), "kind": kind})
}

// bindJSONOrBadRequest tries to bind the request body into dst and writes a 400 JSON on failure.
// Returns false if the request was already handled (aborted), true otherwise.
func (h *Handler) bindJSONOrBadRequest(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		if h.log != nil {
			h.log.Infow("bad_request_body", "path", c.FullPath(), "err", err)
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error(), "kind": service.KindValidation})
		return false
	}
	return true
}
