package handlers

import (
	"net/http"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/models"
	"distillation_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// CompositionRequest solves one temperature.
type CompositionRequest struct {
	Temperature   *float64                    `json:"temperature" binding:"required" example:"80"`
	InitialGuess  *float64                    `json:"initial_guess,omitempty" example:"0.5"`
	Tolerance     float64                     `json:"tolerance,omitempty" example:"0.000001"`
	MaxIterations int                         `json:"max_iterations,omitempty" example:"1000"`
	Equation      *calculation.EquationParams `json:"equation,omitempty"`
}

// InterpolateRequest spreads the boundary temperatures over the column.
type InterpolateRequest struct {
	PlateCount int      `json:"plate_count" binding:"required" example:"10"`
	Top        *float64 `json:"top" binding:"required" example:"78.4"`
	Bottom     *float64 `json:"bottom" binding:"required" example:"92.1"`
}

// MassRequest evaluates the continuous mass balance.
type MassRequest struct {
	InitialMass *float64 `json:"initial_mass" binding:"required" example:"1000"`
	XB0         *float64 `json:"xb0" binding:"required" example:"0.3"`
	XBF         *float64 `json:"xbf" binding:"required" example:"0.1"`
	XD          *float64 `json:"xd" binding:"required" example:"0.7"`
	Resolution  int      `json:"resolution,omitempty" example:"1000"`
}

// MassHistoryRequest evaluates the discrete mass balance. Without entries
// the current session history is used.
type MassHistoryRequest struct {
	InitialMass        *float64             `json:"initial_mass" binding:"required" example:"1000"`
	InitialComposition *float64             `json:"initial_composition,omitempty" example:"0.3"`
	Entries            []models.ColumnEntry `json:"entries,omitempty"`
}

// @Summary      Solve the equilibrium composition
// @Tags         calc
// @Accept       json
// @Produce      json
// @Param        body  body   CompositionRequest  true  "Temperature and solver options"
// @Success      200   {object}  map[string]interface{}  "temperature, x1, y1"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/calc/composition [post]
// @Security     BearerAuth
func (h *Handler) calcComposition(c *gin.Context) {
	var req CompositionRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	pair, err := h.services.Calculation.Composition(*req.Temperature, service.CompositionParams{
		InitialGuess:  req.InitialGuess,
		Tolerance:     req.Tolerance,
		MaxIterations: req.MaxIterations,
		Equation:      req.Equation,
	})
	if err != nil {
		h.writeError(c, "calc_composition_failed", err, "temperature", *req.Temperature)
		return
	}
	c.JSON(http.StatusOK, gin.H{"temperature": *req.Temperature, "x1": pair.X1, "y1": pair.Y1})
}

// @Summary      Interpolate plate temperatures
// @Tags         calc
// @Accept       json
// @Produce      json
// @Param        body  body   InterpolateRequest  true  "Boundary temperatures"
// @Success      200   {object}  map[string]interface{}  "temperatures"
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/calc/interpolate [post]
// @Security     BearerAuth
func (h *Handler) calcInterpolate(c *gin.Context) {
	var req InterpolateRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	temps, err := h.services.Calculation.Interpolate(req.PlateCount, *req.Top, *req.Bottom)
	if err != nil {
		h.writeError(c, "calc_interpolate_failed", err, "plate_count", req.PlateCount)
		return
	}
	c.JSON(http.StatusOK, gin.H{"temperatures": temps})
}

// @Summary      Estimate remaining still mass
// @Tags         calc
// @Accept       json
// @Produce      json
// @Param        body  body   MassRequest  true  "Mass balance inputs"
// @Success      200   {object}  service.MassEstimate
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/calc/mass [post]
// @Security     BearerAuth
func (h *Handler) calcMass(c *gin.Context) {
	var req MassRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	est, err := h.services.Calculation.Mass(*req.InitialMass, *req.XB0, *req.XBF, *req.XD, req.Resolution)
	if err != nil {
		h.writeError(c, "calc_mass_failed", err)
		return
	}
	c.JSON(http.StatusOK, est)
}

// @Summary      Estimate remaining still mass from samples
// @Tags         calc
// @Accept       json
// @Produce      json
// @Param        body  body   MassHistoryRequest  true  "Initial mass and optional samples"
// @Success      200   {object}  service.MassEstimate
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/calc/mass/history [post]
// @Security     BearerAuth
func (h *Handler) calcMassFromHistory(c *gin.Context) {
	var req MassHistoryRequest
	if !h.bindJSONOrBadRequest(c, &req) {
		return
	}
	est, err := h.services.Calculation.MassFromHistory(*req.InitialMass, req.InitialComposition, req.Entries)
	if err != nil {
		h.writeError(c, "calc_mass_history_failed", err, "entries", len(req.Entries))
		return
	}
	c.JSON(http.StatusOK, est)
}
