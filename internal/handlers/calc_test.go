package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCalcRouter() http.Handler {
	calc := service.NewCalculationService(calculation.NewSolver(calculation.DefaultEquationParams()), nil)
	return newTestRouter(&service.Service{Authorization: &mockAuth{}, Calculation: calc})
}

func TestCalcHandlers_Composition(t *testing.T) {
	r := newCalcRouter()

	w := doAuthed(r, http.MethodPost, "/api/v1/calc/composition", `{"temperature":80}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Temperature float64  `json:"temperature"`
		X1          *float64 `json:"x1"`
		Y1          *float64 `json:"y1"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.NotNil(t, out.X1)
	require.NotNil(t, out.Y1)
	assert.Equal(t, 80.0, out.Temperature)
	assert.InDelta(t, 0.099, *out.X1, 1e-9)

	w = doAuthed(r, http.MethodPost, "/api/v1/calc/composition", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doAuthed(r, http.MethodPost, "/api/v1/calc/composition", `{"temperature":80,"max_iterations":1,"tolerance":1e-15}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), service.KindRootFinding)
}

func TestCalcHandlers_Interpolate(t *testing.T) {
	r := newCalcRouter()

	w := doAuthed(r, http.MethodPost, "/api/v1/calc/interpolate", `{"plate_count":5,"top":78,"bottom":85}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Temperatures []float64 `json:"temperatures"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, []float64{78, 79.75, 81.5, 83.25, 85}, out.Temperatures)

	w = doAuthed(r, http.MethodPost, "/api/v1/calc/interpolate", `{"plate_count":1,"top":78,"bottom":85}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalcHandlers_Mass(t *testing.T) {
	r := newCalcRouter()

	w := doAuthed(r, http.MethodPost, "/api/v1/calc/mass", `{"initial_mass":1000,"xb0":0.2,"xbf":0.2,"xd":0.7}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var est service.MassEstimate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &est))
	assert.Equal(t, 1000.0, est.RemainingMass)
	assert.Equal(t, 0.0, est.DistilledMass)

	w = doAuthed(r, http.MethodPost, "/api/v1/calc/mass", `{"initial_mass":1000,"xb0":0.3,"xbf":0.1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCalcHandlers_MassFromHistory(t *testing.T) {
	r := newCalcRouter()

	body := `{"initial_mass":1000,"entries":[
	  {"timestamp":1,"temperatures":[78,85],"compositions":[{"x1":0.7,"y1":0.8},{"x1":0.3,"y1":0.5}]},
	  {"timestamp":2,"temperatures":[78,86],"compositions":[{"x1":0.7,"y1":0.8},{"x1":0.2,"y1":0.4}]}
	]}`
	w := doAuthed(r, http.MethodPost, "/api/v1/calc/mass/history", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var est service.MassEstimate
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &est))
	assert.Less(t, est.RemainingMass, 1000.0)

	filtered := strings.Replace(body, `"initial_mass":1000`, `"initial_mass":1000,"initial_composition":0.25`, 1)
	w = doAuthed(r, http.MethodPost, "/api/v1/calc/mass/history", filtered)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &est))
	assert.Equal(t, 1000.0, est.RemainingMass)

	w = doAuthed(r, http.MethodPost, "/api/v1/calc/mass/history", `{"initial_mass":1000}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), service.KindEmpty)
}
