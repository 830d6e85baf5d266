package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"distillation_monitor/internal/calculation"
	"distillation_monitor/internal/models"
	"distillation_monitor/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockTransmission struct {
	status  models.TransmissionStatus
	history []models.ColumnEntry

	startErr    error
	toggleState string
	toggleErr   error
	cancelErr   error
	speedErr    error
	skipErr     error

	startCalled  int
	cancelCalled int
	lastFactor   float64
	lastDelta    int
}

func (m *mockTransmission) Start(context.Context) error {
	m.startCalled++
	return m.startErr
}
func (m *mockTransmission) Toggle(context.Context) (string, error) {
	return m.toggleState, m.toggleErr
}
func (m *mockTransmission) Cancel(context.Context) error {
	m.cancelCalled++
	return m.cancelErr
}
func (m *mockTransmission) SetSpeed(_ context.Context, factor float64) (time.Duration, error) {
	m.lastFactor = factor
	if m.speedErr != nil {
		return time.Second, m.speedErr
	}
	return time.Duration(float64(time.Second) / factor), nil
}
func (m *mockTransmission) Skip(_ context.Context, delta int) error {
	m.lastDelta = delta
	return m.skipErr
}
func (m *mockTransmission) Status() models.TransmissionStatus { return m.status }
func (m *mockTransmission) History() []models.ColumnEntry    { return m.history }

type mockMonitoring struct {
	sessions []models.SessionSummary
	samples  []models.ColumnEntry
	err      error
	lastID   string
}

func (m *mockMonitoring) Sessions(context.Context) ([]models.SessionSummary, error) {
	return m.sessions, m.err
}
func (m *mockMonitoring) SessionSamples(_ context.Context, id string) ([]models.ColumnEntry, error) {
	m.lastID = id
	return m.samples, m.err
}

type mockEventLog struct {
	resp     []models.TransmissionEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.TransmissionEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockDevice struct {
	status        models.TransmissionStatus
	connectErr    error
	disconnectErr error
	ports         []string
	portsErr      error
}

func (m *mockDevice) Connect(context.Context) (models.TransmissionStatus, error) {
	return m.status, m.connectErr
}
func (m *mockDevice) Disconnect(context.Context) error { return m.disconnectErr }
func (m *mockDevice) Ports() ([]string, error)         { return m.ports, m.portsErr }

type mockSource struct {
	plates       int
	err          error
	lastSource   models.BulkSource
	lastEquation *calculation.EquationParams
	replayCalls  int
}

func (m *mockSource) LoadPlayback(_ context.Context, src models.BulkSource) (int, error) {
	m.lastSource = src
	return m.plates, m.err
}
func (m *mockSource) LoadTemperatureReplay(_ context.Context, src models.BulkSource, params *calculation.EquationParams) (int, error) {
	m.replayCalls++
	m.lastSource = src
	m.lastEquation = params
	return m.plates, m.err
}

type mockSettings struct {
	current models.Settings
	saveErr error
	saved   *models.Settings
}

func (m *mockSettings) GetSettings(context.Context) (models.Settings, error) {
	return m.current, nil
}
func (m *mockSettings) SaveSettings(_ context.Context, s models.Settings) (models.Settings, error) {
	if m.saveErr != nil {
		return models.Settings{}, m.saveErr
	}
	m.saved = &s
	return s, nil
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// doAuthed sends an authorized request with an optional JSON body.
func doAuthed(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vv := range authHeader("valid") {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	r.ServeHTTP(w, req)
	return w
}
