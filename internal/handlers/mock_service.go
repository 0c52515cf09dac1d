package handlers

import (
	"context"
	"io"
	"sync"
	"time"

	"sensor_console/internal/models"
	"sensor_console/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockDevices struct {
	device    models.Device
	toggleErr error
	lastID    string
	calls     int
}

func (m *mockDevices) Toggle(id string) (models.Device, error) {
	m.calls++
	m.lastID = id
	return m.device, m.toggleErr
}

func (m *mockDevices) View() []service.DeviceView {
	return service.RenderDevices([]models.Device{m.device})
}

type mockForms struct {
	err error

	lastSettings   service.SettingsForm
	lastThresholds service.ThresholdForm
	lastLed        service.LedPatternForm
	lastNeo        service.NeoColorForm
	lastConfirm    bool
	calls          int
}

func (m *mockForms) SubmitSettings(f service.SettingsForm) error {
	m.calls++
	m.lastSettings = f
	return m.err
}

func (m *mockForms) SubmitThresholds(f service.ThresholdForm) error {
	m.calls++
	m.lastThresholds = f
	return m.err
}

func (m *mockForms) SubmitLedPattern(f service.LedPatternForm) error {
	m.calls++
	m.lastLed = f
	return m.err
}

func (m *mockForms) SubmitNeoColor(f service.NeoColorForm) error {
	m.calls++
	m.lastNeo = f
	return m.err
}

func (m *mockForms) FactoryReset(confirmed bool) error {
	m.calls++
	m.lastConfirm = confirmed
	if !confirmed {
		return service.ErrResetNotConfirmed
	}
	return m.err
}

type mockMonitoring struct {
	mu        sync.Mutex
	snapshot  service.DashboardSnapshot
	chart     []byte
	chartErr  error
	resizeErr error
	lastW     int
	lastH     int
	dismissed int
}

func (m *mockMonitoring) Snapshot() service.DashboardSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

func (m *mockMonitoring) setSnapshot(s service.DashboardSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = s
}

func (m *mockMonitoring) WriteChart(w io.Writer) error {
	if m.chartErr != nil {
		return m.chartErr
	}
	_, err := w.Write(m.chart)
	return err
}

func (m *mockMonitoring) ResizeChart(width, height int) error {
	m.lastW, m.lastH = width, height
	return m.resizeErr
}

func (m *mockMonitoring) DismissNotice() { m.dismissed++ }

type mockEventLog struct {
	resp     []models.ConsoleEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.ConsoleEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

// newTestService fills every sub-service so routes can be exercised in isolation.
func newTestService() (*service.Service, *mockDevices, *mockForms, *mockMonitoring, *mockEventLog) {
	dev := &mockDevices{device: models.Device{ID: "LED1", Name: "LED1", GPIOPin: 48, Label: "Temperature LED", Icon: "fa-lightbulb"}}
	forms := &mockForms{}
	mon := &mockMonitoring{}
	logs := &mockEventLog{}
	return &service.Service{
		Devices:    dev,
		Forms:      forms,
		Monitoring: mon,
		EventLog:   logs,
		Changes:    service.NewChangeFeed(),
	}, dev, forms, mon, logs
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
