package service

import (
	"context"
	"errors"
	"io"
	"time"

	"sensor_console/internal/chart"
	"sensor_console/internal/clock"
	"sensor_console/internal/history"
	"sensor_console/internal/logger"
	"sensor_console/internal/metrics"
	"sensor_console/internal/models"
	"sensor_console/internal/repository"
)

// Devices exposes the board outputs and their toggles.
type Devices interface {
	Toggle(id string) (models.Device, error)
	View() []DeviceView
}

// Forms exposes the configuration forms and the factory reset.
type Forms interface {
	SubmitSettings(f SettingsForm) error
	SubmitThresholds(f ThresholdForm) error
	SubmitLedPattern(f LedPatternForm) error
	SubmitNeoColor(f NeoColorForm) error
	FactoryReset(confirmed bool) error
}

// Monitoring exposes read-only dashboard state and the chart.
type Monitoring interface {
	Snapshot() DashboardSnapshot
	WriteChart(w io.Writer) error
	ResizeChart(width, height int) error
	DismissNotice()
}

// EventLog exposes the operator journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.ConsoleEvent, error)
}

// Changes lets viewers wait for re-renders.
type Changes interface {
	Revision() uint64
	Reloads() uint64
	Subscribe() (<-chan struct{}, func())
}

// Service aggregates all sub-services for the HTTP layer.
type Service struct {
	Devices
	Forms
	Monitoring
	EventLog
	Changes
}

// Options tunes the dashboard. Zero values select defaults, except AckTimeout
// where zero disables the timeout.
type Options struct {
	Devices          []models.Device
	HistoryCapacity  int
	MaxBars          int
	ChartRenderer    string
	ChartWidth       int
	ChartHeight      int
	StatusClearAfter time.Duration
	AckTimeout       time.Duration
	Clock            clock.Clock
	Metrics          *metrics.Metrics
}

// NewService wires the stores around a board sender. The returned Dashboard
// receives board messages and link transitions.
func NewService(repos *repository.Repository, sender Sender, opts Options, log *logger.Logger) (*Service, *Dashboard, error) {
	if sender == nil {
		return nil, nil, errors.New("service: sender is required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if len(opts.Devices) == 0 {
		opts.Devices = DefaultDevices()
	}
	if opts.ChartWidth <= 0 {
		opts.ChartWidth = chart.DefaultWidth
	}
	if opts.ChartHeight <= 0 {
		opts.ChartHeight = chart.DefaultHeight
	}

	var journalRepo repository.JournalRepo
	if repos != nil {
		journalRepo = repos.Journal
	}
	journal := NewEventLogService(journalRepo, log)
	out := journalingSender{next: sender, journal: journal}
	changes := NewChangeFeed()

	devices, err := NewDeviceRegistry(opts.Devices, out, changes, log)
	if err != nil {
		return nil, nil, err
	}
	renderer, err := chart.New(opts.ChartRenderer, opts.ChartWidth, opts.ChartHeight)
	if err != nil {
		return nil, nil, err
	}
	config := NewConfigStore(devices, changes, log)
	status := NewStatusBoard(opts.Clock, opts.StatusClearAfter, opts.AckTimeout, changes)
	feed := NewLiveFeed(history.NewBuffer(opts.HistoryCapacity), renderer, config, opts.MaxBars, opts.Clock, changes, log)

	dash := &Dashboard{
		devices:   devices,
		config:    config,
		feed:      feed,
		status:    status,
		journal:   journal,
		changes:   changes,
		metrics:   opts.Metrics,
		log:       log.Named("dashboard"),
		chartKind: renderer.Kind(),
	}

	return &Service{
		Devices:    devices,
		Forms:      NewFormController(out, config, status, log),
		Monitoring: dash,
		EventLog:   journal,
		Changes:    changes,
	}, dash, nil
}
