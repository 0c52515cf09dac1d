package service

import (
	"errors"
	"sync"

	"sensor_console/internal/logger"
	"sensor_console/internal/models"
)

var ErrInvalidThresholds = errors.New("invalid thresholds: need tempCold < tempHot and humiDry < humiHumid")

// DefaultLedPattern is the blink pattern the firmware boots with.
func DefaultLedPattern() models.LedPattern {
	return models.LedPattern{
		ColdOn: 1000, ColdOff: 1000,
		NormalOn: 200, NormalOff: 800,
		HotOn: 150, HotOff: 150,
	}
}

// ConfigStore mirrors the board configuration sections.
type ConfigStore struct {
	mu         sync.RWMutex
	thresholds models.ThresholdSet
	led        models.LedPattern
	colors     models.ColorSet
	settings   models.NetworkSettings

	devices  *DeviceRegistry
	notifier Notifier
	log      *logger.Logger
}

// NewConfigStore returns a store holding the defaults.
func NewConfigStore(devices *DeviceRegistry, notifier Notifier, log *logger.Logger) *ConfigStore {
	return &ConfigStore{
		thresholds: models.DefaultThresholds(),
		led:        DefaultLedPattern(),
		colors:     models.DefaultColors(),
		devices:    devices,
		notifier:   notifier,
		log:        log.Named("config"),
	}
}

// ApplyFullConfig merges a board config snapshot. Absent sections are left alone.
func (s *ConfigStore) ApplyFullConfig(cfg models.BoardConfig) {
	s.mu.Lock()
	if cfg.Thresholds != nil {
		next := thresholdsFromPatch(cfg.Thresholds)
		if next.Valid() {
			s.thresholds = next
		} else {
			s.log.Warnw("config_thresholds_rejected",
				"temp_cold", next.TempCold, "temp_hot", next.TempHot,
				"humi_dry", next.HumiDry, "humi_humid", next.HumiHumid)
		}
	}
	if p := cfg.LedPattern; p != nil {
		setInt(&s.led.ColdOn, p.ColdOn)
		setInt(&s.led.ColdOff, p.ColdOff)
		setInt(&s.led.NormalOn, p.NormalOn)
		setInt(&s.led.NormalOff, p.NormalOff)
		setInt(&s.led.HotOn, p.HotOn)
		setInt(&s.led.HotOff, p.HotOff)
	}
	if c := cfg.NeoColors; c != nil {
		s.colors = models.ColorSet{
			Dry:   orDefault(c.Dry, models.DefaultColorDry),
			OK:    orDefault(c.OK, models.DefaultColorOK),
			Humid: orDefault(c.Humid, models.DefaultColorHumid),
		}
	}
	if p := cfg.Settings; p != nil {
		setString(&s.settings.SSID, p.SSID)
		setString(&s.settings.Password, p.Password)
		setString(&s.settings.Token, p.Token)
		setString(&s.settings.Server, p.Server)
		if p.Port != nil {
			s.settings.Port = string(*p.Port)
		}
	}
	s.mu.Unlock()

	if cfg.Devices != nil && s.devices != nil {
		s.devices.ReconcileBulk(cfg.Devices)
	}
	s.notifier.Changed(SectionConfig)
}

// SetThresholds replaces the threshold mirror after validation.
func (s *ConfigStore) SetThresholds(t models.ThresholdSet) error {
	if !t.Valid() {
		return ErrInvalidThresholds
	}
	s.mu.Lock()
	s.thresholds = t
	s.mu.Unlock()
	s.notifier.Changed(SectionConfig)
	return nil
}

func (s *ConfigStore) Thresholds() models.ThresholdSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.thresholds
}

func (s *ConfigStore) LedPattern() models.LedPattern {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.led
}

func (s *ConfigStore) Colors() models.ColorSet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.colors
}

func (s *ConfigStore) Settings() models.NetworkSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Reset restores every section to its default.
func (s *ConfigStore) Reset() {
	s.mu.Lock()
	s.thresholds = models.DefaultThresholds()
	s.led = DefaultLedPattern()
	s.colors = models.DefaultColors()
	s.settings = models.NetworkSettings{}
	s.mu.Unlock()
	s.notifier.Changed(SectionConfig)
}

func thresholdsFromPatch(p *models.ThresholdsPatch) models.ThresholdSet {
	return models.ThresholdSet{
		TempCold:  floatOr(p.TempCold, models.DefaultTempCold),
		TempHot:   floatOr(p.TempHot, models.DefaultTempHot),
		HumiDry:   floatOr(p.HumiDry, models.DefaultHumiDry),
		HumiHumid: floatOr(p.HumiHumid, models.DefaultHumiHumid),
	}
}

func floatOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
