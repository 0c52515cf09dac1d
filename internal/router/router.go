// Package router decodes inbound board envelopes and dispatches them by page.
package router

import (
	"encoding/json"
	"fmt"

	"sensor_console/internal/logger"
	"sensor_console/internal/metrics"
	"sensor_console/internal/models"
)

// Form identifies a configuration form acknowledged by a *_saved message.
type Form string

// Forms with a save acknowledgement.
const (
	FormSettings   Form = "settings"
	FormThresholds Form = "thresholds"
	FormLedPattern Form = "led_pattern"
	FormNeoColor   Form = "neo_color"
)

// savedForms maps acknowledgement pages to their form.
var savedForms = map[string]Form{
	models.PageSettingSaved:    FormSettings,
	models.PageThresholdSaved:  FormThresholds,
	models.PageLedPatternSaved: FormLedPattern,
	models.PageNeoColorSaved:   FormNeoColor,
}

// Handlers is the closed set of reactions to board messages.
type Handlers interface {
	OnSensor(models.SensorReading)
	OnTinyML(models.AnomalyScore)
	OnConfig(models.BoardConfig)
	OnDevice(models.DeviceStatus)
	OnSaved(Form)
	OnResetDone()
}

// inbound is the superset of fields any inbound envelope may carry.
type inbound struct {
	Page  *string         `json:"page"`
	Value json.RawMessage `json:"value"`
	Temp  *float64        `json:"temp"`
	Humi  *float64        `json:"humi"`
	Score *float64        `json:"score"`
	Pred  string          `json:"pred"`
	GT    string          `json:"gt"`
	Acc   *float64        `json:"acc"`
}

// Router implements channel.Receiver.
type Router struct {
	handlers Handlers
	metrics  *metrics.Metrics
	log      *logger.Logger
}

// New builds a Router that calls h.
func New(h Handlers, m *metrics.Metrics, log *logger.Logger) *Router {
	return &Router{handlers: h, metrics: m, log: log.Named("router")}
}

// Dispatch decodes raw and calls at most one handler. Malformed frames are
// logged and dropped; frames without a page and unknown pages are ignored.
func (r *Router) Dispatch(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		r.log.Warnw("router_parse_failed", "err", err)
		r.metrics.ParseError()
		return
	}
	if msg.Page == nil || *msg.Page == "" {
		return
	}
	page := *msg.Page
	r.metrics.Inbound(page)

	if err := r.route(page, msg); err != nil {
		r.log.Warnw("router_value_invalid", "page", page, "err", err)
		r.metrics.ParseError()
	}
}

func (r *Router) route(page string, msg inbound) error {
	switch page {
	case models.PageSensor:
		r.handlers.OnSensor(models.SensorReading{Temp: msg.Temp, Humi: msg.Humi})

	case models.PageTinyML:
		r.handlers.OnTinyML(models.AnomalyScore{Score: msg.Score, Pred: msg.Pred, GT: msg.GT, Acc: msg.Acc})

	case models.PageConfig:
		cfg, err := r.decodeConfig(msg.Value)
		if err != nil {
			return err
		}
		r.handlers.OnConfig(cfg)

	case models.PageDevice:
		var st models.DeviceStatus
		if err := decodeValue(msg.Value, &st); err != nil {
			return err
		}
		if st.Name == "" {
			return nil
		}
		r.handlers.OnDevice(st)

	case models.PageResetDone:
		r.handlers.OnResetDone()

	default:
		if form, ok := savedForms[page]; ok {
			r.handlers.OnSaved(form)
			return nil
		}
		r.log.Infow("router_unknown_page", "page", page)
	}
	return nil
}

// decodeConfig decodes each section of a config value on its own. A malformed
// section is logged and left nil; the others still apply.
func (r *Router) decodeConfig(raw json.RawMessage) (models.BoardConfig, error) {
	var cfg models.BoardConfig
	var sections map[string]json.RawMessage
	if err := decodeValue(raw, &sections); err != nil {
		return cfg, err
	}

	errs := []error{
		decodeSection(sections, "thresholds", &cfg.Thresholds),
		decodeSection(sections, "ledPattern", &cfg.LedPattern),
		decodeSection(sections, "neoColors", &cfg.NeoColors),
		decodeSection(sections, "devices", &cfg.Devices),
		decodeSection(sections, "settings", &cfg.Settings),
	}
	for _, err := range errs {
		if err != nil {
			r.log.Warnw("router_config_section_skipped", "err", err)
			r.metrics.ParseError()
		}
	}
	return cfg, nil
}

// decodeSection sets dst only when the whole section decodes, so a half-read
// section never reaches the stores.
func decodeSection[T any](sections map[string]json.RawMessage, name string, dst *T) error {
	raw, ok := sections[name]
	if !ok {
		return nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("section %s: %w", name, err)
	}
	*dst = v
	return nil
}

// decodeValue unmarshals an envelope value. An absent or null value decodes to the zero value.
func decodeValue(raw json.RawMessage, dst any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	return nil
}
