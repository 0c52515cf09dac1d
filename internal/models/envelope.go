package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Outbound discriminants.
const (
	PageGetConfig    = "get_config"
	PageDevice       = "device"
	PageSetting      = "setting"
	PageThreshold    = "threshold"
	PageLedPattern   = "led_pattern"
	PageNeoColor     = "neo_color"
	PageResetFactory = "reset_factory"
)

// Inbound discriminants.
const (
	PageSensor          = "sensor"
	PageTinyML          = "tinyml"
	PageConfig          = "config"
	PageSettingSaved    = "setting_saved"
	PageThresholdSaved  = "threshold_saved"
	PageLedPatternSaved = "led_pattern_saved"
	PageNeoColorSaved   = "neo_color_saved"
	PageResetDone       = "reset_done"
)

// AnomalyTag marks an anomalous prediction or ground truth in a tinyml message.
const AnomalyTag = "ANOM"

// Envelope is the outbound wire wrapper.
type Envelope struct {
	Page  string `json:"page"`
	Value any    `json:"value,omitempty"`
}

// SensorReading is an inbound "sensor" message. Nil means the field was absent or null.
type SensorReading struct {
	Temp *float64
	Humi *float64
}

// AnomalyScore is an inbound "tinyml" message.
type AnomalyScore struct {
	Score *float64
	Pred  string
	GT    string
	Acc   *float64
}

// FlexString accepts a JSON string or number and keeps its text form. null
// leaves it unchanged.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseFloat(n.String(), 64); err != nil {
		return err
	}
	*f = FlexString(n.String())
	return nil
}
