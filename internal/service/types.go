package service

import (
	"time"

	"sensor_console/internal/models"
)

// LogFilter selects journal entries by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "COMMAND", "DROPPED", "ACK", "CONNECT", "DISCONNECT", "RESET"
}

// SettingsForm carries the raw network form fields. Port may be a JSON number.
type SettingsForm struct {
	SSID     string            `json:"ssid" form:"ssid"`
	Password string            `json:"password" form:"password"`
	Token    string            `json:"token" form:"token"`
	Server   string            `json:"server" form:"server"`
	Port     models.FlexString `json:"port" form:"port"`
}

// ThresholdForm carries the raw threshold form fields. JSON clients may send
// numbers or strings.
type ThresholdForm struct {
	TempCold  models.FlexString `json:"tempCold" form:"temp-cold"`
	TempHot   models.FlexString `json:"tempHot" form:"temp-hot"`
	HumiDry   models.FlexString `json:"humiDry" form:"humi-dry"`
	HumiHumid models.FlexString `json:"humiHumid" form:"humi-humid"`
}

// LedPatternForm carries the raw LED pattern form fields (milliseconds) as
// numbers or strings.
type LedPatternForm struct {
	ColdOn    models.FlexString `json:"coldOn" form:"cold-on"`
	ColdOff   models.FlexString `json:"coldOff" form:"cold-off"`
	NormalOn  models.FlexString `json:"normalOn" form:"normal-on"`
	NormalOff models.FlexString `json:"normalOff" form:"normal-off"`
	HotOn     models.FlexString `json:"hotOn" form:"hot-on"`
	HotOff    models.FlexString `json:"hotOff" form:"hot-off"`
}

// NeoColorForm carries the raw indicator color fields.
type NeoColorForm struct {
	Dry   string `json:"dry" form:"color-dry"`
	OK    string `json:"ok" form:"color-ok"`
	Humid string `json:"humid" form:"color-humid"`
}
