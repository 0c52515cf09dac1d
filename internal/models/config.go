package models

// Threshold defaults used when the board omits a field.
const (
	DefaultTempCold  = 25.0
	DefaultTempHot   = 30.0
	DefaultHumiDry   = 40.0
	DefaultHumiHumid = 70.0
)

// Indicator color defaults.
const (
	DefaultColorDry   = "#0000ff"
	DefaultColorOK    = "#00ff00"
	DefaultColorHumid = "#ff0000"
)

// ThresholdSet bounds the comfort zone. Valid when TempCold < TempHot and HumiDry < HumiHumid.
type ThresholdSet struct {
	TempCold  float64 `json:"tempCold"`
	TempHot   float64 `json:"tempHot"`
	HumiDry   float64 `json:"humiDry"`
	HumiHumid float64 `json:"humiHumid"`
}

// Valid reports whether both ranges are strictly ordered.
func (t ThresholdSet) Valid() bool {
	return t.TempCold < t.TempHot && t.HumiDry < t.HumiHumid
}

// DefaultThresholds returns the literal defaults.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{
		TempCold:  DefaultTempCold,
		TempHot:   DefaultTempHot,
		HumiDry:   DefaultHumiDry,
		HumiHumid: DefaultHumiHumid,
	}
}

// LedPattern holds on/off durations in milliseconds per temperature zone.
type LedPattern struct {
	ColdOn    int `json:"coldOn"`
	ColdOff   int `json:"coldOff"`
	NormalOn  int `json:"normalOn"`
	NormalOff int `json:"normalOff"`
	HotOn     int `json:"hotOn"`
	HotOff    int `json:"hotOff"`
}

// ColorSet holds the humidity indicator colors as "#rrggbb".
type ColorSet struct {
	Dry   string `json:"dry"`
	OK    string `json:"ok"`
	Humid string `json:"humid"`
}

// DefaultColors returns the literal defaults.
func DefaultColors() ColorSet {
	return ColorSet{Dry: DefaultColorDry, OK: DefaultColorOK, Humid: DefaultColorHumid}
}

// NetworkSettings are opaque to the console; port stays a string as on the wire.
type NetworkSettings struct {
	SSID     string `json:"ssid"`
	Password string `json:"password"`
	Token    string `json:"token"`
	Server   string `json:"server"`
	Port     string `json:"port"`
}

// BoardConfig is the value of an inbound "config" envelope. Every section and
// every field is optional; nil means "not sent".
type BoardConfig struct {
	Thresholds *ThresholdsPatch `json:"thresholds,omitempty"`
	LedPattern *LedPatternPatch `json:"ledPattern,omitempty"`
	NeoColors  *ColorSet        `json:"neoColors,omitempty"`
	Devices    []DeviceStatus   `json:"devices,omitempty"`
	Settings   *SettingsPatch   `json:"settings,omitempty"`
}

// ThresholdsPatch is a partially populated threshold section.
type ThresholdsPatch struct {
	TempCold  *float64 `json:"tempCold,omitempty"`
	TempHot   *float64 `json:"tempHot,omitempty"`
	HumiDry   *float64 `json:"humiDry,omitempty"`
	HumiHumid *float64 `json:"humiHumid,omitempty"`
}

// LedPatternPatch is a partially populated LED pattern section.
type LedPatternPatch struct {
	ColdOn    *int `json:"coldOn,omitempty"`
	ColdOff   *int `json:"coldOff,omitempty"`
	NormalOn  *int `json:"normalOn,omitempty"`
	NormalOff *int `json:"normalOff,omitempty"`
	HotOn     *int `json:"hotOn,omitempty"`
	HotOff    *int `json:"hotOff,omitempty"`
}

// SettingsPatch is a partially populated network section. Port may arrive as
// a JSON number or string.
type SettingsPatch struct {
	SSID     *string    `json:"ssid,omitempty"`
	Password *string    `json:"password,omitempty"`
	Token    *string    `json:"token,omitempty"`
	Server   *string    `json:"server,omitempty"`
	Port     *FlexString `json:"port,omitempty"`
}
