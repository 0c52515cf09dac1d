package models

// Wire values for a device status.
const (
	StatusOn  = "ON"
	StatusOff = "OFF"
)

// Device is a controllable output on the board (relay or LED).
// Name is the identity shared with the board; ID is the local alias used by the UI.
type Device struct {
	ID      string `json:"id" mapstructure:"id"`
	Name    string `json:"name" mapstructure:"name"`
	GPIOPin int    `json:"gpio" mapstructure:"gpio"`
	IsOn    bool   `json:"is_on" mapstructure:"-"`
	Label   string `json:"label" mapstructure:"label"`
	Icon    string `json:"icon" mapstructure:"icon"`
}

// DeviceStatus is the board-reported state of one device.
type DeviceStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// DeviceCommand is the value of an outbound "device" envelope.
type DeviceCommand struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	GPIO   int    `json:"gpio"`
}

// StatusFromBool maps a local on/off flag to the wire enum.
func StatusFromBool(on bool) string {
	if on {
		return StatusOn
	}
	return StatusOff
}

// IsOnStatus maps the wire enum to a local flag. Anything but "ON" is off.
func IsOnStatus(status string) bool {
	return status == StatusOn
}
