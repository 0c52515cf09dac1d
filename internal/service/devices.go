package service

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"sensor_console/internal/logger"
	"sensor_console/internal/models"
)

var (
	ErrUnknownDevice   = errors.New("unknown device")
	errDuplicateDevice = errors.New("duplicate device")
)

// DefaultDevices mirrors the outputs wired on the reference board.
func DefaultDevices() []models.Device {
	return []models.Device{
		{ID: "LED1", Name: "LED1", GPIOPin: 48, Label: "Temperature LED", Icon: "fa-lightbulb"},
		{ID: "LED2", Name: "LED2", GPIOPin: 45, Label: "Humidity LED", Icon: "fa-fan"},
	}
}

// DeviceView is the presentation description of one device.
type DeviceView struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Icon        string `json:"icon"`
	GPIOText    string `json:"gpio_text"`
	ButtonClass string `json:"button_class"`
	ButtonText  string `json:"button_text"`
	IsOn        bool   `json:"is_on"`
}

// RenderDevices maps device state to its presentation. It is pure.
func RenderDevices(devices []models.Device) []DeviceView {
	out := make([]DeviceView, 0, len(devices))
	for _, d := range devices {
		v := DeviceView{
			ID:          d.ID,
			Label:       d.Label,
			Icon:        d.Icon,
			GPIOText:    "GPIO " + strconv.Itoa(d.GPIOPin),
			ButtonClass: "toggle-btn",
			ButtonText:  "OFF",
			IsOn:        d.IsOn,
		}
		if d.IsOn {
			v.ButtonClass = "toggle-btn on"
			v.ButtonText = "ON"
		}
		out = append(out, v)
	}
	return out
}

// DeviceRegistry mirrors the board outputs. Membership is fixed at construction;
// only IsOn changes.
type DeviceRegistry struct {
	// toggleMu orders flip-and-send pairs so the wire sees commands in the
	// same order as the local flips. mu alone guards the device slice.
	toggleMu sync.Mutex

	mu      sync.Mutex
	devices []models.Device
	byID    map[string]int
	byName  map[string]int

	sender   Sender
	notifier Notifier
	log      *logger.Logger
}

// NewDeviceRegistry validates that names and ids are unique. Every device starts off.
func NewDeviceRegistry(devices []models.Device, sender Sender, notifier Notifier, log *logger.Logger) (*DeviceRegistry, error) {
	r := &DeviceRegistry{
		devices:  make([]models.Device, len(devices)),
		byID:     make(map[string]int, len(devices)),
		byName:   make(map[string]int, len(devices)),
		sender:   sender,
		notifier: notifier,
		log:      log.Named("devices"),
	}
	for i, d := range devices {
		if d.ID == "" {
			d.ID = d.Name
		}
		if d.Name == "" {
			return nil, fmt.Errorf("device %d: name is required", i)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("%w: name %q", errDuplicateDevice, d.Name)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, fmt.Errorf("%w: id %q", errDuplicateDevice, d.ID)
		}
		d.IsOn = false
		r.devices[i] = d
		r.byID[d.ID] = i
		r.byName[d.Name] = i
	}
	return r, nil
}

// List returns a copy of the registry in declaration order.
func (r *DeviceRegistry) List() []models.Device {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Device, len(r.devices))
	copy(out, r.devices)
	return out
}

// View renders the current registry.
func (r *DeviceRegistry) View() []DeviceView {
	return RenderDevices(r.List())
}

// Toggle flips the device, re-renders without waiting for the board and sends
// the new state. The local flip stands even if the send is dropped. Concurrent
// toggles are serialized through the send.
func (r *DeviceRegistry) Toggle(id string) (models.Device, error) {
	r.toggleMu.Lock()
	defer r.toggleMu.Unlock()

	r.mu.Lock()
	i, ok := r.byID[id]
	if !ok {
		r.mu.Unlock()
		return models.Device{}, fmt.Errorf("%w: %q", ErrUnknownDevice, id)
	}
	r.devices[i].IsOn = !r.devices[i].IsOn
	d := r.devices[i]
	r.mu.Unlock()

	r.notifier.Changed(SectionDevices)

	err := r.sender.Send(models.Envelope{
		Page: models.PageDevice,
		Value: models.DeviceCommand{
			Name:   d.Name,
			Status: models.StatusFromBool(d.IsOn),
			GPIO:   d.GPIOPin,
		},
	})
	return d, err
}

// ReconcileOne applies board-reported state for one device. Unknown names are
// ignored. Reports whether a device matched.
func (r *DeviceRegistry) ReconcileOne(name, status string) bool {
	if !r.apply(name, status) {
		r.log.Debugw("device_unknown_ignored", "name", name)
		return false
	}
	r.notifier.Changed(SectionDevices)
	return true
}

// ReconcileBulk applies every entry and then re-renders once. Returns the
// number of entries that matched a device.
func (r *DeviceRegistry) ReconcileBulk(list []models.DeviceStatus) int {
	matched := 0
	for _, st := range list {
		if r.apply(st.Name, st.Status) {
			matched++
		}
	}
	r.notifier.Changed(SectionDevices)
	return matched
}

// Reset turns every device off locally.
func (r *DeviceRegistry) Reset() {
	r.mu.Lock()
	for i := range r.devices {
		r.devices[i].IsOn = false
	}
	r.mu.Unlock()
	r.notifier.Changed(SectionDevices)
}

func (r *DeviceRegistry) apply(name, status string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.byName[name]
	if !ok {
		return false
	}
	r.devices[i].IsOn = models.IsOnStatus(status)
	return true
}
