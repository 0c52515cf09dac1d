package service

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"sensor_console/internal/logger"
	"sensor_console/internal/models"
	"sensor_console/internal/router"
)

var (
	ErrInvalidForm       = errors.New("invalid form")
	ErrResetNotConfirmed = errors.New("factory reset not confirmed")
	colorPattern         = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
	errNegativeDuration  = errors.New("must be >= 0")
	errNotANumber        = errors.New("not a number")
	errNotAColor         = errors.New("must be #rrggbb")
)

// Sender delivers an envelope to the board.
type Sender interface {
	Send(models.Envelope) error
}

// FormController turns operator submissions into board commands.
type FormController struct {
	sender Sender
	config *ConfigStore
	status *StatusBoard
	log    *logger.Logger
}

func NewFormController(sender Sender, config *ConfigStore, status *StatusBoard, log *logger.Logger) *FormController {
	return &FormController{sender: sender, config: config, status: status, log: log.Named("forms")}
}

// SubmitSettings sends the trimmed network settings. Port stays a string.
func (c *FormController) SubmitSettings(f SettingsForm) error {
	v := models.NetworkSettings{
		SSID:     strings.TrimSpace(f.SSID),
		Password: strings.TrimSpace(f.Password),
		Token:    strings.TrimSpace(f.Token),
		Server:   strings.TrimSpace(f.Server),
		Port:     strings.TrimSpace(string(f.Port)),
	}
	return c.submit(router.FormSettings, models.PageSetting, v)
}

// SubmitThresholds validates locally, replaces the threshold mirror and sends.
func (c *FormController) SubmitThresholds(f ThresholdForm) error {
	var (
		t    models.ThresholdSet
		errs []error
	)
	t.TempCold = parseFloatField("tempCold", string(f.TempCold), &errs)
	t.TempHot = parseFloatField("tempHot", string(f.TempHot), &errs)
	t.HumiDry = parseFloatField("humiDry", string(f.HumiDry), &errs)
	t.HumiHumid = parseFloatField("humiHumid", string(f.HumiHumid), &errs)
	if err := c.reject(router.FormThresholds, errs); err != nil {
		return err
	}
	if err := c.config.SetThresholds(t); err != nil {
		c.status.Fail(router.FormThresholds, "tempCold must be below tempHot and humiDry below humiHumid.")
		return fmt.Errorf("%w: %w", ErrInvalidForm, err)
	}
	return c.submit(router.FormThresholds, models.PageThreshold, t)
}

// SubmitLedPattern sends whole-millisecond durations.
func (c *FormController) SubmitLedPattern(f LedPatternForm) error {
	var (
		p    models.LedPattern
		errs []error
	)
	p.ColdOn = parseDurationField("coldOn", string(f.ColdOn), &errs)
	p.ColdOff = parseDurationField("coldOff", string(f.ColdOff), &errs)
	p.NormalOn = parseDurationField("normalOn", string(f.NormalOn), &errs)
	p.NormalOff = parseDurationField("normalOff", string(f.NormalOff), &errs)
	p.HotOn = parseDurationField("hotOn", string(f.HotOn), &errs)
	p.HotOff = parseDurationField("hotOff", string(f.HotOff), &errs)
	if err := c.reject(router.FormLedPattern, errs); err != nil {
		return err
	}
	return c.submit(router.FormLedPattern, models.PageLedPattern, p)
}

// SubmitNeoColor sends the three indicator colors.
func (c *FormController) SubmitNeoColor(f NeoColorForm) error {
	var errs []error
	v := models.ColorSet{
		Dry:   parseColorField("dry", f.Dry, &errs),
		OK:    parseColorField("ok", f.OK, &errs),
		Humid: parseColorField("humid", f.Humid, &errs),
	}
	if err := c.reject(router.FormNeoColor, errs); err != nil {
		return err
	}
	return c.submit(router.FormNeoColor, models.PageNeoColor, v)
}

// FactoryReset asks the board to wipe its settings. Nothing is sent unless confirmed.
func (c *FormController) FactoryReset(confirmed bool) error {
	if !confirmed {
		return ErrResetNotConfirmed
	}
	return c.sender.Send(models.Envelope{Page: models.PageResetFactory})
}

func (c *FormController) submit(form router.Form, page string, value any) error {
	err := c.sender.Send(models.Envelope{Page: page, Value: value})
	c.status.Pending(form)
	if err != nil {
		c.log.Warnw("form_send_failed", "form", form, "err", err)
	}
	return err
}

func (c *FormController) reject(form router.Form, errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	err := errors.Join(errs...)
	c.status.Fail(form, err.Error())
	return fmt.Errorf("%w: %w", ErrInvalidForm, err)
}

func parseFloatField(name, raw string, errs *[]error) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, errNotANumber))
		return 0
	}
	return v
}

func parseDurationField(name, raw string, errs *[]error) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, errNotANumber))
		return 0
	}
	if v < 0 {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, errNegativeDuration))
		return 0
	}
	return v
}

func parseColorField(name, raw string, errs *[]error) string {
	v := strings.TrimSpace(raw)
	if !colorPattern.MatchString(v) {
		*errs = append(*errs, fmt.Errorf("%s: %w", name, errNotAColor))
		return ""
	}
	return strings.ToLower(v)
}
