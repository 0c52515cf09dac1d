package handlers

import (
	"errors"
	"net/http"

	"sensor_console/internal/router"
	"sensor_console/internal/service"

	"github.com/gin-gonic/gin"
)

// bindAndSubmit binds a JSON or urlencoded form and runs submit. Validation
// failures are 400; a dropped send is reported but the form is still pending.
func bindAndSubmit[F any](h *Handler, c *gin.Context, form router.Form, submit func(F) error) {
	var f F
	if err := c.ShouldBind(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	err := submit(f)
	if errors.Is(err, service.ErrInvalidForm) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "form": form})
		return
	}
	if err != nil {
		h.respondSendError(c, "form_send_failed", err, gin.H{"form": form})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": statusSent, "form": form})
}

// @Summary      Save network settings
// @Description  Fields are trimmed; port is forwarded as a string. The board answers with setting_saved.
// @Tags         forms
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      service.SettingsForm  true  "Network settings"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/forms/settings [post]
func (h *Handler) submitSettings(c *gin.Context) {
	bindAndSubmit(h, c, router.FormSettings, h.services.Forms.SubmitSettings)
}

// @Summary      Save thresholds
// @Description  Requires tempCold < tempHot and humiDry < humiHumid.
// @Tags         forms
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      service.ThresholdForm  true  "Thresholds"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/forms/thresholds [post]
func (h *Handler) submitThresholds(c *gin.Context) {
	bindAndSubmit(h, c, router.FormThresholds, h.services.Forms.SubmitThresholds)
}

// @Summary      Save LED pattern
// @Tags         forms
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      service.LedPatternForm  true  "On/off durations in ms"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/forms/led-pattern [post]
func (h *Handler) submitLedPattern(c *gin.Context) {
	bindAndSubmit(h, c, router.FormLedPattern, h.services.Forms.SubmitLedPattern)
}

// @Summary      Save NeoPixel colors
// @Tags         forms
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        body  body      service.NeoColorForm  true  "Colors as #rrggbb"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/forms/neo-color [post]
func (h *Handler) submitNeoColor(c *gin.Context) {
	bindAndSubmit(h, c, router.FormNeoColor, h.services.Forms.SubmitNeoColor)
}
