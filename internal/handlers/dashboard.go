package handlers

import (
	"bytes"
	"errors"
	"net/http"

	"sensor_console/internal/channel"
	"sensor_console/internal/chart"
	"sensor_console/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusToggled   = "toggled"
	statusSent      = "sent"
	statusDismissed = "dismissed"
	statusResized   = "resized"

	errUnknownDevice   = "unknown device"
	errNotConnected    = "board not connected; command dropped"
	errSendFailed      = "failed to send command"
	errChartFailed     = "failed to render chart"
	errResetUnconfirm  = "factory reset requires {\"confirm\":true}"
	errInvalidBodyPref = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondSendError maps a board send failure. A dropped command is not a
// server fault: the local state already changed and the link will come back.
func (h *Handler) respondSendError(c *gin.Context, logKey string, err error, extra gin.H) {
	resp := gin.H{}
	for k, v := range extra {
		resp[k] = v
	}
	if errors.Is(err, channel.ErrNotConnected) {
		resp["error"] = errNotConnected
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	if h.log != nil {
		h.log.Errorw(logKey, "err", err)
	}
	resp["error"] = errSendFailed
	c.JSON(http.StatusBadGateway, resp)
}

// ResetRequest is the factory reset confirmation payload.
type ResetRequest struct {
	Confirm bool `json:"confirm" example:"true"`
}

// ChartSizeRequest resynchronizes the chart with the viewer's canvas.
type ChartSizeRequest struct {
	Width  int `json:"width" binding:"required,min=1,max=4096" example:"640"`
	Height int `json:"height" binding:"required,min=1,max=4096" example:"320"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Get dashboard state
// @Description  Devices, live readings, chart history, anomaly bars, configuration mirrors, form status and link state.
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  service.DashboardSnapshot
// @Router       /api/v1/state [get]
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Monitoring.Snapshot())
}

// @Summary      Toggle a device
// @Description  Flips the output locally and sends the new state to the board. The local flip stands even if the board is offline.
// @Tags         dashboard
// @Produce      json
// @Param        id   path      string  true  "Device id"  example(LED1)
// @Success      200  {object}  map[string]interface{}  "status, device"
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]interface{}
// @Router       /api/v1/devices/{id}/toggle [post]
func (h *Handler) toggleDevice(c *gin.Context) {
	id := c.Param("id")
	dev, err := h.services.Devices.Toggle(id)
	if errors.Is(err, service.ErrUnknownDevice) {
		c.JSON(http.StatusNotFound, gin.H{"error": errUnknownDevice})
		return
	}
	if err != nil {
		h.respondSendError(c, "device_toggle_send_failed", err, gin.H{"device": dev})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusToggled, "device": dev})
}

// @Summary      Factory reset
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      ResetRequest  true  "Confirmation"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Router       /api/v1/reset [post]
func (h *Handler) factoryReset(c *gin.Context) {
	var req ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	err := h.services.Forms.FactoryReset(req.Confirm)
	if errors.Is(err, service.ErrResetNotConfirmed) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errResetUnconfirm})
		return
	}
	if err != nil {
		h.respondSendError(c, "factory_reset_send_failed", err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusSent})
}

// @Summary      Dismiss the restart notice
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /api/v1/notice [delete]
func (h *Handler) dismissNotice(c *gin.Context) {
	h.services.Monitoring.DismissNotice()
	c.JSON(http.StatusOK, gin.H{"status": statusDismissed})
}

// @Summary      Chart image
// @Description  Latest temperature/humidity chart frame. 204 until there is enough history to draw.
// @Tags         dashboard
// @Produce      png
// @Success      200
// @Success      204
// @Failure      500  {object}  map[string]string
// @Router       /api/v1/chart.png [get]
func (h *Handler) getChart(c *gin.Context) {
	var buf bytes.Buffer
	err := h.services.Monitoring.WriteChart(&buf)
	if errors.Is(err, chart.ErrNoFrame) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errChartFailed, "chart_write_failed", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// @Summary      Resize chart
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        body  body      ChartSizeRequest  true  "Canvas size in pixels"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Router       /api/v1/chart/size [post]
func (h *Handler) resizeChart(c *gin.Context) {
	var req ChartSizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}
	if err := h.services.Monitoring.ResizeChart(req.Width, req.Height); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "chart_resize_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusResized, "width": req.Width, "height": req.Height})
}
