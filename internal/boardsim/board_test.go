package boardsim

import (
	"encoding/json"
	"testing"

	"sensor_console/internal/logger"
	"sensor_console/internal/models"
)

func decodeFrame(t *testing.T, frame []byte) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(frame, &m); err != nil {
		t.Fatalf("frame %s: %v", frame, err)
	}
	return m
}

func TestBoard_HandleAcks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		wantPage string
	}{
		{name: "settings", in: `{"page":"setting","value":{"ssid":"a","password":"b","token":"c","server":"d","port":"1883"}}`, wantPage: "setting_saved"},
		{name: "thresholds", in: `{"page":"threshold","value":{"tempCold":20,"tempHot":28,"humiDry":30,"humiHumid":60}}`, wantPage: "threshold_saved"},
		{name: "led pattern", in: `{"page":"led_pattern","value":{"coldOn":5}}`, wantPage: "led_pattern_saved"},
		{name: "neo color", in: `{"page":"neo_color","value":{"dry":"#010203"}}`, wantPage: "neo_color_saved"},
		{name: "reset", in: `{"page":"reset_factory"}`, wantPage: "reset_done"},
		{name: "config", in: `{"page":"get_config"}`, wantPage: "config"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := NewBoard(1, logger.Nop())
			out := b.Handle([]byte(tc.in))
			if len(out) != 1 {
				t.Fatalf("expected one reply, got %d", len(out))
			}
			if got := decodeFrame(t, out[0])["page"]; got != tc.wantPage {
				t.Fatalf("page = %v, want %s", got, tc.wantPage)
			}
		})
	}
}

func TestBoard_HandleSilent(t *testing.T) {
	t.Parallel()

	b := NewBoard(1, logger.Nop())
	for _, in := range []string{
		`{"page":"device","value":{"name":"LED2","status":"ON","gpio":45}}`,
		`not json`,
		`{"page":"bogus"}`,
	} {
		if out := b.Handle([]byte(in)); len(out) != 0 {
			t.Fatalf("%s: expected no reply, got %s", in, out)
		}
	}
	if !b.DeviceOn("LED2") {
		t.Fatalf("device command not applied")
	}
}

func TestBoard_ConfigReflectsState(t *testing.T) {
	t.Parallel()

	b := NewBoard(1, logger.Nop())
	b.SetDevice("LED1", true)
	b.Handle([]byte(`{"page":"led_pattern","value":{"coldOn":5,"hotOff":20000}}`))

	var env struct {
		Page  string             `json:"page"`
		Value models.BoardConfig `json:"value"`
	}
	if err := json.Unmarshal(b.Handle([]byte(`{"page":"get_config"}`))[0], &env); err != nil {
		t.Fatalf("decode config: %v", err)
	}
	if len(env.Value.Devices) != 2 || env.Value.Devices[0].Status != "ON" || env.Value.Devices[1].Status != "OFF" {
		t.Fatalf("devices = %+v", env.Value.Devices)
	}
	lp := env.Value.LedPattern
	if lp == nil || *lp.ColdOn != minLedMs || *lp.HotOff != maxLedMs || *lp.NormalOn != 200 {
		t.Fatalf("led pattern not clamped: %+v", lp)
	}

	b.Handle([]byte(`{"page":"reset_factory"}`))
	if b.DeviceOn("LED1") {
		t.Fatalf("factory reset must turn outputs off")
	}
}

func TestRepairThresholds(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }
	cur := models.DefaultThresholds()

	tests := []struct {
		name  string
		patch models.ThresholdsPatch
		want  models.ThresholdSet
	}{
		{
			name:  "valid passes through",
			patch: models.ThresholdsPatch{TempCold: f(20), TempHot: f(28), HumiDry: f(30), HumiHumid: f(60)},
			want:  models.ThresholdSet{TempCold: 20, TempHot: 28, HumiDry: 30, HumiHumid: 60},
		},
		{
			name:  "missing fields keep current",
			patch: models.ThresholdsPatch{TempHot: f(32)},
			want:  models.ThresholdSet{TempCold: 25, TempHot: 32, HumiDry: 40, HumiHumid: 70},
		},
		{
			name:  "inverted temperature rebuilt around midpoint",
			patch: models.ThresholdsPatch{TempCold: f(30), TempHot: f(20)},
			want:  models.ThresholdSet{TempCold: 24.5, TempHot: 25.5, HumiDry: 40, HumiHumid: 70},
		},
		{
			name:  "humidity clamped then repaired",
			patch: models.ThresholdsPatch{HumiDry: f(120), HumiHumid: f(-5)},
			want:  models.ThresholdSet{TempCold: 25, TempHot: 30, HumiDry: 49, HumiHumid: 51},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := repairThresholds(cur, tc.patch); got != tc.want {
				t.Fatalf("repairThresholds = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestBoard_Step(t *testing.T) {
	t.Parallel()

	b := NewBoard(42, logger.Nop())
	for i := 0; i < 200; i++ {
		out := b.Step()
		if len(out) != 2 {
			t.Fatalf("expected sensor and tinyml frames, got %d", len(out))
		}
		sensor := decodeFrame(t, out[0])
		if sensor["page"] != "sensor" {
			t.Fatalf("first frame = %v", sensor)
		}
		humi := sensor["humi"].(float64)
		if humi < 0 || humi > 100 {
			t.Fatalf("humidity out of range: %v", humi)
		}
		tiny := decodeFrame(t, out[1])
		if tiny["page"] != "tinyml" {
			t.Fatalf("second frame = %v", tiny)
		}
		if acc := tiny["acc"].(float64); acc < 0 || acc > 100 {
			t.Fatalf("accuracy out of range: %v", acc)
		}
	}
}
