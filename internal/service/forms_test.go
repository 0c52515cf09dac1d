package service

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"sensor_console/internal/clock"
	"sensor_console/internal/logger"
	"sensor_console/internal/models"
	"sensor_console/internal/router"
)

type formFixture struct {
	forms  *FormController
	sender *fakeSender
	config *ConfigStore
	status *StatusBoard
}

func newFormFixture(t *testing.T, sendErr error) formFixture {
	t.Helper()
	n := newCountingNotifier()
	sender := &fakeSender{err: sendErr}
	cfg := NewConfigStore(nil, n, logger.Nop())
	st := NewStatusBoard(clock.NewFake(time.Unix(0, 0)), 5*time.Second, 0, n)
	return formFixture{
		forms:  NewFormController(sender, cfg, st, logger.Nop()),
		sender: sender,
		config: cfg,
		status: st,
	}
}

func TestFormController_SubmitSettings_TrimsAndKeepsPortString(t *testing.T) {
	t.Parallel()

	fx := newFormFixture(t, nil)
	err := fx.forms.SubmitSettings(SettingsForm{SSID: "  home ", Password: "p w ", Token: "t", Server: " core.local", Port: " 8080 "})
	if err != nil {
		t.Fatalf("SubmitSettings: %v", err)
	}
	want := models.Envelope{Page: models.PageSetting, Value: models.NetworkSettings{
		SSID: "home", Password: "p w", Token: "t", Server: "core.local", Port: "8080",
	}}
	if got := fx.sender.sent(); len(got) != 1 || !reflect.DeepEqual(got[0], want) {
		t.Fatalf("sent %+v, want %+v", got, want)
	}
	if got := fx.status.Messages()[router.FormSettings]; got.Kind != StatusInfo {
		t.Fatalf("expected pending status, got %+v", got)
	}
}

func TestFormController_SubmitThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		form     ThresholdForm
		wantErr  bool
		wantSent bool
	}{
		{name: "valid", form: ThresholdForm{TempCold: "20", TempHot: "28.5", HumiDry: "35", HumiHumid: "65"}, wantSent: true},
		{name: "not a number", form: ThresholdForm{TempCold: "x", TempHot: "28", HumiDry: "35", HumiHumid: "65"}, wantErr: true},
		{name: "cold above hot", form: ThresholdForm{TempCold: "30", TempHot: "28", HumiDry: "35", HumiHumid: "65"}, wantErr: true},
		{name: "dry equals humid", form: ThresholdForm{TempCold: "20", TempHot: "28", HumiDry: "50", HumiHumid: "50"}, wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fx := newFormFixture(t, nil)
			err := fx.forms.SubmitThresholds(tc.form)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidForm) {
					t.Fatalf("expected ErrInvalidForm, got %v", err)
				}
				if got := fx.status.Messages()[router.FormThresholds]; got.Kind != StatusError {
					t.Fatalf("expected error status, got %+v", got)
				}
				if fx.config.Thresholds() != models.DefaultThresholds() {
					t.Fatalf("rejected form must not touch the mirror")
				}
			}
			if got := len(fx.sender.sent()) == 1; got != tc.wantSent {
				t.Fatalf("sent = %v, want %v", got, tc.wantSent)
			}
		})
	}
}

func TestFormController_SubmitThresholds_UpdatesMirror(t *testing.T) {
	t.Parallel()

	fx := newFormFixture(t, nil)
	if err := fx.forms.SubmitThresholds(ThresholdForm{TempCold: "20", TempHot: "28.5", HumiDry: "35", HumiHumid: "65"}); err != nil {
		t.Fatalf("SubmitThresholds: %v", err)
	}
	want := models.ThresholdSet{TempCold: 20, TempHot: 28.5, HumiDry: 35, HumiHumid: 65}
	if fx.config.Thresholds() != want {
		t.Fatalf("mirror = %+v, want %+v", fx.config.Thresholds(), want)
	}
	if got := fx.sender.sent()[0]; got.Page != models.PageThreshold || got.Value != want {
		t.Fatalf("sent %+v", got)
	}
}

func TestFormController_SubmitLedPattern(t *testing.T) {
	t.Parallel()

	fx := newFormFixture(t, nil)
	err := fx.forms.SubmitLedPattern(LedPatternForm{ColdOn: "1000", ColdOff: "1000", NormalOn: "200", NormalOff: "800", HotOn: "150", HotOff: "150"})
	if err != nil {
		t.Fatalf("SubmitLedPattern: %v", err)
	}
	if got := fx.sender.sent()[0]; got.Page != models.PageLedPattern || got.Value != DefaultLedPattern() {
		t.Fatalf("sent %+v", got)
	}

	err = fx.forms.SubmitLedPattern(LedPatternForm{ColdOn: "-1", ColdOff: "1", NormalOn: "1", NormalOff: "1", HotOn: "1.5", HotOff: "1"})
	if !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("expected ErrInvalidForm, got %v", err)
	}
	if len(fx.sender.sent()) != 1 {
		t.Fatalf("invalid pattern must not be sent")
	}
}

func TestFormController_SubmitNeoColor(t *testing.T) {
	t.Parallel()

	fx := newFormFixture(t, nil)
	if err := fx.forms.SubmitNeoColor(NeoColorForm{Dry: "#0000FF", OK: "#00ff00", Humid: "#ff0000"}); err != nil {
		t.Fatalf("SubmitNeoColor: %v", err)
	}
	want := models.ColorSet{Dry: "#0000ff", OK: "#00ff00", Humid: "#ff0000"}
	if got := fx.sender.sent()[0]; got.Page != models.PageNeoColor || got.Value != want {
		t.Fatalf("sent %+v", got)
	}
	if err := fx.forms.SubmitNeoColor(NeoColorForm{Dry: "blue", OK: "#00ff00", Humid: "#ff0000"}); !errors.Is(err, ErrInvalidForm) {
		t.Fatalf("expected ErrInvalidForm, got %v", err)
	}
}

func TestFormController_SendFailureStillPending(t *testing.T) {
	t.Parallel()

	dropErr := errors.New("not connected")
	fx := newFormFixture(t, dropErr)
	if err := fx.forms.SubmitNeoColor(NeoColorForm{Dry: "#000000", OK: "#111111", Humid: "#222222"}); !errors.Is(err, dropErr) {
		t.Fatalf("expected send error, got %v", err)
	}
	if !fx.status.Awaiting(router.FormNeoColor) {
		t.Fatalf("a dropped send still waits for an ack")
	}
}

func TestFormController_FactoryReset(t *testing.T) {
	t.Parallel()

	fx := newFormFixture(t, nil)
	if err := fx.forms.FactoryReset(false); !errors.Is(err, ErrResetNotConfirmed) {
		t.Fatalf("expected ErrResetNotConfirmed, got %v", err)
	}
	if len(fx.sender.sent()) != 0 {
		t.Fatalf("unconfirmed reset must not send")
	}
	if err := fx.forms.FactoryReset(true); err != nil {
		t.Fatalf("FactoryReset: %v", err)
	}
	if got := fx.sender.sent(); len(got) != 1 || got[0].Page != models.PageResetFactory || got[0].Value != nil {
		t.Fatalf("sent %+v", got)
	}
}
