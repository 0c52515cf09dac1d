package service

import (
	"errors"
	"testing"
	"time"

	"sensor_console/internal/chart"
	"sensor_console/internal/clock"
	"sensor_console/internal/logger"
	"sensor_console/internal/models"
	"sensor_console/internal/repository"
	"sensor_console/internal/router"
)

type dashFixture struct {
	svc     *Service
	dash    *Dashboard
	sender  *fakeSender
	journal *fakeJournal
	clock   *clock.Fake
	router  *router.Router
}

func newDashFixture(t *testing.T) dashFixture {
	t.Helper()
	sender := &fakeSender{}
	journal := &fakeJournal{}
	c := clock.NewFake(time.Date(2025, 6, 1, 8, 0, 0, 0, time.Local))
	svc, dash, err := NewService(&repository.Repository{Journal: journal}, sender, Options{
		ChartRenderer: chart.KindCanvas,
		AckTimeout:    10 * time.Second,
		Clock:         c,
	}, logger.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return dashFixture{
		svc:     svc,
		dash:    dash,
		sender:  sender,
		journal: journal,
		clock:   c,
		router:  router.New(dash, nil, logger.Nop()),
	}
}

func TestNewService_Validation(t *testing.T) {
	t.Parallel()

	if _, _, err := NewService(nil, nil, Options{}, logger.Nop()); err == nil {
		t.Fatalf("expected an error without a sender")
	}
	if _, _, err := NewService(nil, &fakeSender{}, Options{ChartRenderer: "svg"}, logger.Nop()); err == nil {
		t.Fatalf("expected an error for an unknown renderer")
	}
	_, dash, err := NewService(nil, &fakeSender{}, Options{}, logger.Nop())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if snap := dash.Snapshot(); len(snap.Devices) != 2 || snap.ChartRenderer != chart.KindGoChart {
		t.Fatalf("defaults not applied: %+v", snap)
	}
}

func TestDashboard_ConfigThenToggle(t *testing.T) {
	t.Parallel()

	fx := newDashFixture(t)
	fx.dash.OnOpen()
	fx.router.Dispatch([]byte(`{"page":"config","value":{"devices":[{"name":"LED1","status":"ON"},{"name":"LED2","status":"OFF"}],"thresholds":{"tempCold":20,"tempHot":28,"humiDry":30,"humiHumid":60}}}`))

	snap := fx.svc.Snapshot()
	if !snap.Connected {
		t.Fatalf("expected connected")
	}
	if !snap.Devices[0].IsOn || snap.Devices[1].IsOn {
		t.Fatalf("devices = %+v", snap.Devices)
	}
	if snap.Thresholds.TempHot != 28 {
		t.Fatalf("thresholds = %+v", snap.Thresholds)
	}

	if _, err := fx.svc.Toggle("LED2"); err != nil {
		t.Fatalf("Toggle: %v", err)
	}
	sent := fx.sender.sent()
	cmd, ok := sent[len(sent)-1].Value.(models.DeviceCommand)
	if !ok || cmd.Name != "LED2" || cmd.Status != "ON" || cmd.GPIO != 45 {
		t.Fatalf("last sent %+v", sent[len(sent)-1])
	}

	// Board echo is idempotent.
	fx.router.Dispatch([]byte(`{"page":"device","value":{"name":"LED2","status":"ON"}}`))
	if !fx.svc.Snapshot().Devices[1].IsOn {
		t.Fatalf("LED2 should stay on")
	}

	types := fx.journal.types()
	if types[0] != models.EventConnect || types[len(types)-1] != models.EventCommand {
		t.Fatalf("journal = %v", types)
	}
}

func TestDashboard_ConfigWithBadSectionAppliesTheRest(t *testing.T) {
	t.Parallel()

	fx := newDashFixture(t)
	before := fx.svc.Snapshot().LedPattern
	fx.router.Dispatch([]byte(`{"page":"config","value":{"thresholds":{"tempCold":18,"tempHot":27,"humiDry":33,"humiHumid":66},"devices":[{"name":"LED1","status":"ON"}],"ledPattern":{"coldOn":"1000"}}}`))

	snap := fx.svc.Snapshot()
	if !snap.Devices[0].IsOn {
		t.Fatalf("device state was not applied: %+v", snap.Devices)
	}
	if snap.Thresholds.TempCold != 18 || snap.Thresholds.HumiHumid != 66 {
		t.Fatalf("thresholds = %+v", snap.Thresholds)
	}
	if snap.LedPattern != before {
		t.Fatalf("malformed ledPattern changed the store: %+v", snap.LedPattern)
	}
}

func TestDashboard_SensorUsesLiveThresholds(t *testing.T) {
	t.Parallel()

	fx := newDashFixture(t)
	fx.router.Dispatch([]byte(`{"page":"sensor","temp":29,"humi":50}`))
	if lvl := fx.svc.Snapshot().Sensor.Level; lvl != LevelNormal {
		t.Fatalf("level = %s, want normal", lvl)
	}

	if err := fx.svc.SubmitThresholds(ThresholdForm{TempCold: "20", TempHot: "28", HumiDry: "30", HumiHumid: "60"}); err != nil {
		t.Fatalf("SubmitThresholds: %v", err)
	}
	fx.router.Dispatch([]byte(`{"page":"sensor","temp":29,"humi":50}`))
	snap := fx.svc.Snapshot()
	if snap.Sensor.Level != LevelDanger {
		t.Fatalf("level = %s, want danger", snap.Sensor.Level)
	}
	if snap.History.Len() != 2 {
		t.Fatalf("history len = %d", snap.History.Len())
	}
}

func TestDashboard_SavedAck(t *testing.T) {
	t.Parallel()

	fx := newDashFixture(t)
	if err := fx.svc.SubmitLedPattern(LedPatternForm{ColdOn: "1", ColdOff: "2", NormalOn: "3", NormalOff: "4", HotOn: "5", HotOff: "6"}); err != nil {
		t.Fatalf("SubmitLedPattern: %v", err)
	}
	fx.router.Dispatch([]byte(`{"page":"led_pattern_saved"}`))

	st := fx.svc.Snapshot().Status[router.FormLedPattern]
	if st.Kind != StatusSuccess || st.Text != "LED pattern saved." {
		t.Fatalf("status = %+v", st)
	}
	fx.clock.Advance(5 * time.Second)
	if _, ok := fx.svc.Snapshot().Status[router.FormLedPattern]; ok {
		t.Fatalf("status should clear after 5s")
	}
	types := fx.journal.types()
	if types[len(types)-1] != models.EventAck {
		t.Fatalf("journal = %v", types)
	}
}

func TestDashboard_ResetDoneReloads(t *testing.T) {
	t.Parallel()

	fx := newDashFixture(t)
	fx.dash.OnOpen()
	fx.router.Dispatch([]byte(`{"page":"config","value":{"devices":[{"name":"LED1","status":"ON"}],"neoColors":{"dry":"#123456","ok":"","humid":""}}}`))
	fx.router.Dispatch([]byte(`{"page":"sensor","temp":22,"humi":45}`))
	fx.router.Dispatch([]byte(`{"page":"tinyml","score":0.4,"pred":"OK","gt":"OK","acc":90}`))

	sub, cancel := fx.svc.Subscribe()
	defer cancel()
	before := fx.svc.Revision()

	fx.router.Dispatch([]byte(`{"page":"reset_done"}`))

	snap := fx.svc.Snapshot()
	if snap.Notice == "" {
		t.Fatalf("expected the restart notice")
	}
	if snap.Devices[0].IsOn || snap.History.Len() != 0 || len(snap.TinyML.Bars) != 0 {
		t.Fatalf("mirrors not reset: %+v", snap)
	}
	if snap.Colors != models.DefaultColors() {
		t.Fatalf("colors = %+v", snap.Colors)
	}
	if !snap.Connected {
		t.Fatalf("reload must not drop the link state")
	}
	if snap.Revision <= before {
		t.Fatalf("revision did not advance")
	}
	select {
	case <-sub:
	default:
		t.Fatalf("subscriber not woken")
	}

	fx.svc.DismissNotice()
	if fx.svc.Snapshot().Notice != "" {
		t.Fatalf("notice not dismissed")
	}
}

func TestDashboard_LinkTransitions(t *testing.T) {
	t.Parallel()

	fx := newDashFixture(t)
	fx.dash.OnOpen()
	fx.dash.OnClose(errors.New("eof"))
	if fx.dash.Connected() {
		t.Fatalf("expected disconnected")
	}
	types := fx.journal.types()
	if len(types) != 2 || types[1] != models.EventDisconnect {
		t.Fatalf("journal = %v", types)
	}
}
