package iot

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap/zapcore"

	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
	_ "liyu1981.xyz/coldchain-monitor/pkg/testing"
)

// storeHistory writes one reading every two minutes starting at t0.
func storeHistory(t *testing.T, iotObj *IOT, deviceID string, values []float64, statuses []models.Status) {
	t.Helper()
	require.Len(t, statuses, len(values))
	for idx, v := range values {
		raw := int64(v * 10)
		require.NoError(t, iotObj.Reading.StoreReading(&models.Reading{
			DeviceID:       deviceID,
			Timestamp:      minutes(2 * idx),
			RawTemperature: &raw,
			Temperature:    decimal.NewNullDecimal(decimal.NewFromFloat(v)),
			Status:         statuses[idx],
			TransmissionOK: true,
		}))
	}
}

func repeat[T any](v T, n int) []T {
	out := make([]T, n)
	for idx := range out {
		out[idx] = v
	}
	return out
}

func TestWarmupReplaysExcursion(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, tenthsFreezer)
	statuses := append(repeat(models.StatusNormal, 3), repeat(models.StatusCritical, 5)...)
	storeHistory(t, iotObj, device.DeviceID, repeat(11.0, 8), statuses)

	engine, err := NewEngine(iotObj, EngineOptions{WarmupReadings: 50})
	require.NoError(t, err)
	require.NoError(t, engine.Warmup(context.Background(), []models.Freezer{*device}))

	state, ok := engine.Tracker().Get(device.DeviceID)
	require.True(t, ok)
	assert.Equal(t, models.StatusCritical, state.CurrentStatus)
	require.NotNil(t, state.ExcursionSince)
	assert.True(t, state.ExcursionSince.Equal(minutes(0)))
	assert.False(t, state.CorrectiveActionRaised)
}

func TestWarmupWindowOpensMidExcursion(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, tenthsFreezer)
	statuses := append(repeat(models.StatusNormal, 3), repeat(models.StatusCritical, 7)...)
	storeHistory(t, iotObj, device.DeviceID, repeat(11.0, 10), statuses)

	engine, err := NewEngine(iotObj, EngineOptions{WarmupReadings: 3})
	require.NoError(t, err)
	require.NoError(t, engine.Warmup(context.Background(), []models.Freezer{*device}))

	state, _ := engine.Tracker().Get(device.DeviceID)
	assert.Equal(t, models.StatusCritical, state.CurrentStatus, "the excursion is not debounced twice")
	require.NotNil(t, state.ExcursionSince)
	assert.True(t, state.ExcursionSince.Equal(minutes(14)), "earliest start the window can prove")
	assert.Empty(t, state.CandidateStatus)
}

func TestWarmupWindowOpensAfterOpenAction(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, tenthsFreezer)
	statuses := append(repeat(models.StatusNormal, 3), repeat(models.StatusCritical, 57)...)
	storeHistory(t, iotObj, device.DeviceID, repeat(11.0, 60), statuses)

	// raised long before the replay window opens and still waiting for an operator
	action, err := iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{
		Type: models.ActionTemperatureAdjustment, CreatedAt: minutes(16), ExcursionSince: timep(minutes(6)),
	})
	require.NoError(t, err)

	engine, err := NewEngine(iotObj, EngineOptions{WarmupReadings: 30})
	require.NoError(t, err)
	require.NoError(t, engine.Warmup(context.Background(), []models.Freezer{*device}))

	state, _ := engine.Tracker().Get(device.DeviceID)
	assert.Equal(t, models.StatusCritical, state.CurrentStatus)
	require.NotNil(t, state.ExcursionSince)
	assert.True(t, state.ExcursionSince.Equal(minutes(60)))
	assert.True(t, state.CorrectiveActionRaised, "the open action covers the excursion")

	clock := newFakeClock()
	clock.Advance(120 * time.Minute)
	iotObj.Now = clock.Now
	m.Probe.EXPECT().Read(gomock.Any(), gomock.Any()).Return(models.RawSample{Temperature: tenths(11)}, nil)

	_, err = engine.PollOnce(context.Background(), device)
	require.NoError(t, err)

	actions, err := iotObj.Action.GetDeviceActions(device.DeviceID)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, action.ActionID, actions[0].ActionID)
}

func TestWarmupRestoresRaisedFlag(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, m := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, func(f *models.Freezer) {
		tenthsFreezer(f)
		f.MaxDurationMinutes = 10
	})
	statuses := append(repeat(models.StatusNormal, 3), repeat(models.StatusCritical, 5)...)
	storeHistory(t, iotObj, device.DeviceID, repeat(11.0, 8), statuses)

	// raised before the restart and already completed
	action, err := iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{
		Type: models.ActionTemperatureAdjustment, CreatedAt: minutes(10), ExcursionSince: timep(minutes(0)),
	})
	require.NoError(t, err)
	_, err = iotObj.Action.Start(action.ActionID, "bob")
	require.NoError(t, err)
	_, err = iotObj.Action.Complete(action.ActionID, "bob", "door was left open")
	require.NoError(t, err)

	engine, err := NewEngine(iotObj, EngineOptions{WarmupReadings: 50})
	require.NoError(t, err)
	require.NoError(t, engine.Warmup(context.Background(), []models.Freezer{*device}))

	state, _ := engine.Tracker().Get(device.DeviceID)
	assert.True(t, state.CorrectiveActionRaised)

	// the first live poll after the restart does not raise again
	clock := newFakeClock()
	clock.Advance(16 * time.Minute)
	iotObj.Now = clock.Now
	m.Probe.EXPECT().Read(gomock.Any(), gomock.Any()).Return(models.RawSample{Temperature: tenths(11)}, nil)

	_, err = engine.PollOnce(context.Background(), device)
	require.NoError(t, err)

	actions, err := iotObj.Action.GetDeviceActions(device.DeviceID)
	require.NoError(t, err)
	assert.Len(t, actions, 1)
}

func TestWarmupSkipsInactiveAndDisabled(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, func(f *models.Freezer) {
		tenthsFreezer(f)
		f.Active = false
	})
	storeHistory(t, iotObj, device.DeviceID, repeat(11.0, 5), repeat(models.StatusCritical, 5))

	engine, err := NewEngine(iotObj, EngineOptions{WarmupReadings: 10})
	require.NoError(t, err)
	require.NoError(t, engine.Warmup(context.Background(), []models.Freezer{*device}))
	_, ok := engine.Tracker().Get(device.DeviceID)
	assert.False(t, ok)

	device.Active = true
	disabled, err := NewEngine(iotObj, EngineOptions{})
	require.NoError(t, err)
	require.NoError(t, disabled.Warmup(context.Background(), []models.Freezer{*device}))
	_, ok = disabled.Tracker().Get(device.DeviceID)
	assert.False(t, ok, "zero warm-up readings starts every device NORMAL")
}

func TestWarmupLogsUnresolvableReadings(t *testing.T) {
	var buf = &bytes.Buffer{}
	common.SetTestCaptureLogger(buf, zapcore.DebugLevel)

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, func(f *models.Freezer) {
		tenthsFreezer(f)
		f.Fallback = models.Bounds{}
	})
	storeHistory(t, iotObj, device.DeviceID, repeat(11.0, 2), repeat(models.StatusNormal, 2))

	engine, err := NewEngine(iotObj, EngineOptions{WarmupReadings: 10})
	require.NoError(t, err)
	require.NoError(t, engine.Warmup(context.Background(), []models.Freezer{*device}))

	entry := findLog(ParseLogs(buf), "Replay skipped reading: configuration error")
	require.NotNil(t, entry)
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, common.LoggerCategoryWarmup, entry[common.LoggerFieldCategory])
	assert.Equal(t, device.DeviceID, entry["device_id"])

	state, _ := engine.Tracker().Get(device.DeviceID)
	assert.Equal(t, models.StatusNormal, state.CurrentStatus)
}

func TestWarmupHonoursContext(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	engine, err := NewEngine(iotObj, EngineOptions{WarmupReadings: 10})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = engine.Warmup(ctx, []models.Freezer{*testFreezer()})
	assert.ErrorIs(t, err, context.Canceled)
}
