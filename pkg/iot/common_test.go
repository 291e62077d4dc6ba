package iot

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"liyu1981.xyz/coldchain-monitor/pkg/db"
	"liyu1981.xyz/coldchain-monitor/pkg/iot/mocks"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

type testMocks struct {
	Device    *mocks.MockIDevice
	Threshold *mocks.MockIThreshold
	Reading   *mocks.MockIReading
	Action    *mocks.MockIAction
	Probe     *mocks.MockIProbe
	Publisher *mocks.MockIPublisher
}

type useMocks struct {
	Device, Threshold, Reading, Action, Publisher bool
}

// GetMockIOTWithMemorySqliteDialector wires the db-backed services, swapping in
// mocks where asked. The probe is always a mock.
func GetMockIOTWithMemorySqliteDialector(t *testing.T, use useMocks) (*gomock.Controller, *IOT, *testMocks) {
	ctrl := gomock.NewController(t)

	m := &testMocks{
		Device:    mocks.NewMockIDevice(ctrl),
		Threshold: mocks.NewMockIThreshold(ctrl),
		Reading:   mocks.NewMockIReading(ctrl),
		Action:    mocks.NewMockIAction(ctrl),
		Probe:     mocks.NewMockIProbe(ctrl),
		Publisher: mocks.NewMockIPublisher(ctrl),
	}

	dialector := db.UseMemorySqliteDialector()
	dbInstance := db.GetInstance(dialector) // ensure migrations
	iotInstance := NewIOT(dbInstance)

	opts := ServiceOpts{Probe: m.Probe}
	if use.Device {
		opts.Device = m.Device
	}
	if use.Threshold {
		opts.Threshold = m.Threshold
	}
	if use.Reading {
		opts.Reading = m.Reading
	}
	if use.Action {
		opts.Action = m.Action
	}
	if use.Publisher {
		opts.Publisher = m.Publisher
	}
	iotInstance.WithServices(opts)

	return ctrl, iotInstance, m
}

// testFreezer is a tcp freezer with the classic lab fridge fallback:
// warning 2..8, critical 0..10, five minute debounce, one hour escalation.
func testFreezer() *models.Freezer {
	humidity := uint16(101)
	return &models.Freezer{
		DeviceID:            uuid.NewString(),
		Name:                "Lab fridge",
		Location:            "B2-014",
		Transport:           models.TransportTCP,
		Host:                "127.0.0.1",
		Port:                5020,
		UnitID:              1,
		TemperatureRegister: 100,
		HumidityRegister:    &humidity,
		Fallback: models.Bounds{
			TemperatureWarningMin:  models.Dec(2),
			TemperatureWarningMax:  models.Dec(8),
			TemperatureCriticalMin: models.Dec(0),
			TemperatureCriticalMax: models.Dec(10),
		},
		MinExcursionMinutes:    5,
		MaxDurationMinutes:     60,
		PollingIntervalSeconds: 120,
		Active:                 true,
	}
}

func seedFreezer(t *testing.T, iotObj *IOT, mutate func(*models.Freezer)) *models.Freezer {
	t.Helper()
	device := testFreezer()
	if mutate != nil {
		mutate(device)
	}
	require.NoError(t, iotObj.GetIDevice().UpsertDevice(device))
	return device
}

// tenths encodes a temperature the way the simulated controllers do, int16 in 0.1 units.
func tenths(v float64) uint16 {
	return uint16(int16(v * 10))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func ParseLogs(r io.Reader) []any {
	scanner := bufio.NewScanner(r)
	var logs []any

	for scanner.Scan() {
		line := scanner.Text()
		var j any
		if err := json.Unmarshal([]byte(line), &j); err == nil {
			logs = append(logs, j)
		}
	}
	return logs
}

func findLog(logs []any, msg string) map[string]any {
	for _, l := range logs {
		if lobj, ok := l.(map[string]any); ok && lobj["msg"] == msg {
			return lobj
		}
	}
	return nil
}
