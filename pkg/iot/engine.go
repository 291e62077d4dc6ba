package iot

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

// RemedyByStatus is the action type the engine raises for a sustained excursion.
var RemedyByStatus = map[models.Status]models.ActionType{
	models.StatusWarning:  models.ActionTemperatureAdjustment,
	models.StatusCritical: models.ActionTemperatureAdjustment,
}

const DefaultWarmupReadings = 30

type EngineOptions struct {
	// consecutive failed polls before an EQUIPMENT_REPAIR action, zero keeps failures diagnostic
	UnreachableFailures int
	WarmupReadings      int
}

var engineOptionsSchema = z.Struct(z.Shape{
	"UnreachableFailures": z.Int().GTE(0),
	"WarmupReadings":      z.Int().GTE(0),
})

// EngineOptionsFromEnv reads MONITOR_UNREACHABLE_FAILURES (default 0) and
// MONITOR_WARMUP_READINGS (default DefaultWarmupReadings).
func EngineOptionsFromEnv() (EngineOptions, error) {
	var opts EngineOptions
	var err error
	if opts.UnreachableFailures, err = common.GetEnvInt(common.EnvKeyMonitorUnreachableFailures, 0); err != nil {
		return opts, fmt.Errorf("invalid %s, should be an int value: %w", common.EnvKeyMonitorUnreachableFailures, err)
	}
	if opts.WarmupReadings, err = common.GetEnvInt(common.EnvKeyMonitorWarmupReadings, DefaultWarmupReadings); err != nil {
		return opts, fmt.Errorf("invalid %s, should be an int value: %w", common.EnvKeyMonitorWarmupReadings, err)
	}
	return opts, nil
}

// Engine runs poll cycles: probe, convert, classify, debounce, store and escalate.
type Engine struct {
	iot      *IOT
	tracker  *ExcursionTracker
	resolver atomic.Pointer[Resolver]
	opts     EngineOptions
}

func NewEngine(iot *IOT, opts EngineOptions) (*Engine, error) {
	if errs := engineOptionsSchema.Validate(&opts); errs != nil {
		return nil, fmt.Errorf("%w: engine options: %v", ErrConfiguration, errs)
	}
	if iot.Threshold == nil || iot.Reading == nil || iot.Action == nil || iot.Probe == nil {
		return nil, fmt.Errorf("%w: engine requires threshold, reading, action and probe services", ErrConfiguration)
	}
	return &Engine{
		iot:     iot,
		tracker: NewExcursionTracker(),
		opts:    opts,
	}, nil
}

func (e *Engine) Tracker() *ExcursionTracker {
	return e.tracker
}

// RefreshThresholds swaps in a new snapshot of profiles and assignments.
func (e *Engine) RefreshThresholds() error {
	snapshot, err := e.iot.Threshold.LoadSnapshot()
	if err != nil {
		return err
	}
	e.resolver.Store(NewResolver(snapshot))
	return nil
}

func (e *Engine) resolve(device *models.Freezer, at time.Time) (*models.ThresholdProfile, error) {
	if resolver := e.resolver.Load(); resolver != nil {
		return resolver.Resolve(device, at)
	}
	return e.iot.Threshold.Resolve(device, at)
}

// Forget drops the transient state of a device that left the registry. No poll of
// the device may still be running, or it would write the state back.
func (e *Engine) Forget(deviceID string) {
	e.tracker.Remove(deviceID)
}

// PollOnce runs one cycle for device. Configuration errors skip the cycle and are
// returned; transport errors are recorded on the stored reading instead.
func (e *Engine) PollOnce(ctx context.Context, device *models.Freezer) (*models.Reading, error) {
	logger := common.GetCategoryLogger(common.LoggerCategoryExcursion, zap.String("device_id", device.DeviceID))

	profile, err := e.prepare(device)
	if err != nil {
		logger.Warn("Poll skipped: configuration error", zap.Error(err))
		return nil, err
	}
	timing := TimingFor(profile, e.opts.UnreachableFailures)

	raw, readErr := e.iot.Probe.Read(ctx, device)
	now := e.iot.now()

	reading := &models.Reading{
		DeviceID:  device.DeviceID,
		Timestamp: now,
		ProfileID: profile.ProfileID,
	}

	var decision Decision
	var state ExcursionState
	if readErr != nil {
		state = e.tracker.Update(device.DeviceID, func(s *ExcursionState) {
			decision = s.Elapse(now, timing)
		})
		reading.TransmissionOK = false
		reading.ErrorMessage = readErr.Error()
		common.GetCategoryLogger(common.LoggerCategoryProtocol, zap.String("device_id", device.DeviceID)).
			Warn("Poll failed", zap.Error(readErr), zap.Int("consecutive_failures", state.ConsecutiveFailures))
	} else {
		sample := Convert(device, raw)
		instant := Classify(profile, sample)
		state = e.tracker.Update(device.DeviceID, func(s *ExcursionState) {
			decision = s.Observe(instant, now, timing)
		})
		reading.TransmissionOK = true
		reading.RawTemperature = &sample.RawTemperature
		reading.RawHumidity = sample.RawHumidity
		reading.Temperature = decimalOf(sample.Temperature)
		reading.Humidity = sample.Humidity
	}
	// operators see the debounced status, never the instant one
	reading.Status = state.CurrentStatus

	if decision.Committed {
		logger.Info("Excursion status committed",
			zap.String("from", string(decision.From)),
			zap.String("to", string(decision.To)),
			zap.Timep("excursion_since", state.ExcursionSince))
	}

	if err := e.iot.Reading.StoreReading(reading); err != nil {
		common.GetCategoryLogger(common.LoggerCategoryReading, zap.String("device_id", device.DeviceID)).
			Error("Failed to store reading", zap.Error(err))
	} else if e.iot.Publisher != nil {
		e.iot.Publisher.PublishReading(reading)
	}

	if decision.Escalate {
		e.escalate(device, state, profile, now)
	}
	if decision.Unreachable {
		e.raiseUnreachable(device, state, now, readErr)
	}
	return reading, nil
}

func (e *Engine) prepare(device *models.Freezer) (*models.ThresholdProfile, error) {
	if err := device.Validate(); err != nil {
		return nil, &ConfigError{DeviceID: device.DeviceID, Reason: err.Error()}
	}
	return e.resolve(device, e.iot.now())
}

// escalate raises one corrective action per excursion, unless an open action
// already covers the excursion.
func (e *Engine) escalate(device *models.Freezer, state ExcursionState, profile *models.ThresholdProfile, now time.Time) {
	logger := common.GetCategoryLogger(common.LoggerCategoryAction, zap.String("device_id", device.DeviceID))
	since := *state.ExcursionSince

	open, err := e.iot.Action.GetOpenExcursionActions(device.DeviceID, since)
	if err != nil {
		logger.Error("Failed to look up corrective actions", zap.Error(err))
		return
	}
	if len(open) > 0 {
		logger.Info("Open corrective action covers excursion", zap.String("action_id", open[0].ActionID))
		e.markRaised(device.DeviceID, since)
		return
	}

	action, err := e.iot.Action.Raise(device.DeviceID, &models.CorrectiveAction{
		Type: RemedyByStatus[state.CurrentStatus],
		Description: fmt.Sprintf("%s excursion on %s since %s exceeded %d minutes",
			state.CurrentStatus, deviceLabel(device), since.Format(time.RFC3339), profile.MaxDurationMinutes),
		CreatedAt:      now,
		CreatedBy:      SystemActor,
		ExcursionSince: &since,
	})
	if err != nil {
		// the flag stays unset so the next cycle tries again
		logger.Error("Failed to raise corrective action", zap.Error(err))
		return
	}
	e.markRaised(device.DeviceID, since)

	logger.Info("Corrective action raised",
		zap.String("action_id", action.ActionID),
		zap.String("status", string(state.CurrentStatus)),
		zap.Time("excursion_since", since))

	if e.iot.Publisher != nil {
		e.iot.Publisher.PublishAction(action)
	}
}

func (e *Engine) markRaised(deviceID string, since time.Time) {
	e.tracker.Update(deviceID, func(s *ExcursionState) {
		if s.ExcursionSince != nil && s.ExcursionSince.Equal(since) {
			s.CorrectiveActionRaised = true
		}
	})
}

func (e *Engine) raiseUnreachable(device *models.Freezer, state ExcursionState, now time.Time, cause error) {
	logger := common.GetCategoryLogger(common.LoggerCategoryAction, zap.String("device_id", device.DeviceID))

	description := fmt.Sprintf("%s unreachable after %d consecutive failed polls", deviceLabel(device), state.ConsecutiveFailures)
	if cause != nil {
		description += ": " + cause.Error()
	}
	action, err := e.iot.Action.Raise(device.DeviceID, &models.CorrectiveAction{
		Type:        models.ActionEquipmentRepair,
		Description: description,
		CreatedAt:   now,
		CreatedBy:   SystemActor,
	})
	if err != nil {
		logger.Error("Failed to raise corrective action", zap.Error(err))
		return
	}
	e.tracker.Update(device.DeviceID, func(s *ExcursionState) {
		s.UnreachableRaised = true
	})

	logger.Info("Corrective action raised",
		zap.String("action_id", action.ActionID),
		zap.Int("consecutive_failures", state.ConsecutiveFailures))

	if e.iot.Publisher != nil {
		e.iot.Publisher.PublishAction(action)
	}
}

func deviceLabel(device *models.Freezer) string {
	if device.Name == "" {
		return device.DeviceID
	}
	return fmt.Sprintf("%s (%s)", device.Name, device.DeviceID)
}
