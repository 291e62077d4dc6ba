package iot

import (
	"context"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

// Warmup rebuilds excursion state from each active device's recent readings
// before polling starts. It never raises actions.
func (e *Engine) Warmup(ctx context.Context, devices []models.Freezer) error {
	if e.opts.WarmupReadings == 0 {
		return nil
	}
	for idx := range devices {
		if err := ctx.Err(); err != nil {
			return err
		}
		device := &devices[idx]
		if !device.Active {
			continue
		}
		if err := e.warmupDevice(device); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) warmupDevice(device *models.Freezer) error {
	logger := common.GetCategoryLogger(common.LoggerCategoryWarmup, zap.String("device_id", device.DeviceID))

	readings, err := e.iot.Reading.GetRecentReadings(device.DeviceID, e.opts.WarmupReadings)
	if err != nil {
		return err
	}
	if len(readings) == 0 {
		return nil
	}

	state := seedState(readings[0])
	for _, r := range readings {
		profile, err := e.resolve(device, r.Timestamp)
		if err != nil {
			logger.Debug("Replay skipped reading: configuration error",
				zap.Time("timestamp", r.Timestamp), zap.Error(err))
			continue
		}
		timing := TimingFor(profile, e.opts.UnreachableFailures)
		if r.TransmissionOK && r.Temperature.Valid {
			instant := Classify(profile, Sample{Temperature: r.Temperature.Decimal, Humidity: r.Humidity})
			state.Observe(instant, r.Timestamp, timing)
		} else {
			state.Elapse(r.Timestamp, timing)
		}
	}

	// the outage action was raised before the restart if the policy allowed it
	if e.opts.UnreachableFailures > 0 && state.ConsecutiveFailures >= e.opts.UnreachableFailures {
		state.UnreachableRaised = true
	}

	if state.ExcursionSince != nil {
		raised, err := e.excursionActionExists(device.DeviceID, *state.ExcursionSince)
		if err != nil {
			return err
		}
		state.CorrectiveActionRaised = raised
	}

	e.tracker.Set(device.DeviceID, state)
	logger.Info("Restored excursion state",
		zap.Int("readings", len(readings)),
		zap.String("current_status", string(state.CurrentStatus)),
		zap.Timep("excursion_since", state.ExcursionSince),
		zap.Bool("corrective_action_raised", state.CorrectiveActionRaised))
	return nil
}

// excursionActionExists reports whether the excursion running since since already has
// an action: one still open, which may predate the replay window, or one created
// inside the window.
func (e *Engine) excursionActionExists(deviceID string, since time.Time) (bool, error) {
	open, err := e.iot.Action.GetOpenExcursionActions(deviceID, since)
	if err != nil {
		return false, err
	}
	if len(open) > 0 {
		return true, nil
	}
	actions, err := e.iot.Action.GetDeviceActionsSince(deviceID, since)
	if err != nil {
		return false, err
	}
	for _, action := range actions {
		if action.ExcursionSince != nil {
			return true, nil
		}
	}
	return false, nil
}

// seedState starts the replay from the committed status of the oldest reading, so a
// window that opens mid-excursion does not debounce that excursion again.
func seedState(first models.Reading) ExcursionState {
	state := NewExcursionState()
	if first.Status != "" && first.Status != models.StatusNormal {
		since := first.Timestamp
		state.CurrentStatus = first.Status
		state.ExcursionSince = &since
	}
	return state
}
