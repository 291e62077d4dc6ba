package iot

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
	_ "liyu1981.xyz/coldchain-monitor/pkg/testing"
)

func TestRaiseCorrectiveAction(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, nil)

	action, err := iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{
		Type:           models.ActionTemperatureAdjustment,
		Description:    "CRITICAL for an hour",
		CreatedAt:      minutes(60),
		ExcursionSince: timep(minutes(0)),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, action.ActionID)
	assert.Equal(t, models.ActionPending, action.Status)
	assert.Equal(t, SystemActor, action.CreatedBy)

	saved, err := iotObj.Action.GetAction(action.ActionID)
	require.NoError(t, err)
	assert.True(t, saved.CreatedAt.Equal(minutes(60)))
	require.NotNil(t, saved.ExcursionSince)
	assert.True(t, saved.ExcursionSince.Equal(minutes(0)))

	_, err = iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{Type: "DEFROST"})
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestCorrectiveActionLifecycle(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, nil)
	raise := func() string {
		a, err := iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{Type: models.ActionMaintenance, Description: "door seal"})
		require.NoError(t, err)
		return a.ActionID
	}

	// PENDING -> IN_PROGRESS -> COMPLETED
	id := raise()
	_, err := iotObj.Action.Complete(id, "alice", "too early")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	started, err := iotObj.Action.Start(id, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.ActionInProgress, started.Status)
	assert.Equal(t, "alice", started.StartedBy)
	assert.NotNil(t, started.StartedAt)

	edited, err := iotObj.Action.Edit(id, models.ActionEquipmentRepair, "replace door seal")
	require.NoError(t, err)
	assert.True(t, edited.Edited)
	assert.Equal(t, models.ActionEquipmentRepair, edited.Type)

	done, err := iotObj.Action.Complete(id, "bob", "seal replaced")
	require.NoError(t, err)
	assert.Equal(t, models.ActionCompleted, done.Status)
	assert.Equal(t, "seal replaced", done.CompletionNotes)

	_, err = iotObj.Action.Cancel(id, "bob")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = iotObj.Action.Edit(id, models.ActionOther, "late edit")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// a completed action can still be retracted, and retraction is final
	retracted, err := iotObj.Action.Retract(id, "carol", "logged against the wrong freezer")
	require.NoError(t, err)
	assert.Equal(t, models.ActionRetracted, retracted.Status)
	assert.Equal(t, "logged against the wrong freezer", retracted.RetractionReason)
	_, err = iotObj.Action.Retract(id, "carol", "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = iotObj.Action.Start(id, "carol")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// PENDING -> CANCELLED
	id = raise()
	cancelled, err := iotObj.Action.Cancel(id, "dave")
	require.NoError(t, err)
	assert.Equal(t, models.ActionCancelled, cancelled.Status)
	assert.Equal(t, "dave", cancelled.CancelledBy)

	_, err = iotObj.Action.Start(uuid.NewString(), "eve")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentTransitionsOnlyOneWins(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, nil)
	action, err := iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{Type: models.ActionOther})
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 10)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := iotObj.Action.Start(action.ActionID, "operator")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	wins := 0
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestDeviceActionQueries(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, nil)
	for _, m := range []int{0, 30, 90} {
		_, err := iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{Type: models.ActionOther, CreatedAt: minutes(m)})
		require.NoError(t, err)
	}

	all, err := iotObj.Action.GetDeviceActions(device.DeviceID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.Equal(minutes(90)), "newest first")

	since, err := iotObj.Action.GetDeviceActionsSince(device.DeviceID, minutes(30))
	require.NoError(t, err)
	require.Len(t, since, 2)
	assert.True(t, since[0].CreatedAt.Equal(minutes(30)))
}

func TestGetOpenExcursionActionsIgnoresCreationTime(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, nil)

	early, err := iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{
		Type: models.ActionTemperatureAdjustment, CreatedAt: minutes(16), ExcursionSince: timep(minutes(6)),
	})
	require.NoError(t, err)
	closed, err := iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{
		Type: models.ActionTemperatureAdjustment, CreatedAt: minutes(20), ExcursionSince: timep(minutes(6)),
	})
	require.NoError(t, err)
	_, err = iotObj.Action.Cancel(closed.ActionID, "bob")
	require.NoError(t, err)
	_, err = iotObj.Action.Raise(device.DeviceID, &models.CorrectiveAction{Type: models.ActionOther, CreatedAt: minutes(30)})
	require.NoError(t, err)

	open, err := iotObj.Action.GetOpenExcursionActions(device.DeviceID, minutes(60))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, early.ActionID, open[0].ActionID)

	open, err = iotObj.Action.GetOpenExcursionActions(device.DeviceID, minutes(5))
	require.NoError(t, err)
	assert.Empty(t, open, "an excursion that began later is not this one")
}
