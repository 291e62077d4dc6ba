package iot

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

var (
	openStatuses = []models.ActionStatus{models.ActionPending, models.ActionInProgress}
	// RETRACTED is terminal, everything else can still be retracted
	retractableStatuses = []models.ActionStatus{models.ActionPending, models.ActionInProgress, models.ActionCompleted, models.ActionCancelled}
)

func (i *IOT) raise(deviceID string, input *models.CorrectiveAction) (*models.CorrectiveAction, error) {
	if !input.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown corrective action type %q", ErrConfiguration, input.Type)
	}

	action := models.CorrectiveAction{
		ActionID:    uuid.NewString(),
		DeviceID:    deviceID,
		Type:        input.Type,
		Description: input.Description,
		Status:      models.ActionPending,
		CreatedAt:   input.CreatedAt.UTC(),
		CreatedBy:   input.CreatedBy,
	}
	if action.CreatedAt.IsZero() {
		action.CreatedAt = i.now()
	}
	action.UpdatedAt = action.CreatedAt
	if action.CreatedBy == "" {
		action.CreatedBy = SystemActor
	}
	if input.ExcursionSince != nil {
		since := input.ExcursionSince.UTC()
		action.ExcursionSince = &since
	}

	if err := i.Db.Conn.Create(&action).Error; err != nil {
		return nil, err
	}

	common.GetCategoryLogger(common.LoggerCategoryAction, zap.String("device_id", deviceID)).
		Info("Created corrective action",
			zap.String("action_id", action.ActionID),
			zap.String("type", string(action.Type)),
			zap.String("created_by", action.CreatedBy))
	return &action, nil
}

// transition applies updates only while the action is in one of the from states, so
// two operators racing on the same action cannot both win.
func (i *IOT) transition(actionID string, from []models.ActionStatus, updates map[string]any) (*models.CorrectiveAction, error) {
	updates["updated_at"] = i.now()

	result := i.Db.Conn.Model(&models.CorrectiveAction{}).
		Where("action_id = ? AND status IN ?", actionID, from).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		action, err := i.getAction(actionID)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("action %s is %s: %w", actionID, action.Status, ErrInvalidTransition)
	}

	action, err := i.getAction(actionID)
	if err != nil {
		return nil, err
	}
	common.GetCategoryLogger(common.LoggerCategoryAction, zap.String("device_id", action.DeviceID)).
		Info("Corrective action transitioned", zap.String("action_id", actionID), zap.String("status", string(action.Status)))
	return action, nil
}

func (i *IOT) start(actionID, actor string) (*models.CorrectiveAction, error) {
	return i.transition(actionID, []models.ActionStatus{models.ActionPending}, map[string]any{
		"status":     models.ActionInProgress,
		"started_at": i.now(),
		"started_by": actor,
	})
}

func (i *IOT) complete(actionID, actor, notes string) (*models.CorrectiveAction, error) {
	return i.transition(actionID, []models.ActionStatus{models.ActionInProgress}, map[string]any{
		"status":           models.ActionCompleted,
		"completed_at":     i.now(),
		"completed_by":     actor,
		"completion_notes": notes,
	})
}

func (i *IOT) cancel(actionID, actor string) (*models.CorrectiveAction, error) {
	return i.transition(actionID, openStatuses, map[string]any{
		"status":       models.ActionCancelled,
		"cancelled_at": i.now(),
		"cancelled_by": actor,
	})
}

func (i *IOT) retract(actionID, actor, reason string) (*models.CorrectiveAction, error) {
	return i.transition(actionID, retractableStatuses, map[string]any{
		"status":            models.ActionRetracted,
		"retracted_at":      i.now(),
		"retracted_by":      actor,
		"retraction_reason": reason,
	})
}

func (i *IOT) edit(actionID string, actionType models.ActionType, description string) (*models.CorrectiveAction, error) {
	if !actionType.Valid() {
		return nil, fmt.Errorf("%w: unknown corrective action type %q", ErrConfiguration, actionType)
	}
	return i.transition(actionID, openStatuses, map[string]any{
		"type":        actionType,
		"description": description,
		"edited":      true,
	})
}

func (i *IOT) getAction(actionID string) (*models.CorrectiveAction, error) {
	var action models.CorrectiveAction
	if err := i.Db.Conn.First(&action, "action_id = ?", actionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("action", actionID)
		}
		return nil, err
	}
	return &action, nil
}

func (i *IOT) getDeviceActions(deviceID string) ([]models.CorrectiveAction, error) {
	var actions []models.CorrectiveAction
	err := i.Db.Conn.
		Where("device_id = ?", deviceID).
		Order("created_at desc").
		Find(&actions).Error
	return actions, err
}

func (i *IOT) getDeviceActionsSince(deviceID string, since time.Time) ([]models.CorrectiveAction, error) {
	var actions []models.CorrectiveAction
	err := i.Db.Conn.
		Where("device_id = ? AND created_at >= ?", deviceID, since.UTC()).
		Order("created_at").
		Find(&actions).Error
	return actions, err
}

// getOpenExcursionActions returns unresolved excursion actions whose excursion began
// at or before since, however long ago they were created.
func (i *IOT) getOpenExcursionActions(deviceID string, since time.Time) ([]models.CorrectiveAction, error) {
	var actions []models.CorrectiveAction
	err := i.Db.Conn.
		Where("device_id = ? AND status IN ? AND excursion_since IS NOT NULL AND excursion_since <= ?",
			deviceID, openStatuses, since.UTC()).
		Order("created_at").
		Find(&actions).Error
	return actions, err
}

type IActionImpl struct {
	iot *IOT
}

func (ia *IActionImpl) Raise(deviceID string, input *models.CorrectiveAction) (*models.CorrectiveAction, error) {
	return ia.iot.raise(deviceID, input)
}

func (ia *IActionImpl) Start(actionID string, actor string) (*models.CorrectiveAction, error) {
	return ia.iot.start(actionID, actor)
}

func (ia *IActionImpl) Complete(actionID string, actor string, notes string) (*models.CorrectiveAction, error) {
	return ia.iot.complete(actionID, actor, notes)
}

func (ia *IActionImpl) Cancel(actionID string, actor string) (*models.CorrectiveAction, error) {
	return ia.iot.cancel(actionID, actor)
}

func (ia *IActionImpl) Retract(actionID string, actor string, reason string) (*models.CorrectiveAction, error) {
	return ia.iot.retract(actionID, actor, reason)
}

func (ia *IActionImpl) Edit(actionID string, actionType models.ActionType, description string) (*models.CorrectiveAction, error) {
	return ia.iot.edit(actionID, actionType, description)
}

func (ia *IActionImpl) GetAction(actionID string) (*models.CorrectiveAction, error) {
	return ia.iot.getAction(actionID)
}

func (ia *IActionImpl) GetDeviceActions(deviceID string) ([]models.CorrectiveAction, error) {
	return ia.iot.getDeviceActions(deviceID)
}

func (ia *IActionImpl) GetDeviceActionsSince(deviceID string, since time.Time) ([]models.CorrectiveAction, error) {
	return ia.iot.getDeviceActionsSince(deviceID, since)
}

func (ia *IActionImpl) GetOpenExcursionActions(deviceID string, since time.Time) ([]models.CorrectiveAction, error) {
	return ia.iot.getOpenExcursionActions(deviceID, since)
}

func (i *IOT) GetIAction() IAction {
	return &IActionImpl{iot: i}
}
