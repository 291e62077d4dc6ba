package models

type Status string

const (
	StatusNormal   Status = "NORMAL"
	StatusWarning  Status = "WARNING"
	StatusCritical Status = "CRITICAL"
)

func (s Status) severity() int {
	switch s {
	case StatusCritical:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// MoreSevere returns the worse of two statuses, CRITICAL > WARNING > NORMAL.
func MoreSevere(a, b Status) Status {
	if b.severity() > a.severity() {
		return b
	}
	return a
}

type ActionType string

const (
	ActionTemperatureAdjustment ActionType = "TEMPERATURE_ADJUSTMENT"
	ActionEquipmentRepair       ActionType = "EQUIPMENT_REPAIR"
	ActionRelocation            ActionType = "RELOCATION"
	ActionCalibration           ActionType = "CALIBRATION"
	ActionReorder               ActionType = "REORDER"
	ActionMaintenance           ActionType = "MAINTENANCE"
	ActionOther                 ActionType = "OTHER"
)

var actionTypes = map[ActionType]bool{
	ActionTemperatureAdjustment: true,
	ActionEquipmentRepair:       true,
	ActionRelocation:            true,
	ActionCalibration:           true,
	ActionReorder:               true,
	ActionMaintenance:           true,
	ActionOther:                 true,
}

func (t ActionType) Valid() bool {
	return actionTypes[t]
}

type ActionStatus string

const (
	ActionPending    ActionStatus = "PENDING"
	ActionInProgress ActionStatus = "IN_PROGRESS"
	ActionCompleted  ActionStatus = "COMPLETED"
	ActionCancelled  ActionStatus = "CANCELLED"
	ActionRetracted  ActionStatus = "RETRACTED"
)

// IsOpen is true while an operator still has to act on the record.
func (s ActionStatus) IsOpen() bool {
	return s == ActionPending || s == ActionInProgress
}
