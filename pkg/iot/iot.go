package iot

//go:generate mockgen -source=iot.go -destination=mocks/mock_iot.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"liyu1981.xyz/coldchain-monitor/pkg/db"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

var (
	ErrConfiguration         = errors.New("configuration error")
	ErrInvalidTransition     = errors.New("invalid corrective action transition")
	ErrOverlappingAssignment = errors.New("overlapping threshold assignment")
	ErrDuplicateDefault      = errors.New("device already has an open-ended default assignment")
	ErrProfileInUse          = errors.New("threshold profile is referenced by readings")
	ErrNotFound              = errors.New("not found")
)

// ConfigError means a poll cycle cannot run with the device's current configuration.
type ConfigError struct {
	DeviceID string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error for device %s: %s", e.DeviceID, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

// SystemActor is recorded as the creator of everything the engine writes.
const SystemActor = "system"

type IDevice interface {
	UpsertDevice(device *models.Freezer) error
	GetDevice(deviceID string) (*models.Freezer, error)
	ListDevices() ([]models.Freezer, error)
	DeleteDevice(deviceID string) error
	SetActive(deviceID string, active bool) error
}

type IThreshold interface {
	UpsertProfile(profile *models.ThresholdProfile) error
	GetProfile(profileID string) (*models.ThresholdProfile, error)
	AssignProfile(assignment *models.DeviceThresholdAssignment) error
	EndAssignment(id uint, end time.Time) error
	ListAssignments(deviceID string) ([]models.DeviceThresholdAssignment, error)
	LoadSnapshot() (*models.ThresholdSnapshot, error)
	Resolve(device *models.Freezer, at time.Time) (*models.ThresholdProfile, error)
}

type IReading interface {
	StoreReading(reading *models.Reading) error
	GetDeviceReadings(deviceID string, limit int) ([]models.Reading, error)
	GetRecentReadings(deviceID string, n int) ([]models.Reading, error)
}

type IAction interface {
	Raise(deviceID string, input *models.CorrectiveAction) (*models.CorrectiveAction, error)
	Start(actionID string, actor string) (*models.CorrectiveAction, error)
	Complete(actionID string, actor string, notes string) (*models.CorrectiveAction, error)
	Cancel(actionID string, actor string) (*models.CorrectiveAction, error)
	Retract(actionID string, actor string, reason string) (*models.CorrectiveAction, error)
	Edit(actionID string, actionType models.ActionType, description string) (*models.CorrectiveAction, error)
	GetAction(actionID string) (*models.CorrectiveAction, error)
	GetDeviceActions(deviceID string) ([]models.CorrectiveAction, error)
	GetDeviceActionsSince(deviceID string, since time.Time) ([]models.CorrectiveAction, error)
	GetOpenExcursionActions(deviceID string, since time.Time) ([]models.CorrectiveAction, error)
}

// IProbe reads the raw registers of one device.
type IProbe interface {
	Read(ctx context.Context, device *models.Freezer) (models.RawSample, error)
	Release(deviceID string)
}

// IPublisher fans engine output out to other systems. Implementations must not block the poll.
type IPublisher interface {
	PublishReading(reading *models.Reading)
	PublishAction(action *models.CorrectiveAction)
}

type IOT struct {
	Db        db.DB
	Device    IDevice
	Threshold IThreshold
	Reading   IReading
	Action    IAction
	Probe     IProbe
	Publisher IPublisher

	// Now is the clock for every timestamp the services write; nil means time.Now.
	Now func() time.Time
}

type ServiceOpts struct {
	Device    IDevice
	Threshold IThreshold
	Reading   IReading
	Action    IAction
	Probe     IProbe
	Publisher IPublisher
}

// NewIOT wires the database-backed services. Probe and Publisher are supplied through WithServices.
func NewIOT(dbInstance *db.DB) *IOT {
	i := &IOT{Db: *dbInstance}
	return i.WithServices(ServiceOpts{
		Device:    i.GetIDevice(),
		Threshold: i.GetIThreshold(),
		Reading:   i.GetIReading(),
		Action:    i.GetIAction(),
	})
}

func (i *IOT) WithServices(opts ServiceOpts) *IOT {
	if opts.Device != nil {
		i.Device = opts.Device
	}
	if opts.Threshold != nil {
		i.Threshold = opts.Threshold
	}
	if opts.Reading != nil {
		i.Reading = opts.Reading
	}
	if opts.Action != nil {
		i.Action = opts.Action
	}
	if opts.Probe != nil {
		i.Probe = opts.Probe
	}
	if opts.Publisher != nil {
		i.Publisher = opts.Publisher
	}
	return i
}

func (i *IOT) now() time.Time {
	if i.Now != nil {
		return i.Now().UTC()
	}
	return time.Now().UTC()
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, ErrNotFound)
}
