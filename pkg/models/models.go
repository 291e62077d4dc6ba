package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TransportType string

const (
	TransportTCP    TransportType = "tcp"
	TransportSerial TransportType = "serial"
)

// Freezer is a monitored cold-storage unit and how to reach its controller.
type Freezer struct {
	DeviceID string `gorm:"primaryKey"`
	Name     string
	Location string

	Transport     TransportType `gorm:"type:varchar(10);check:transport IN ('tcp','serial')"`
	Host          string
	Port          int
	SerialPort    string
	BaudRate      int
	DataBits      int
	StopBits      int
	Parity        string `gorm:"type:varchar(8)"`
	UnitID        uint8
	TimeoutMillis int

	RegisterType        string `gorm:"type:varchar(10)"`
	DataType            string `gorm:"type:varchar(10)"`
	TemperatureRegister uint16
	HumidityRegister    *uint16

	TemperatureScale  decimal.Decimal `gorm:"type:varchar(32)"`
	TemperatureOffset decimal.Decimal `gorm:"type:varchar(32)"`
	HumidityScale     decimal.Decimal `gorm:"type:varchar(32)"`
	HumidityOffset    decimal.Decimal `gorm:"type:varchar(32)"`

	TargetTemperature      decimal.NullDecimal `gorm:"type:varchar(32)"`
	Fallback               Bounds              `gorm:"embedded;embeddedPrefix:fallback_"`
	MinExcursionMinutes    int
	MaxDurationMinutes     int
	PollingIntervalSeconds int
	Active                 bool

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Readings    []Reading                   `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
	Actions     []CorrectiveAction          `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
	Assignments []DeviceThresholdAssignment `gorm:"foreignKey:DeviceID;references:DeviceID" json:"-"`
}

// ThresholdProfile is a named set of acceptable ranges plus the debounce and escalation hold times.
type ThresholdProfile struct {
	ProfileID string `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex"`
	Bounds
	MinExcursionMinutes int
	MaxDurationMinutes  int
	// nil means recovery uses MinExcursionMinutes
	RecoveryMinutes *int

	CreatedAt time.Time
	UpdatedAt time.Time

	Assignments []DeviceThresholdAssignment `gorm:"foreignKey:ProfileID;references:ProfileID" json:"-"`
}

// DeviceThresholdAssignment binds a device to a profile over [EffectiveStart, EffectiveEnd).
type DeviceThresholdAssignment struct {
	ID             uint   `gorm:"primaryKey"`
	DeviceID       string `gorm:"index"`
	ProfileID      string `gorm:"index"`
	EffectiveStart time.Time
	EffectiveEnd   *time.Time
	IsDefault      bool
	CreatedAt      time.Time
}

func (a DeviceThresholdAssignment) Covers(at time.Time) bool {
	if at.Before(a.EffectiveStart) {
		return false
	}
	return a.EffectiveEnd == nil || at.Before(*a.EffectiveEnd)
}

// Overlaps reports whether two assignment intervals share any instant.
func (a DeviceThresholdAssignment) Overlaps(b DeviceThresholdAssignment) bool {
	aEndsBeforeB := a.EffectiveEnd != nil && !a.EffectiveEnd.After(b.EffectiveStart)
	bEndsBeforeA := b.EffectiveEnd != nil && !b.EffectiveEnd.After(a.EffectiveStart)
	return !aEndsBeforeB && !bEndsBeforeA
}

// Reading is one poll cycle's observation. It is written once and never updated.
type Reading struct {
	ID             uint      `gorm:"primaryKey"`
	DeviceID       string    `gorm:"index:idx_reading_device_time,priority:1"`
	Timestamp      time.Time `gorm:"index:idx_reading_device_time,priority:2"`
	RawTemperature *int64
	RawHumidity    *int64
	Temperature    decimal.NullDecimal `gorm:"type:varchar(32)"`
	Humidity       decimal.NullDecimal `gorm:"type:varchar(32)"`
	Status         Status              `gorm:"type:varchar(10);check:status IN ('NORMAL','WARNING','CRITICAL')"`
	ProfileID      string              `gorm:"index"`
	TransmissionOK bool
	ErrorMessage   string
}

type CorrectiveAction struct {
	ActionID       string     `gorm:"primaryKey"`
	DeviceID       string     `gorm:"index"`
	Type           ActionType `gorm:"type:varchar(32)"`
	Description    string
	Status         ActionStatus `gorm:"type:varchar(16);index"`
	CreatedAt      time.Time
	CreatedBy      string
	ExcursionSince *time.Time

	StartedAt       *time.Time
	StartedBy       string
	CompletedAt     *time.Time
	CompletedBy     string
	CompletionNotes string
	CancelledAt     *time.Time
	CancelledBy     string
	RetractedAt     *time.Time
	RetractedBy     string

	RetractionReason string
	Edited           bool
	UpdatedAt        time.Time
}

// RawSample holds the undecoded register words of one poll.
type RawSample struct {
	Temperature uint16
	Humidity    *uint16
}

// ThresholdSnapshot is every profile and assignment at one point in time.
type ThresholdSnapshot struct {
	Profiles    []ThresholdProfile
	Assignments []DeviceThresholdAssignment
}
