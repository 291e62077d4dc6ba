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

const FallbackProfileName = "device fallback"

// Resolver answers which thresholds govern a device at an instant. It works on a
// snapshot of profiles and assignments so poll tasks never query configuration.
type Resolver struct {
	profiles    map[string]models.ThresholdProfile
	assignments map[string][]models.DeviceThresholdAssignment
}

func NewResolver(snapshot *models.ThresholdSnapshot) *Resolver {
	r := &Resolver{
		profiles:    make(map[string]models.ThresholdProfile, len(snapshot.Profiles)),
		assignments: make(map[string][]models.DeviceThresholdAssignment),
	}
	for _, p := range snapshot.Profiles {
		r.profiles[p.ProfileID] = p
	}
	for _, a := range snapshot.Assignments {
		r.assignments[a.DeviceID] = append(r.assignments[a.DeviceID], a)
	}
	return r
}

// preferred orders competing assignments: latest start first, then lowest id.
func preferred(a, b *models.DeviceThresholdAssignment) bool {
	if !a.EffectiveStart.Equal(b.EffectiveStart) {
		return a.EffectiveStart.After(b.EffectiveStart)
	}
	return a.ID < b.ID
}

// Resolve picks an explicit assignment covering at, else the covering default,
// else the device's own fallback thresholds.
func (r *Resolver) Resolve(device *models.Freezer, at time.Time) (*models.ThresholdProfile, error) {
	var explicit, def *models.DeviceThresholdAssignment
	list := r.assignments[device.DeviceID]
	for idx := range list {
		a := &list[idx]
		if !a.Covers(at) {
			continue
		}
		if a.IsDefault {
			if def == nil || preferred(a, def) {
				def = a
			}
		} else if explicit == nil || preferred(a, explicit) {
			explicit = a
		}
	}

	chosen := explicit
	if chosen == nil {
		chosen = def
	}
	if chosen == nil {
		return FallbackProfile(device)
	}

	profile, ok := r.profiles[chosen.ProfileID]
	if !ok {
		return nil, &ConfigError{DeviceID: device.DeviceID, Reason: fmt.Sprintf("assignment %d references unknown profile %s", chosen.ID, chosen.ProfileID)}
	}
	if !profile.HasTemperature() && !profile.HasHumidity() {
		return nil, &ConfigError{DeviceID: device.DeviceID, Reason: fmt.Sprintf("profile %s defines no ranges", profile.Name)}
	}
	return &profile, nil
}

// FallbackProfile synthesizes a single-use profile from the device's own thresholds.
func FallbackProfile(device *models.Freezer) (*models.ThresholdProfile, error) {
	if !device.Fallback.HasTemperature() && !device.Fallback.HasHumidity() {
		return nil, &ConfigError{DeviceID: device.DeviceID, Reason: "no threshold assignment applies and the device has no fallback thresholds"}
	}
	return &models.ThresholdProfile{
		Name:                FallbackProfileName,
		Bounds:              device.Fallback,
		MinExcursionMinutes: device.MinExcursionMinutes,
		MaxDurationMinutes:  device.MaxDurationMinutes,
	}, nil
}

func validateProfile(p *models.ThresholdProfile) error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: profile %q: %s", ErrConfiguration, p.Name, fmt.Sprintf(format, args...))
	}
	if p.Name == "" {
		return invalid("name is empty")
	}
	if !p.HasTemperature() && !p.HasHumidity() {
		return invalid("at least one range is required")
	}
	for name, r := range map[string]models.Range{
		"temperature warning":  p.TemperatureWarning(),
		"temperature critical": p.TemperatureCritical(),
		"humidity warning":     p.HumidityWarning(),
		"humidity critical":    p.HumidityCritical(),
	} {
		if r.Min.Valid && r.Max.Valid && r.Min.Decimal.GreaterThan(r.Max.Decimal) {
			return invalid("%s range has min above max", name)
		}
	}
	if p.MinExcursionMinutes < 0 || p.MaxDurationMinutes < 0 {
		return invalid("hold times must not be negative")
	}
	if p.RecoveryMinutes != nil && *p.RecoveryMinutes < 0 {
		return invalid("recovery hold must not be negative")
	}
	return nil
}

// upsertProfile creates a profile, or updates one that no reading has been classified with yet.
func (i *IOT) upsertProfile(profile *models.ThresholdProfile) error {
	logger := common.GetCategoryLogger(common.LoggerCategoryThreshold)

	if err := validateProfile(profile); err != nil {
		return err
	}

	if profile.ProfileID == "" {
		profile.ProfileID = uuid.NewString()
		if err := i.Db.Conn.Create(profile).Error; err != nil {
			return err
		}
		logger.Info("Created threshold profile", zap.String("profile_id", profile.ProfileID), zap.String("name", profile.Name))
		return nil
	}

	return i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		var existing models.ThresholdProfile
		if err := tx.First(&existing, "profile_id = ?", profile.ProfileID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("profile", profile.ProfileID)
			}
			return err
		}

		var used int64
		if err := tx.Model(&models.Reading{}).Where("profile_id = ?", profile.ProfileID).Count(&used).Error; err != nil {
			return err
		}
		if used > 0 {
			return fmt.Errorf("profile %s: %w", profile.ProfileID, ErrProfileInUse)
		}

		profile.CreatedAt = existing.CreatedAt
		if err := tx.Save(profile).Error; err != nil {
			return err
		}
		logger.Info("Updated threshold profile", zap.String("profile_id", profile.ProfileID))
		return nil
	})
}

func (i *IOT) getProfile(profileID string) (*models.ThresholdProfile, error) {
	var profile models.ThresholdProfile
	if err := i.Db.Conn.First(&profile, "profile_id = ?", profileID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("profile", profileID)
		}
		return nil, err
	}
	return &profile, nil
}

// assignProfile enforces that explicit ranges of a device never overlap and that
// default assignments never overlap each other.
func (i *IOT) assignProfile(assignment *models.DeviceThresholdAssignment) error {
	logger := common.GetCategoryLogger(common.LoggerCategoryThreshold, zap.String("device_id", assignment.DeviceID))

	assignment.ID = 0
	assignment.EffectiveStart = assignment.EffectiveStart.UTC()
	if assignment.EffectiveEnd != nil {
		end := assignment.EffectiveEnd.UTC()
		if !end.After(assignment.EffectiveStart) {
			return fmt.Errorf("%w: assignment must end after it starts", ErrConfiguration)
		}
		assignment.EffectiveEnd = &end
	}
	if assignment.IsDefault && assignment.EffectiveEnd != nil {
		return fmt.Errorf("%w: a default assignment must be open-ended", ErrConfiguration)
	}

	err := i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Freezer{}).Where("device_id = ?", assignment.DeviceID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return notFound("device", assignment.DeviceID)
		}
		if err := tx.Model(&models.ThresholdProfile{}).Where("profile_id = ?", assignment.ProfileID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return notFound("profile", assignment.ProfileID)
		}

		var existing []models.DeviceThresholdAssignment
		if err := tx.Where("device_id = ? AND is_default = ?", assignment.DeviceID, assignment.IsDefault).Find(&existing).Error; err != nil {
			return err
		}
		for _, other := range existing {
			if !assignment.Overlaps(other) {
				continue
			}
			if assignment.IsDefault {
				return fmt.Errorf("device %s, assignment %d: %w", assignment.DeviceID, other.ID, ErrDuplicateDefault)
			}
			return fmt.Errorf("device %s, assignment %d: %w", assignment.DeviceID, other.ID, ErrOverlappingAssignment)
		}

		return tx.Create(assignment).Error
	})
	if err != nil {
		return err
	}

	logger.Info("Assigned threshold profile",
		zap.Uint("assignment_id", assignment.ID),
		zap.String("profile_id", assignment.ProfileID),
		zap.Bool("is_default", assignment.IsDefault))
	return nil
}

// endAssignment closes an assignment at end. Moving an end later is checked for overlaps like a new assignment.
func (i *IOT) endAssignment(id uint, end time.Time) error {
	end = end.UTC()
	return i.Db.Conn.Transaction(func(tx *gorm.DB) error {
		var assignment models.DeviceThresholdAssignment
		if err := tx.First(&assignment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("assignment", fmt.Sprint(id))
			}
			return err
		}
		if !end.After(assignment.EffectiveStart) {
			return fmt.Errorf("%w: assignment must end after it starts", ErrConfiguration)
		}
		assignment.EffectiveEnd = &end

		var siblings []models.DeviceThresholdAssignment
		if err := tx.Where("device_id = ? AND is_default = ? AND id <> ?", assignment.DeviceID, assignment.IsDefault, assignment.ID).
			Find(&siblings).Error; err != nil {
			return err
		}
		for _, other := range siblings {
			if assignment.Overlaps(other) {
				return fmt.Errorf("device %s, assignment %d: %w", assignment.DeviceID, other.ID, ErrOverlappingAssignment)
			}
		}

		if err := tx.Model(&assignment).Update("effective_end", end).Error; err != nil {
			return err
		}
		common.GetCategoryLogger(common.LoggerCategoryThreshold, zap.String("device_id", assignment.DeviceID)).
			Info("Ended threshold assignment", zap.Uint("assignment_id", id), zap.Time("effective_end", end))
		return nil
	})
}

func (i *IOT) listAssignments(deviceID string) ([]models.DeviceThresholdAssignment, error) {
	var assignments []models.DeviceThresholdAssignment
	err := i.Db.Conn.
		Where("device_id = ?", deviceID).
		Order("effective_start").
		Order("id").
		Find(&assignments).Error
	return assignments, err
}

func (i *IOT) loadSnapshot() (*models.ThresholdSnapshot, error) {
	var snapshot models.ThresholdSnapshot
	if err := i.Db.Conn.Find(&snapshot.Profiles).Error; err != nil {
		return nil, err
	}
	if err := i.Db.Conn.Find(&snapshot.Assignments).Error; err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (i *IOT) resolve(device *models.Freezer, at time.Time) (*models.ThresholdProfile, error) {
	assignments, err := i.listAssignments(device.DeviceID)
	if err != nil {
		return nil, err
	}
	ids := common.Mapper(assignments, func(a models.DeviceThresholdAssignment) string { return a.ProfileID })
	var profiles []models.ThresholdProfile
	if len(ids) > 0 {
		if err := i.Db.Conn.Where("profile_id IN ?", ids).Find(&profiles).Error; err != nil {
			return nil, err
		}
	}
	return NewResolver(&models.ThresholdSnapshot{Profiles: profiles, Assignments: assignments}).Resolve(device, at)
}

type IThresholdImpl struct {
	iot *IOT
}

func (it *IThresholdImpl) UpsertProfile(profile *models.ThresholdProfile) error {
	return it.iot.upsertProfile(profile)
}

func (it *IThresholdImpl) GetProfile(profileID string) (*models.ThresholdProfile, error) {
	return it.iot.getProfile(profileID)
}

func (it *IThresholdImpl) AssignProfile(assignment *models.DeviceThresholdAssignment) error {
	return it.iot.assignProfile(assignment)
}

func (it *IThresholdImpl) EndAssignment(id uint, end time.Time) error {
	return it.iot.endAssignment(id, end)
}

func (it *IThresholdImpl) ListAssignments(deviceID string) ([]models.DeviceThresholdAssignment, error) {
	return it.iot.listAssignments(deviceID)
}

func (it *IThresholdImpl) LoadSnapshot() (*models.ThresholdSnapshot, error) {
	return it.iot.loadSnapshot()
}

func (it *IThresholdImpl) Resolve(device *models.Freezer, at time.Time) (*models.ThresholdProfile, error) {
	return it.iot.resolve(device, at)
}

func (i *IOT) GetIThreshold() IThreshold {
	return &IThresholdImpl{iot: i}
}
