package iot

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
	_ "liyu1981.xyz/coldchain-monitor/pkg/testing"
)

func timep(t time.Time) *time.Time {
	return &t
}

func profileNamed(name string, warnMax float64) models.ThresholdProfile {
	p := *labProfile()
	p.ProfileID = uuid.NewString()
	p.Name = name
	p.TemperatureWarningMax = models.Dec(warnMax)
	return p
}

func TestResolverPrecedence(t *testing.T) {
	device := testFreezer()
	explicit := profileNamed("summer", 7)
	def := profileNamed("standard", 8)

	resolver := NewResolver(&models.ThresholdSnapshot{
		Profiles: []models.ThresholdProfile{explicit, def},
		Assignments: []models.DeviceThresholdAssignment{
			{ID: 1, DeviceID: device.DeviceID, ProfileID: def.ProfileID, EffectiveStart: minutes(0), IsDefault: true},
			{ID: 2, DeviceID: device.DeviceID, ProfileID: explicit.ProfileID, EffectiveStart: minutes(60), EffectiveEnd: timep(minutes(120))},
		},
	})

	p, err := resolver.Resolve(device, minutes(30))
	require.NoError(t, err)
	assert.Equal(t, "standard", p.Name)

	p, err = resolver.Resolve(device, minutes(60))
	require.NoError(t, err)
	assert.Equal(t, "summer", p.Name)

	// the end is exclusive
	p, err = resolver.Resolve(device, minutes(120))
	require.NoError(t, err)
	assert.Equal(t, "standard", p.Name)

	// before the default starts only the fallback applies
	p, err = resolver.Resolve(device, minutes(-1))
	require.NoError(t, err)
	assert.Equal(t, FallbackProfileName, p.Name)
	assert.Equal(t, device.MinExcursionMinutes, p.MinExcursionMinutes)
	assert.Empty(t, p.ProfileID)
}

func TestResolverOverlapIsDeterministic(t *testing.T) {
	device := testFreezer()
	a := profileNamed("a", 7)
	b := profileNamed("b", 6)
	c := profileNamed("c", 5)

	resolver := NewResolver(&models.ThresholdSnapshot{
		Profiles: []models.ThresholdProfile{a, b, c},
		Assignments: []models.DeviceThresholdAssignment{
			{ID: 7, DeviceID: device.DeviceID, ProfileID: a.ProfileID, EffectiveStart: minutes(0), EffectiveEnd: timep(minutes(100))},
			{ID: 3, DeviceID: device.DeviceID, ProfileID: b.ProfileID, EffectiveStart: minutes(10), EffectiveEnd: timep(minutes(100))},
			{ID: 5, DeviceID: device.DeviceID, ProfileID: c.ProfileID, EffectiveStart: minutes(10), EffectiveEnd: timep(minutes(50))},
		},
	})

	// latest start wins, ties go to the lowest id
	p, err := resolver.Resolve(device, minutes(20))
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name)

	p, err = resolver.Resolve(device, minutes(5))
	require.NoError(t, err)
	assert.Equal(t, "a", p.Name)
}

func TestResolverConfigurationErrors(t *testing.T) {
	device := testFreezer()
	device.Fallback = models.Bounds{}

	_, err := NewResolver(&models.ThresholdSnapshot{}).Resolve(device, minutes(0))
	assert.ErrorIs(t, err, ErrConfiguration)
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, device.DeviceID, cfgErr.DeviceID)

	resolver := NewResolver(&models.ThresholdSnapshot{
		Assignments: []models.DeviceThresholdAssignment{
			{ID: 1, DeviceID: device.DeviceID, ProfileID: "missing", EffectiveStart: minutes(0), IsDefault: true},
		},
	})
	_, err = resolver.Resolve(device, minutes(1))
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestProfileLifecycle(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	profile := profileNamed("vaccine-"+uuid.NewString(), 8)
	profile.ProfileID = ""
	require.NoError(t, iotObj.Threshold.UpsertProfile(&profile))
	require.NotEmpty(t, profile.ProfileID)

	saved, err := iotObj.Threshold.GetProfile(profile.ProfileID)
	require.NoError(t, err)
	assert.True(t, saved.TemperatureWarningMax.Decimal.Equal(decimal.NewFromInt(8)))
	assert.Nil(t, saved.RecoveryMinutes)

	// free to change while no reading used it
	saved.TemperatureWarningMax = models.Dec(7.5)
	require.NoError(t, iotObj.Threshold.UpsertProfile(saved))

	device := seedFreezer(t, iotObj, nil)
	require.NoError(t, iotObj.Reading.StoreReading(&models.Reading{
		DeviceID: device.DeviceID, Timestamp: minutes(0), Status: models.StatusNormal, ProfileID: profile.ProfileID, TransmissionOK: true,
	}))

	saved.TemperatureWarningMax = models.Dec(9)
	assert.ErrorIs(t, iotObj.Threshold.UpsertProfile(saved), ErrProfileInUse)

	_, err = iotObj.Threshold.GetProfile(uuid.NewString())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpsertProfileValidation(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	empty := models.ThresholdProfile{Name: "empty-" + uuid.NewString()}
	assert.ErrorIs(t, iotObj.Threshold.UpsertProfile(&empty), ErrConfiguration)

	inverted := profileNamed("inverted-"+uuid.NewString(), 1)
	inverted.ProfileID = ""
	assert.ErrorIs(t, iotObj.Threshold.UpsertProfile(&inverted), ErrConfiguration)

	negative := profileNamed("negative-"+uuid.NewString(), 8)
	negative.ProfileID = ""
	negative.MinExcursionMinutes = -1
	assert.ErrorIs(t, iotObj.Threshold.UpsertProfile(&negative), ErrConfiguration)
}

func TestAssignProfileRules(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, nil)
	profile := profileNamed("rules-"+uuid.NewString(), 8)
	profile.ProfileID = ""
	require.NoError(t, iotObj.Threshold.UpsertProfile(&profile))

	assign := func(start time.Time, end *time.Time, isDefault bool) error {
		return iotObj.Threshold.AssignProfile(&models.DeviceThresholdAssignment{
			DeviceID: device.DeviceID, ProfileID: profile.ProfileID,
			EffectiveStart: start, EffectiveEnd: end, IsDefault: isDefault,
		})
	}

	require.NoError(t, assign(minutes(0), timep(minutes(60)), false))
	assert.ErrorIs(t, assign(minutes(30), timep(minutes(90)), false), ErrOverlappingAssignment)
	// touching intervals do not overlap
	require.NoError(t, assign(minutes(60), timep(minutes(90)), false))

	require.NoError(t, assign(minutes(0), nil, true))
	assert.ErrorIs(t, assign(minutes(500), nil, true), ErrDuplicateDefault)
	assert.ErrorIs(t, assign(minutes(500), timep(minutes(600)), true), ErrConfiguration)
	assert.ErrorIs(t, assign(minutes(10), timep(minutes(5)), false), ErrConfiguration)

	assert.ErrorIs(t, iotObj.Threshold.AssignProfile(&models.DeviceThresholdAssignment{
		DeviceID: device.DeviceID, ProfileID: uuid.NewString(), EffectiveStart: minutes(1000),
	}), ErrNotFound)

	assignments, err := iotObj.Threshold.ListAssignments(device.DeviceID)
	require.NoError(t, err)
	require.Len(t, assignments, 3)

	// replacing the default: end the old one, then add the new one
	var defaultID uint
	for _, a := range assignments {
		if a.IsDefault {
			defaultID = a.ID
		}
	}
	require.NoError(t, iotObj.Threshold.EndAssignment(defaultID, minutes(500)))
	require.NoError(t, assign(minutes(500), nil, true))

	assert.ErrorIs(t, iotObj.Threshold.EndAssignment(defaultID, minutes(-10)), ErrConfiguration)
	assert.ErrorIs(t, iotObj.Threshold.EndAssignment(999999, minutes(10)), ErrNotFound)
}

func TestResolveAndSnapshotFromStore(t *testing.T) {
	common.SetTestLoggerNop()

	ctrl, iotObj, _ := GetMockIOTWithMemorySqliteDialector(t, useMocks{})
	defer ctrl.Finish()

	device := seedFreezer(t, iotObj, nil)
	profile := profileNamed("store-"+uuid.NewString(), 6)
	profile.ProfileID = ""
	require.NoError(t, iotObj.Threshold.UpsertProfile(&profile))
	require.NoError(t, iotObj.Threshold.AssignProfile(&models.DeviceThresholdAssignment{
		DeviceID: device.DeviceID, ProfileID: profile.ProfileID, EffectiveStart: minutes(0), IsDefault: true,
	}))

	p, err := iotObj.Threshold.Resolve(device, minutes(10))
	require.NoError(t, err)
	assert.Equal(t, profile.ProfileID, p.ProfileID)

	p, err = iotObj.Threshold.Resolve(device, minutes(-10))
	require.NoError(t, err)
	assert.Equal(t, FallbackProfileName, p.Name)

	snapshot, err := iotObj.Threshold.LoadSnapshot()
	require.NoError(t, err)
	p, err = NewResolver(snapshot).Resolve(device, minutes(10))
	require.NoError(t, err)
	assert.Equal(t, profile.ProfileID, p.ProfileID)
}
