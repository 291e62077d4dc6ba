package iot

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

func labProfile() *models.ThresholdProfile {
	return &models.ThresholdProfile{
		Name: "lab fridge",
		Bounds: models.Bounds{
			TemperatureWarningMin:  models.Dec(2),
			TemperatureWarningMax:  models.Dec(8),
			TemperatureCriticalMin: models.Dec(0),
			TemperatureCriticalMax: models.Dec(10),
			HumidityWarningMax:     models.Dec(60),
			HumidityCriticalMax:    models.Dec(80),
		},
		MinExcursionMinutes: 5,
		MaxDurationMinutes:  60,
	}
}

func TestChannelStatus(t *testing.T) {
	p := labProfile()
	tests := []struct {
		value float64
		want  models.Status
	}{
		{5, models.StatusNormal},
		{2, models.StatusNormal},
		{8, models.StatusNormal},
		{9, models.StatusWarning},
		{1.5, models.StatusWarning},
		{10, models.StatusWarning},
		{11, models.StatusCritical},
		{-0.1, models.StatusCritical},
	}
	for _, tt := range tests {
		got := ChannelStatus(decimal.NewFromFloat(tt.value), p.TemperatureWarning(), p.TemperatureCritical())
		assert.Equal(t, tt.want, got, "value %v", tt.value)
	}
}

func TestClassifyTakesWorseChannel(t *testing.T) {
	p := labProfile()

	s := Sample{Temperature: decimal.NewFromInt(5), Humidity: models.Dec(70)}
	assert.Equal(t, models.StatusWarning, Classify(p, s))

	s = Sample{Temperature: decimal.NewFromInt(11), Humidity: models.Dec(70)}
	assert.Equal(t, models.StatusCritical, Classify(p, s))

	s = Sample{Temperature: decimal.NewFromInt(5), Humidity: models.Dec(85)}
	assert.Equal(t, models.StatusCritical, Classify(p, s))
}

func TestClassifyExcludesAbsentChannel(t *testing.T) {
	p := labProfile()

	// no humidity sensor
	assert.Equal(t, models.StatusNormal, Classify(p, Sample{Temperature: decimal.NewFromInt(5)}))

	// no humidity ranges in the profile
	p.Bounds.HumidityWarningMax = decimal.NullDecimal{}
	p.Bounds.HumidityCriticalMax = decimal.NullDecimal{}
	assert.Equal(t, models.StatusNormal, Classify(p, Sample{Temperature: decimal.NewFromInt(5), Humidity: models.Dec(99)}))
}
