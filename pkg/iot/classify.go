package iot

import (
	"github.com/shopspring/decimal"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

// ChannelStatus grades one value: outside critical is CRITICAL, outside warning is WARNING.
func ChannelStatus(v decimal.Decimal, warning, critical models.Range) models.Status {
	if !critical.Contains(v) {
		return models.StatusCritical
	}
	if !warning.Contains(v) {
		return models.StatusWarning
	}
	return models.StatusNormal
}

// Classify returns the instant status of a sample, the worse of its channels.
// A channel without ranges in the profile or without a value is left out.
func Classify(profile *models.ThresholdProfile, s Sample) models.Status {
	status := models.StatusNormal
	if profile.HasTemperature() {
		status = models.MoreSevere(status, ChannelStatus(s.Temperature, profile.TemperatureWarning(), profile.TemperatureCritical()))
	}
	if s.Humidity.Valid && profile.HasHumidity() {
		status = models.MoreSevere(status, ChannelStatus(s.Humidity.Decimal, profile.HumidityWarning(), profile.HumidityCritical()))
	}
	return status
}
