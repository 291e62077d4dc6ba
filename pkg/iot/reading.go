package iot

import (
	"slices"

	"go.uber.org/zap"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

const MaxReadingsPage = 1000

func (i *IOT) storeReading(reading *models.Reading) error {
	logger := common.GetCategoryLogger(common.LoggerCategoryReading, zap.String("device_id", reading.DeviceID))

	reading.ID = 0
	reading.Timestamp = reading.Timestamp.UTC()

	if err := i.Db.Conn.Create(reading).Error; err != nil {
		return err
	}

	logger.Debug("Stored reading",
		zap.Uint("reading_id", reading.ID),
		zap.String("status", string(reading.Status)),
		zap.Bool("transmission_ok", reading.TransmissionOK))
	return nil
}

// getDeviceReadings returns the newest readings first.
func (i *IOT) getDeviceReadings(deviceID string, limit int) ([]models.Reading, error) {
	if limit <= 0 || limit > MaxReadingsPage {
		limit = MaxReadingsPage
	}
	var readings []models.Reading
	err := i.Db.Conn.
		Where("device_id = ?", deviceID).
		Order("timestamp desc").
		Order("id desc").
		Limit(limit).
		Find(&readings).Error
	return readings, err
}

// getRecentReadings returns the last n readings in the order they were taken.
func (i *IOT) getRecentReadings(deviceID string, n int) ([]models.Reading, error) {
	if n <= 0 {
		return nil, nil
	}
	readings, err := i.getDeviceReadings(deviceID, n)
	if err != nil {
		return nil, err
	}
	slices.Reverse(readings)
	return readings, nil
}

type IReadingImpl struct {
	iot *IOT
}

func (ir *IReadingImpl) StoreReading(reading *models.Reading) error {
	return ir.iot.storeReading(reading)
}

func (ir *IReadingImpl) GetDeviceReadings(deviceID string, limit int) ([]models.Reading, error) {
	return ir.iot.getDeviceReadings(deviceID, limit)
}

func (ir *IReadingImpl) GetRecentReadings(deviceID string, n int) ([]models.Reading, error) {
	return ir.iot.getRecentReadings(deviceID, n)
}

func (i *IOT) GetIReading() IReading {
	return &IReadingImpl{iot: i}
}
