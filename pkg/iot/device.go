package iot

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

func (i *IOT) upsertDevice(device *models.Freezer) error {
	logger := common.GetCategoryLogger(common.LoggerCategoryRegistry, zap.String("device_id", device.DeviceID))

	device.Normalize()
	if err := device.Validate(); err != nil {
		return err
	}

	var existing models.Freezer
	err := i.Db.Conn.Unscoped().First(&existing, "device_id = ?", device.DeviceID).Error
	switch {
	case err == nil:
		device.CreatedAt = existing.CreatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return err
	}
	device.DeletedAt = gorm.DeletedAt{}

	logger.Info("Received device configuration", zap.Reflect("device", device))

	err = i.Db.Conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "device_id"}},
		UpdateAll: true,
	}).Create(device).Error

	if err == nil {
		logger.Info("Upserted device configuration")
	}
	return err
}

func (i *IOT) getDevice(deviceID string) (*models.Freezer, error) {
	var device models.Freezer
	if err := i.Db.Conn.First(&device, "device_id = ?", deviceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("device", deviceID)
		}
		return nil, err
	}
	return &device, nil
}

func (i *IOT) listDevices() ([]models.Freezer, error) {
	var devices []models.Freezer
	err := i.Db.Conn.Order("device_id").Find(&devices).Error
	return devices, err
}

// deleteDevice is a soft delete; readings and actions of the device stay queryable.
func (i *IOT) deleteDevice(deviceID string) error {
	result := i.Db.Conn.Delete(&models.Freezer{}, "device_id = ?", deviceID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("device", deviceID)
	}
	common.GetCategoryLogger(common.LoggerCategoryRegistry, zap.String("device_id", deviceID)).Info("Deleted device")
	return nil
}

func (i *IOT) setActive(deviceID string, active bool) error {
	result := i.Db.Conn.Model(&models.Freezer{}).Where("device_id = ?", deviceID).Update("active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound("device", deviceID)
	}
	common.GetCategoryLogger(common.LoggerCategoryRegistry, zap.String("device_id", deviceID)).
		Info("Changed device activation", zap.Bool("active", active))
	return nil
}

type IDeviceImpl struct {
	iot *IOT
}

func (id *IDeviceImpl) UpsertDevice(device *models.Freezer) error {
	return id.iot.upsertDevice(device)
}

func (id *IDeviceImpl) GetDevice(deviceID string) (*models.Freezer, error) {
	return id.iot.getDevice(deviceID)
}

func (id *IDeviceImpl) ListDevices() ([]models.Freezer, error) {
	return id.iot.listDevices()
}

func (id *IDeviceImpl) DeleteDevice(deviceID string) error {
	return id.iot.deleteDevice(deviceID)
}

func (id *IDeviceImpl) SetActive(deviceID string, active bool) error {
	return id.iot.setActive(deviceID, active)
}

func (i *IOT) GetIDevice() IDevice {
	return &IDeviceImpl{iot: i}
}
