package iot

import (
	"context"

	"liyu1981.xyz/coldchain-monitor/pkg/modbus"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

// ModbusProbe reads freezer registers through a per-device connection pool.
type ModbusProbe struct {
	pool *modbus.Pool
}

func NewModbusProbe(pool *modbus.Pool) *ModbusProbe {
	return &ModbusProbe{pool: pool}
}

func ModbusConfig(device *models.Freezer) modbus.Config {
	cfg := modbus.Config{
		Transport: string(device.Transport),
		Timeout:   device.Timeout(),
	}
	switch device.Transport {
	case models.TransportSerial:
		cfg.SerialPort = device.SerialPort
		cfg.BaudRate = device.BaudRate
		cfg.DataBits = device.DataBits
		cfg.StopBits = device.StopBits
		cfg.Parity = device.Parity
	default:
		cfg.Host = device.Host
		cfg.Port = device.Port
	}
	return cfg
}

// Read fetches temperature and humidity in one request when their registers are adjacent.
func (p *ModbusProbe) Read(ctx context.Context, device *models.Freezer) (models.RawSample, error) {
	client := p.pool.Get(device.DeviceID, ModbusConfig(device))

	read := client.ReadHoldingRegisters
	if device.RegisterType == models.RegisterInput {
		read = client.ReadInputRegisters
	}

	var sample models.RawSample
	if !device.HasHumidity() {
		values, err := read(ctx, device.UnitID, device.TemperatureRegister, 1)
		if err != nil {
			return sample, err
		}
		sample.Temperature = values[0]
		return sample, nil
	}

	t, h := device.TemperatureRegister, *device.HumidityRegister
	switch {
	case h == t+1:
		values, err := read(ctx, device.UnitID, t, 2)
		if err != nil {
			return sample, err
		}
		sample.Temperature, sample.Humidity = values[0], &values[1]
	case t == h+1:
		values, err := read(ctx, device.UnitID, h, 2)
		if err != nil {
			return sample, err
		}
		sample.Temperature, sample.Humidity = values[1], &values[0]
	default:
		values, err := read(ctx, device.UnitID, t, 1)
		if err != nil {
			return sample, err
		}
		sample.Temperature = values[0]
		if values, err = read(ctx, device.UnitID, h, 1); err != nil {
			return sample, err
		}
		sample.Humidity = &values[0]
	}
	return sample, nil
}

func (p *ModbusProbe) Release(deviceID string) {
	p.pool.Release(deviceID)
}
