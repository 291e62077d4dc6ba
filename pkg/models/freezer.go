package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var ErrInvalidDescriptor = errors.New("invalid device descriptor")

const (
	RegisterHolding = "holding"
	RegisterInput   = "input"

	DataTypeInt16  = "int16"
	DataTypeUint16 = "uint16"

	DefaultModbusPort             = 502
	DefaultBaudRate               = 9600
	DefaultDataBits               = 8
	DefaultStopBits               = 1
	DefaultParity                 = "none"
	DefaultTimeoutMillis          = 3000
	DefaultPollingIntervalSeconds = 60
)

var parities = map[string]bool{"none": true, "even": true, "odd": true, "mark": true, "space": true}

// Normalize fills defaults for fields left at their zero value.
func (f *Freezer) Normalize() {
	switch f.Transport {
	case TransportTCP:
		if f.Port == 0 {
			f.Port = DefaultModbusPort
		}
	case TransportSerial:
		if f.BaudRate == 0 {
			f.BaudRate = DefaultBaudRate
		}
		if f.DataBits == 0 {
			f.DataBits = DefaultDataBits
		}
		if f.StopBits == 0 {
			f.StopBits = DefaultStopBits
		}
		if f.Parity == "" {
			f.Parity = DefaultParity
		}
	}
	if f.TimeoutMillis == 0 {
		f.TimeoutMillis = DefaultTimeoutMillis
	}
	if f.RegisterType == "" {
		f.RegisterType = RegisterHolding
	}
	if f.DataType == "" {
		f.DataType = DataTypeInt16
	}
	if f.TemperatureScale.IsZero() {
		f.TemperatureScale = decimal.NewFromInt(1)
	}
	if f.HumidityScale.IsZero() {
		f.HumidityScale = decimal.NewFromInt(1)
	}
	if f.PollingIntervalSeconds == 0 {
		f.PollingIntervalSeconds = DefaultPollingIntervalSeconds
	}
}

func (f *Freezer) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: device %q: %s", ErrInvalidDescriptor, f.DeviceID, fmt.Sprintf(format, args...))
	}

	if f.DeviceID == "" {
		return invalid("device id is empty")
	}

	switch f.Transport {
	case TransportTCP:
		if f.Host == "" {
			return invalid("tcp transport requires a host")
		}
		if f.Port <= 0 || f.Port > 65535 {
			return invalid("tcp port %d out of range", f.Port)
		}
	case TransportSerial:
		if f.SerialPort == "" {
			return invalid("serial transport requires a port name")
		}
		if f.BaudRate <= 0 {
			return invalid("baud rate %d must be positive", f.BaudRate)
		}
		if f.DataBits < 5 || f.DataBits > 8 {
			return invalid("data bits %d out of range", f.DataBits)
		}
		if f.StopBits != 1 && f.StopBits != 2 {
			return invalid("stop bits %d must be 1 or 2", f.StopBits)
		}
		if !parities[f.Parity] {
			return invalid("unknown parity %q", f.Parity)
		}
	default:
		return invalid("unknown transport %q", f.Transport)
	}

	if f.UnitID > 247 {
		return invalid("unit id %d out of range", f.UnitID)
	}
	if f.RegisterType != RegisterHolding && f.RegisterType != RegisterInput {
		return invalid("unknown register type %q", f.RegisterType)
	}
	if f.DataType != DataTypeInt16 && f.DataType != DataTypeUint16 {
		return invalid("unknown data type %q", f.DataType)
	}
	if f.HumidityRegister != nil && *f.HumidityRegister == f.TemperatureRegister {
		return invalid("humidity and temperature share register %d", f.TemperatureRegister)
	}
	if f.PollingIntervalSeconds <= 0 {
		return invalid("polling interval must be positive")
	}
	if f.TimeoutMillis <= 0 {
		return invalid("timeout must be positive")
	}
	if f.MinExcursionMinutes < 0 || f.MaxDurationMinutes < 0 {
		return invalid("hold times must not be negative")
	}
	return nil
}

func (f *Freezer) HasHumidity() bool {
	return f.HumidityRegister != nil
}

func (f *Freezer) Timeout() time.Duration {
	return time.Duration(f.TimeoutMillis) * time.Millisecond
}
