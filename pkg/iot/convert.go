package iot

import (
	"github.com/shopspring/decimal"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

// Sample is one poll's values after decoding and calibration.
type Sample struct {
	RawTemperature int64
	RawHumidity    *int64
	Temperature    decimal.Decimal
	Humidity       decimal.NullDecimal
}

// DecodeRaw interprets a register word according to the device data type.
func DecodeRaw(word uint16, dataType string) int64 {
	if dataType == models.DataTypeUint16 {
		return int64(word)
	}
	return int64(int16(word))
}

// Calibrate returns raw*scale+offset without intermediate rounding.
func Calibrate(raw int64, scale, offset decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(raw).Mul(scale).Add(offset)
}

func Convert(device *models.Freezer, raw models.RawSample) Sample {
	s := Sample{RawTemperature: DecodeRaw(raw.Temperature, device.DataType)}
	s.Temperature = Calibrate(s.RawTemperature, device.TemperatureScale, device.TemperatureOffset)
	if raw.Humidity != nil {
		h := DecodeRaw(*raw.Humidity, device.DataType)
		s.RawHumidity = &h
		s.Humidity = decimal.NewNullDecimal(Calibrate(h, device.HumidityScale, device.HumidityOffset))
	}
	return s
}

func decimalOf(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(d)
}
