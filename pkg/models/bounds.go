package models

import "github.com/shopspring/decimal"

// Range is an inclusive [Min, Max] interval; a missing bound is unbounded.
type Range struct {
	Min decimal.NullDecimal
	Max decimal.NullDecimal
}

func (r Range) IsSet() bool {
	return r.Min.Valid || r.Max.Valid
}

func (r Range) Contains(v decimal.Decimal) bool {
	if r.Min.Valid && v.LessThan(r.Min.Decimal) {
		return false
	}
	if r.Max.Valid && v.GreaterThan(r.Max.Decimal) {
		return false
	}
	return true
}

// Bounds are the warning and critical ranges for both channels.
type Bounds struct {
	TemperatureWarningMin  decimal.NullDecimal `gorm:"type:varchar(32)"`
	TemperatureWarningMax  decimal.NullDecimal `gorm:"type:varchar(32)"`
	TemperatureCriticalMin decimal.NullDecimal `gorm:"type:varchar(32)"`
	TemperatureCriticalMax decimal.NullDecimal `gorm:"type:varchar(32)"`
	HumidityWarningMin     decimal.NullDecimal `gorm:"type:varchar(32)"`
	HumidityWarningMax     decimal.NullDecimal `gorm:"type:varchar(32)"`
	HumidityCriticalMin    decimal.NullDecimal `gorm:"type:varchar(32)"`
	HumidityCriticalMax    decimal.NullDecimal `gorm:"type:varchar(32)"`
}

func (b Bounds) TemperatureWarning() Range {
	return Range{Min: b.TemperatureWarningMin, Max: b.TemperatureWarningMax}
}

func (b Bounds) TemperatureCritical() Range {
	return Range{Min: b.TemperatureCriticalMin, Max: b.TemperatureCriticalMax}
}

func (b Bounds) HumidityWarning() Range {
	return Range{Min: b.HumidityWarningMin, Max: b.HumidityWarningMax}
}

func (b Bounds) HumidityCritical() Range {
	return Range{Min: b.HumidityCriticalMin, Max: b.HumidityCriticalMax}
}

func (b Bounds) HasTemperature() bool {
	return b.TemperatureWarning().IsSet() || b.TemperatureCritical().IsSet()
}

func (b Bounds) HasHumidity() bool {
	return b.HumidityWarning().IsSet() || b.HumidityCritical().IsSet()
}

// Dec is shorthand for a set NullDecimal, mostly used when building configuration in code.
func Dec(v float64) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}
