package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"liyu1981.xyz/coldchain-monitor/pkg/iot"
	"liyu1981.xyz/coldchain-monitor/pkg/models"

	z "github.com/Oudwins/zog"
	"github.com/Oudwins/zog/zhttp"
)

const defaultReadingsLimit = 100

type BoundsRequest struct {
	TemperatureWarningMin  decimal.NullDecimal `json:"temperature_warning_min"`
	TemperatureWarningMax  decimal.NullDecimal `json:"temperature_warning_max"`
	TemperatureCriticalMin decimal.NullDecimal `json:"temperature_critical_min"`
	TemperatureCriticalMax decimal.NullDecimal `json:"temperature_critical_max"`
	HumidityWarningMin     decimal.NullDecimal `json:"humidity_warning_min"`
	HumidityWarningMax     decimal.NullDecimal `json:"humidity_warning_max"`
	HumidityCriticalMin    decimal.NullDecimal `json:"humidity_critical_min"`
	HumidityCriticalMax    decimal.NullDecimal `json:"humidity_critical_max"`
}

func (b BoundsRequest) toBounds() models.Bounds {
	return models.Bounds{
		TemperatureWarningMin:  b.TemperatureWarningMin,
		TemperatureWarningMax:  b.TemperatureWarningMax,
		TemperatureCriticalMin: b.TemperatureCriticalMin,
		TemperatureCriticalMax: b.TemperatureCriticalMax,
		HumidityWarningMin:     b.HumidityWarningMin,
		HumidityWarningMax:     b.HumidityWarningMax,
		HumidityCriticalMin:    b.HumidityCriticalMin,
		HumidityCriticalMax:    b.HumidityCriticalMax,
	}
}

type DeviceConfigRequest struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	Transport     string `json:"transport"`
	Host          string `json:"host"`
	Port          int    `json:"port"`
	SerialPort    string `json:"serial_port"`
	BaudRate      int    `json:"baud_rate"`
	DataBits      int    `json:"data_bits"`
	StopBits      int    `json:"stop_bits"`
	Parity        string `json:"parity"`
	UnitID        int    `json:"unit_id"`
	TimeoutMillis int    `json:"timeout_millis"`

	RegisterType        string `json:"register_type"`
	DataType            string `json:"data_type"`
	TemperatureRegister int    `json:"temperature_register"`
	HumidityRegister    *int   `json:"humidity_register"`

	TemperatureScale  decimal.NullDecimal `json:"temperature_scale"`
	TemperatureOffset decimal.NullDecimal `json:"temperature_offset"`
	HumidityScale     decimal.NullDecimal `json:"humidity_scale"`
	HumidityOffset    decimal.NullDecimal `json:"humidity_offset"`

	TargetTemperature      decimal.NullDecimal `json:"target_temperature"`
	Fallback               BoundsRequest       `json:"fallback"`
	MinExcursionMinutes    int                 `json:"min_excursion_minutes"`
	MaxDurationMinutes     int                 `json:"max_duration_minutes"`
	PollingIntervalSeconds int                 `json:"polling_interval_seconds"`
	Active                 *bool               `json:"active"`
}

var deviceConfigRequestSchema = z.Struct(z.Shape{
	"Transport":              z.String().Required(),
	"Port":                   z.Int().GTE(0).LTE(65535),
	"UnitID":                 z.Int().GTE(0).LTE(247),
	"TimeoutMillis":          z.Int().GTE(0),
	"TemperatureRegister":    z.Int().GTE(0).LTE(65535),
	"MinExcursionMinutes":    z.Int().GTE(0),
	"MaxDurationMinutes":     z.Int().GTE(0),
	"PollingIntervalSeconds": z.Int().GTE(0),
})

func (req *DeviceConfigRequest) toFreezer(deviceID string) (*models.Freezer, error) {
	device := &models.Freezer{
		DeviceID:               deviceID,
		Name:                   req.Name,
		Location:               req.Location,
		Transport:              models.TransportType(req.Transport),
		Host:                   req.Host,
		Port:                   req.Port,
		SerialPort:             req.SerialPort,
		BaudRate:               req.BaudRate,
		DataBits:               req.DataBits,
		StopBits:               req.StopBits,
		Parity:                 req.Parity,
		UnitID:                 uint8(req.UnitID),
		TimeoutMillis:          req.TimeoutMillis,
		RegisterType:           req.RegisterType,
		DataType:               req.DataType,
		TemperatureRegister:    uint16(req.TemperatureRegister),
		TemperatureScale:       req.TemperatureScale.Decimal,
		TemperatureOffset:      req.TemperatureOffset.Decimal,
		HumidityScale:          req.HumidityScale.Decimal,
		HumidityOffset:         req.HumidityOffset.Decimal,
		TargetTemperature:      req.TargetTemperature,
		Fallback:               req.Fallback.toBounds(),
		MinExcursionMinutes:    req.MinExcursionMinutes,
		MaxDurationMinutes:     req.MaxDurationMinutes,
		PollingIntervalSeconds: req.PollingIntervalSeconds,
		Active:                 true,
	}
	if req.HumidityRegister != nil {
		if *req.HumidityRegister < 0 || *req.HumidityRegister > 65535 {
			return nil, errors.New("humidity_register out of range")
		}
		register := uint16(*req.HumidityRegister)
		device.HumidityRegister = &register
	}
	if req.Active != nil {
		device.Active = *req.Active
	}
	return device, nil
}

func (rs *RestfulServer) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (rs *RestfulServer) ListDevices(c *gin.Context) {
	devices, err := rs.Iot.Device.ListDevices()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, devices)
}

func (rs *RestfulServer) GetDevice(c *gin.Context) {
	device, err := rs.Iot.Device.GetDevice(c.Param("device_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, device)
}

func (rs *RestfulServer) UpdateConfig(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req DeviceConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if errs := deviceConfigRequestSchema.Validate(&req); errs != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errs})
		return
	}

	device, err := req.toFreezer(deviceID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	// a config update without "active" leaves a paused device paused
	if req.Active == nil {
		if existing, err := rs.Iot.Device.GetDevice(deviceID); err == nil {
			device.Active = existing.Active
		}
	}

	if err := rs.Iot.Device.UpsertDevice(device); err != nil {
		respondError(c, err)
		return
	}
	rs.refresh(c.Request.Context())

	c.JSON(http.StatusOK, device)
}

func (rs *RestfulServer) DeleteDevice(c *gin.Context) {
	deviceID := c.Param("device_id")

	if err := rs.Iot.Device.DeleteDevice(deviceID); err != nil {
		respondError(c, err)
		return
	}
	if rs.RateLimiterStore != nil {
		rs.RateLimiterStore.Remove(deviceID)
	}
	rs.refresh(c.Request.Context())

	c.Status(http.StatusOK)
}

type ActiveRequest struct {
	Active *bool `json:"active"`
}

func (rs *RestfulServer) SetActive(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req ActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "active must be true or false"})
		return
	}

	if err := rs.Iot.Device.SetActive(deviceID, *req.Active); err != nil {
		respondError(c, err)
		return
	}
	rs.refresh(c.Request.Context())

	c.Status(http.StatusOK)
}

func (rs *RestfulServer) GetReadings(c *gin.Context) {
	deviceID := c.Param("device_id")

	limit := defaultReadingsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > iot.MaxReadingsPage {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(iot.MaxReadingsPage)})
			return
		}
		limit = n
	}

	readings, err := rs.Iot.Reading.GetDeviceReadings(deviceID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, readings)
}

// GetState returns the live debounce state. A device that has not been polled yet is NORMAL.
func (rs *RestfulServer) GetState(c *gin.Context) {
	deviceID := c.Param("device_id")

	if _, err := rs.Iot.Device.GetDevice(deviceID); err != nil {
		respondError(c, err)
		return
	}

	state := iot.NewExcursionState()
	if rs.Engine != nil {
		if tracked, ok := rs.Engine.Tracker().Get(deviceID); ok {
			state = tracked
		}
	}
	c.JSON(http.StatusOK, state)
}

type LimiterRequest struct {
	Rate  float64 `json:"rate"`
	Burst int     `json:"burst"`
}

var limiterRequestSchema = z.Struct(z.Shape{
	"rate":  z.Float64().Required(),
	"burst": z.Int().Required(),
})

func (rs *RestfulServer) PostLimiter(c *gin.Context) {
	deviceID := c.Param("device_id")

	var req LimiterRequest
	if err := limiterRequestSchema.Parse(zhttp.Request(c.Request), &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err})
		return
	}

	rs.SetLimiter(deviceID, req.Rate, req.Burst)

	c.Status(http.StatusOK)
}
