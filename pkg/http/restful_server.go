package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/iot"
)

type RestfulServer struct {
	Server           *gin.Engine
	Iot              *iot.IOT
	RateLimiterStore *iot.RateLimiterStore
	// Engine serves the live excursion state; nil when only configuration is exposed.
	Engine *iot.Engine
	// Registry is refreshed after every configuration change so the scheduler picks it up.
	Registry *iot.Registry
}

func (rs *RestfulServer) GetLimiter(deviceID string) *rate.Limiter {
	if rs.RateLimiterStore == nil {
		return nil
	} else {
		return rs.RateLimiterStore.GetLimiter(deviceID)
	}
}

func (rs *RestfulServer) CheckDeviceLimiter(deviceID string) bool {
	limiter := rs.GetLimiter(deviceID)
	if limiter == nil {
		return true
	}
	return limiter.Allow()
}

func (rs *RestfulServer) SetLimiter(deviceID string, deviceRate float64, deviceBurst int) {
	if rs.RateLimiterStore == nil {
		return
	}
	rs.RateLimiterStore.SetLimiter(deviceID, rate.Limit(deviceRate), deviceBurst)
}

// limitDevice rejects a device-scoped request once the device's bucket is empty.
func (rs *RestfulServer) limitDevice(c *gin.Context) {
	if !rs.CheckDeviceLimiter(c.Param("device_id")) {
		c.AbortWithStatus(http.StatusTooManyRequests)
		return
	}
	c.Next()
}

// refresh pushes a configuration change to the running monitor. A failure leaves the
// change stored; the periodic refresh retries it.
func (rs *RestfulServer) refresh(ctx context.Context) {
	if rs.Registry == nil {
		return
	}
	if err := rs.Registry.Refresh(ctx); err != nil {
		common.GetLoggerWith(common.LoggerNameRestfulServer).Error("Registry refresh after change failed", zap.Error(err))
	}
}

func (rs *RestfulServer) Setup() {
	rs.Server.GET("/healthz", rs.HealthCheck)

	rs.Server.GET("/devices", rs.ListDevices)
	// the limiter itself is never rate limited
	rs.Server.POST("/devices/:device_id/limiter", rs.PostLimiter)

	devices := rs.Server.Group("/devices/:device_id", rs.limitDevice)
	{
		devices.GET("", rs.GetDevice)
		devices.POST("/config", rs.UpdateConfig)
		devices.DELETE("", rs.DeleteDevice)
		devices.POST("/active", rs.SetActive)
		devices.GET("/readings", rs.GetReadings)
		devices.GET("/state", rs.GetState)
		devices.GET("/assignments", rs.ListAssignments)
		devices.POST("/assignments", rs.AssignProfile)
		devices.GET("/actions", rs.GetActions)
		devices.POST("/actions", rs.PostAction)
	}

	rs.Server.POST("/assignments/:id/end", rs.EndAssignment)

	profiles := rs.Server.Group("/profiles")
	{
		profiles.POST("", rs.CreateProfile)
		profiles.GET("/:profile_id", rs.GetProfile)
		profiles.PUT("/:profile_id", rs.UpdateProfile)
	}

	actions := rs.Server.Group("/actions/:action_id")
	{
		actions.GET("", rs.GetAction)
		actions.POST("/start", rs.StartAction)
		actions.POST("/complete", rs.CompleteAction)
		actions.POST("/cancel", rs.CancelAction)
		actions.POST("/retract", rs.RetractAction)
		actions.POST("/edit", rs.EditAction)
	}
}
