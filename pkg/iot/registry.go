package iot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

// Registry holds the configuration snapshot that poll tasks read from, and pushes
// every new snapshot to the engine and the scheduler.
type Registry struct {
	device    IDevice
	engine    *Engine
	scheduler *Scheduler

	refreshMu sync.Mutex
	mu        sync.RWMutex
	devices   map[string]models.Freezer
}

// NewRegistry accepts a nil engine or scheduler, the snapshot is then only kept locally.
func NewRegistry(device IDevice, engine *Engine, scheduler *Scheduler) *Registry {
	return &Registry{
		device:    device,
		engine:    engine,
		scheduler: scheduler,
		devices:   make(map[string]models.Freezer),
	}
}

// Refresh pulls devices and thresholds and applies the difference.
func (r *Registry) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	logger := common.GetCategoryLogger(common.LoggerCategoryRegistry)

	devices, err := r.device.ListDevices()
	if err != nil {
		return err
	}
	if r.engine != nil {
		if err := r.engine.RefreshThresholds(); err != nil {
			return err
		}
	}

	next := make(map[string]models.Freezer, len(devices))
	for _, d := range devices {
		next[d.DeviceID] = d
	}

	r.mu.Lock()
	previous := r.devices
	r.devices = next
	r.mu.Unlock()

	added, removed, changed := 0, 0, 0
	for id, d := range next {
		old, existed := previous[id]
		switch {
		case !existed:
			added++
		case !old.UpdatedAt.Equal(d.UpdatedAt) || old.Active != d.Active:
			changed++
		}
	}
	for id, old := range previous {
		d, exists := next[id]
		// with a scheduler the state is dropped once the device's last poll is done
		if r.engine != nil && r.scheduler == nil && old.Active && (!exists || !d.Active) {
			r.engine.Forget(id)
		}
		if !exists {
			removed++
		}
	}

	if r.scheduler != nil {
		r.scheduler.Sync(devices)
	}

	if added+removed+changed > 0 {
		active := common.Reducer(devices, func(n int, d models.Freezer) int {
			if d.Active {
				return n + 1
			}
			return n
		}, 0)
		logger.Info("Registry refreshed",
			zap.Int("devices", len(next)),
			zap.Int("active", active),
			zap.Int("added", added),
			zap.Int("removed", removed),
			zap.Int("changed", changed))
	}
	return nil
}

func (r *Registry) Snapshot() []models.Freezer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	devices := make([]models.Freezer, 0, len(r.devices))
	for _, d := range r.devices {
		devices = append(devices, d)
	}
	return devices
}

func (r *Registry) Get(deviceID string) (models.Freezer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.devices[deviceID]
	return d, ok
}

// Run refreshes on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, every time.Duration) {
	logger := common.GetCategoryLogger(common.LoggerCategoryRegistry)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				logger.Error("Registry refresh failed", zap.Error(err))
			}
		}
	}
}
