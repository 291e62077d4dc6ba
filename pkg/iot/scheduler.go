package iot

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	z "github.com/Oudwins/zog"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"liyu1981.xyz/coldchain-monitor/pkg/common"
	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

const DefaultMaxWorkers = 64

// Poller runs one poll cycle for a device.
type Poller interface {
	PollOnce(ctx context.Context, device *models.Freezer) (*models.Reading, error)
}

type SchedulerOptions struct {
	MaxWorkers int
	// PollingIntervalSeconds is multiplied by this, time.Second when zero
	IntervalUnit time.Duration
	// OnRemoved runs once a removed device's timer has stopped and its last poll has finished
	OnRemoved func(deviceID string)
}

var schedulerOptionsSchema = z.Struct(z.Shape{
	"MaxWorkers": z.Int().GT(0),
})

// Scheduler keeps one timer per active device and runs polls on a bounded worker pool.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	poller Poller
	probe  IProbe
	sem    *semaphore.Weighted
	unit   time.Duration

	onRemoved func(deviceID string)

	mu    sync.Mutex
	tasks map[string]*deviceTask
	// removed tasks whose last poll may still be running
	stopping map[string]*deviceTask
	wg       sync.WaitGroup

	dropped atomic.Int64
}

type deviceTask struct {
	device   atomic.Pointer[models.Freezer]
	interval time.Duration
	cancel   context.CancelFunc
	inFlight atomic.Bool
	reset    chan time.Duration
	done     chan struct{}
}

// NewScheduler starts an empty scheduler. probe may be nil, otherwise the device's
// connection is released once its timer stops.
func NewScheduler(ctx context.Context, poller Poller, probe IProbe, opts SchedulerOptions) (*Scheduler, error) {
	if opts.MaxWorkers == 0 {
		opts.MaxWorkers = DefaultMaxWorkers
	}
	if errs := schedulerOptionsSchema.Validate(&opts); errs != nil {
		return nil, fmt.Errorf("%w: scheduler options: %v", ErrConfiguration, errs)
	}
	if opts.IntervalUnit <= 0 {
		opts.IntervalUnit = time.Second
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		ctx:       ctx,
		cancel:    cancel,
		poller:    poller,
		probe:     probe,
		sem:       semaphore.NewWeighted(int64(opts.MaxWorkers)),
		unit:      opts.IntervalUnit,
		onRemoved: opts.OnRemoved,
		tasks:     make(map[string]*deviceTask),
		stopping:  make(map[string]*deviceTask),
	}, nil
}

// Sync makes the set of running timers match the active devices. Changes apply
// from the next tick; a poll already in flight keeps the descriptor it started with.
func (s *Scheduler) Sync(devices []models.Freezer) {
	logger := common.GetCategoryLogger(common.LoggerCategoryScheduler)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctx.Err() != nil {
		return
	}

	wanted := make(map[string]models.Freezer, len(devices))
	for _, d := range devices {
		if d.Active {
			wanted[d.DeviceID] = d
		}
	}

	for id, task := range s.tasks {
		if _, keep := wanted[id]; !keep {
			task.cancel()
			delete(s.tasks, id)
			s.stopping[id] = task
			logger.Info("Stopped device timer", zap.String("device_id", id))
		}
	}

	for id, d := range wanted {
		device := d
		interval := s.intervalOf(&device)

		task, running := s.tasks[id]
		if !running {
			s.start(&device, interval)
			logger.Info("Started device timer", zap.String("device_id", id), zap.Duration("interval", interval))
			continue
		}

		task.device.Store(&device)
		if interval != task.interval {
			task.interval = interval
			// keep only the newest pending interval
			select {
			case <-task.reset:
			default:
			}
			task.reset <- interval
			logger.Info("Changed device interval", zap.String("device_id", id), zap.Duration("interval", interval))
		}
	}
}

func (s *Scheduler) intervalOf(device *models.Freezer) time.Duration {
	seconds := device.PollingIntervalSeconds
	if seconds <= 0 {
		seconds = models.DefaultPollingIntervalSeconds
	}
	return time.Duration(seconds) * s.unit
}

func (s *Scheduler) start(device *models.Freezer, interval time.Duration) {
	ctx, cancel := context.WithCancel(s.ctx)
	task := &deviceTask{
		interval: interval,
		cancel:   cancel,
		reset:    make(chan time.Duration, 1),
		done:     make(chan struct{}),
	}
	task.device.Store(device)
	s.tasks[device.DeviceID] = task

	prev := s.stopping[device.DeviceID]
	delete(s.stopping, device.DeviceID)

	s.wg.Add(1)
	go s.run(ctx, device.DeviceID, task, prev)
}

func (s *Scheduler) run(ctx context.Context, deviceID string, task *deviceTask, prev *deviceTask) {
	defer s.wg.Done()

	var inFlight sync.WaitGroup
	defer func() {
		// the last poll finishes on its own before the connection goes away
		inFlight.Wait()
		// on shutdown the state stays readable until the process exits
		if s.onRemoved != nil && s.ctx.Err() == nil {
			s.onRemoved(deviceID)
		}
		if s.probe != nil {
			s.probe.Release(deviceID)
		}
		close(task.done)

		s.mu.Lock()
		if s.stopping[deviceID] == task {
			delete(s.stopping, deviceID)
		}
		s.mu.Unlock()
	}()

	// a device removed and added again waits for its previous timer to wind down
	if prev != nil {
		select {
		case <-prev.done:
		case <-ctx.Done():
			return
		}
	}

	ticker := time.NewTicker(task.interval)
	defer ticker.Stop()

	s.dispatch(ctx, deviceID, task, &inFlight)
	for {
		select {
		case <-ctx.Done():
			return
		case interval := <-task.reset:
			ticker.Reset(interval)
		case <-ticker.C:
			s.dispatch(ctx, deviceID, task, &inFlight)
		}
	}
}

// dispatch starts a poll unless one is still running for the device or the pool is full.
// Either way a skipped tick is dropped, never queued.
func (s *Scheduler) dispatch(ctx context.Context, deviceID string, task *deviceTask, inFlight *sync.WaitGroup) {
	logger := common.GetCategoryLogger(common.LoggerCategoryScheduler, zap.String("device_id", deviceID))

	if !task.inFlight.CompareAndSwap(false, true) {
		s.dropped.Add(1)
		logger.Debug("Tick dropped", zap.String("reason", "poll in flight"))
		return
	}
	if !s.sem.TryAcquire(1) {
		task.inFlight.Store(false)
		s.dropped.Add(1)
		logger.Warn("Tick dropped", zap.String("reason", "worker pool exhausted"))
		return
	}

	device := task.device.Load()
	inFlight.Add(1)
	go func() {
		defer inFlight.Done()
		defer task.inFlight.Store(false)
		defer s.sem.Release(1)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Poll panicked", zap.Any("panic", r))
			}
		}()

		// removal does not abort a transport call half way
		if _, err := s.poller.PollOnce(context.WithoutCancel(ctx), device); err != nil {
			logger.Debug("Poll returned error", zap.Error(err))
		}
	}()
}

// Running lists the devices that currently have a timer.
func (s *Scheduler) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.tasks))
	for id := range s.tasks {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *Scheduler) DroppedTicks() int64 {
	return s.dropped.Load()
}

// Stop cancels every timer and waits for in-flight polls to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.cancel()
	s.tasks = make(map[string]*deviceTask)
	s.mu.Unlock()

	s.wg.Wait()
}
