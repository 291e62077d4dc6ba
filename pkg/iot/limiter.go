package iot

import (
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterStore holds one token bucket per device for the operator API.
type RateLimiterStore struct {
	limiters     map[string]*rate.Limiter
	mu           sync.Mutex
	defaultRate  rate.Limit
	defaultBurst int
}

func NewRateLimiterStore(defaultRate rate.Limit, defaultBurst int) *RateLimiterStore {
	return &RateLimiterStore{
		limiters:     make(map[string]*rate.Limiter),
		defaultRate:  defaultRate,
		defaultBurst: defaultBurst,
	}
}

func (s *RateLimiterStore) GetLimiter(deviceID string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	limiter, exists := s.limiters[deviceID]
	if !exists {
		limiter = rate.NewLimiter(s.defaultRate, s.defaultBurst)
		s.limiters[deviceID] = limiter
	}
	return limiter
}

// SetLimiter retunes an existing bucket in place so callers holding it see the new limit.
func (s *RateLimiterStore) SetLimiter(deviceID string, deviceRate rate.Limit, deviceBurst int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limiter, exists := s.limiters[deviceID]; exists {
		limiter.SetLimit(deviceRate)
		limiter.SetBurst(deviceBurst)
		return
	}
	s.limiters[deviceID] = rate.NewLimiter(deviceRate, deviceBurst)
}

func (s *RateLimiterStore) Allow(deviceID string) bool {
	return s.GetLimiter(deviceID).Allow()
}

// Remove forgets a deleted device's bucket.
func (s *RateLimiterStore) Remove(deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.limiters, deviceID)
}
