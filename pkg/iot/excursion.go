package iot

import (
	"sync"
	"time"

	"liyu1981.xyz/coldchain-monitor/pkg/models"
)

// Timing holds the hold times that drive one device's state machine.
type Timing struct {
	MinExcursion time.Duration
	// NORMAL-ward hold
	Recovery time.Duration
	// zero disables escalation
	MaxDuration time.Duration
	// consecutive failed polls before an unreachable action, zero disables
	UnreachableAfter int
}

func TimingFor(profile *models.ThresholdProfile, unreachableAfter int) Timing {
	t := Timing{
		MinExcursion:     time.Duration(profile.MinExcursionMinutes) * time.Minute,
		MaxDuration:      time.Duration(profile.MaxDurationMinutes) * time.Minute,
		UnreachableAfter: unreachableAfter,
	}
	t.Recovery = t.MinExcursion
	if profile.RecoveryMinutes != nil {
		t.Recovery = time.Duration(*profile.RecoveryMinutes) * time.Minute
	}
	return t
}

// ExcursionState is the transient per-device debounce state.
type ExcursionState struct {
	CurrentStatus          models.Status `json:"current_status"`
	CandidateStatus        models.Status `json:"candidate_status,omitempty"`
	CandidateSince         *time.Time    `json:"candidate_since,omitempty"`
	ExcursionSince         *time.Time    `json:"excursion_since,omitempty"`
	CorrectiveActionRaised bool          `json:"corrective_action_raised"`
	ConsecutiveFailures    int           `json:"consecutive_failures"`
	UnreachableRaised      bool          `json:"unreachable_raised"`
	LastPollAt             *time.Time    `json:"last_poll_at,omitempty"`
}

func NewExcursionState() ExcursionState {
	return ExcursionState{CurrentStatus: models.StatusNormal}
}

// Decision is what one step of the state machine asks the engine to do.
type Decision struct {
	Committed   bool
	From        models.Status
	To          models.Status
	Escalate    bool
	Unreachable bool
}

// Observe feeds one successful reading's instant status into the state machine.
func (s *ExcursionState) Observe(instant models.Status, now time.Time, timing Timing) Decision {
	var d Decision
	s.LastPollAt = &now
	s.ConsecutiveFailures = 0
	s.UnreachableRaised = false

	if instant == s.CurrentStatus {
		s.CandidateStatus = ""
		s.CandidateSince = nil
	} else {
		if instant != s.CandidateStatus || s.CandidateSince == nil {
			s.CandidateStatus = instant
			s.CandidateSince = &now
		}
		hold := timing.MinExcursion
		if instant == models.StatusNormal {
			hold = timing.Recovery
		}
		if now.Sub(*s.CandidateSince) >= hold {
			d = s.commit()
		}
	}

	d.Escalate = s.dueForEscalation(now, timing)
	return d
}

// Elapse advances the clock for a failed poll. The candidate and the excursion start are left alone.
func (s *ExcursionState) Elapse(now time.Time, timing Timing) Decision {
	s.LastPollAt = &now
	s.ConsecutiveFailures++

	d := Decision{Escalate: s.dueForEscalation(now, timing)}
	if timing.UnreachableAfter > 0 && s.ConsecutiveFailures >= timing.UnreachableAfter && !s.UnreachableRaised {
		d.Unreachable = true
	}
	return d
}

func (s *ExcursionState) commit() Decision {
	d := Decision{Committed: true, From: s.CurrentStatus, To: s.CandidateStatus}

	s.CurrentStatus = s.CandidateStatus
	if s.CurrentStatus == models.StatusNormal {
		s.ExcursionSince = nil
		s.CorrectiveActionRaised = false
	} else if s.ExcursionSince == nil {
		// the excursion began with its first candidate reading
		since := *s.CandidateSince
		s.ExcursionSince = &since
	}
	s.CandidateStatus = ""
	s.CandidateSince = nil
	return d
}

func (s *ExcursionState) dueForEscalation(now time.Time, timing Timing) bool {
	if s.CurrentStatus == models.StatusNormal || s.CorrectiveActionRaised || s.ExcursionSince == nil {
		return false
	}
	if timing.MaxDuration <= 0 {
		return false
	}
	return now.Sub(*s.ExcursionSince) >= timing.MaxDuration
}

// ExcursionTracker holds the state of every device. Each entry is only written by
// that device's own poll, the lock lets readers take consistent copies.
type ExcursionTracker struct {
	mu     sync.RWMutex
	states map[string]*ExcursionState
}

func NewExcursionTracker() *ExcursionTracker {
	return &ExcursionTracker{states: make(map[string]*ExcursionState)}
}

// Update runs fn on the device's state, creating a NORMAL state on first use.
func (t *ExcursionTracker) Update(deviceID string, fn func(*ExcursionState)) ExcursionState {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, exists := t.states[deviceID]
	if !exists {
		initial := NewExcursionState()
		state = &initial
		t.states[deviceID] = state
	}
	fn(state)
	return *state
}

func (t *ExcursionTracker) Get(deviceID string) (ExcursionState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	state, exists := t.states[deviceID]
	if !exists {
		return ExcursionState{}, false
	}
	return *state, true
}

func (t *ExcursionTracker) Set(deviceID string, state ExcursionState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.states[deviceID] = &state
}

func (t *ExcursionTracker) Remove(deviceID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.states, deviceID)
}

func (t *ExcursionTracker) Snapshot() map[string]ExcursionState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]ExcursionState, len(t.states))
	for id, state := range t.states {
		out[id] = *state
	}
	return out
}
