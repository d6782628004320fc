package utils

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreaker sheds load on a flapping upstream. It wraps the PIX
// provider status polls: while the provider is down the breaker fails
// polls immediately and the stored payment status is served instead.
type CircuitBreaker struct {
	name         string
	maxRequests  uint32
	interval     time.Duration
	timeout      time.Duration
	failureRatio float64

	mutex      sync.Mutex
	state      breakerState
	requests   uint32
	failures   uint32
	generation uint64
	expiry     time.Time
}

type breakerState int

const (
	stateClosed breakerState = iota
	stateHalfOpen
	stateOpen
)

type BreakerSettings struct {
	// MaxRequests is the probe budget while half-open.
	MaxRequests uint32
	// Interval is the closed-state counting window.
	Interval time.Duration
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration
	// FailureRatio trips the breaker once at least MaxRequests requests
	// in the window failed at this rate.
	FailureRatio float64
}

func NewCircuitBreaker(name string, s BreakerSettings) *CircuitBreaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 5
	}
	if s.Interval == 0 {
		s.Interval = 60 * time.Second
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.FailureRatio == 0 {
		s.FailureRatio = 0.6
	}

	return &CircuitBreaker{
		name:         name,
		maxRequests:  s.MaxRequests,
		interval:     s.Interval,
		timeout:      s.Timeout,
		failureRatio: s.FailureRatio,
		state:        stateClosed,
	}
}

// Execute runs fn unless the breaker is open. fn's error feeds the
// failure counters.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	generation, err := cb.beforeRequest()
	if err != nil {
		return err
	}

	err = fn()
	cb.afterRequest(generation, err == nil)
	return err
}

func (cb *CircuitBreaker) beforeRequest() (uint64, error) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := time.Now()
	state := cb.currentState(now)

	if state == stateOpen {
		return cb.generation, ErrCircuitOpen
	}
	if state == stateHalfOpen && cb.requests >= cb.maxRequests {
		return cb.generation, ErrCircuitOpen
	}

	cb.requests++
	return cb.generation, nil
}

func (cb *CircuitBreaker) afterRequest(before uint64, success bool) {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := time.Now()
	if cb.currentState(now) == stateOpen || cb.generation != before {
		return
	}

	if success {
		if cb.state == stateHalfOpen {
			cb.toState(stateClosed, now)
		}
		return
	}

	cb.failures++
	if cb.state == stateHalfOpen || cb.readyToTrip() {
		cb.toState(stateOpen, now)
	}
}

func (cb *CircuitBreaker) readyToTrip() bool {
	return cb.requests >= cb.maxRequests &&
		float64(cb.failures)/float64(cb.requests) >= cb.failureRatio
}

// currentState advances window/timeout transitions before reporting.
func (cb *CircuitBreaker) currentState(now time.Time) breakerState {
	switch cb.state {
	case stateClosed:
		if !cb.expiry.IsZero() && cb.expiry.Before(now) {
			cb.newGeneration(now)
		}
	case stateOpen:
		if cb.expiry.Before(now) {
			cb.toState(stateHalfOpen, now)
		}
	}
	return cb.state
}

func (cb *CircuitBreaker) toState(s breakerState, now time.Time) {
	cb.state = s
	cb.newGeneration(now)
}

func (cb *CircuitBreaker) newGeneration(now time.Time) {
	cb.generation++
	cb.requests = 0
	cb.failures = 0

	switch cb.state {
	case stateClosed:
		cb.expiry = now.Add(cb.interval)
	case stateOpen:
		cb.expiry = now.Add(cb.timeout)
	default:
		cb.expiry = time.Time{}
	}
}
