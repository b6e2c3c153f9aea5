// Package circuit implements the circuit breaker pattern used to stop
// hammering a venue once its websocket feed starts failing repeatedly.
package circuit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/spencerjibz/optionbook/internal/apperror"
	"github.com/spencerjibz/optionbook/internal/logger"
)

// State mirrors gobreaker's three states without leaking the dependency
// into call sites.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Breaker wraps a gobreaker.CircuitBreaker for a single venue connection.
type Breaker struct {
	venue   string
	breaker *gobreaker.CircuitBreaker[any]
	config  Config
	log     logger.LoggerInterface

	mutex           sync.RWMutex
	totalRequests   int64
	totalFailures   int64
	totalSuccesses  int64
	lastFailure     time.Time
	lastStateChange time.Time
}

// Config contains circuit breaker configuration.
type Config struct {
	MaxFailures      int // consecutive failures before opening (default: 5)
	SuccessThreshold int // successes required in half-open to close (default: 3)
	OpenTimeout      time.Duration // time spent open before probing again (default: 30s)
	OnStateChange    func(from, to State)
}

// DefaultConfig returns the default circuit breaker configuration.
func DefaultConfig() Config {
	return Config{
		MaxFailures:      5,
		SuccessThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}

// NewBreaker creates a new circuit breaker for the named venue.
func NewBreaker(venue string, cfg Config, log logger.LoggerInterface) *Breaker {
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = DefaultConfig().MaxFailures
	}
	if cfg.SuccessThreshold == 0 {
		cfg.SuccessThreshold = DefaultConfig().SuccessThreshold
	}
	if cfg.OpenTimeout == 0 {
		cfg.OpenTimeout = DefaultConfig().OpenTimeout
	}

	b := &Breaker{
		venue:           venue,
		config:          cfg,
		log:             log,
		lastStateChange: time.Now(),
	}
	b.breaker = newGobreaker(venue, cfg, b.onStateChange)
	return b
}

func newGobreaker(venue string, cfg Config, onStateChange func(from, to gobreaker.State)) *gobreaker.CircuitBreaker[any] {
	settings := gobreaker.Settings{
		Name:        venue + "-breaker",
		MaxRequests: uint32(cfg.SuccessThreshold),
		Interval:    0, // never clear counts on a timer; only ReadyToTrip decides
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(cfg.MaxFailures)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			onStateChange(from, to)
		},
	}
	return gobreaker.NewCircuitBreaker[any](settings)
}

func (b *Breaker) onStateChange(from, to gobreaker.State) {
	b.mutex.Lock()
	b.lastStateChange = time.Now()
	b.mutex.Unlock()

	b.log.Info(context.Background(), "circuit breaker state changed",
		"venue", b.venue, "from", State(from).String(), "to", State(to).String())

	if b.config.OnStateChange != nil {
		b.config.OnStateChange(State(from), State(to))
	}
}

// Execute runs fn through the circuit breaker, returning an AppError with
// CodeCircuitOpen/CodeCircuitHalfOpen when the breaker itself rejected the call.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.breaker.Execute(func() (any, error) {
		return nil, fn()
	})
	return b.classify(err)
}

// ExecuteWithResult runs fn through the circuit breaker and returns its result.
func (b *Breaker) ExecuteWithResult(fn func() (any, error)) (any, error) {
	result, err := b.breaker.Execute(fn)
	return result, b.classify(err)
}

func (b *Breaker) classify(err error) error {
	switch err {
	case nil:
		b.recordSuccess()
		return nil
	case gobreaker.ErrOpenState:
		return apperror.New(apperror.CodeCircuitOpen,
			apperror.WithContext(fmt.Sprintf("venue=%s retry_after=%s", b.venue, b.timeToHalfOpen())))
	case gobreaker.ErrTooManyRequests:
		return apperror.New(apperror.CodeCircuitHalfOpen,
			apperror.WithContext(fmt.Sprintf("venue=%s", b.venue)))
	default:
		b.recordFailure()
		return err
	}
}

// State returns the current circuit breaker state.
func (b *Breaker) State() State {
	switch b.breaker.State() {
	case gobreaker.StateClosed:
		return StateClosed
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	case gobreaker.StateOpen:
		return StateOpen
	default:
		return StateClosed
	}
}

func (b *Breaker) IsOpen() bool     { return b.State() == StateOpen }
func (b *Breaker) IsClosed() bool   { return b.State() == StateClosed }
func (b *Breaker) IsHalfOpen() bool { return b.State() == StateHalfOpen }

func (b *Breaker) timeToHalfOpen() time.Duration {
	if b.State() != StateOpen {
		return 0
	}
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	remaining := b.config.OpenTimeout - time.Since(b.lastStateChange)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Stats returns circuit breaker statistics.
func (b *Breaker) Stats() Stats {
	b.mutex.RLock()
	defer b.mutex.RUnlock()

	return Stats{
		Venue:          b.venue,
		State:          b.State().String(),
		TotalRequests:  b.totalRequests,
		TotalFailures:  b.totalFailures,
		TotalSuccesses: b.totalSuccesses,
		LastFailure:    b.lastFailure,
	}
}

// Stats contains circuit breaker statistics.
type Stats struct {
	Venue          string    `json:"venue"`
	State          string    `json:"state"`
	TotalRequests  int64     `json:"total_requests"`
	TotalFailures  int64     `json:"total_failures"`
	TotalSuccesses int64     `json:"total_successes"`
	LastFailure    time.Time `json:"last_failure"`
}

func (b *Breaker) recordSuccess() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.totalRequests++
	b.totalSuccesses++
}

func (b *Breaker) recordFailure() {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.totalRequests++
	b.totalFailures++
	b.lastFailure = time.Now()
}

// Reset forces the breaker back to closed state. gobreaker has no direct
// reset, so this replaces the underlying breaker with a fresh one.
func (b *Breaker) Reset() {
	b.breaker = newGobreaker(b.venue, b.config, b.onStateChange)

	b.mutex.Lock()
	b.lastStateChange = time.Now()
	b.mutex.Unlock()

	b.log.Info(context.Background(), "circuit breaker reset", "venue", b.venue)
}
