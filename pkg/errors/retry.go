package errors

import (
	"context"
	cryptorand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"
)

// RetryConfig holds configuration for retry logic
type RetryConfig struct {
	MaxRetries     int
	InitialDelay   time.Duration
	MaxDelay       time.Duration
	Multiplier     float64
	Jitter         bool
	RetryableError func(error) bool
	// OnRetry is called before each wait with the failed attempt number (1-based).
	OnRetry func(attempt int, delay time.Duration, err error)
}

// DefaultRetryConfig returns a default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:   3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
		RetryableError: func(err error) bool {
			if IsRecoverable(err) {
				return true
			}

			switch GetErrorCode(err) {
			case ErrCodeFetchTimeout, ErrCodeUpstreamUnavailable:
				return true
			default:
				return false
			}
		},
	}
}

// RetryableFunc represents a function that can be retried
type RetryableFunc func(ctx context.Context) error

// Retry executes fn until it succeeds, returns a non-retryable error, or
// runs out of attempts.
func Retry(ctx context.Context, config *RetryConfig, fn RetryableFunc) error {
	if config == nil {
		config = DefaultRetryConfig()
	}
	retryable := config.RetryableError
	if retryable == nil {
		retryable = DefaultRetryConfig().RetryableError
	}

	var lastErr error

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err

		if !retryable(err) {
			return err
		}

		if attempt == config.MaxRetries {
			break
		}

		delay := calculateDelay(attempt, config)
		if config.OnRetry != nil {
			config.OnRetry(attempt+1, delay, err)
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return Wrap(lastErr, ErrCodeMaxRetriesExceeded,
		fmt.Sprintf("Operation failed after %d attempts", config.MaxRetries+1)).
		WithSeverity(SeverityError)
}

func calculateDelay(attempt int, config *RetryConfig) time.Duration {
	multiplier := config.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	delay := float64(config.InitialDelay) * math.Pow(multiplier, float64(attempt))

	if config.MaxDelay > 0 && delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}

	if config.Jitter {
		var b [8]byte
		_, _ = cryptorand.Read(b[:])
		randomFloat := float64(binary.LittleEndian.Uint64(b[:])) / float64(^uint64(0))
		delay += randomFloat * 0.3 * delay // up to 30%
	}

	return time.Duration(delay)
}

// CircuitBreaker stops calling a failing dependency for a cool-down period.
// It is safe for concurrent use.
type CircuitBreaker struct {
	name         string
	maxFailures  int
	resetTimeout time.Duration

	mu           sync.Mutex
	failures     int
	state        CircuitState
	stateChanged time.Time
}

// CircuitState represents the state of a circuit breaker
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

// NewCircuitBreaker creates a new circuit breaker
func NewCircuitBreaker(name string, maxFailures int, resetTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:         name,
		maxFailures:  maxFailures,
		resetTimeout: resetTimeout,
		state:        StateClosed,
		stateChanged: time.Now(),
	}
}

// Execute runs fn unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.checkState(); err != nil {
		return err
	}

	err := fn(ctx)
	cb.recordResult(err)
	return err
}

func (cb *CircuitBreaker) checkState() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != StateOpen {
		return nil
	}
	if time.Since(cb.stateChanged) > cb.resetTimeout {
		cb.setState(StateHalfOpen)
		return nil
	}
	return New(ErrCodeUpstreamUnavailable,
		fmt.Sprintf("Circuit breaker '%s' is open", cb.name)).
		WithContext("failures", cb.failures).
		WithContext("will_retry_at", cb.stateChanged.Add(cb.resetTimeout).Format(time.RFC3339)).
		WithSuggestions("Wait for the upstream service to recover")
}

func (cb *CircuitBreaker) recordResult(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if err == nil {
		if cb.state == StateHalfOpen || cb.failures > 0 {
			cb.failures = 0
			cb.setState(StateClosed)
		}
		return
	}

	cb.failures++
	if cb.state == StateHalfOpen || cb.failures >= cb.maxFailures {
		cb.setState(StateOpen)
	}
}

func (cb *CircuitBreaker) setState(state CircuitState) {
	cb.state = state
	cb.stateChanged = time.Now()
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() string {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}
