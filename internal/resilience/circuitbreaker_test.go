package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(cfg CircuitBreakerConfig) (*CircuitBreaker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 10, 18, 9, 15, 0, 0, time.UTC)}
	cb := NewCircuitBreaker("test", cfg)
	cb.now = clock.now
	return cb, clock
}

func fail() error { return errBackend }
func ok() error   { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, Timeout: time.Minute})

	for i := 0; i < 2; i++ {
		assert.ErrorIs(t, cb.Execute(fail), errBackend)
		assert.Equal(t, CircuitClosed, cb.State())
	}
	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CircuitOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)

	stats := cb.Stats()
	assert.Equal(t, int64(4), stats.TotalRequests)
	assert.Equal(t, int64(3), stats.TotalFailures)
	assert.Equal(t, int64(1), stats.TotalRejected)
	assert.InDelta(t, 75.0, stats.FailureRate(), 1e-9)
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, Timeout: time.Minute})

	_ = cb.Execute(fail)
	require.NoError(t, cb.Execute(ok))
	_ = cb.Execute(fail)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Minute})

	var transitions []CircuitState
	cb.OnStateChange(func(_, to CircuitState) { transitions = append(transitions, to) })

	_ = cb.Execute(fail)
	require.Equal(t, CircuitOpen, cb.State())

	clock.advance(30 * time.Second)
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)

	clock.advance(31 * time.Second)
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, CircuitHalfOpen, cb.State())
	require.NoError(t, cb.Execute(ok))
	assert.Equal(t, CircuitClosed, cb.State())

	assert.Equal(t, []CircuitState{CircuitOpen, CircuitHalfOpen, CircuitClosed}, transitions)
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb, clock := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1, SuccessThreshold: 2, Timeout: time.Minute})

	_ = cb.Execute(fail)
	clock.advance(2 * time.Minute)
	assert.ErrorIs(t, cb.Execute(fail), errBackend)
	assert.Equal(t, CircuitOpen, cb.State())

	// the open window restarts from the failed probe
	clock.advance(30 * time.Second)
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)
}

func TestExecuteWithResult(t *testing.T) {
	cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: 1})

	v, err := ExecuteWithResult(cb, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	v, err = ExecuteWithResult(cb, func() (int, error) { return 7, errBackend })
	assert.ErrorIs(t, err, errBackend)
	assert.Zero(t, v)

	_, err = ExecuteWithResult(cb, func() (int, error) { return 1, nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_Defaults(t *testing.T) {
	cb := NewCircuitBreaker("cache", CircuitBreakerConfig{})
	assert.Equal(t, DefaultCircuitBreakerConfig(), cb.config)
	assert.Equal(t, "cache", cb.Name())

	for i := 0; i < cb.config.FailureThreshold; i++ {
		_ = cb.Execute(fail)
	}
	assert.Equal(t, CircuitOpen, cb.State())
	assert.ErrorIs(t, cb.Execute(ok), ErrCircuitOpen)
}

// Property: with the clock frozen, a closed breaker opens exactly when the
// run of consecutive failures reaches the threshold.
func TestProperty_OpensOnConsecutiveFailures(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("opens on the threshold-th consecutive failure", prop.ForAll(
		func(threshold int, outcomes []bool) bool {
			cb, _ := newTestBreaker(CircuitBreakerConfig{FailureThreshold: threshold, SuccessThreshold: 1, Timeout: time.Hour})

			run := 0
			for _, failed := range outcomes {
				if cb.State() == CircuitOpen {
					return cb.Execute(ok) == ErrCircuitOpen
				}
				if failed {
					_ = cb.Execute(fail)
					run++
				} else {
					_ = cb.Execute(ok)
					run = 0
				}
				if (run >= threshold) != (cb.State() == CircuitOpen) {
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.SliceOf(gen.Bool()),
	))

	properties.TestingRun(t)
}
