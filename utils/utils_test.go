package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode(4)
	require.NoError(t, err)
	assert.Len(t, code, 8)
	for _, r := range code {
		assert.Contains(t, "0123456789ABCDEF", string(r))
	}

	other, err := GenerateCode(4)
	require.NoError(t, err)
	assert.NotEqual(t, code, other)
}

func TestCircuitBreaker_TripsAfterFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", BreakerSettings{
		MaxRequests:  2,
		Interval:     time.Minute,
		Timeout:      50 * time.Millisecond,
		FailureRatio: 0.5,
	})

	boom := errors.New("boom")
	fail := func() error { return boom }

	assert.ErrorIs(t, cb.Execute(fail), boom)
	assert.ErrorIs(t, cb.Execute(fail), boom)

	// Tripped: calls are rejected without running fn.
	ran := false
	err := cb.Execute(func() error {
		ran = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran)
}

func TestCircuitBreaker_RecoversAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test", BreakerSettings{
		MaxRequests:  2,
		Interval:     time.Minute,
		Timeout:      20 * time.Millisecond,
		FailureRatio: 0.5,
	})

	boom := errors.New("boom")
	cb.Execute(func() error { return boom })
	cb.Execute(func() error { return boom })
	require.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)

	time.Sleep(30 * time.Millisecond)

	// Half-open probe succeeds and the breaker closes again.
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
	assert.NoError(t, cb.Execute(func() error { return nil }))
}

func TestCircuitBreaker_PassesThroughWhenHealthy(t *testing.T) {
	cb := NewCircuitBreaker("test", BreakerSettings{})

	calls := 0
	for i := 0; i < 10; i++ {
		require.NoError(t, cb.Execute(func() error {
			calls++
			return nil
		}))
	}
	assert.Equal(t, 10, calls)
}
