package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	var transitions []gobreaker.State

	cfg := DefaultConfig("test")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour
	cfg.OnStateChange = func(_ string, _, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	cb := New[int](cfg)

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, boom })
		assert.ErrorIs(t, err, boom)
		assert.False(t, IsRejection(err))
	}

	require.True(t, cb.IsOpen())
	assert.Equal(t, []gobreaker.State{gobreaker.StateOpen}, transitions)

	called := false
	_, err := cb.Execute(func() (int, error) { called = true; return 1, nil })
	assert.True(t, IsRejection(err))
	assert.False(t, called)
}

func TestCircuitBreaker_PassesResults(t *testing.T) {
	cb := New[string](DefaultConfig("ok"))

	v, err := cb.Execute(func() (string, error) { return "hash", nil })
	require.NoError(t, err)
	assert.Equal(t, "hash", v)
	assert.Equal(t, "ok", cb.Name())
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}
