package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_BurstThenReject(t *testing.T) {
	l := New(60) // 1/s, burst 6

	for i := 0; i < 6; i++ {
		assert.True(t, l.Allow(), "request %d within burst", i)
	}
	assert.False(t, l.Allow())
}

func TestNew_DisabledWhenNonPositive(t *testing.T) {
	l := New(0)
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Allow())
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	l := NewWithBurst(0.001, 1)
	assert.True(t, l.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestTake_ReportsDelayWithoutConsuming(t *testing.T) {
	l := NewWithBurst(1, 1)

	ok, wait := l.Take()
	assert.True(t, ok)
	assert.Zero(t, wait)

	ok, wait = l.Take()
	assert.False(t, ok)
	assert.Greater(t, wait, time.Duration(0))
	assert.LessOrEqual(t, wait, time.Second)

	// the refused reservation was cancelled, so the next token arrives on schedule
	ok, again := l.Take()
	assert.False(t, ok)
	assert.LessOrEqual(t, again, wait)
}

func TestTake_Unlimited(t *testing.T) {
	l := New(0)
	for i := 0; i < 100; i++ {
		ok, _ := l.Take()
		assert.True(t, ok)
	}
}
