package ticker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunner_Register(t *testing.T) {
	type testCase struct {
		name      string
		task      string
		interval  time.Duration
		run       func(ctx context.Context)
		expectErr bool
	}
	noop := func(ctx context.Context) {}
	tests := []testCase{
		{name: "valid", task: "poll", interval: time.Minute, run: noop},
		{name: "missing name", task: "", interval: time.Minute, run: noop, expectErr: true},
		{name: "zero interval", task: "poll", interval: 0, run: noop, expectErr: true},
		{name: "missing func", task: "poll", interval: time.Minute, expectErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := New().Register(tc.task, tc.interval, tc.run)
			if tc.expectErr {
				assert.True(t, errors.Is(err, ErrInvalidTask))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestRunner_StartStop(t *testing.T) {
	var fast, panicking int32
	runner := New()
	assert.NoError(t, runner.Register("fast", 2*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&fast, 1)
	}))
	assert.NoError(t, runner.Register("panicking", 2*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&panicking, 1)
		panic("boom")
	}))
	assert.EqualValues(t, []string{"fast", "panicking"}, runner.Tasks())

	assert.NoError(t, runner.Start(context.Background()))
	assert.True(t, errors.Is(runner.Start(context.Background()), ErrAlreadyStarted))
	assert.True(t, runner.Running())
	time.Sleep(30 * time.Millisecond)
	runner.Stop()
	runner.Stop()
	assert.False(t, runner.Running())

	afterStop := atomic.LoadInt32(&fast)
	assert.Greater(t, afterStop, int32(1))
	assert.Greater(t, atomic.LoadInt32(&panicking), int32(1), "a panicking task keeps running")
	time.Sleep(10 * time.Millisecond)
	assert.EqualValues(t, afterStop, atomic.LoadInt32(&fast))
}

func TestRunner_ContextCancel(t *testing.T) {
	var runs int32
	runner := New()
	assert.NoError(t, runner.Register("poll", time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, runner.Start(ctx))
	time.Sleep(10 * time.Millisecond)
	cancel()
	runner.Stop()
	stopped := atomic.LoadInt32(&runs)
	time.Sleep(10 * time.Millisecond)
	assert.EqualValues(t, stopped, atomic.LoadInt32(&runs))
}
