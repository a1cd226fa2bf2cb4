package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type mockService struct {
	started atomic.Bool
	stopped atomic.Bool
	startFn func() error
	onStop  func()
	done    chan struct{}
}

func newMockService() *mockService {
	return &mockService{done: make(chan struct{})}
}

func (m *mockService) Start() error {
	m.started.Store(true)
	if m.startFn != nil {
		return m.startFn()
	}
	<-m.done
	return nil
}

func (m *mockService) Stop(context.Context) error {
	if m.onStop != nil {
		m.onStop()
	}
	if m.stopped.CompareAndSwap(false, true) {
		close(m.done)
	}
	return nil
}

func waitStarted(t *testing.T, svcs ...*mockService) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, s := range svcs {
			if !s.started.Load() {
				return false
			}
		}
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestLifecycleStartsAndStopsServicesInReverse(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t), time.Second)

	var mu sync.Mutex
	var order []string
	svc1, svc2 := newMockService(), newMockService()
	svc1.onStop = func() { mu.Lock(); order = append(order, "svc1"); mu.Unlock() }
	svc2.onStop = func() { mu.Lock(); order = append(order, "svc2"); mu.Unlock() }
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	waitStarted(t, svc1, svc2)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
	assert.Equal(t, []string{"svc2", "svc1"}, order)
}

func TestLifecycleReturnsServiceFailure(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t), time.Second)
	boom := errors.New("boom")

	failing := newMockService()
	failing.startFn = func() error { return boom }
	healthy := newMockService()
	lc.Add("healthy", healthy)
	lc.Add("failing", failing)

	err := lc.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "service failing")
	assert.True(t, healthy.stopped.Load())
}

func TestFuncService(t *testing.T) {
	started := false
	stopped := false

	svc := &FuncService{
		StartFn: func() error {
			started = true
			return nil
		},
		StopFn: func(context.Context) error {
			stopped = true
			return nil
		},
	}

	assert.NoError(t, svc.Start())
	assert.True(t, started)

	assert.NoError(t, svc.Stop(context.Background()))
	assert.True(t, stopped)
}
