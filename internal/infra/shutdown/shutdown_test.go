package shutdown

import (
	"context"
	"errors"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
)

func recordOrder(mu *sync.Mutex, order *[]string, name string) Hook {
	return func(context.Context) error {
		mu.Lock()
		defer mu.Unlock()
		*order = append(*order, name)
		return nil
	}
}

func TestNewHandler(t *testing.T) {
	h := NewHandler(5*time.Second, nil)
	require.NotNil(t, h)
	assert.Equal(t, 5*time.Second, h.timeout)
	assert.NotNil(t, h.log)

	select {
	case <-h.Done():
		t.Error("Done channel should not be closed initially")
	default:
	}
}

func TestHandler_Run_ReverseOrder(t *testing.T) {
	h := NewHandler(time.Second, logger.NewNop())

	var mu sync.Mutex
	var order []string
	h.OnShutdown("log_writer", recordOrder(&mu, &order, "log_writer"))
	h.OnShutdown("sampler", recordOrder(&mu, &order, "sampler"))
	h.OnShutdown("http_server", recordOrder(&mu, &order, "http_server"))

	require.NoError(t, h.Run())
	assert.Equal(t, []string{"http_server", "sampler", "log_writer"}, order)

	select {
	case <-h.Done():
	default:
		t.Error("Done channel should be closed after Run")
	}
}

func TestHandler_Run_JoinsErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	h := NewHandler(time.Second, logger.NewZap(zap.New(core)))

	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := false
	h.OnShutdown("first", func(context.Context) error { ran = true; return nil })
	h.OnShutdown("a", func(context.Context) error { return errA })
	h.OnShutdown("b", func(context.Context) error { return errB })

	err := h.Run()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.True(t, ran, "a failing hook must not stop later hooks")

	failed := logs.FilterMessage("shutdown_hook_failed").All()
	require.Len(t, failed, 2)
	assert.Equal(t, "b", failed[0].ContextMap()["hook"])

	// hooks run once
	assert.Equal(t, err, h.Run())
	assert.Len(t, logs.FilterMessage("shutdown_hook_failed").All(), 2)
}

func TestHandler_Run_Deadline(t *testing.T) {
	h := NewHandler(20*time.Millisecond, logger.NewNop())
	h.OnShutdown("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	start := time.Now()
	err := h.Run()
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestHandler_Wait_Trigger(t *testing.T) {
	h := NewHandler(time.Second, logger.NewNop())
	called := make(chan struct{}, 1)
	h.OnShutdown("hook", func(context.Context) error {
		called <- struct{}{}
		return nil
	})

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	h.Trigger()
	h.Trigger()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}
	assert.Len(t, called, 1)
}

func TestHandler_Wait_ContextCancelled(t *testing.T) {
	h := NewHandler(time.Second, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, h.Wait(ctx))
	<-h.Done()
}

func TestHandler_Wait_WithSignal(t *testing.T) {
	h := NewHandler(time.Second, logger.NewNop())

	var mu sync.Mutex
	var order []string
	h.OnShutdown("one", recordOrder(&mu, &order, "one"))
	h.OnShutdown("two", recordOrder(&mu, &order, "two"))

	errCh := make(chan error, 1)
	go func() { errCh <- h.Wait(context.Background()) }()

	// Give Wait time to set up signal handler
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGTERM))

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait() did not complete in time")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"two", "one"}, order)
}

func TestHandler_ConcurrentOnShutdown(t *testing.T) {
	h := NewHandler(time.Second, logger.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.OnShutdown("hook", func(context.Context) error { return nil })
		}()
	}
	wg.Wait()

	h.mu.Lock()
	defer h.mu.Unlock()
	assert.Len(t, h.hooks, 10)
}
