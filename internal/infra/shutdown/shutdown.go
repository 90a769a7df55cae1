package shutdown

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/yndnr/monitored-app/internal/telemetry/logger"
)

// Hook releases one component. It should return once ctx is done.
type Hook func(context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Handler handles graceful shutdown.
type Handler struct {
	timeout time.Duration
	log     logger.Logger
	signals []os.Signal

	mu    sync.Mutex
	hooks []namedHook

	trigger  chan struct{}
	trigOnce sync.Once
	runOnce  sync.Once
	runErr   error
	done     chan struct{}
}

// NewHandler creates a shutdown handler that gives hooks timeout to finish.
func NewHandler(timeout time.Duration, log logger.Logger) *Handler {
	if log == nil {
		log = logger.NewNop()
	}
	return &Handler{
		timeout: timeout,
		log:     log,
		signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		trigger: make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// OnShutdown registers a shutdown hook.
// Hooks are called in reverse order of registration.
func (h *Handler) OnShutdown(name string, hook Hook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hooks = append(h.hooks, namedHook{name: name, fn: hook})
}

// Trigger starts the shutdown without a signal. Safe to call more than once.
func (h *Handler) Trigger() {
	h.trigOnce.Do(func() { close(h.trigger) })
}

// Wait blocks until a termination signal, Trigger or the end of ctx, then
// runs the hooks. The returned error joins every hook failure.
func (h *Handler) Wait(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, h.signals...)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		h.log.Info("shutdown_signal", "signal", sig.String())
	case <-h.trigger:
		h.log.Info("shutdown_requested")
	case <-ctx.Done():
		h.log.Info("shutdown_requested", "reason", ctx.Err().Error())
	}

	return h.Run()
}

// Run executes the hooks under the handler timeout and marks the handler
// done. Later calls return the result of the first.
func (h *Handler) Run() error {
	h.runOnce.Do(func() {
		h.runErr = h.run()
		close(h.done)
	})
	return h.runErr
}

func (h *Handler) run() error {

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	h.mu.Lock()
	hooks := make([]namedHook, len(h.hooks))
	copy(hooks, h.hooks)
	h.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		hook := hooks[i]
		if err := hook.fn(ctx); err != nil {
			h.log.Error("shutdown_hook_failed", "hook", hook.name, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", hook.name, err))
			continue
		}
		h.log.Debug("shutdown_hook_done", "hook", hook.name)
	}

	return errors.Join(errs...)
}

// Done returns a channel that closes when shutdown is complete.
func (h *Handler) Done() <-chan struct{} {
	return h.done
}
