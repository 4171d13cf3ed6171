// Package shutdown runs the gateway's graceful shutdown as a sequence
// of timed phases, so a slow callback-dispatcher drain or a stuck store
// connection can't hang the process indefinitely.
package shutdown

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Phase is one stage of an orderly shutdown.
type Phase string

const (
	PhasePreShutdown           Phase = "pre_shutdown"
	PhaseStopAcceptingRequests Phase = "stop_accepting_requests"
	PhaseDrainConnections      Phase = "drain_connections"
	PhaseCleanup               Phase = "cleanup"
	PhasePostShutdown          Phase = "post_shutdown"
)

// Hook runs during a specific phase.
type Hook func(ctx context.Context) error

// Manager runs registered hooks phase by phase, each under its own timeout.
type Manager struct {
	logger *zap.Logger
	phases map[Phase][]Hook
	mu     sync.RWMutex
}

func NewManager(logger *zap.Logger) *Manager {
	return &Manager{logger: logger, phases: make(map[Phase][]Hook)}
}

// RegisterHook adds a named hook to phase, logging its outcome.
func (m *Manager) RegisterHook(phase Phase, name string, hook Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()

	wrapped := func(ctx context.Context) error {
		start := time.Now()
		err := hook(ctx)
		if err != nil {
			m.logger.Error("shutdown hook failed", zap.String("phase", string(phase)), zap.String("hook", name), zap.Duration("duration", time.Since(start)), zap.Error(err))
			return fmt.Errorf("hook %s: %w", name, err)
		}
		m.logger.Info("shutdown hook completed", zap.String("phase", string(phase)), zap.String("hook", name), zap.Duration("duration", time.Since(start)))
		return nil
	}
	m.phases[phase] = append(m.phases[phase], wrapped)
}

// Shutdown runs every phase in order, each hook within the phase
// concurrently, continuing on to later phases even if one fails.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.logger.Info("starting graceful shutdown")
	start := time.Now()

	plan := []struct {
		phase   Phase
		timeout time.Duration
	}{
		{PhasePreShutdown, 2 * time.Second},
		{PhaseStopAcceptingRequests, 1 * time.Second},
		{PhaseDrainConnections, 10 * time.Second},
		{PhaseCleanup, 5 * time.Second},
		{PhasePostShutdown, 2 * time.Second},
	}

	var errs []error
	for _, step := range plan {
		if err := m.executePhase(ctx, step.phase, step.timeout); err != nil {
			errs = append(errs, err)
		}
	}

	m.logger.Info("graceful shutdown completed", zap.Duration("total_duration", time.Since(start)), zap.Int("error_count", len(errs)))
	if len(errs) > 0 {
		return fmt.Errorf("shutdown completed with %d errors", len(errs))
	}
	return nil
}

func (m *Manager) executePhase(parent context.Context, phase Phase, timeout time.Duration) error {
	m.mu.RLock()
	hooks := m.phases[phase]
	m.mu.RUnlock()
	if len(hooks) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(hooks))
	for _, h := range hooks {
		wg.Add(1)
		go func(hook Hook) {
			defer wg.Done()
			if err := hook(ctx); err != nil {
				errCh <- err
			}
		}(h)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		close(errCh)
		var n int
		for range errCh {
			n++
		}
		if n > 0 {
			return fmt.Errorf("phase %s: %d hooks failed", phase, n)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("phase %s timed out after %s", phase, timeout)
	}
}

// Server is the subset of http.Server shutdown needs.
type Server interface {
	Shutdown(ctx context.Context) error
}

// RegisterDefaultHooks wires the standard pre/stop/cleanup hooks every
// gateway process needs. closers run concurrently in the cleanup
// phase, under that phase's single timeout; each may return an error
// (closing a driver connection or similar), logged but not fatal to the
// other hooks.
func (m *Manager) RegisterDefaultHooks(server Server, closers ...func() error) {
	m.RegisterHook(PhasePreShutdown, "mark_unhealthy", func(ctx context.Context) error {
		return nil
	})
	if server != nil {
		m.RegisterHook(PhaseStopAcceptingRequests, "stop_http_server", func(ctx context.Context) error {
			return server.Shutdown(ctx)
		})
	}
	for i, c := range closers {
		name := fmt.Sprintf("close_resource_%d", i)
		closeFn := c
		m.RegisterHook(PhaseCleanup, name, func(ctx context.Context) error {
			return closeFn()
		})
	}
	m.RegisterHook(PhasePostShutdown, "flush_logs", func(ctx context.Context) error {
		_ = m.logger.Sync()
		return nil
	})
}
