package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/moolen/hac-console/internal/logging"
)

const (
	defaultShutdownTimeout = 30 * time.Second
	rollbackTimeout        = 5 * time.Second
)

type entry struct {
	component Component
	deps      []Component
}

// Manager starts registered components with their dependencies first and
// stops them in reverse start order.
type Manager struct {
	mu              sync.Mutex
	entries         []entry
	started         []Component
	shutdownTimeout time.Duration
	logger          *logging.Logger
}

// NewManager creates a manager with a 30 second per-component shutdown
// timeout.
func NewManager() *Manager {
	return &Manager{
		shutdownTimeout: defaultShutdownTimeout,
		logger:          logging.GetLogger("lifecycle"),
	}
}

// Register adds component. Dependencies must already be registered, which
// also rules out cycles.
func (m *Manager) Register(component Component, dependsOn ...Component) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if component == nil {
		return errors.New("cannot register nil component")
	}
	if component.Name() == "" {
		return errors.New("component must have a non-empty name")
	}
	if m.indexOf(component) >= 0 {
		return fmt.Errorf("component %s is already registered", component.Name())
	}
	for _, dep := range dependsOn {
		if dep == nil || m.indexOf(dep) < 0 {
			return fmt.Errorf("dependency of %s is not registered", component.Name())
		}
	}

	m.entries = append(m.entries, entry{component: component, deps: dependsOn})
	m.logger.Debug("Registered %s with %d dependencies", component.Name(), len(dependsOn))
	return nil
}

// Start starts every component in dependency order. On failure the already
// started components are stopped again and the error is returned.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.started = nil
	for _, c := range m.order() {
		start := time.Now()
		if err := c.Start(ctx); err != nil {
			m.logger.Error("Failed to start %s: %v", c.Name(), err)
			m.rollback()
			return fmt.Errorf("failed to start %s: %w", c.Name(), err)
		}
		m.started = append(m.started, c)
		m.logger.Info("%s started (took %dms)", c.Name(), time.Since(start).Milliseconds())
	}
	return nil
}

// Stop stops the started components in reverse order, each with its own
// shutdown timeout. Errors are logged and joined.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for i := len(m.started) - 1; i >= 0; i-- {
		c := m.started[i]
		stopCtx, cancel := context.WithTimeout(ctx, m.shutdownTimeout)
		err := c.Stop(stopCtx)
		cancel()

		switch {
		case errors.Is(err, context.DeadlineExceeded):
			m.logger.Warn("%s exceeded shutdown timeout of %s", c.Name(), m.shutdownTimeout)
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
		case err != nil:
			m.logger.Error("Error stopping %s: %v", c.Name(), err)
			errs = append(errs, fmt.Errorf("stop %s: %w", c.Name(), err))
		default:
			m.logger.Info("%s stopped", c.Name())
		}
	}
	m.started = nil
	return errors.Join(errs...)
}

// Run starts all components, blocks until ctx is done and stops them.
func (m *Manager) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	m.logger.Info("Shutting down")
	return m.Stop(context.Background())
}

// IsRunning reports whether component was started and not yet stopped.
func (m *Manager) IsRunning(component Component) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.started {
		if c == component {
			return true
		}
	}
	return false
}

// SetShutdownTimeout sets the per-component shutdown timeout.
func (m *Manager) SetShutdownTimeout(timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdownTimeout = timeout
}

func (m *Manager) indexOf(c Component) int {
	for i, e := range m.entries {
		if e.component == c {
			return i
		}
	}
	return -1
}

// order returns components depth first, dependencies before dependents,
// otherwise in registration order.
func (m *Manager) order() []Component {
	visited := make(map[Component]bool, len(m.entries))
	out := make([]Component, 0, len(m.entries))

	var visit func(e entry)
	visit = func(e entry) {
		if visited[e.component] {
			return
		}
		visited[e.component] = true
		for _, dep := range e.deps {
			visit(m.entries[m.indexOf(dep)])
		}
		out = append(out, e.component)
	}
	for _, e := range m.entries {
		visit(e)
	}
	return out
}

func (m *Manager) rollback() {
	for i := len(m.started) - 1; i >= 0; i-- {
		c := m.started[i]
		ctx, cancel := context.WithTimeout(context.Background(), rollbackTimeout)
		if err := c.Stop(ctx); err != nil {
			m.logger.Warn("Error stopping %s during rollback: %v", c.Name(), err)
		}
		cancel()
	}
	m.started = nil
}
