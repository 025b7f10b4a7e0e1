package hotreload

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Reloadable is a component that can re-apply configuration at runtime
type Reloadable interface {
	Name() string
	Reload(ctx context.Context) error
}

// Manager debounces file system events and fans them out to registered
// reloadables. A burst of editor writes triggers a single reload.
type Manager struct {
	watcher     *Watcher
	mu          sync.Mutex
	reloadables []Reloadable
	debounce    time.Duration
	started     bool
	stop        chan struct{}
	wg          sync.WaitGroup
}

// NewManager creates a new hot reload manager
func NewManager() (*Manager, error) {
	watcher, err := NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Manager{
		watcher:  watcher,
		debounce: 500 * time.Millisecond,
		stop:     make(chan struct{}),
	}, nil
}

// AddWatch adds a file or directory to watch
func (m *Manager) AddWatch(path string) error {
	return m.watcher.Add(path)
}

// Register registers a reloadable component
func (m *Manager) Register(r Reloadable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reloadables = append(m.reloadables, r)
}

// SetDebounceTime sets the debounce time for reload events
func (m *Manager) SetDebounceTime(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.debounce = d
	}
}

// Start starts watching and dispatching reloads
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = true
	m.mu.Unlock()

	m.watcher.Start()

	m.wg.Add(1)
	go m.loop()
	slog.Info("Hot reload started")
	return nil
}

// Shutdown gracefully stops the hot reload system
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	m.started = false
	m.mu.Unlock()

	close(m.stop)
	m.watcher.Stop()
	m.wg.Wait()
	slog.Info("Hot reload stopped")
	return nil
}

func (m *Manager) loop() {
	defer m.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-m.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-m.watcher.Events():
			if !ok {
				return
			}
			slog.Debug("Change detected", "path", event.Path)
			m.mu.Lock()
			d := m.debounce
			m.mu.Unlock()
			if timer == nil {
				timer = time.NewTimer(d)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(d)
			}
		case <-timerC:
			m.reloadAll()
		}
	}
}

func (m *Manager) reloadAll() {
	m.mu.Lock()
	reloadables := make([]Reloadable, len(m.reloadables))
	copy(reloadables, m.reloadables)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, r := range reloadables {
		if err := r.Reload(ctx); err != nil {
			slog.Error("Reload failed", "component", r.Name(), "error", err)
			continue
		}
		slog.Info("Reloaded", "component", r.Name())
	}
}
