// Package livestate keeps a local view of each tracked employee's active
// session. Every trigger only marks an employee dirty; reconcile is the one
// place that writes the view, and it always re-reads the store.
package livestate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexanderramin/timeclock/internal/broadcast"
	"github.com/alexanderramin/timeclock/internal/domain"
)

const (
	DefaultDebounce     = 500 * time.Millisecond
	DefaultPollInterval = 30 * time.Second
)

// Source is the authoritative store view.
type Source interface {
	Current(ctx context.Context, employeeID string) (*domain.AttendanceSession, error)
	Subscribe(employeeID string, fn broadcast.Handler) (unsubscribe func())
}

// ActiveSession is the last reconciled state for one employee. Session is nil
// while the employee is clocked out.
type ActiveSession struct {
	EmployeeID string
	Session    *domain.AttendanceSession
	LoadedAt   time.Time
	Err        error
}

// ClockedIn reports whether the employee holds an active session.
func (a ActiveSession) ClockedIn() bool {
	return a.Session != nil && a.Session.ActiveSession
}

type Options struct {
	Debounce     time.Duration
	PollInterval time.Duration
	Logger       *slog.Logger
	Now          func() time.Time
}

type Manager struct {
	source   Source
	debounce time.Duration
	poll     time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu        sync.Mutex
	tracked   map[string]func()
	dirty     map[string]bool
	state     map[string]ActiveSession
	listeners []func(ActiveSession)

	wake chan struct{}
}

func NewManager(source Source, opts Options) *Manager {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		source:   source,
		debounce: opts.Debounce,
		poll:     opts.PollInterval,
		logger:   opts.Logger,
		now:      opts.Now,
		tracked:  make(map[string]func()),
		dirty:    make(map[string]bool),
		state:    make(map[string]ActiveSession),
		wake:     make(chan struct{}, 1),
	}
}

// Track starts following employeeID. Push events for it mark it dirty.
func (m *Manager) Track(employeeID string) {
	m.mu.Lock()
	if _, ok := m.tracked[employeeID]; ok {
		m.mu.Unlock()
		return
	}
	m.tracked[employeeID] = nil
	m.mu.Unlock()

	unsub := m.source.Subscribe(employeeID, func(broadcast.Event) { m.MarkDirty(employeeID) })

	m.mu.Lock()
	m.tracked[employeeID] = unsub
	m.mu.Unlock()
	m.MarkDirty(employeeID)
}

func (m *Manager) Untrack(employeeID string) {
	m.mu.Lock()
	unsub, ok := m.tracked[employeeID]
	delete(m.tracked, employeeID)
	delete(m.dirty, employeeID)
	delete(m.state, employeeID)
	m.mu.Unlock()
	if ok && unsub != nil {
		unsub()
	}
}

// MarkDirty schedules a re-read. It never blocks.
func (m *Manager) MarkDirty(employeeID string) {
	m.mu.Lock()
	if _, ok := m.tracked[employeeID]; ok {
		m.dirty[employeeID] = true
	}
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Refresh marks every tracked employee dirty.
func (m *Manager) Refresh() {
	m.mu.Lock()
	for id := range m.tracked {
		m.dirty[id] = true
	}
	m.mu.Unlock()
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// OnChange registers fn to run after reconcile observes a different state.
// fn runs on the reconcile goroutine.
func (m *Manager) OnChange(fn func(ActiveSession)) {
	m.mu.Lock()
	m.listeners = append(m.listeners, fn)
	m.mu.Unlock()
}

// Snapshot returns the last reconciled state for employeeID.
func (m *Manager) Snapshot(employeeID string) (ActiveSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.state[employeeID]
	if ok {
		a.Session = a.Session.Clone()
	}
	return a, ok
}

// Run reconciles dirty employees until ctx is cancelled. Startup state is
// read from the store before the first wait. Sync must not be called while
// Run is active.
func (m *Manager) Run(ctx context.Context) error {
	// The startup sync covers anything marked before Run.
	select {
	case <-m.wake:
	default:
	}
	m.Sync(ctx)

	ticker := time.NewTicker(m.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Refresh()
		case <-m.wake:
			timer := time.NewTimer(m.debounce)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil
			case <-timer.C:
			}
			m.Sync(ctx)
		}
	}
}

// Sync reconciles every dirty employee now.
func (m *Manager) Sync(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.dirty))
	for id := range m.dirty {
		ids = append(ids, id)
	}
	clear(m.dirty)
	m.mu.Unlock()

	for _, id := range ids {
		m.reconcile(ctx, id)
	}
}

func (m *Manager) reconcile(ctx context.Context, employeeID string) {
	sess, err := m.source.Current(context.WithoutCancel(ctx), employeeID)
	next := ActiveSession{EmployeeID: employeeID, Session: sess, LoadedAt: m.now(), Err: err}
	if err != nil {
		m.logger.Warn("livestate: reconcile failed", "employee_id", employeeID, "error", err)
	}

	m.mu.Lock()
	if _, ok := m.tracked[employeeID]; !ok {
		m.mu.Unlock()
		return
	}
	prev, had := m.state[employeeID]
	if err != nil && had {
		// Keep the last good session; surface the error alongside it.
		next.Session = prev.Session
	}
	m.state[employeeID] = next
	listeners := append([]func(ActiveSession){}, m.listeners...)
	m.mu.Unlock()

	if had && sameSession(prev.Session, next.Session) && (prev.Err == nil) == (next.Err == nil) {
		return
	}
	for _, fn := range listeners {
		fn(ActiveSession{EmployeeID: next.EmployeeID, Session: next.Session.Clone(), LoadedAt: next.LoadedAt, Err: next.Err})
	}
}

func sameSession(a, b *domain.AttendanceSession) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.Status == b.Status && a.ActiveSession == b.ActiveSession && a.UpdatedAt.Equal(b.UpdatedAt)
}
