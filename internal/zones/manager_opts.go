package zones

import "time"

type ManagerOpt func(*Manager)

// WithPublisher attaches a lifecycle-event publisher. Publishing is
// best-effort; a nil publisher disables events entirely.
func WithPublisher(p Publisher) ManagerOpt {
	return func(m *Manager) {
		m.publisher = p
	}
}

// WithNowFunc overrides the clock, for tests.
func WithNowFunc(now func() time.Time) ManagerOpt {
	return func(m *Manager) {
		m.now = now
	}
}
