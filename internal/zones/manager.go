package zones

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"
)

// Sender issues one control-channel command and returns the raw reply.
// Implementations retry transient failures internally; commands sent
// through it must be idempotent.
type Sender interface {
	SendWithRetry(ctx context.Context, command string) (string, error)
}

// Store is the durable home of zone records and per-server defaults.
// It is the source of truth: on any divergence the registry yields.
type Store interface {
	UpsertZone(ctx context.Context, z *Zone, touchLastOnline bool) error
	MarkExpired(ctx context.Context, serverID, name string) error
	DeleteZone(ctx context.Context, serverID, name string) error
	LoadActiveZones(ctx context.Context, serverID string) ([]*Zone, error)
	ExpiredZones(ctx context.Context, serverID string) ([]*Zone, error)
	PutServerDefaults(ctx context.Context, serverID string, d Defaults) error
	GetServerDefaults(ctx context.Context, serverID string) (Defaults, bool, error)
}

// Publisher carries zone lifecycle events to interested collaborators.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// serverState bundles one game server's control channel, its zone
// defaults, and the mutex serializing all zone mutation for the server.
// The refresh loop, the cleanup loop, creation, and reconfiguration all
// take the mutex, so no zone is ever processed concurrently.
type serverState struct {
	id     string
	sender Sender

	mu       sync.Mutex
	defaults Defaults
}

// Manager owns the registry and drives every zone mutation: creation,
// reconciliation, reconfiguration, and teardown.
type Manager struct {
	registry  *Registry
	store     Store
	publisher Publisher
	now       func() time.Time

	mu      sync.RWMutex
	servers map[string]*serverState
}

func NewManager(store Store, opts ...ManagerOpt) *Manager {
	m := &Manager{
		registry: NewRegistry(),
		store:    store,
		now:      time.Now,
		servers:  map[string]*serverState{},
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// AddServer registers a game server connection, loads its stored
// defaults (persisting fallback as the initial defaults when none
// exist), and rebuilds its registry entries from storage. Must be
// called for every server before the scheduler loops first run.
func (m *Manager) AddServer(ctx context.Context, id string, sender Sender, fallback Defaults) error {
	if err := fallback.Validate(); err != nil {
		return fmt.Errorf("validating defaults for %q: %w", id, err)
	}

	defaults, ok, err := m.store.GetServerDefaults(ctx, id)
	if err != nil {
		return fmt.Errorf("loading defaults for %q: %w", id, err)
	}
	if !ok {
		defaults = fallback
		if err := m.store.PutServerDefaults(ctx, id, defaults); err != nil {
			return fmt.Errorf("storing defaults for %q: %w", id, err)
		}
	}

	loaded, err := m.store.LoadActiveZones(ctx, id)
	if err != nil {
		return fmt.Errorf("loading zones for %q: %w", id, err)
	}
	for _, z := range loaded {
		m.registry.Put(z)
	}

	m.mu.Lock()
	m.servers[id] = &serverState{id: id, sender: sender, defaults: defaults}
	m.mu.Unlock()

	slog.InfoContext(ctx, "server registered", "server", id, "zones", len(loaded))

	return nil
}

func (m *Manager) server(id string) (*serverState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	srv, ok := m.servers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, id)
	}
	return srv, nil
}

// serverList returns registered servers in stable id order.
func (m *Manager) serverList() []*serverState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.servers))
	for id := range m.servers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*serverState, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.servers[id])
	}
	return out
}

// Zones returns a snapshot of the server's zones, expired included.
func (m *Manager) Zones(serverID string) []*Zone {
	return m.registry.Values(serverID)
}
