package zones

import (
	"sync"

	"github.com/nzcve71300/zentro-zones/internal/presence"
)

// Registry is the per-server in-memory table of zones, keyed by folded
// zone name. It is a pure data holder; all mutation happens on the
// scheduling/creation path, which serializes per server.
type Registry struct {
	mu      sync.RWMutex
	servers map[string]map[string]*Zone
}

func NewRegistry() *Registry {
	return &Registry{
		servers: map[string]map[string]*Zone{},
	}
}

func (r *Registry) Get(serverID, name string) (*Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	z, ok := r.servers[serverID][presence.Fold(name)]
	return z, ok
}

func (r *Registry) Put(z *Zone) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.servers[z.ServerID]
	if !ok {
		m = map[string]*Zone{}
		r.servers[z.ServerID] = m
	}
	m[presence.Fold(z.Name)] = z
}

func (r *Registry) Remove(serverID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.servers[serverID], presence.Fold(name))
}

// Values returns a snapshot of every zone on the server, expired
// included.
func (r *Registry) Values(serverID string) []*Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Zone, 0, len(r.servers[serverID]))
	for _, z := range r.servers[serverID] {
		out = append(out, z)
	}
	return out
}

// Live returns the server's non-expired zones.
func (r *Registry) Live(serverID string) []*Zone {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Zone
	for _, z := range r.servers[serverID] {
		if z.State != StateExpired {
			out = append(out, z)
		}
	}
	return out
}

// FindByMember returns the server's non-expired zone whose member set
// contains player, if any. At most one such zone exists.
func (r *Registry) FindByMember(serverID, player string) (*Zone, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, z := range r.servers[serverID] {
		if z.State == StateExpired {
			continue
		}
		if z.HasMember(player) {
			return z, true
		}
	}
	return nil, false
}
