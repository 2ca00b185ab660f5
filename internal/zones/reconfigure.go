package zones

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
)

// DefaultsPatch is a partial update to a server's zone defaults. Nil
// fields are left unchanged.
type DefaultsPatch struct {
	Radius       *int           `json:"radius,omitempty"`
	CheckRadius  *float64       `json:"check_radius,omitempty"`
	Colors       *StateColors   `json:"colors,omitempty"`
	OfflineGrace *time.Duration `json:"offline_grace,omitempty"`
	Expire       *time.Duration `json:"expire,omitempty"`
}

func (p DefaultsPatch) apply(d Defaults) Defaults {
	if p.Radius != nil {
		d.Radius = *p.Radius
	}
	if p.CheckRadius != nil {
		d.CheckRadius = *p.CheckRadius
	}
	if p.Colors != nil {
		d.Colors = *p.Colors
	}
	if p.OfflineGrace != nil {
		d.OfflineGrace = *p.OfflineGrace
	}
	if p.Expire != nil {
		d.Expire = *p.Expire
	}
	return d
}

// UpdateServerDefaults merges patch into the server's defaults, stores
// them for future creations, and applies size, colors, and durations to
// every live zone of the server. Returns how many zones were updated.
func (m *Manager) UpdateServerDefaults(ctx context.Context, serverID string, patch DefaultsPatch) (int, error) {
	srv, err := m.server(serverID)
	if err != nil {
		return 0, err
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	defaults := patch.apply(srv.defaults)
	if err := defaults.Validate(); err != nil {
		return 0, fmt.Errorf("validating patched defaults: %w", err)
	}

	if err := m.store.PutServerDefaults(ctx, serverID, defaults); err != nil {
		return 0, fmt.Errorf("storing defaults: %w", err)
	}
	srv.defaults = defaults

	applied := 0
	for _, z := range m.registry.Live(serverID) {
		if err := m.reconfigureZone(ctx, srv, z, defaults); err != nil {
			slog.WarnContext(ctx, "reconfiguring zone",
				"server", serverID, "zone", z.Name, "error", err)
			continue
		}
		applied++
	}

	slog.InfoContext(ctx, "server defaults updated", "server", serverID, "zones", applied)

	return applied, nil
}

func (m *Manager) reconfigureZone(ctx context.Context, srv *serverState, z *Zone, d Defaults) error {
	next := z.Clone()
	next.Radius = d.Radius
	next.Colors = d.Colors
	next.OfflineGrace = d.OfflineGrace
	next.Expire = d.Expire

	cmds := []string{
		editZoneCommand(next.Name, "radius", strconv.Itoa(next.Radius)),
		editZoneCommand(next.Name, "color", colorFor(next).String()),
	}
	for _, cmd := range cmds {
		if _, err := srv.sender.SendWithRetry(ctx, cmd); err != nil {
			return fmt.Errorf("applying reconfiguration: %w", err)
		}
	}

	if err := m.store.UpsertZone(ctx, next, false); err != nil {
		return fmt.Errorf("persisting reconfiguration: %w", err)
	}
	m.registry.Put(next)

	return nil
}

// colorFor picks the presentation color matching the zone's state.
func colorFor(z *Zone) Color {
	switch z.State {
	case StateActive:
		return z.Colors.Active
	case StateOffline:
		return z.Colors.Offline
	default:
		return z.Colors.Pending
	}
}
