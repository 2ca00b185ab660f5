package zones

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nzcve71300/zentro-zones/internal/presence"
)

// Refresh is one reconciliation pass: for every server, fetch the online
// player set once, then run the transition engine over each of its
// zones. Failures are isolated — a server whose presence query fails is
// skipped whole, a zone whose commands fail is skipped alone, and both
// are retried on the next tick.
func (m *Manager) Refresh(ctx context.Context) error {
	for _, srv := range m.serverList() {
		if err := m.refreshServer(ctx, srv); err != nil {
			slog.ErrorContext(ctx, "refreshing server", "server", srv.id, "error", err)
		}
	}
	return nil
}

func (m *Manager) refreshServer(ctx context.Context, srv *serverState) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	online, err := presence.OnlinePlayers(ctx, srv.sender)
	if err != nil {
		return fmt.Errorf("fetching online players: %w", err)
	}

	for _, z := range m.registry.Values(srv.id) {
		if z.State == StateExpired {
			continue
		}
		if err := m.refreshZone(ctx, srv, z, online); err != nil {
			slog.WarnContext(ctx, "refreshing zone",
				"server", srv.id, "zone", z.Name, "state", z.State, "error", err)
		}
	}

	return nil
}

// refreshZone applies one transition step to a single zone. Side effects
// run commands-first, storage second, registry last, so a crash mid-way
// never leaves memory ahead of storage.
func (m *Manager) refreshZone(ctx context.Context, srv *serverState, z *Zone, online presence.PlayerSet) error {
	step := Transition(z.State, z.AnyMemberIn(online), m.now().Sub(z.LastStateChange), z.OfflineGrace)

	if !step.Changed {
		if !step.TouchOnline {
			return nil
		}
		next := z.Clone()
		next.LastOnlineAt = m.now().UTC()
		if err := m.store.UpsertZone(ctx, next, true); err != nil {
			return fmt.Errorf("touching last online: %w", err)
		}
		m.registry.Put(next)
		return nil
	}

	next := z.Clone()

	if z.State == StatePending && step.Next == StateActive {
		// Membership beyond the owner does not survive a restart;
		// re-resolve the team on first confirmed presence.
		if team, err := presence.ResolveTeam(ctx, srv.sender, z.Owner); err == nil && len(team.Members) > 0 {
			next.Members = team.Members
		}
	}

	for _, cmd := range step.Commands(next) {
		if _, err := srv.sender.SendWithRetry(ctx, cmd); err != nil {
			return fmt.Errorf("applying %s state: %w", step.Next, err)
		}
	}

	now := m.now().UTC()
	next.State = step.Next
	next.LastStateChange = now
	if step.TouchOnline {
		next.LastOnlineAt = now
	}

	if step.Next == StateExpired {
		if err := m.store.MarkExpired(ctx, srv.id, next.Name); err != nil {
			return fmt.Errorf("marking expired: %w", err)
		}
	} else {
		if err := m.store.UpsertZone(ctx, next, step.TouchOnline); err != nil {
			return fmt.Errorf("persisting %s state: %w", step.Next, err)
		}
	}
	m.registry.Put(next)

	slog.InfoContext(ctx, "zone state changed",
		"server", srv.id, "zone", next.Name, "from", z.State, "to", next.State)
	m.publish(ctx, SubjectStateChanged, Event{
		ServerID: srv.id, Zone: next.Name, From: z.State, To: next.State,
	})

	return nil
}

// Cleanup physically removes zones that are past their life: rows marked
// expired, plus rows whose last confirmed presence exceeds the absolute
// expiry window. Storage is authoritative; registry entries with no
// backing row are torn down the same way.
func (m *Manager) Cleanup(ctx context.Context) error {
	for _, srv := range m.serverList() {
		if err := m.cleanupServer(ctx, srv); err != nil {
			slog.ErrorContext(ctx, "cleaning up server", "server", srv.id, "error", err)
		}
	}
	return nil
}

func (m *Manager) cleanupServer(ctx context.Context, srv *serverState) error {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	expired, err := m.store.ExpiredZones(ctx, srv.id)
	if err != nil {
		return fmt.Errorf("loading expired zones: %w", err)
	}

	seen := map[string]bool{}
	for _, z := range expired {
		seen[presence.Fold(z.Name)] = true
		if err := m.removeZone(ctx, srv, z.Name); err != nil {
			slog.WarnContext(ctx, "removing zone",
				"server", srv.id, "zone", z.Name, "error", err)
		}
	}

	for _, z := range m.registry.Values(srv.id) {
		if z.State != StateExpired || seen[presence.Fold(z.Name)] {
			continue
		}
		if err := m.removeZone(ctx, srv, z.Name); err != nil {
			slog.WarnContext(ctx, "removing zone",
				"server", srv.id, "zone", z.Name, "error", err)
		}
	}

	return nil
}

// removeZone deletes the in-game object, then the row, then the registry
// entry. Every step is idempotent, so a partial failure is safe to
// retry on the next cleanup tick.
func (m *Manager) removeZone(ctx context.Context, srv *serverState, name string) error {
	if _, err := srv.sender.SendWithRetry(ctx, deleteZoneCommand(name)); err != nil {
		return fmt.Errorf("deleting in-game zone: %w", err)
	}
	if err := m.store.DeleteZone(ctx, srv.id, name); err != nil {
		return fmt.Errorf("deleting row: %w", err)
	}
	m.registry.Remove(srv.id, name)

	slog.InfoContext(ctx, "zone removed", "server", srv.id, "zone", name)
	m.publish(ctx, SubjectRemoved, Event{ServerID: srv.id, Zone: name, From: StateExpired})

	return nil
}
