package zones

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nzcve71300/zentro-zones/internal/presence"
)

// RequestZoneCreation validates and executes a claim by player on the
// given server. The zone name is the requester's display name. Returns
// the zone name on success; on any validation failure no state is
// written anywhere.
func (m *Manager) RequestZoneCreation(ctx context.Context, player, serverID string) (string, error) {
	srv, err := m.server(serverID)
	if err != nil {
		return "", err
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	if _, ok := m.registry.FindByMember(serverID, player); ok {
		return "", ErrAlreadyOwnsZone
	}
	// An expired zone of the same name blocks reuse until the cleanup
	// loop has removed both the row and the in-game object.
	if _, ok := m.registry.Get(serverID, player); ok {
		return "", ErrZoneAlreadyExists
	}

	team, err := presence.ResolveTeam(ctx, srv.sender, player)
	if err != nil {
		return "", fmt.Errorf("resolving team: %w", err)
	}
	if !team.Solo() && !team.IsLeader(player) {
		return "", ErrNotTeamLeader
	}
	for _, z := range m.registry.Live(serverID) {
		if z.SharesMember(team.Members) {
			return "", ErrTeamAlreadyHasZone
		}
	}

	pos, err := queryPosition(ctx, srv.sender, player)
	if err != nil {
		return "", err
	}

	for _, z := range m.registry.Live(serverID) {
		if pos.Distance(z.Position) < srv.defaults.CheckRadius {
			return "", fmt.Errorf("%w: %q at distance %.1f", ErrTooCloseToExistingZone,
				z.Name, pos.Distance(z.Position))
		}
	}

	now := m.now().UTC()
	z := &Zone{
		Name:            player,
		ServerID:        serverID,
		Owner:           player,
		Members:         team.Members,
		Position:        pos,
		Radius:          srv.defaults.Radius,
		State:           StatePending,
		Colors:          srv.defaults.Colors,
		CreatedAt:       now,
		LastOnlineAt:    now,
		LastStateChange: now,
		OfflineGrace:    srv.defaults.OfflineGrace,
		Expire:          srv.defaults.Expire,
	}

	if _, err := srv.sender.SendWithRetry(ctx, createZoneCommand(z)); err != nil {
		return "", fmt.Errorf("creating in-game zone: %w", err)
	}
	for _, cmd := range stateCommands(z, StatePending) {
		if _, err := srv.sender.SendWithRetry(ctx, cmd); err != nil {
			return "", fmt.Errorf("applying pending state: %w", err)
		}
	}

	if err := m.store.UpsertZone(ctx, z, true); err != nil {
		return "", fmt.Errorf("persisting zone: %w", err)
	}
	m.registry.Put(z)

	slog.InfoContext(ctx, "zone created",
		"server", serverID, "zone", z.Name, "members", len(z.Members), "position", z.Position)
	m.publish(ctx, SubjectCreated, Event{ServerID: serverID, Zone: z.Name, To: StatePending})

	return z.Name, nil
}

// InvalidateTeam tears a zone down immediately when its owning team's
// claim stops being valid (the team dissolved, the owner was banned).
// The row is marked expired, not deleted; the cleanup loop finishes the
// physical removal.
func (m *Manager) InvalidateTeam(ctx context.Context, serverID, member string) error {
	srv, err := m.server(serverID)
	if err != nil {
		return err
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()

	z, ok := m.registry.FindByMember(serverID, member)
	if !ok {
		return fmt.Errorf("%w: no zone with member %q", ErrZoneNotFound, member)
	}

	if _, err := srv.sender.SendWithRetry(ctx, deleteZoneCommand(z.Name)); err != nil {
		return fmt.Errorf("deleting in-game zone: %w", err)
	}
	if err := m.store.MarkExpired(ctx, serverID, z.Name); err != nil {
		return fmt.Errorf("marking expired: %w", err)
	}

	next := z.Clone()
	next.State = StateExpired
	next.LastStateChange = m.now().UTC()
	m.registry.Put(next)

	slog.InfoContext(ctx, "zone invalidated", "server", serverID, "zone", z.Name, "member", member)
	m.publish(ctx, SubjectRemoved, Event{ServerID: serverID, Zone: z.Name, From: z.State})

	return nil
}
