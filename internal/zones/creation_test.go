package zones

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"
)

// soloResponder answers the control-channel queries a solo-player
// creation issues: no team, position at pos.
func soloResponder(player string, pos string) func(cmd string) (string, error) {
	return func(cmd string) (string, error) {
		switch {
		case strings.HasPrefix(cmd, "relationshipmanager.findplayerteam"):
			return fmt.Sprintf("Player %s has no team", player), nil
		case strings.HasPrefix(cmd, "printpos"):
			return pos, nil
		default:
			return "", nil
		}
	}
}

func TestRequestZoneCreation_Solo(t *testing.T) {
	sender := &fakeSender{respond: soloResponder("Alice", "(0.0, 0.0, 0.0)")}
	m, store := newTestManager(t, sender)

	name, err := m.RequestZoneCreation(context.Background(), "Alice", testServer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "zone name", name, "Alice")

	z, ok := m.registry.Get(testServer, "Alice")
	if !ok {
		t.Fatal("zone missing from registry")
	}
	testutil.AssertEqual(t, "state", z.State, StatePending)
	testutil.AssertEqual(t, "members", len(z.Members), 1)
	testutil.AssertEqual(t, "member", z.Members[0], "Alice")
	testutil.AssertEqual(t, "radius", z.Radius, 50)
	testutil.AssertEqual(t, "position", z.Position, Position{X: 0, Y: 0, Z: 0})

	// Persisted before the registry saw it.
	stored, ok := store.get(testServer, "Alice")
	if !ok {
		t.Fatal("zone missing from store")
	}
	testutil.AssertEqual(t, "stored state", stored.State, StatePending)

	testutil.AssertEqual(t, "create commands", sender.commandCount("zones.createcustomzone"), 1)
	if n := sender.commandCount("zones.editcustomzone"); n == 0 {
		t.Error("expected pending presentation commands")
	}
}

func TestRequestZoneCreation_TeamLeader(t *testing.T) {
	sender := &fakeSender{respond: func(cmd string) (string, error) {
		switch {
		case strings.HasPrefix(cmd, "relationshipmanager.findplayerteam"):
			return "Player Alice is in team 76561234", nil
		case strings.HasPrefix(cmd, "relationshipmanager.teaminfo"):
			return "Alice [LEADER]\nBob\nCarol", nil
		case strings.HasPrefix(cmd, "printpos"):
			return "(100.4, 12.0, -355.6)", nil
		default:
			return "", nil
		}
	}}
	m, _ := newTestManager(t, sender)

	name, err := m.RequestZoneCreation(context.Background(), "Alice", testServer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	z, _ := m.registry.Get(testServer, name)
	testutil.AssertEqual(t, "members", len(z.Members), 3)
	testutil.AssertEqual(t, "position rounded", z.Position, Position{X: 100, Y: 12, Z: -356})
}

func TestRequestZoneCreation_NotTeamLeader(t *testing.T) {
	sender := &fakeSender{respond: func(cmd string) (string, error) {
		switch {
		case strings.HasPrefix(cmd, "relationshipmanager.findplayerteam"):
			return "Player Bob is in team 76561234", nil
		case strings.HasPrefix(cmd, "relationshipmanager.teaminfo"):
			return "Alice [LEADER]\nBob", nil
		default:
			return "", nil
		}
	}}
	m, _ := newTestManager(t, sender)

	_, err := m.RequestZoneCreation(context.Background(), "Bob", testServer)
	if !errors.Is(err, ErrNotTeamLeader) {
		t.Fatalf("expected ErrNotTeamLeader, got %v", err)
	}
	testutil.AssertEqual(t, "no zone created", sender.commandCount("zones.createcustomzone"), 0)
}

func TestRequestZoneCreation_AlreadyOwnsZone(t *testing.T) {
	sender := &fakeSender{respond: soloResponder("Alice", "(0, 0, 0)")}
	m, _ := newTestManager(t, sender)

	if _, err := m.RequestZoneCreation(context.Background(), "Alice", testServer); err != nil {
		t.Fatalf("first creation: %v", err)
	}

	_, err := m.RequestZoneCreation(context.Background(), "Alice", testServer)
	if !errors.Is(err, ErrAlreadyOwnsZone) {
		t.Fatalf("expected ErrAlreadyOwnsZone, got %v", err)
	}
}

func TestRequestZoneCreation_TeamAlreadyHasZone(t *testing.T) {
	// Bob's zone lists Carol as a member; Carol's team leader Dave
	// cannot claim a second zone for the same team.
	m, _ := newTestManager(t, &fakeSender{})
	now := time.Now().UTC()
	m.registry.Put(&Zone{
		Name: "Bob", ServerID: testServer, Owner: "Bob",
		Members: []string{"Bob", "Carol"}, Radius: 50, State: StateActive,
		CreatedAt: now, LastOnlineAt: now, LastStateChange: now,
		OfflineGrace: time.Hour, Expire: 24 * time.Hour,
		Position: Position{X: 1000, Y: 0, Z: 1000},
	})

	srv, _ := m.server(testServer)
	srv.sender = &fakeSender{respond: func(cmd string) (string, error) {
		switch {
		case strings.HasPrefix(cmd, "relationshipmanager.findplayerteam"):
			return "Player Dave is in team 76569999", nil
		case strings.HasPrefix(cmd, "relationshipmanager.teaminfo"):
			return "Dave [LEADER]\nCarol", nil
		case strings.HasPrefix(cmd, "printpos"):
			return "(0, 0, 0)", nil
		default:
			return "", nil
		}
	}}

	_, err := m.RequestZoneCreation(context.Background(), "Dave", testServer)
	if !errors.Is(err, ErrTeamAlreadyHasZone) {
		t.Fatalf("expected ErrTeamAlreadyHasZone, got %v", err)
	}
}

func TestRequestZoneCreation_PositionUnavailable(t *testing.T) {
	sender := &fakeSender{respond: func(cmd string) (string, error) {
		switch {
		case strings.HasPrefix(cmd, "relationshipmanager.findplayerteam"):
			return "Player Alice has no team", nil
		case strings.HasPrefix(cmd, "printpos"):
			return "Couldn't find player Alice", nil
		default:
			return "", nil
		}
	}}
	m, _ := newTestManager(t, sender)

	_, err := m.RequestZoneCreation(context.Background(), "Alice", testServer)
	if !errors.Is(err, ErrPositionUnavailable) {
		t.Fatalf("expected ErrPositionUnavailable, got %v", err)
	}
}

func TestRequestZoneCreation_TooClose(t *testing.T) {
	// Existing zone at origin, CHECK_RADIUS 50, candidate at (10,10,10):
	// distance ~17.3, rejected.
	m, _ := newTestManager(t, &fakeSender{})
	now := time.Now().UTC()
	m.registry.Put(&Zone{
		Name: "Bob", ServerID: testServer, Owner: "Bob", Members: []string{"Bob"},
		Radius: 50, State: StateActive, Position: Position{X: 0, Y: 0, Z: 0},
		CreatedAt: now, LastOnlineAt: now, LastStateChange: now,
		OfflineGrace: time.Hour, Expire: 24 * time.Hour,
	})

	srv, _ := m.server(testServer)
	srv.sender = &fakeSender{respond: soloResponder("Alice", "(10, 10, 10)")}

	_, err := m.RequestZoneCreation(context.Background(), "Alice", testServer)
	if !errors.Is(err, ErrTooCloseToExistingZone) {
		t.Fatalf("expected ErrTooCloseToExistingZone, got %v", err)
	}
}

func TestRequestZoneCreation_ExpiredNameBlocksReuse(t *testing.T) {
	m, _ := newTestManager(t, &fakeSender{respond: soloResponder("Alice", "(0, 0, 0)")})
	now := time.Now().UTC()
	m.registry.Put(&Zone{
		Name: "Alice", ServerID: testServer, Owner: "Alice", Members: []string{"Alice"},
		Radius: 50, State: StateExpired, CreatedAt: now, LastOnlineAt: now,
		LastStateChange: now, OfflineGrace: time.Hour, Expire: 24 * time.Hour,
	})

	_, err := m.RequestZoneCreation(context.Background(), "Alice", testServer)
	if !errors.Is(err, ErrZoneAlreadyExists) {
		t.Fatalf("expected ErrZoneAlreadyExists, got %v", err)
	}
}

func TestRequestZoneCreation_CommandFailureWritesNothing(t *testing.T) {
	sender := &fakeSender{respond: func(cmd string) (string, error) {
		switch {
		case strings.HasPrefix(cmd, "relationshipmanager.findplayerteam"):
			return "Player Alice has no team", nil
		case strings.HasPrefix(cmd, "printpos"):
			return "(0, 0, 0)", nil
		case strings.HasPrefix(cmd, "zones.createcustomzone"):
			return "", errors.New("connection lost")
		default:
			return "", nil
		}
	}}
	m, store := newTestManager(t, sender)

	_, err := m.RequestZoneCreation(context.Background(), "Alice", testServer)
	if err == nil {
		t.Fatal("expected error")
	}

	if _, ok := m.registry.Get(testServer, "Alice"); ok {
		t.Error("registry must stay clean after a failed creation")
	}
	if _, ok := store.get(testServer, "Alice"); ok {
		t.Error("store must stay clean after a failed creation")
	}
}

func TestInvalidateTeam(t *testing.T) {
	sender := &fakeSender{respond: soloResponder("Alice", "(0, 0, 0)")}
	m, store := newTestManager(t, sender)

	if _, err := m.RequestZoneCreation(context.Background(), "Alice", testServer); err != nil {
		t.Fatalf("creating zone: %v", err)
	}

	err := m.InvalidateTeam(context.Background(), testServer, "Alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "delete issued", sender.commandCount("zones.deletecustomzone"), 1)

	z, ok := m.registry.Get(testServer, "Alice")
	testutil.AssertEqual(t, "still registered", ok, true)
	testutil.AssertEqual(t, "expired", z.State, StateExpired)

	stored, _ := store.get(testServer, "Alice")
	testutil.AssertEqual(t, "row kept", stored.State, StateExpired)
}

func TestInvalidateTeam_NoZone(t *testing.T) {
	m, _ := newTestManager(t, &fakeSender{})

	err := m.InvalidateTeam(context.Background(), testServer, "Nobody")
	if !errors.Is(err, ErrZoneNotFound) {
		t.Fatalf("expected ErrZoneNotFound, got %v", err)
	}
}
