package zones

import (
	"fmt"
	"math"
	"time"

	"github.com/nzcve71300/zentro-zones/internal/presence"
	"github.com/pixil98/go-errors"
)

// State is the lifecycle state of a claimed zone.
type State string

const (
	StatePending State = "pending"
	StateActive  State = "active"
	StateOffline State = "offline"
	StateExpired State = "expired"
)

// Valid reports whether s is one of the four lifecycle states.
func (s State) Valid() bool {
	switch s {
	case StatePending, StateActive, StateOffline, StateExpired:
		return true
	}
	return false
}

// Color is an RGB triple rendered in the control-channel grammar as "(r,g,b)".
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

func (c Color) String() string {
	return fmt.Sprintf("(%d,%d,%d)", c.R, c.G, c.B)
}

// StateColors holds the presentation color for each non-expired state.
type StateColors struct {
	Pending Color `json:"pending"`
	Active  Color `json:"active"`
	Offline Color `json:"offline"`
}

// Position is an integer-rounded point in the game world.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.X, p.Y, p.Z)
}

// Distance returns the Euclidean distance between two positions.
func (p Position) Distance(o Position) float64 {
	dx := float64(p.X - o.X)
	dy := float64(p.Y - o.Y)
	dz := float64(p.Z - o.Z)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Zone is one claimed territory. Name doubles as the in-game zone handle
// and equals the owner's display name by convention.
type Zone struct {
	Name     string      `json:"name"`
	ServerID string      `json:"server_id"`
	Owner    string      `json:"owner"`
	Members  []string    `json:"members"`
	Position Position    `json:"position"`
	Radius   int         `json:"radius"`
	State    State       `json:"state"`
	Colors   StateColors `json:"colors"`

	CreatedAt       time.Time `json:"created_at"`
	LastOnlineAt    time.Time `json:"last_online_at"`
	LastStateChange time.Time `json:"last_state_change"`

	OfflineGrace time.Duration `json:"offline_grace"`
	Expire       time.Duration `json:"expire"`
}

// Clone returns a deep copy. Mutations on clones keep the registry's
// view consistent until the new record has been persisted.
func (z *Zone) Clone() *Zone {
	c := *z
	c.Members = append([]string(nil), z.Members...)
	return &c
}

// HasMember reports whether name is in the zone's member set.
// Comparison is case-insensitive.
func (z *Zone) HasMember(name string) bool {
	folded := presence.Fold(name)
	for _, m := range z.Members {
		if presence.Fold(m) == folded {
			return true
		}
	}
	return false
}

// SharesMember reports whether any of names is in the zone's member set.
func (z *Zone) SharesMember(names []string) bool {
	for _, n := range names {
		if z.HasMember(n) {
			return true
		}
	}
	return false
}

// AnyMemberIn reports whether any member of the zone appears in the set
// of online players.
func (z *Zone) AnyMemberIn(online presence.PlayerSet) bool {
	for _, m := range z.Members {
		if online.Contains(m) {
			return true
		}
	}
	return false
}

// Validate satisfies basic record sanity before persisting.
func (z *Zone) Validate() error {
	el := errors.NewErrorList()

	if z.Name == "" {
		el.Add(fmt.Errorf("name is required"))
	}
	if z.ServerID == "" {
		el.Add(fmt.Errorf("server_id is required"))
	}
	if z.Owner == "" {
		el.Add(fmt.Errorf("owner is required"))
	}
	if len(z.Members) == 0 {
		el.Add(fmt.Errorf("members must contain at least the owner"))
	}
	if z.Radius <= 0 {
		el.Add(fmt.Errorf("radius must be positive"))
	}
	if !z.State.Valid() {
		el.Add(fmt.Errorf("invalid state: %s", z.State))
	}
	if z.OfflineGrace <= 0 {
		el.Add(fmt.Errorf("offline grace must be positive"))
	}
	if z.Expire <= 0 {
		el.Add(fmt.Errorf("expire must be positive"))
	}

	return el.Err()
}

// Defaults are the per-server zone parameters applied to new zones and,
// on reconfiguration, to every live zone of the server.
type Defaults struct {
	Radius       int           `json:"radius"`
	CheckRadius  float64       `json:"check_radius"`
	Colors       StateColors   `json:"colors"`
	OfflineGrace time.Duration `json:"offline_grace"`
	Expire       time.Duration `json:"expire"`
}

func (d Defaults) Validate() error {
	el := errors.NewErrorList()

	if d.Radius <= 0 {
		el.Add(fmt.Errorf("radius must be positive"))
	}
	if d.CheckRadius <= 0 {
		el.Add(fmt.Errorf("check_radius must be positive"))
	}
	if d.OfflineGrace <= 0 {
		el.Add(fmt.Errorf("offline_grace must be positive"))
	}
	if d.Expire <= 0 {
		el.Add(fmt.Errorf("expire must be positive"))
	}

	return el.Err()
}
