package zones

import (
	"math"
	"testing"
	"time"

	"github.com/nzcve71300/zentro-zones/internal/presence"
	"github.com/pixil98/go-testutil"
)

func TestPosition_Distance(t *testing.T) {
	tests := map[string]struct {
		a, b Position
		want float64
	}{
		"same point":    {Position{1, 2, 3}, Position{1, 2, 3}, 0},
		"axis aligned":  {Position{}, Position{X: 10}, 10},
		"all three":     {Position{}, Position{X: 10, Y: 10, Z: 10}, math.Sqrt(300)},
		"negative side": {Position{X: -5}, Position{X: 5}, 10},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := tt.a.Distance(tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			testutil.AssertEqual(t, "symmetric", tt.b.Distance(tt.a), got)
		})
	}
}

func TestZone_Clone(t *testing.T) {
	z := regZone("Alice", StateActive, "Alice", "Bob")

	c := z.Clone()
	c.Members[0] = "Mallory"
	c.State = StateOffline

	testutil.AssertEqual(t, "original member", z.Members[0], "Alice")
	testutil.AssertEqual(t, "original state", z.State, StateActive)
}

func TestZone_Membership(t *testing.T) {
	z := regZone("Alice", StateActive, "Alice", "Bob")

	testutil.AssertEqual(t, "exact", z.HasMember("Bob"), true)
	testutil.AssertEqual(t, "folded", z.HasMember("BOB"), true)
	testutil.AssertEqual(t, "absent", z.HasMember("Carol"), false)

	testutil.AssertEqual(t, "shares", z.SharesMember([]string{"Carol", "bob"}), true)
	testutil.AssertEqual(t, "disjoint", z.SharesMember([]string{"Carol", "Dave"}), false)

	online := presence.NewPlayerSet("carol", "ALICE")
	testutil.AssertEqual(t, "any online", z.AnyMemberIn(online), true)
	testutil.AssertEqual(t, "none online", z.AnyMemberIn(presence.NewPlayerSet("Carol")), false)
}

func TestZone_Validate(t *testing.T) {
	if err := regZone("Alice", StateActive, "Alice").Validate(); err != nil {
		t.Fatalf("valid zone rejected: %v", err)
	}

	tests := map[string]func(*Zone){
		"missing name":    func(z *Zone) { z.Name = "" },
		"missing server":  func(z *Zone) { z.ServerID = "" },
		"missing owner":   func(z *Zone) { z.Owner = "" },
		"no members":      func(z *Zone) { z.Members = nil },
		"zero radius":     func(z *Zone) { z.Radius = 0 },
		"bad state":       func(z *Zone) { z.State = "limbo" },
		"zero grace":      func(z *Zone) { z.OfflineGrace = 0 },
		"negative expire": func(z *Zone) { z.Expire = -time.Hour },
	}

	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			z := regZone("Alice", StateActive, "Alice")
			corrupt(z)
			if err := z.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDefaults_Validate(t *testing.T) {
	if err := testDefaults().Validate(); err != nil {
		t.Fatalf("valid defaults rejected: %v", err)
	}

	tests := map[string]func(*Defaults){
		"zero radius":       func(d *Defaults) { d.Radius = 0 },
		"zero check radius": func(d *Defaults) { d.CheckRadius = 0 },
		"zero grace":        func(d *Defaults) { d.OfflineGrace = 0 },
		"zero expire":       func(d *Defaults) { d.Expire = 0 },
	}

	for name, corrupt := range tests {
		t.Run(name, func(t *testing.T) {
			d := testDefaults()
			corrupt(&d)
			if err := d.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
