package zones

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// Control-channel command builders. The exact grammar is fixed by the
// game server's zone plugin; every command here is idempotent, so
// at-least-once delivery by the retry layer causes no harm.

func createZoneCommand(z *Zone) string {
	return fmt.Sprintf(`zones.createcustomzone %q (%d,%d,%d) 0 Sphere %d 0 0 0 0 0`,
		z.Name, z.Position.X, z.Position.Y, z.Position.Z, z.Radius)
}

func editZoneCommand(name, key, value string) string {
	return fmt.Sprintf(`zones.editcustomzone %q %q %s`, name, key, value)
}

func deleteZoneCommand(name string) string {
	return fmt.Sprintf(`zones.deletecustomzone %q`, name)
}

func printPosCommand(player string) string {
	return fmt.Sprintf("printpos %q", player)
}

// stateCommands returns the edit-command set realizing a state's color
// and behavior flags. Active and pending zones protect their volume;
// an offline zone keeps its shell visible but drops protection; an
// expired zone is disabled outright until the cleanup loop deletes it.
func stateCommands(z *Zone, s State) []string {
	flags := func(color Color, pvp, npc, buildingDamage string) []string {
		return []string{
			editZoneCommand(z.Name, "enabled", "true"),
			editZoneCommand(z.Name, "color", color.String()),
			editZoneCommand(z.Name, "allowpvpdamage", pvp),
			editZoneCommand(z.Name, "allownpcdamage", npc),
			editZoneCommand(z.Name, "allowbuildingdamage", buildingDamage),
			editZoneCommand(z.Name, "allowbuilding", "1"),
		}
	}

	switch s {
	case StatePending:
		return flags(z.Colors.Pending, "0", "0", "0")
	case StateActive:
		return flags(z.Colors.Active, "0", "0", "0")
	case StateOffline:
		return flags(z.Colors.Offline, "1", "1", "1")
	case StateExpired:
		return []string{editZoneCommand(z.Name, "enabled", "false")}
	}
	return nil
}

var positionRe = regexp.MustCompile(`\(?\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*\)?`)

// queryPosition asks the server for the player's current position and
// rounds it to integer world coordinates.
func queryPosition(ctx context.Context, s Sender, player string) (Position, error) {
	resp, err := s.SendWithRetry(ctx, printPosCommand(player))
	if err != nil {
		return Position{}, fmt.Errorf("%w: %v", ErrPositionUnavailable, err)
	}

	m := positionRe.FindStringSubmatch(resp)
	if m == nil {
		return Position{}, fmt.Errorf("%w: unrecognized response %q", ErrPositionUnavailable, resp)
	}

	coords := [3]int{}
	for i := 0; i < 3; i++ {
		f, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return Position{}, fmt.Errorf("%w: bad coordinate %q", ErrPositionUnavailable, m[i+1])
		}
		coords[i] = int(math.Round(f))
	}

	return Position{X: coords[0], Y: coords[1], Z: coords[2]}, nil
}
