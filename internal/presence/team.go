package presence

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Team is a resolved player team. A player with no team resolves to a
// one-member team with themselves as leader and ID zero.
type Team struct {
	ID      int64
	Leader  string
	Members []string
}

// Solo reports whether this is a one-member stand-in for a teamless player.
func (t Team) Solo() bool { return t.ID == 0 }

// IsLeader reports whether name leads the team. For a solo stand-in the
// player is their own leader.
func (t Team) IsLeader(name string) bool {
	return Fold(t.Leader) == Fold(name)
}

var (
	teamIDRe     = regexp.MustCompile(`\b(\d{4,})\b`)
	leaderMarkRe = regexp.MustCompile(`(?i)\s*[\[(]\s*leader\s*[\])]\s*`)
)

// noTeamMarkers identify findplayerteam replies meaning "not in a team".
var noTeamMarkers = []string{
	"no team",
	"not in a team",
	"couldn't find",
	"invalid player",
}

// ResolveTeam looks up the team of member. Teamless players are returned
// as a solo stand-in team rather than an error, so callers can treat
// every zone owner uniformly.
func ResolveTeam(ctx context.Context, s Sender, member string) (Team, error) {
	resp, err := s.SendWithRetry(ctx, fmt.Sprintf("relationshipmanager.findplayerteam %q", member))
	if err != nil {
		return Team{}, fmt.Errorf("finding team of %q: %w", member, err)
	}

	id := parseTeamID(resp)
	if id == 0 {
		return Team{ID: 0, Leader: member, Members: []string{member}}, nil
	}

	team, err := teamInfo(ctx, s, id)
	if err != nil {
		return Team{}, err
	}
	if len(team.Members) == 0 {
		// A stale team id with no member list is treated like no team.
		return Team{ID: 0, Leader: member, Members: []string{member}}, nil
	}
	return team, nil
}

func parseTeamID(resp string) int64 {
	lower := strings.ToLower(resp)
	for _, m := range noTeamMarkers {
		if strings.Contains(lower, m) {
			return 0
		}
	}
	match := teamIDRe.FindStringSubmatch(resp)
	if match == nil {
		return 0
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// teamInfo fetches and parses the member list of a team: one member per
// line, the leader's line carrying a leader marker.
func teamInfo(ctx context.Context, s Sender, id int64) (Team, error) {
	resp, err := s.SendWithRetry(ctx, fmt.Sprintf("relationshipmanager.teaminfo %d", id))
	if err != nil {
		return Team{}, fmt.Errorf("fetching team %d info: %w", id, err)
	}

	team := Team{ID: id}
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || isTeamBannerLine(line) {
			continue
		}

		isLeader := leaderMarkRe.MatchString(line)
		name := strings.TrimSpace(leaderMarkRe.ReplaceAllString(line, " "))
		name = strings.Trim(name, `"`)
		if name == "" {
			continue
		}

		team.Members = append(team.Members, name)
		if isLeader {
			team.Leader = name
		}
	}

	return team, nil
}

func isTeamBannerLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.HasPrefix(lower, "team ") ||
		strings.Contains(lower, "member list") ||
		strings.Contains(lower, "members:")
}

// TeamFullyOffline reports whether every member of member's team is
// absent from the server's online listing.
func TeamFullyOffline(ctx context.Context, s Sender, member string) (bool, error) {
	team, err := ResolveTeam(ctx, s, member)
	if err != nil {
		return false, err
	}

	online, err := OnlinePlayers(ctx, s)
	if err != nil {
		return false, err
	}

	for _, m := range team.Members {
		if online.Contains(m) {
			return false, nil
		}
	}
	return true, nil
}
