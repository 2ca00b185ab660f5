// Package presence answers "who is online" and "who is on this team" by
// issuing control-channel queries and parsing their replies. The rest of
// the engine only ever sees normalized player-name sets.
package presence

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

// Sender issues one control-channel command and returns the raw reply.
// Implementations are expected to retry transient failures internally.
type Sender interface {
	SendWithRetry(ctx context.Context, command string) (string, error)
}

const (
	cmdListUsers  = "users"
	cmdListStatus = "status"
)

// Fold normalizes a player name for case-insensitive comparison.
func Fold(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

// PlayerSet is a case-insensitive set of player names, keyed by the folded
// form and retaining the first original spelling seen.
type PlayerSet map[string]string

func NewPlayerSet(names ...string) PlayerSet {
	s := PlayerSet{}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

func (s PlayerSet) Add(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	key := Fold(name)
	if _, ok := s[key]; !ok {
		s[key] = name
	}
}

func (s PlayerSet) Contains(name string) bool {
	_, ok := s[Fold(name)]
	return ok
}

func (s PlayerSet) Len() int { return len(s) }

// Names returns the original spellings, in no particular order.
func (s PlayerSet) Names() []string {
	out := make([]string, 0, len(s))
	for _, n := range s {
		out = append(out, n)
	}
	return out
}

// artifactMarkers identify listing-response lines that are not player
// entries: status banners, connection notices, death markers. A line
// containing any of these is discarded before name extraction.
var artifactMarkers = []string{
	"<slot:",
	"users connected",
	"hostname",
	"version",
	"map     :",
	"players :",
	"queued",
	"joining",
	"died",
	"was killed",
	"has entered",
	"disconnecting",
	"joined [",
}

func isArtifactLine(line string) bool {
	lower := strings.ToLower(line)
	for _, m := range artifactMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

var (
	quotedNameRe = regexp.MustCompile(`"([^"]+)"`)
	slotMarkerRe = regexp.MustCompile(`^\s*\((\d+)\)\s+(.+?)\s*$`)
)

// parseQuotedListing handles the primary listing grammar: one player per
// line, name in double quotes, preceded by a count banner.
func parseQuotedListing(resp string) PlayerSet {
	players := PlayerSet{}
	for _, line := range strings.Split(resp, "\n") {
		if isArtifactLine(line) {
			continue
		}
		m := quotedNameRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		players.Add(m[1])
	}
	return players
}

// parseSlotListing handles the fallback grammar: one player per line
// behind a parenthetical slot marker, e.g. `(3) Alice`.
func parseSlotListing(resp string) PlayerSet {
	players := PlayerSet{}
	for _, line := range strings.Split(resp, "\n") {
		if isArtifactLine(line) {
			continue
		}
		m := slotMarkerRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		players.Add(m[2])
	}
	return players
}

// OnlinePlayers returns the set of players currently connected to the
// server behind s. The primary listing command is tried first; an empty
// parse falls back to the secondary command with its own grammar.
func OnlinePlayers(ctx context.Context, s Sender) (PlayerSet, error) {
	resp, err := s.SendWithRetry(ctx, cmdListUsers)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}

	players := parseQuotedListing(resp)
	if players.Len() > 0 {
		return players, nil
	}

	// Zero names can mean an empty server or a response grammar the
	// primary parser does not recognize. The fallback listing settles it.
	resp, err = s.SendWithRetry(ctx, cmdListStatus)
	if err != nil {
		return nil, fmt.Errorf("listing status: %w", err)
	}

	return parseSlotListing(resp), nil
}
