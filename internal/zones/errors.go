package zones

import "errors"

var (
	ErrUnknownServer          = errors.New("unknown server")
	ErrAlreadyOwnsZone        = errors.New("player already belongs to a zone")
	ErrNotTeamLeader          = errors.New("only the team leader can create a zone")
	ErrTeamAlreadyHasZone     = errors.New("team already has a zone")
	ErrPositionUnavailable    = errors.New("player position unavailable")
	ErrTooCloseToExistingZone = errors.New("too close to an existing zone")
	ErrZoneAlreadyExists      = errors.New("zone name still in use")
	ErrZoneNotFound           = errors.New("zone not found")
)
