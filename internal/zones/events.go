package zones

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Lifecycle event subjects. Collaborator subsystems (chat front-end,
// leaderboards) subscribe to these; the engine never depends on anyone
// listening.
const (
	SubjectCreated      = "zones.created"
	SubjectStateChanged = "zones.state_changed"
	SubjectRemoved      = "zones.removed"
)

// Event is the payload published on every lifecycle change.
type Event struct {
	ID       string    `json:"id"`
	ServerID string    `json:"server_id"`
	Zone     string    `json:"zone"`
	From     State     `json:"from,omitempty"`
	To       State     `json:"to,omitempty"`
	At       time.Time `json:"at"`
}

// publish is best-effort: event delivery must never fail a transition.
func (m *Manager) publish(ctx context.Context, subject string, ev Event) {
	if m.publisher == nil {
		return
	}

	ev.ID = uuid.NewString()
	ev.At = m.now().UTC()

	data, err := json.Marshal(ev)
	if err != nil {
		slog.WarnContext(ctx, "encoding zone event", "subject", subject, "error", err)
		return
	}
	if err := m.publisher.Publish(subject, data); err != nil {
		slog.WarnContext(ctx, "publishing zone event", "subject", subject, "error", err)
	}
}
