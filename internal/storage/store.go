// Package storage persists zone records and per-server defaults in
// SQLite. The database is the source of truth: the in-memory registry is
// rebuilt from it on startup and corrected from it on divergence.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/nzcve71300/zentro-zones/internal/zones"
	_ "modernc.org/sqlite"
)

const timeFormat = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS zones (
    server_id             TEXT NOT NULL,
    name                  TEXT NOT NULL,
    owner                 TEXT NOT NULL,
    members               TEXT NOT NULL,
    pos_x                 INTEGER NOT NULL,
    pos_y                 INTEGER NOT NULL,
    pos_z                 INTEGER NOT NULL,
    radius                INTEGER NOT NULL,
    state                 TEXT NOT NULL,
    colors                TEXT NOT NULL,
    created_at            TEXT NOT NULL,
    last_online_at        TEXT NOT NULL,
    last_state_change     TEXT NOT NULL,
    offline_grace_seconds INTEGER NOT NULL,
    expire_seconds        INTEGER NOT NULL,
    PRIMARY KEY (server_id, name)
);

CREATE INDEX IF NOT EXISTS idx_zones_state ON zones (server_id, state);

CREATE TABLE IF NOT EXISTS server_defaults (
    server_id             TEXT PRIMARY KEY,
    radius                INTEGER NOT NULL,
    check_radius          REAL NOT NULL,
    colors                TEXT NOT NULL,
    offline_grace_seconds INTEGER NOT NULL,
    expire_seconds        INTEGER NOT NULL
);
`

// Store is a SQLite-backed zone store.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// UpsertZone durably stores the zone record. When touchLastOnline is set
// the row's last_online_at is stamped with the current time. Safe to
// call repeatedly with identical data.
func (s *Store) UpsertZone(ctx context.Context, z *zones.Zone, touchLastOnline bool) error {
	if err := z.Validate(); err != nil {
		return fmt.Errorf("validating zone %q: %w", z.Name, err)
	}

	members, err := json.Marshal(z.Members)
	if err != nil {
		return fmt.Errorf("encoding members: %w", err)
	}
	colors, err := json.Marshal(z.Colors)
	if err != nil {
		return fmt.Errorf("encoding colors: %w", err)
	}

	lastOnline := z.LastOnlineAt
	if touchLastOnline {
		lastOnline = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO zones (
    server_id, name, owner, members, pos_x, pos_y, pos_z, radius, state,
    colors, created_at, last_online_at, last_state_change,
    offline_grace_seconds, expire_seconds
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (server_id, name) DO UPDATE SET
    owner = excluded.owner,
    members = excluded.members,
    pos_x = excluded.pos_x,
    pos_y = excluded.pos_y,
    pos_z = excluded.pos_z,
    radius = excluded.radius,
    state = excluded.state,
    colors = excluded.colors,
    last_online_at = excluded.last_online_at,
    last_state_change = excluded.last_state_change,
    offline_grace_seconds = excluded.offline_grace_seconds,
    expire_seconds = excluded.expire_seconds`,
		z.ServerID, z.Name, z.Owner, string(members),
		z.Position.X, z.Position.Y, z.Position.Z, z.Radius, string(z.State),
		string(colors), z.CreatedAt.UTC().Format(timeFormat),
		lastOnline.UTC().Format(timeFormat),
		z.LastStateChange.UTC().Format(timeFormat),
		int64(z.OfflineGrace/time.Second), int64(z.Expire/time.Second))
	if err != nil {
		return fmt.Errorf("upserting zone %q: %w", z.Name, err)
	}

	return nil
}

// MarkExpired flips the row's state to expired without deleting it, so
// the claim remains visible as a historical trace.
func (s *Store) MarkExpired(ctx context.Context, serverID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE zones SET state = ?, last_state_change = ? WHERE server_id = ? AND name = ?`,
		string(zones.StateExpired), time.Now().UTC().Format(timeFormat), serverID, name)
	if err != nil {
		return fmt.Errorf("marking zone %q expired: %w", name, err)
	}
	return nil
}

// DeleteZone removes the row entirely. Used by the cleanup loop once the
// in-game object is gone; only then may the zone name be reused.
func (s *Store) DeleteZone(ctx context.Context, serverID, name string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM zones WHERE server_id = ? AND name = ?`, serverID, name)
	if err != nil {
		return fmt.Errorf("deleting zone %q: %w", name, err)
	}
	return nil
}

// LoadActiveZones returns every non-expired zone of the server that is
// still within its absolute expiry window. Used to rebuild the registry
// at startup.
func (s *Store) LoadActiveZones(ctx context.Context, serverID string) ([]*zones.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT server_id, name, owner, members, pos_x, pos_y, pos_z, radius, state,
       colors, created_at, last_online_at, last_state_change,
       offline_grace_seconds, expire_seconds
FROM zones WHERE server_id = ? AND state != ?`,
		serverID, string(zones.StateExpired))
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	now := time.Now().UTC()
	var out []*zones.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		if now.After(z.CreatedAt.Add(z.Expire)) {
			continue
		}
		out = append(out, z)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}

	return out, nil
}

// ExpiredZones returns zones the cleanup loop should tear down: rows
// already marked expired, plus rows whose last confirmed presence is
// older than their absolute expiry window.
func (s *Store) ExpiredZones(ctx context.Context, serverID string) ([]*zones.Zone, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT server_id, name, owner, members, pos_x, pos_y, pos_z, radius, state,
       colors, created_at, last_online_at, last_state_change,
       offline_grace_seconds, expire_seconds
FROM zones WHERE server_id = ?`, serverID)
	if err != nil {
		return nil, fmt.Errorf("querying zones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	now := time.Now().UTC()
	var out []*zones.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, err
		}
		if z.State == zones.StateExpired || now.After(z.LastOnlineAt.Add(z.Expire)) {
			out = append(out, z)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating zones: %w", err)
	}

	return out, nil
}

func scanZone(rows *sql.Rows) (*zones.Zone, error) {
	var (
		z                              zones.Zone
		members, colors, state         string
		createdAt, lastOnline, lastChg string
		graceSeconds, expireSeconds    int64
	)

	err := rows.Scan(&z.ServerID, &z.Name, &z.Owner, &members,
		&z.Position.X, &z.Position.Y, &z.Position.Z, &z.Radius, &state,
		&colors, &createdAt, &lastOnline, &lastChg,
		&graceSeconds, &expireSeconds)
	if err != nil {
		return nil, fmt.Errorf("scanning zone row: %w", err)
	}

	if err := json.Unmarshal([]byte(members), &z.Members); err != nil {
		return nil, fmt.Errorf("decoding members of %q: %w", z.Name, err)
	}
	if err := json.Unmarshal([]byte(colors), &z.Colors); err != nil {
		return nil, fmt.Errorf("decoding colors of %q: %w", z.Name, err)
	}

	z.State = zones.State(state)
	if z.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at of %q: %w", z.Name, err)
	}
	if z.LastOnlineAt, err = time.Parse(timeFormat, lastOnline); err != nil {
		return nil, fmt.Errorf("parsing last_online_at of %q: %w", z.Name, err)
	}
	if z.LastStateChange, err = time.Parse(timeFormat, lastChg); err != nil {
		return nil, fmt.Errorf("parsing last_state_change of %q: %w", z.Name, err)
	}
	z.OfflineGrace = time.Duration(graceSeconds) * time.Second
	z.Expire = time.Duration(expireSeconds) * time.Second

	return &z, nil
}

// PutServerDefaults stores the server's zone defaults, replacing any
// previous row.
func (s *Store) PutServerDefaults(ctx context.Context, serverID string, d zones.Defaults) error {
	colors, err := json.Marshal(d.Colors)
	if err != nil {
		return fmt.Errorf("encoding colors: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO server_defaults (server_id, radius, check_radius, colors,
    offline_grace_seconds, expire_seconds)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (server_id) DO UPDATE SET
    radius = excluded.radius,
    check_radius = excluded.check_radius,
    colors = excluded.colors,
    offline_grace_seconds = excluded.offline_grace_seconds,
    expire_seconds = excluded.expire_seconds`,
		serverID, d.Radius, d.CheckRadius, string(colors),
		int64(d.OfflineGrace/time.Second), int64(d.Expire/time.Second))
	if err != nil {
		return fmt.Errorf("storing defaults for %q: %w", serverID, err)
	}

	return nil
}

// GetServerDefaults returns the stored defaults for serverID. The second
// return is false when no row exists.
func (s *Store) GetServerDefaults(ctx context.Context, serverID string) (zones.Defaults, bool, error) {
	var (
		d            zones.Defaults
		colors       string
		grace, expir int64
	)

	err := s.db.QueryRowContext(ctx, `
SELECT radius, check_radius, colors, offline_grace_seconds, expire_seconds
FROM server_defaults WHERE server_id = ?`, serverID).
		Scan(&d.Radius, &d.CheckRadius, &colors, &grace, &expir)
	if err == sql.ErrNoRows {
		return zones.Defaults{}, false, nil
	}
	if err != nil {
		return zones.Defaults{}, false, fmt.Errorf("querying defaults for %q: %w", serverID, err)
	}

	if err := json.Unmarshal([]byte(colors), &d.Colors); err != nil {
		return zones.Defaults{}, false, fmt.Errorf("decoding colors: %w", err)
	}
	d.OfflineGrace = time.Duration(grace) * time.Second
	d.Expire = time.Duration(expir) * time.Second

	return d, true, nil
}

var _ zones.Store = (*Store)(nil)
