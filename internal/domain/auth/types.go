package auth

// Package auth contains domain-level types for the client session.
// It is pure and free of framework/adapter concerns.

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Role represents an application's authorization role.
// Keep string form for easy persistence in the snapshot.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	// RoleNone is the role of an empty (logged out) session.
	RoleNone Role = ""
)

// SnapshotKey is the well-known storage key for the persisted session snapshot.
const SnapshotKey = "user"

// Identity is what the backend reports for a valid credential.
type Identity struct {
	Email string
	Role  Role
}

// Session is the authenticated identity and credential held by the client.
// A non-empty Token means the session is logged in.
type Session struct {
	Token      string
	Email      string
	Role       Role
	LoggedInAt *time.Time
}

// IsLoggedIn reports whether the session carries a credential.
func (s Session) IsLoggedIn() bool { return s.Token != "" }

// IsAdmin reports whether the session is logged in with the admin role.
func (s Session) IsAdmin() bool { return s.IsLoggedIn() && s.Role == RoleAdmin }

// IsZero reports whether every field is at its empty default.
func (s Session) IsZero() bool {
	return s.Token == "" && s.Email == "" && s.Role == RoleNone && s.LoggedInAt == nil
}

// Snapshot is the serialized record persisted to durable storage across restarts.
// Field names match the records written by earlier clients.
type Snapshot struct {
	LoginToken string     `json:"loginToken"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	LoggedInAt *time.Time `json:"loggedinAt"`
}

var errEmptySnapshot = errors.New("snapshot is empty")

// Snapshot converts the session into its persisted form.
func (s Session) Snapshot() Snapshot {
	return Snapshot{
		LoginToken: s.Token,
		Email:      s.Email,
		Role:       s.Role,
		LoggedInAt: s.LoggedInAt,
	}
}

// Session converts a persisted snapshot back into a session.
func (s Snapshot) Session() Session {
	return Session{
		Token:      s.LoginToken,
		Email:      s.Email,
		Role:       s.Role,
		LoggedInAt: s.LoggedInAt,
	}
}

// EncodeSnapshot serializes a snapshot for storage.
func EncodeSnapshot(s Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshot parses a stored snapshot. Blank or malformed content is an error;
// callers treat any error as "no persisted session".
func DecodeSnapshot(data []byte) (Snapshot, error) {
	if strings.TrimSpace(string(data)) == "" {
		return Snapshot{}, errEmptySnapshot
	}
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return s, nil
}
