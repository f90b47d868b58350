package core

import (
	"sort"

	"github.com/google/uuid"
)

// Session is the live binding between a display name and its current connection.
type Session struct {
	ID   string // opaque session identifier, unique for the process lifetime
	Name string // display name, unique and case-sensitive
	Conn string // transport connection id, stable for the socket lifetime
}

// RegisterOutcome describes how a register call was satisfied.
type RegisterOutcome int

const (
	// Created means a new session was created for the display name.
	Created RegisterOutcome = iota
	// Reattached means an existing session was taken over by a new connection.
	Reattached
)

// Directory is the authoritative store of sessions. It is not safe for
// concurrent use; the Router serializes all access.
type Directory struct {
	byName map[string]*Session
	byConn map[string]*Session
}

// NewDirectory constructs an empty session directory.
func NewDirectory() *Directory {
	return &Directory{
		byName: make(map[string]*Session),
		byConn: make(map[string]*Session),
	}
}

// Register binds a display name to a connection.
//
// A new name gets a fresh session. A known name registered from a different
// connection is a reconnect: the stored connection id is overwritten and the
// session kept. A known name registered again from the connection that
// already holds it is rejected with ErrNameTaken.
//
// Callers must ensure connID does not already own a session under another
// name before registering (see Router.Register).
func (d *Directory) Register(name, connID string) (RegisterOutcome, *Session, error) {
	if s, ok := d.byName[name]; ok {
		if s.Conn == connID {
			return 0, nil, ErrNameTaken
		}
		delete(d.byConn, s.Conn)
		s.Conn = connID
		d.byConn[connID] = s
		return Reattached, s, nil
	}

	s := &Session{
		ID:   uuid.NewString(),
		Name: name,
		Conn: connID,
	}
	d.byName[name] = s
	d.byConn[connID] = s
	return Created, s, nil
}

// FindByConn returns the session owned by the given connection.
func (d *Directory) FindByConn(connID string) (*Session, bool) {
	s, ok := d.byConn[connID]
	return s, ok
}

// FindByName returns the session for the given display name.
func (d *Directory) FindByName(name string) (*Session, bool) {
	s, ok := d.byName[name]
	return s, ok
}

// RemoveByConn deletes the session owned by the given connection and returns
// it so the caller can cascade group-membership cleanup.
func (d *Directory) RemoveByConn(connID string) (*Session, bool) {
	s, ok := d.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(d.byConn, connID)
	delete(d.byName, s.Name)
	return s, true
}

// Names returns a sorted snapshot of all registered display names.
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.byName))
	for name := range d.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of live sessions.
func (d *Directory) Len() int {
	return len(d.byName)
}
