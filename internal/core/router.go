package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-relay/internal/proto"
)

// Router applies the validation and fan-out rules for every inbound event.
// It owns no collections itself: sessions live in the Directory and
// memberships in the Registry, both mutated only under the router's lock.
//
// Pushes to other connections go through the Transport and are
// fire-and-forget: the caller's result never waits on recipients.
type Router struct {
	mu        sync.Mutex
	directory *Directory
	registry  *Registry
	transport Transport
	log       *zerolog.Logger

	now func() time.Time
}

// NewRouter constructs a router with empty session and group stores.
func NewRouter(transport Transport, logger *zerolog.Logger) *Router {
	return &Router{
		directory: NewDirectory(),
		registry:  NewRegistry(),
		transport: transport,
		log:       logger,
		now:       time.Now,
	}
}

// timestamp is the event-processing wall-clock time as an ISO-8601 string.
func (r *Router) timestamp() string {
	return r.now().UTC().Format(time.RFC3339)
}

// Register binds a display name to the calling connection. Returns Created
// for a new name, Reattached when a known name reconnects from a new
// connection, and ErrNameTaken when the owning connection registers the
// same name again.
func (r *Router) Register(connID, username string) (RegisterOutcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// A connection that already owns a session and registers a different
	// name is rebound: the old session goes through the same cleanup as a
	// disconnect, keeping one session per connection.
	if cur, ok := r.directory.FindByConn(connID); ok && cur.Name != username {
		r.dropSessionLocked(cur)
	}

	outcome, sess, err := r.directory.Register(username, connID)
	if err != nil {
		return 0, err
	}

	r.log.Debug().
		Str("user", sess.Name).
		Str("conn_id", connID).
		Str("session_id", sess.ID).
		Bool("reattached", outcome == Reattached).
		Msg("session registered")
	return outcome, nil
}

// SendPrivate delivers a direct message to the recipient's current
// connection. The sender must be registered and the recipient must have a
// live session.
func (r *Router) SendPrivate(connID, to, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sender, ok := r.directory.FindByConn(connID)
	if !ok {
		return ErrNotRegistered
	}
	recipient, ok := r.directory.FindByName(to)
	if !ok {
		return ErrRecipientNotFound
	}

	r.transport.Send(recipient.Conn, proto.EventPrivateMessage, proto.PrivateMessageEvent{
		From:      sender.Name,
		Message:   message,
		Timestamp: r.timestamp(),
	})
	return nil
}

// JoinGroup adds the caller to a group, creating it on first reference,
// subscribes the caller's connection to the group channel and announces the
// join to all subscribers. Returns the member list after the join.
func (r *Router) JoinGroup(connID, group string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.directory.FindByConn(connID)
	if !ok {
		return nil, ErrNotRegistered
	}

	g := r.registry.GetOrCreate(group)
	g.AddMember(sess.Name)

	channel := GroupChannel(group)
	r.transport.Subscribe(connID, channel)
	r.transport.Publish(channel, proto.EventUserJoined, proto.PresenceEvent{
		Group:     group,
		User:      sess.Name,
		Timestamp: r.timestamp(),
	})
	return g.MemberNames(), nil
}

// LeaveGroup removes the caller from an existing group, unsubscribes the
// connection and announces the leave to the remaining subscribers. Leaving
// a group the caller never joined still succeeds; only an unknown group
// fails.
func (r *Router) LeaveGroup(connID, group string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.directory.FindByConn(connID)
	if !ok {
		return ErrNotRegistered
	}
	g, ok := r.registry.Find(group)
	if !ok {
		return ErrGroupNotFound
	}

	g.RemoveMember(sess.Name)

	channel := GroupChannel(group)
	r.transport.Unsubscribe(connID, channel)
	r.transport.Publish(channel, proto.EventUserLeft, proto.PresenceEvent{
		Group:     group,
		User:      sess.Name,
		Timestamp: r.timestamp(),
	})
	return nil
}

// SendGroupMessage broadcasts a message to all subscribers of a group's
// channel. The caller must be registered and a member of the group.
func (r *Router) SendGroupMessage(connID, group, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.directory.FindByConn(connID)
	if !ok {
		return ErrNotRegistered
	}
	g, ok := r.registry.Find(group)
	if !ok {
		return ErrGroupNotFound
	}
	if !g.HasMember(sess.Name) {
		return ErrNotAMember
	}

	r.transport.Publish(GroupChannel(group), proto.EventGroupMessage, proto.GroupMessageEvent{
		Group:     group,
		From:      sess.Name,
		Message:   message,
		Timestamp: r.timestamp(),
	})
	return nil
}

// Users returns a snapshot of all registered display names.
func (r *Router) Users() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.directory.Names()
}

// Groups returns summaries of all groups, empty ones included.
func (r *Router) Groups() []GroupInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registry.Groups()
}

// GroupMembers returns the member list of an existing group.
func (r *Router) GroupMembers(group string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.registry.MemberNames(group)
	if !ok {
		return nil, ErrGroupNotFound
	}
	return members, nil
}

// Disconnect removes the session owned by a closed connection and cascades
// the member out of every group. Graceful and abrupt closes take the same
// path, and nobody is notified in-band; only explicit leaves are announced.
func (r *Router) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.directory.FindByConn(connID)
	if !ok {
		return
	}
	r.dropSessionLocked(sess)

	r.log.Debug().
		Str("user", sess.Name).
		Str("conn_id", connID).
		Msg("session closed")
}

// dropSessionLocked removes a session and its group memberships. Callers
// must hold r.mu.
func (r *Router) dropSessionLocked(s *Session) {
	r.directory.RemoveByConn(s.Conn)
	for _, group := range r.registry.RemoveMemberFromAll(s.Name) {
		r.transport.Unsubscribe(s.Conn, GroupChannel(group))
	}
}
