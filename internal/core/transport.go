package core

// Transport abstracts the connection layer the Router delivers through.
// This interface lets the core route events without depending on any
// specific socket or pub/sub implementation.
//
// Implementations must never block: delivery to a slow or dead connection
// is dropped, not waited on, so the Router can call these while holding
// its lock.
type Transport interface {
	// Send delivers a named event to one connection.
	Send(connID, event string, payload any)

	// Publish delivers a named event to every connection subscribed to
	// the channel.
	Publish(channel, event string, payload any)

	// Subscribe adds the connection to a broadcast channel.
	Subscribe(connID, channel string)

	// Unsubscribe removes the connection from a broadcast channel.
	Unsubscribe(connID, channel string)
}

// groupChannelPrefix keeps group broadcast channels in a namespace distinct
// from direct connection addressing.
const groupChannelPrefix = "group:"

// GroupChannel returns the broadcast channel backing a group.
func GroupChannel(group string) string {
	return groupChannelPrefix + group
}
