package proto

import "encoding/json"

// Inbound is the envelope for events coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeRegister        = "register"
	InboundTypePrivateMessage  = "privateMessage"
	InboundTypeJoinGroup       = "joinGroup"
	InboundTypeLeaveGroup      = "leaveGroup"
	InboundTypeGroupMessage    = "groupMessage"
	InboundTypeGetUsers        = "getUsers"
	InboundTypeGetGroups       = "getGroups"
	InboundTypeGetGroupDetails = "getGroupDetails"

	OutboundTypeAck   = "ack"
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventPrivateMessage = "privateMessage"
	EventGroupMessage   = "groupMessage"
	EventUserJoined     = "userJoined"
	EventUserLeft       = "userLeft"
)

// RegisterData claims a display name for the calling connection.
type RegisterData struct {
	Username string `json:"username"`
}

// PrivateMessageData is a direct message to a registered user.
type PrivateMessageData struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// GroupData names the group for join, leave and details requests.
type GroupData struct {
	GroupName string `json:"groupName"`
}

// GroupMessageData is a broadcast message to a group.
type GroupMessageData struct {
	Group   string `json:"group"`
	Message string `json:"message"`
}

// Outbound is the envelope for acks, pushed events and protocol errors
// sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Error describes a protocol-level error response. Domain failures are
// acks with success=false, not Errors.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

// Ack is the generic success/failure acknowledgment.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// JoinGroupAck acknowledges a join with the member list after it.
type JoinGroupAck struct {
	Success bool     `json:"success"`
	Members []string `json:"members"`
}

// UsersAck lists all registered display names.
type UsersAck struct {
	Users []string `json:"users"`
}

// GroupSummary is one row of a group listing.
type GroupSummary struct {
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
}

// GroupsAck lists all groups with their member counts.
type GroupsAck struct {
	Groups []GroupSummary `json:"groups"`
}

// GroupDetails is the full view of one group.
type GroupDetails struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// GroupDetailsAck acknowledges a details request.
type GroupDetailsAck struct {
	Success bool         `json:"success"`
	Group   GroupDetails `json:"group"`
}

// PrivateMessageEvent is pushed to the recipient of a direct message.
type PrivateMessageEvent struct {
	From      string `json:"from"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// GroupMessageEvent is published to all subscribers of a group channel.
type GroupMessageEvent struct {
	Group     string `json:"group"`
	From      string `json:"from"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// PresenceEvent announces an explicit join or leave to group subscribers.
type PresenceEvent struct {
	Group     string `json:"group"`
	User      string `json:"user"`
	Timestamp string `json:"timestamp"`
}
