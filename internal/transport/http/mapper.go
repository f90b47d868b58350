package http

import (
	"encoding/json"

	"github.com/vovakirdan/presence-relay/internal/core"
	"github.com/vovakirdan/presence-relay/internal/proto"
)

// dispatch validates an inbound event, invokes the router and builds the
// synchronous ack. Malformed payloads never reach the router; they come
// back as protocol errors.
func (h *WSHandler) dispatch(connID string, in proto.Inbound) proto.Outbound {
	switch in.Type {
	case proto.InboundTypeRegister:
		var data proto.RegisterData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return malformed(in.Type)
		}
		if data.Username == "" {
			return badRequest(in.Type, "username is required")
		}
		outcome, err := h.router.Register(connID, data.Username)
		if err != nil {
			return failureAck(in.Type, err)
		}
		msg := "Registered"
		if outcome == core.Reattached {
			msg = "Reconnected"
		}
		return ack(in.Type, proto.Ack{Success: true, Message: msg})

	case proto.InboundTypePrivateMessage:
		var data proto.PrivateMessageData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return malformed(in.Type)
		}
		if data.To == "" {
			return badRequest(in.Type, "to is required")
		}
		if err := h.router.SendPrivate(connID, data.To, data.Message); err != nil {
			return failureAck(in.Type, err)
		}
		return ack(in.Type, proto.Ack{Success: true})

	case proto.InboundTypeJoinGroup:
		var data proto.GroupData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return malformed(in.Type)
		}
		if data.GroupName == "" {
			return badRequest(in.Type, "groupName is required")
		}
		members, err := h.router.JoinGroup(connID, data.GroupName)
		if err != nil {
			return failureAck(in.Type, err)
		}
		return ack(in.Type, proto.JoinGroupAck{Success: true, Members: members})

	case proto.InboundTypeLeaveGroup:
		var data proto.GroupData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return malformed(in.Type)
		}
		if data.GroupName == "" {
			return badRequest(in.Type, "groupName is required")
		}
		if err := h.router.LeaveGroup(connID, data.GroupName); err != nil {
			return failureAck(in.Type, err)
		}
		return ack(in.Type, proto.Ack{Success: true})

	case proto.InboundTypeGroupMessage:
		var data proto.GroupMessageData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return malformed(in.Type)
		}
		if data.Group == "" {
			return badRequest(in.Type, "group is required")
		}
		if err := h.router.SendGroupMessage(connID, data.Group, data.Message); err != nil {
			return failureAck(in.Type, err)
		}
		return ack(in.Type, proto.Ack{Success: true})

	case proto.InboundTypeGetUsers:
		return ack(in.Type, proto.UsersAck{Users: h.router.Users()})

	case proto.InboundTypeGetGroups:
		return ack(in.Type, proto.GroupsAck{Groups: groupSummaries(h.router.Groups())})

	case proto.InboundTypeGetGroupDetails:
		var data proto.GroupData
		if err := json.Unmarshal(in.Data, &data); err != nil {
			return malformed(in.Type)
		}
		if data.GroupName == "" {
			return badRequest(in.Type, "groupName is required")
		}
		members, err := h.router.GroupMembers(data.GroupName)
		if err != nil {
			return failureAck(in.Type, err)
		}
		return ack(in.Type, proto.GroupDetailsAck{
			Success: true,
			Group:   proto.GroupDetails{Name: data.GroupName, Members: members},
		})

	default:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: "invalid_message", Msg: "unknown event type"},
		}
	}
}

func groupSummaries(infos []core.GroupInfo) []proto.GroupSummary {
	groups := make([]proto.GroupSummary, 0, len(infos))
	for _, info := range infos {
		groups = append(groups, proto.GroupSummary{Name: info.Name, MemberCount: info.MemberCount})
	}
	return groups
}

func ack(event string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeAck, Event: event, Data: data}
}

func failureAck(event string, err error) proto.Outbound {
	return ack(event, proto.Ack{Success: false, Message: err.Error()})
}

func malformed(event string) proto.Outbound {
	return badRequest(event, "malformed payload")
}

func badRequest(event, msg string) proto.Outbound {
	return proto.Outbound{
		Type:  proto.OutboundTypeError,
		Event: event,
		Error: &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg},
	}
}
