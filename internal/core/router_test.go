package core

import (
	"errors"
	"reflect"
	"testing"

	"github.com/vovakirdan/presence-relay/internal/proto"
)

func TestRouterRegisterOutcomes(t *testing.T) {
	r, _ := newTestRouter()

	outcome, err := r.Register("c1", "alice")
	if err != nil || outcome != Created {
		t.Fatalf("expected Created, got %v err=%v", outcome, err)
	}

	// Reconnect from a new connection takes over the name.
	outcome, err = r.Register("c2", "alice")
	if err != nil || outcome != Reattached {
		t.Fatalf("expected Reattached, got %v err=%v", outcome, err)
	}

	// Re-registering from the connection that holds the name is rejected.
	if _, err := r.Register("c2", "alice"); !errors.Is(err, ErrNameTaken) {
		t.Fatalf("expected ErrNameTaken, got %v", err)
	}

	// At most one live session per display name.
	if users := r.Users(); !reflect.DeepEqual(users, []string{"alice"}) {
		t.Fatalf("expected single alice session, got %v", users)
	}
}

func TestRouterRegisterRebindsConnection(t *testing.T) {
	r, ft := newTestRouter()

	mustRegister(t, r, "c1", "alice")
	if _, err := r.JoinGroup("c1", "g1"); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// Same connection claims a fresh name: the old session is dropped
	// with the same cascade a disconnect would run.
	outcome, err := r.Register("c1", "bob")
	if err != nil || outcome != Created {
		t.Fatalf("expected Created for rebind, got %v err=%v", outcome, err)
	}

	if users := r.Users(); !reflect.DeepEqual(users, []string{"bob"}) {
		t.Fatalf("expected only bob, got %v", users)
	}
	members, err := r.GroupMembers("g1")
	if err != nil || len(members) != 0 {
		t.Fatalf("expected empty g1 after rebind, got %v err=%v", members, err)
	}
	if ft.subscribed("c1", GroupChannel("g1")) {
		t.Fatal("rebind should unsubscribe the old session's channels")
	}
}

func TestRouterPrivateMessageDelivery(t *testing.T) {
	r, ft := newTestRouter()
	mustRegister(t, r, "c1", "alice")
	mustRegister(t, r, "c2", "bob")

	if err := r.SendPrivate("c1", "bob", "hello"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	d := mustOneDelivery(t, ft.byEvent(proto.EventPrivateMessage))
	if d.Conn != "c2" {
		t.Fatalf("expected delivery to c2 only, got %+v", d)
	}
	payload, ok := d.Payload.(proto.PrivateMessageEvent)
	if !ok {
		t.Fatalf("unexpected payload type: %T", d.Payload)
	}
	want := proto.PrivateMessageEvent{From: "alice", Message: "hello", Timestamp: testTimestamp}
	if payload != want {
		t.Fatalf("expected %+v, got %+v", want, payload)
	}
}

func TestRouterPrivateMessageFollowsReattachment(t *testing.T) {
	r, ft := newTestRouter()
	mustRegister(t, r, "c1", "alice")
	mustRegister(t, r, "c2", "bob")

	// Bob reconnects from a new connection before the message is sent.
	if _, err := r.Register("c3", "bob"); err != nil {
		t.Fatalf("reattach failed: %v", err)
	}
	if err := r.SendPrivate("c1", "bob", "still there?"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	d := mustOneDelivery(t, ft.byEvent(proto.EventPrivateMessage))
	if d.Conn != "c3" {
		t.Fatalf("expected delivery to bob's current connection c3, got %+v", d)
	}
}

func TestRouterPrivateMessageErrors(t *testing.T) {
	r, ft := newTestRouter()
	mustRegister(t, r, "c1", "alice")

	if err := r.SendPrivate("ghost", "alice", "hi"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if err := r.SendPrivate("c1", "nobody", "hi"); !errors.Is(err, ErrRecipientNotFound) {
		t.Fatalf("expected ErrRecipientNotFound, got %v", err)
	}
	if n := ft.count(); n != 0 {
		t.Fatalf("failed sends must not deliver anything, got %d deliveries", n)
	}
}

func TestRouterJoinGroup(t *testing.T) {
	r, ft := newTestRouter()
	mustRegister(t, r, "c1", "alice")

	members, err := r.JoinGroup("c1", "g1")
	if err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if !reflect.DeepEqual(members, []string{"alice"}) {
		t.Fatalf("expected [alice], got %v", members)
	}
	if !ft.subscribed("c1", GroupChannel("g1")) {
		t.Fatal("join must subscribe the connection to the group channel")
	}

	d := mustOneDelivery(t, ft.byEvent(proto.EventUserJoined))
	if d.Channel != GroupChannel("g1") {
		t.Fatalf("join notification on wrong channel: %+v", d)
	}
	want := proto.PresenceEvent{Group: "g1", User: "alice", Timestamp: testTimestamp}
	if d.Payload != want {
		t.Fatalf("expected %+v, got %+v", want, d.Payload)
	}
}

func TestRouterJoinGroupTwiceKeepsCount(t *testing.T) {
	r, _ := newTestRouter()
	mustRegister(t, r, "c1", "alice")

	if _, err := r.JoinGroup("c1", "g1"); err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	members, err := r.JoinGroup("c1", "g1")
	if err != nil {
		t.Fatalf("second join failed: %v", err)
	}
	if !reflect.DeepEqual(members, []string{"alice"}) {
		t.Fatalf("double join changed membership: %v", members)
	}
}

func TestRouterJoinGroupUnregistered(t *testing.T) {
	r, _ := newTestRouter()

	if _, err := r.JoinGroup("ghost", "g1"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if len(r.Groups()) != 0 {
		t.Fatal("rejected join must not create the group")
	}
}

func TestRouterLeaveGroup(t *testing.T) {
	r, ft := newTestRouter()
	mustRegister(t, r, "c1", "alice")
	mustRegister(t, r, "c2", "bob")
	if _, err := r.JoinGroup("c1", "g1"); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	// Unknown group is the only leave failure.
	if err := r.LeaveGroup("c1", "ghost"); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}

	// A non-member leaving an existing group still succeeds.
	if err := r.LeaveGroup("c2", "g1"); err != nil {
		t.Fatalf("non-member leave should succeed, got %v", err)
	}
	if members, _ := r.GroupMembers("g1"); !reflect.DeepEqual(members, []string{"alice"}) {
		t.Fatalf("non-member leave changed membership: %v", members)
	}

	if err := r.LeaveGroup("c1", "g1"); err != nil {
		t.Fatalf("leave failed: %v", err)
	}
	if ft.subscribed("c1", GroupChannel("g1")) {
		t.Fatal("leave must unsubscribe the connection")
	}
	if members, _ := r.GroupMembers("g1"); len(members) != 0 {
		t.Fatalf("expected empty group after leave, got %v", members)
	}

	left := ft.byEvent(proto.EventUserLeft)
	if len(left) != 2 {
		t.Fatalf("expected a leave notification per leave call, got %d", len(left))
	}
	want := proto.PresenceEvent{Group: "g1", User: "alice", Timestamp: testTimestamp}
	if left[1].Payload != want {
		t.Fatalf("expected %+v, got %+v", want, left[1].Payload)
	}
}

func TestRouterGroupMessageMembershipGate(t *testing.T) {
	r, ft := newTestRouter()
	mustRegister(t, r, "c1", "alice")
	mustRegister(t, r, "c2", "bob")
	if _, err := r.JoinGroup("c1", "g1"); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	if err := r.SendGroupMessage("ghost", "g1", "hi"); !errors.Is(err, ErrNotRegistered) {
		t.Fatalf("expected ErrNotRegistered, got %v", err)
	}
	if err := r.SendGroupMessage("c2", "ghost", "hi"); !errors.Is(err, ErrGroupNotFound) {
		t.Fatalf("expected ErrGroupNotFound, got %v", err)
	}
	if err := r.SendGroupMessage("c2", "g1", "hi"); !errors.Is(err, ErrNotAMember) {
		t.Fatalf("expected ErrNotAMember, got %v", err)
	}
	if len(ft.byEvent(proto.EventGroupMessage)) != 0 {
		t.Fatal("rejected group messages must not publish")
	}

	if err := r.SendGroupMessage("c1", "g1", "hi"); err != nil {
		t.Fatalf("member send failed: %v", err)
	}
	d := mustOneDelivery(t, ft.byEvent(proto.EventGroupMessage))
	if d.Channel != GroupChannel("g1") || d.Conn != "" {
		t.Fatalf("group message must go to the group channel only: %+v", d)
	}
	want := proto.GroupMessageEvent{Group: "g1", From: "alice", Message: "hi", Timestamp: testTimestamp}
	if d.Payload != want {
		t.Fatalf("expected %+v, got %+v", want, d.Payload)
	}
}

func TestRouterDisconnectCascade(t *testing.T) {
	r, ft := newTestRouter()
	mustRegister(t, r, "c1", "alice")
	for _, group := range []string{"g1", "g2"} {
		if _, err := r.JoinGroup("c1", group); err != nil {
			t.Fatalf("join %s failed: %v", group, err)
		}
	}
	before := ft.count()

	r.Disconnect("c1")

	if users := r.Users(); len(users) != 0 {
		t.Fatalf("session should be gone, got %v", users)
	}
	for _, group := range []string{"g1", "g2"} {
		members, err := r.GroupMembers(group)
		if err != nil {
			t.Fatalf("group %s vanished: %v", group, err)
		}
		if len(members) != 0 {
			t.Fatalf("alice still in %s after disconnect: %v", group, members)
		}
		if ft.subscribed("c1", GroupChannel(group)) {
			t.Fatalf("connection still subscribed to %s", group)
		}
	}

	// Disconnects are silent: no user_left or any other push.
	if ft.count() != before {
		t.Fatalf("disconnect must not broadcast, got %d new deliveries", ft.count()-before)
	}

	// Idempotent for unknown connections.
	r.Disconnect("c1")
}

func TestRouterEndToEnd(t *testing.T) {
	r, ft := newTestRouter()

	if outcome, err := r.Register("c1", "alice"); err != nil || outcome != Created {
		t.Fatalf("alice register: %v %v", outcome, err)
	}
	if outcome, err := r.Register("c2", "bob"); err != nil || outcome != Created {
		t.Fatalf("bob register: %v %v", outcome, err)
	}

	members, err := r.JoinGroup("c1", "g1")
	if err != nil || !reflect.DeepEqual(members, []string{"alice"}) {
		t.Fatalf("alice join: %v %v", members, err)
	}
	members, err = r.JoinGroup("c2", "g1")
	if err != nil || !reflect.DeepEqual(members, []string{"alice", "bob"}) {
		t.Fatalf("bob join: %v %v", members, err)
	}

	if err := r.SendGroupMessage("c1", "g1", "hi"); err != nil {
		t.Fatalf("group message: %v", err)
	}
	d := mustOneDelivery(t, ft.byEvent(proto.EventGroupMessage))
	want := proto.GroupMessageEvent{Group: "g1", From: "alice", Message: "hi", Timestamp: testTimestamp}
	if d.Channel != GroupChannel("g1") || d.Payload != want {
		t.Fatalf("expected %+v on g1 channel, got %+v", want, d)
	}

	r.Disconnect("c2")

	members, err = r.GroupMembers("g1")
	if err != nil || !reflect.DeepEqual(members, []string{"alice"}) {
		t.Fatalf("expected [alice] after bob disconnect, got %v err=%v", members, err)
	}
}

func mustRegister(t *testing.T, r *Router, connID, name string) {
	t.Helper()
	if _, err := r.Register(connID, name); err != nil {
		t.Fatalf("register %s on %s: %v", name, connID, err)
	}
}
