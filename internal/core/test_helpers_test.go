package core

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const testTimestamp = "2024-05-01T12:00:00Z"

// delivery records one transport call made by the router.
type delivery struct {
	Conn    string // unicast target, empty for publishes
	Channel string // publish channel, empty for unicast
	Event   string
	Payload any
}

// fakeTransport records every transport call for assertions.
type fakeTransport struct {
	mu         sync.Mutex
	deliveries []delivery
	subs       map[string]map[string]struct{} // channel -> conn ids
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{subs: make(map[string]map[string]struct{})}
}

func (f *fakeTransport) Send(connID, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{Conn: connID, Event: event, Payload: payload})
}

func (f *fakeTransport) Publish(channel, event string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliveries = append(f.deliveries, delivery{Channel: channel, Event: event, Payload: payload})
}

func (f *fakeTransport) Subscribe(connID, channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs, ok := f.subs[channel]
	if !ok {
		subs = make(map[string]struct{})
		f.subs[channel] = subs
	}
	subs[connID] = struct{}{}
}

func (f *fakeTransport) Unsubscribe(connID, channel string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[channel], connID)
}

func (f *fakeTransport) subscribed(connID, channel string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.subs[channel][connID]
	return ok
}

// byEvent returns all recorded deliveries carrying the given event name.
func (f *fakeTransport) byEvent(event string) []delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []delivery
	for _, d := range f.deliveries {
		if d.Event == event {
			matched = append(matched, d)
		}
	}
	return matched
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deliveries)
}

func mustOneDelivery(t *testing.T, deliveries []delivery) delivery {
	t.Helper()
	if len(deliveries) != 1 {
		t.Fatalf("expected exactly one delivery, got %d: %+v", len(deliveries), deliveries)
	}
	return deliveries[0]
}

func newTestRouter() (*Router, *fakeTransport) {
	ft := newFakeTransport()
	logger := zerolog.Nop()
	r := NewRouter(ft, &logger)
	r.now = func() time.Time { return testTime }
	return r, ft
}
