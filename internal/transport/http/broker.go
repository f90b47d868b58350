package http

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-relay/internal/proto"
)

const defaultSendBuffer = 16

// wsConn is a live connection as seen by the broker: an id plus its
// outbound queue, drained by the connection's write pump.
type wsConn struct {
	id  string
	out chan proto.Outbound
}

// Broker tracks live connections and named broadcast channels. It
// implements core.Transport: unicast by connection id, publish to channel
// subscribers, subscribe/unsubscribe. Delivery is non-blocking; a full
// outbound queue drops the payload instead of stalling the router.
type Broker struct {
	mu       sync.RWMutex
	conns    map[string]*wsConn
	channels map[string]map[string]struct{} // channel -> set of conn ids
	buffer   int
	log      *zerolog.Logger
}

// NewBroker builds a broker whose per-connection queues hold sendBuffer
// outbound messages.
func NewBroker(sendBuffer int, logger *zerolog.Logger) *Broker {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Broker{
		conns:    make(map[string]*wsConn),
		channels: make(map[string]map[string]struct{}),
		buffer:   sendBuffer,
		log:      logger,
	}
}

// Attach registers a connection and returns its outbound queue. The queue
// is never closed; readers stop when their context does.
func (b *Broker) Attach(connID string) <-chan proto.Outbound {
	c := &wsConn{id: connID, out: make(chan proto.Outbound, b.buffer)}

	b.mu.Lock()
	b.conns[connID] = c
	b.mu.Unlock()

	return c.out
}

// Detach forgets a connection and drops all its channel subscriptions.
func (b *Broker) Detach(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.conns, connID)
	for name, subs := range b.channels {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(b.channels, name)
		}
	}
}

// Enqueue places an outbound message on a connection's queue, dropping it
// if the connection is gone or its queue is full.
func (b *Broker) Enqueue(connID string, out proto.Outbound) {
	b.mu.RLock()
	c, ok := b.conns[connID]
	b.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case c.out <- out:
	default:
		b.log.Debug().Str("conn_id", connID).Str("event", out.Event).Msg("slow consumer, dropping outbound")
	}
}

// Send delivers a named event to one connection.
func (b *Broker) Send(connID, event string, payload any) {
	b.Enqueue(connID, proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: event,
		Data:  payload,
	})
}

// Publish delivers a named event to every subscriber of a channel.
func (b *Broker) Publish(channel, event string, payload any) {
	b.mu.RLock()
	subs := make([]string, 0, len(b.channels[channel]))
	for id := range b.channels[channel] {
		subs = append(subs, id)
	}
	b.mu.RUnlock()

	out := proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: event,
		Data:  payload,
	}
	for _, id := range subs {
		b.Enqueue(id, out)
	}
}

// Subscribe adds a connection to a broadcast channel. Idempotent.
func (b *Broker) Subscribe(connID, channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.conns[connID]; !ok {
		return
	}
	subs, ok := b.channels[channel]
	if !ok {
		subs = make(map[string]struct{})
		b.channels[channel] = subs
	}
	subs[connID] = struct{}{}
}

// Unsubscribe removes a connection from a broadcast channel.
func (b *Broker) Unsubscribe(connID, channel string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.channels[channel]
	if !ok {
		return
	}
	delete(subs, connID)
	if len(subs) == 0 {
		delete(b.channels, channel)
	}
}
