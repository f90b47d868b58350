package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-relay/internal/core"
	"github.com/vovakirdan/presence-relay/internal/proto"
)

// WSHandler upgrades HTTP connections and bridges them to the Router.
type WSHandler struct {
	router     *core.Router
	broker     *Broker
	eventLimit int
	log        *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler. eventLimit caps inbound
// events per connection per minute; zero disables the cap.
func NewWSHandler(router *core.Router, broker *Broker, eventLimit int, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		router:     router,
		broker:     broker,
		eventLimit: eventLimit,
		log:        logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")

	connID := uuid.NewString()
	out := h.broker.Attach(connID)
	defer func() {
		// One cleanup path for graceful and abrupt closes alike.
		h.broker.Detach(connID)
		h.router.Disconnect(connID)
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	limiter := newEventLimiter(h.eventLimit)
	limiter.startReset(ctx.Done())

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, connID, limiter)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, out)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", connID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, connID string, limiter *eventLimiter) error {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, conn, &inbound); err != nil {
			return err
		}

		if !limiter.allow() {
			h.broker.Enqueue(connID, proto.Outbound{
				Type:  proto.OutboundTypeError,
				Event: inbound.Type,
				Error: &proto.Error{Code: "rate_limited", Msg: "event budget exceeded"},
			})
			continue
		}

		h.broker.Enqueue(connID, h.dispatch(connID, inbound))
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan proto.Outbound) error {
	for {
		select {
		case outbound := <-out:
			if err := wsjson.Write(ctx, conn, outbound); err != nil {
				h.log.Error().Err(err).Str("event", outbound.Event).Msg("write ws outbound")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
