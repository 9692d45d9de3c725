// Package ws implements the websocket connection gate: handshake
// authentication, presence registration and the per-connection event loop.
package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/codecommunity/chat-server/internal/auth"
	"github.com/codecommunity/chat-server/internal/errs"
	"github.com/codecommunity/chat-server/internal/limiter"
	"github.com/codecommunity/chat-server/internal/realtime"
	"github.com/codecommunity/chat-server/internal/service"
)

const (
	readTimeout  = 60 * time.Second
	eventTimeout = 5 * time.Second
	maxFrameSize = 1 << 20
)

// Gate authenticates incoming persistent connections and runs their event
// loops. A connection that fails the handshake never reaches the registry.
type Gate struct {
	verifier *auth.Verifier
	registry *realtime.Registry
	delivery service.DeliveryService
	lim      limiter.Limiter
	log      *zap.Logger
	upgrader websocket.Upgrader
}

// NewGate constructs a Gate with required dependencies.
func NewGate(verifier *auth.Verifier, registry *realtime.Registry, delivery service.DeliveryService, lim limiter.Limiter, log *zap.Logger) *Gate {
	return &Gate{
		verifier: verifier,
		registry: registry,
		delivery: delivery,
		lim:      lim,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP performs the handshake and, on success, blocks serving the
// connection until the client disconnects.
func (g *Gate) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ipHash := limiter.HashIP(remoteIP(r))

	allowed, retryAfter, err := g.lim.Allow(ctx, ipHash)
	if err != nil {
		g.log.Error("handshake limiter", zap.Error(err))
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	if !allowed {
		g.log.Warn("handshake rate limited", zap.Duration("retryAfter", retryAfter))
		http.Error(w, "too many attempts", http.StatusTooManyRequests)
		return
	}

	userID, err := g.authenticate(r)
	if err != nil {
		// Record the failure before rejecting; the connection never reaches
		// the open state and no presence entry is made.
		if _, _, ferr := g.lim.Failure(ctx, ipHash); ferr != nil {
			g.log.Warn("record handshake failure", zap.Error(ferr))
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	_ = g.lim.Success(ctx, ipHash)

	sock, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the response.
		return
	}

	conn := realtime.NewConn(userID, sock)
	g.registry.Join(conn)
	conn.Start()
	defer func() {
		// Presence must be gone before the handler returns so no further
		// fan-out can target a dead session.
		g.registry.Leave(conn.ID())
		conn.Close(websocket.CloseNormalClosure, "session closed")
	}()

	g.log.Info("session open",
		zap.String("userID", userID.String()),
		zap.String("sessionID", conn.ID()),
	)
	g.readLoop(ctx, conn, sock)
	g.log.Info("session closed",
		zap.String("userID", userID.String()),
		zap.String("sessionID", conn.ID()),
	)
}

// authenticate extracts the credential from the Authorization header or the
// token query parameter (browser websocket clients cannot set headers).
func (g *Gate) authenticate(r *http.Request) (uuid.UUID, error) {
	token := ""
	if h := r.Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		token = h[7:]
	}
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return uuid.Nil, errs.ErrInvalidCredential
	}
	return g.verifier.Verify(token)
}

// readLoop handles inbound frames one at a time: an event completes before
// the next one on the same connection is read, preserving per-connection
// ordering.
func (g *Gate) readLoop(ctx context.Context, conn *realtime.Conn, sock *websocket.Conn) {
	sock.SetReadLimit(maxFrameSize)
	_ = sock.SetReadDeadline(time.Now().Add(readTimeout))
	sock.SetPongHandler(func(string) error {
		return sock.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) && !errors.Is(err, websocket.ErrCloseSent) {
				g.log.Debug("socket read", zap.Error(err))
			}
			return
		}

		var evt realtime.Event
		if err := json.Unmarshal(data, &evt); err != nil {
			g.replyError(conn, "bad_request", "invalid frame")
			continue
		}
		g.dispatch(ctx, conn, evt)
	}
}

func (g *Gate) dispatch(parent context.Context, conn *realtime.Conn, evt realtime.Event) {
	ctx, cancel := context.WithTimeout(parent, eventTimeout)
	defer cancel()

	switch evt.Event {
	case realtime.EventSendMessage:
		var p realtime.SendMessagePayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			g.replyError(conn, "bad_request", "invalid sendMessage payload")
			return
		}
		if _, err := g.delivery.Send(ctx, conn.UserID(), p.Receiver, p.Message); err != nil {
			g.replyEventError(conn, evt.Event, err)
		}

	case realtime.EventMarkDelivered:
		if err := g.delivery.MarkDelivered(ctx, conn.UserID()); err != nil {
			g.replyEventError(conn, evt.Event, err)
		}

	case realtime.EventReadMessages:
		var p realtime.ReadMessagesPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			g.replyError(conn, "bad_request", "invalid readMessages payload")
			return
		}
		if err := g.delivery.MarkRead(ctx, conn.UserID(), p.FromUserID); err != nil {
			g.replyEventError(conn, evt.Event, err)
		}

	case realtime.EventTyping, realtime.EventStopTyping:
		var p realtime.TypingTargetPayload
		if err := json.Unmarshal(evt.Data, &p); err != nil {
			g.replyError(conn, "bad_request", "invalid typing payload")
			return
		}
		g.delivery.Typing(conn.UserID(), p.ReceiverID, evt.Event == realtime.EventStopTyping)

	default:
		g.replyError(conn, "unsupported_event", "unknown event name")
	}
}

// replyEventError maps a handler error onto an error event for the
// originating session only; the connection stays up.
func (g *Gate) replyEventError(conn *realtime.Conn, event string, err error) {
	g.log.Warn("event failed",
		zap.String("event", event),
		zap.String("userID", conn.UserID().String()),
		zap.Error(err),
	)
	code := "internal_error"
	if errors.Is(err, errs.ErrEmptyMessage) {
		code = "bad_request"
	}
	g.replyError(conn, code, err.Error())
}

func (g *Gate) replyError(conn *realtime.Conn, code, message string) {
	evt, err := realtime.NewEvent(realtime.EventError, realtime.ErrorPayload{Code: code, Message: message})
	if err != nil {
		return
	}
	_ = conn.Send(evt)
}

func remoteIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
