package realtime

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 30 * time.Second
)

// ErrConnClosed is returned by Send after the connection has shut down.
var ErrConnClosed = errors.New("connection closed")

// Session is one live socket belonging to an authenticated user. The
// delivery engine fans events out to sessions without knowing about
// websockets; Conn is the production implementation.
type Session interface {
	ID() string
	UserID() uuid.UUID
	Send(evt Event) error
}

// Conn wraps a websocket and coordinates outbound writes via a buffered
// channel. Safe for concurrent use.
type Conn struct {
	id     string
	userID uuid.UUID

	ws    *websocket.Conn
	send  chan []byte
	once  sync.Once
	close chan struct{}
}

// NewConn constructs a Conn for an authenticated user.
func NewConn(userID uuid.UUID, ws *websocket.Conn) *Conn {
	return &Conn{
		id:     uuid.Must(uuid.NewV4()).String(),
		userID: userID,
		ws:     ws,
		send:   make(chan []byte, 128),
		close:  make(chan struct{}),
	}
}

// ID returns the session handle, unique per socket.
func (c *Conn) ID() string { return c.id }

// UserID returns the identity the socket authenticated as.
func (c *Conn) UserID() uuid.UUID { return c.userID }

// Start launches the write loop. It must be called exactly once per connection.
func (c *Conn) Start() {
	go c.writeLoop()
}

// Send enqueues an event for delivery. A client that cannot drain its buffer
// is disconnected to keep backpressure bounded.
func (c *Conn) Send(evt Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	select {
	case <-c.close:
		return ErrConnClosed
	case c.send <- payload:
		return nil
	default:
		c.Close(websocket.CloseGoingAway, "send buffer full")
		return ErrConnClosed
	}
}

// Close terminates the connection and stops the write loop.
func (c *Conn) Close(code int, reason string) {
	c.once.Do(func() {
		close(c.close)
		_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(writeWait))
		_ = c.ws.Close()
	})
}

func (c *Conn) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.close:
			return
		case msg := <-c.send:
			if err := c.writeMessage(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.writePing(); err != nil {
				return
			}
		}
	}
}

func (c *Conn) writeMessage(payload []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

func (c *Conn) writePing() error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.PingMessage, nil)
}
