package websocket

import (
	"time"

	"github.com/gorilla/websocket"

	"amravatimarket/pkg/errors"
	"amravatimarket/pkg/logger"
	"amravatimarket/pkg/realtime"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Frame types.
const (
	FrameTypeSnapshot = "snapshot"
	FrameTypeError    = "error"
)

type FrameError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Frame is the only message shape written to stream clients.
type Frame struct {
	Type      string      `json:"type"`
	Stream    string      `json:"stream"`
	Data      any         `json:"data,omitempty"`
	Error     *FrameError `json:"error,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// readPump discards client frames and closes c when the peer goes away.
// Stream clients never send anything meaningful, but reading is required to
// process pongs and close frames.
func (c *Client) readPump() {
	defer c.Close()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("Websocket read error", "client_id", c.ID, "error", err)
			}
			return
		}
	}
}

func (c *Client) write(frame Frame) error {
	frame.Stream = c.Stream
	frame.Timestamp = time.Now().Unix()
	c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(frame)
}

// Serve pumps sub's snapshots to the client until either side closes. It
// always closes sub and the connection before returning.
func Serve[T any](m *Manager, c *Client, sub *realtime.Subscription[T]) {
	m.Register(c)
	defer m.Unregister(c)
	defer c.Conn.Close()
	defer sub.Close()

	go c.readPump()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case items, ok := <-sub.Updates():
			if !ok {
				code := websocket.CloseNormalClosure
				if err := sub.Err(); err != nil {
					code = websocket.CloseInternalServerErr
					logger.Warn("Stream listener failed", "stream", c.Stream, "user_id", c.UserID, "error", err)
					_ = c.write(Frame{Type: FrameTypeError, Error: &FrameError{
						Code:    errors.Code(err),
						Message: "live updates stopped, please reconnect",
					}})
				}
				c.closeMessage(code)
				return
			}
			if items == nil {
				items = []T{}
			}
			if err := c.write(Frame{Type: FrameTypeSnapshot, Data: items}); err != nil {
				logger.Debug("Websocket write failed", "client_id", c.ID, "error", err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.Done():
			c.closeMessage(websocket.CloseNormalClosure)
			return
		}
	}
}

func (c *Client) closeMessage(code int) {
	msg := websocket.FormatCloseMessage(code, "")
	_ = c.Conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
