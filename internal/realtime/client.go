package realtime

import (
	"encoding/json"
	"time"

	"employee-poll-backend/internal/logging"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

type clientMessage struct {
	Type       string `json:"type"`
	QuestionID string `json:"questionId"`
}

// Client is one WebSocket connection. rooms is guarded by the hub's lock.
type Client struct {
	hub   *Hub
	conn  *websocket.Conn
	send  chan []byte
	rooms map[string]struct{}
}

func newClient(h *Hub, conn *websocket.Conn) *Client {
	return &Client{
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
		rooms: make(map[string]struct{}),
	}
}

// trySend queues msg without blocking; slow clients lose frames. Caller holds the hub lock.
func (c *Client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
		logging.Log.Debug("Dropping realtime frame for slow client")
	}
}

func (c *Client) reply(event string, payload any) {
	msg, err := json.Marshal(Frame{Event: event, Data: payload})
	if err != nil {
		return
	}
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; ok {
		c.trySend(msg)
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Log.Debugf("Realtime connection closed: %v", err)
			}
			return
		}
		c.handle(data)
	}
}

func (c *Client) handle(data []byte) {
	var msg clientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(EventError, ErrorPayload("invalid message"))
		return
	}

	questionID, err := uuid.Parse(msg.QuestionID)
	if err != nil {
		c.reply(EventError, ErrorPayload("invalid questionId"))
		return
	}

	switch msg.Type {
	case "joinRoom":
		c.hub.join(c, QuestionRoom(questionID))
		c.reply(EventRoomJoined, RoomPayload(questionID))
	case "leaveRoom":
		c.hub.leave(c, QuestionRoom(questionID))
		c.reply(EventRoomLeft, RoomPayload(questionID))
	default:
		c.reply(EventError, ErrorPayload("unknown message type"))
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
