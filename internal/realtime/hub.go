package realtime

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/rootedtogether/rooted/internal/logger"
	"github.com/rootedtogether/rooted/internal/models"
)

// EventNewMessage tells a connected client that a message arrived for them.
// It is a hint to refetch the conversation list and active thread, not a
// delivery channel: the engine's correctness never depends on it.
const EventNewMessage = "message.new"

var log = logger.New("realtime")

// Event is the envelope pushed to connected clients.
type Event struct {
	Type      string    `json:"type"`
	SenderID  uuid.UUID `json:"sender_id,omitempty"`
	MessageID uuid.UUID `json:"message_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// client is one connected, listen-only websocket.
type client struct {
	userID uuid.UUID
	socket *websocket.Conn
	send   chan []byte
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	clients    map[uuid.UUID]*client
	register   chan *client
	unregister chan *client
	mutex      sync.Mutex
}

// Notifier is the piece handlers depend on; a nil-safe no-op in tests.
type Notifier interface {
	NotifyNewMessage(recipient uuid.UUID, msg *models.Message)
}

// NewHub creates an empty hub. Call Run in its own goroutine.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
}

// Run processes client registration until the process exits.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mutex.Lock()
			if prev, ok := h.clients[c.userID]; ok {
				close(prev.send)
			}
			h.clients[c.userID] = c
			h.mutex.Unlock()
			log.Info("Client connected: %s", c.userID)
		case c := <-h.unregister:
			h.mutex.Lock()
			if cur, ok := h.clients[c.userID]; ok && cur == c {
				delete(h.clients, c.userID)
				close(c.send)
				log.Info("Client disconnected: %s", c.userID)
			}
			h.mutex.Unlock()
		}
	}
}

// NotifyNewMessage pushes a refetch hint to the recipient if they are
// connected. Disconnected recipients just see the message on their next load.
func (h *Hub) NotifyNewMessage(recipient uuid.UUID, msg *models.Message) {
	payload, err := json.Marshal(Event{
		Type:      EventNewMessage,
		SenderID:  msg.SenderID,
		MessageID: msg.ID,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		log.Error("Failed to encode event: %v", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	c, ok := h.clients[recipient]
	if !ok {
		log.Debug("User %s not connected", recipient)
		return
	}

	select {
	case c.send <- payload:
	default:
		close(c.send)
		delete(h.clients, recipient)
		log.Warn("Send buffer full for user %s, dropping client", recipient)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin is enforced by the CORS layer in front of this route.
		return true
	},
}

// Attach upgrades an authenticated request to a websocket and keeps it
// subscribed until the client goes away.
func (h *Hub) Attach(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user identification"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade connection: %v", err)
		return
	}

	cl := &client{
		userID: userUUID,
		socket: conn,
		send:   make(chan []byte, 64),
	}

	h.register <- cl

	go cl.readPump(h)
	go cl.writePump()
}

// readPump discards inbound frames; the socket is notify-only. It exists to
// observe pongs and the close handshake.
func (c *client) readPump(h *Hub) {
	defer func() {
		h.unregister <- c
		c.socket.Close()
	}()

	c.socket.SetReadLimit(512)
	c.socket.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.socket.SetPongHandler(func(string) error {
		c.socket.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := c.socket.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug("Read error from client %s: %v", c.userID, err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.socket.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.socket.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.socket.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
