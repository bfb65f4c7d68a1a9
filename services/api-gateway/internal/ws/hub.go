// Package ws fans notification payloads out to connected websocket clients.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/you/clinic-booking/pkg/auth"
)

// Hub tracks every open connection plus an optional user binding per
// connection. Bindings are last-writer-wins: binding a user id to a new
// connection silently replaces the previous one, which stays connected and
// keeps receiving broadcasts.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	users map[string]*websocket.Conn
	owner map[*websocket.Conn]string
}

func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]struct{}),
		users: make(map[string]*websocket.Conn),
		owner: make(map[*websocket.Conn]string),
	}
}

func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()
}

// BindUser addresses conn by userID for NotifyUser. A connection rebinding
// to a new user releases its old id.
func (h *Hub) BindUser(userID string, conn *websocket.Conn) {
	if userID == "" {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.owner[conn]; ok {
		delete(h.users, old)
	}
	h.users[userID] = conn
	h.owner[conn] = userID
}

// Remove drops the connection and any binding it holds. It is called on
// every exit path of the read loop, so a dead connection can never keep a
// user id reserved.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	if user, ok := h.owner[conn]; ok {
		delete(h.owner, conn)
		if h.users[user] == conn {
			delete(h.users, user)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}

// Broadcast writes payload to every connection. A failed write evicts that
// one connection and the loop carries on.
func (h *Hub) Broadcast(payload []byte) {
	for _, conn := range h.snapshot() {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("[gateway] ws broadcast write failed: %v", err)
			h.Remove(conn)
		}
	}
}

// NotifyUser writes payload to the one connection bound to userID, if any.
func (h *Hub) NotifyUser(userID string, payload []byte) {
	h.mu.Lock()
	conn, ok := h.users[userID]
	h.mu.Unlock()
	if !ok {
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("[gateway] ws notify user=%s failed: %v", userID, err)
		h.Remove(conn)
	}
}

// Counts reports connections and bound users, for the health endpoint.
func (h *Hub) Counts() (conns, users int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns), len(h.users)
}

func (h *Hub) snapshot() []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		out = append(out, conn)
	}
	return out
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// bindMsg is the one inbound message shape clients may send to claim a
// user id after connecting.
type bindMsg struct {
	UserID string `json:"userId"`
}

// Handler upgrades GET /ws. The user binding comes from the ?user query
// param, from a Bearer token subject, or from a later {"userId": ...}
// message; connections without any of those still receive broadcasts.
func Handler(h *Hub, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[gateway] ws upgrade failed: %v", err)
			return
		}
		h.Add(conn)

		if user := c.Query("user"); user != "" {
			h.BindUser(user, conn)
		} else if claims := bearerClaims(c, jwtSecret); claims != nil {
			h.BindUser(claims.Subject, conn)
		}

		go readLoop(h, conn)
	}
}

// readLoop drains inbound frames so pings and closes are processed, honors
// bind messages, and guarantees hub cleanup when the connection dies.
func readLoop(h *Hub, conn *websocket.Conn) {
	defer h.Remove(conn)
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var bind bindMsg
		if json.Unmarshal(msg, &bind) == nil && bind.UserID != "" {
			h.BindUser(bind.UserID, conn)
		}
	}
}

func bearerClaims(c *gin.Context, secret string) *auth.Claims {
	const prefix = "Bearer "
	header := c.GetHeader("Authorization")
	if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
		return nil
	}
	claims, err := auth.Verify(secret, header[len(prefix):])
	if err != nil {
		return nil
	}
	return claims
}
