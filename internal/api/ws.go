package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vouchhq/vouch/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

type wsClient struct {
	conn     *websocket.Conn
	sellerID uuid.UUID
	mu       sync.Mutex
}

// Hub pushes newly settled sales to each seller's live dashboard feed.
type Hub struct {
	clients   map[*wsClient]bool
	clientsMu sync.RWMutex
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{clients: make(map[*wsClient]bool)}
}

// BroadcastOrder sends the order to every connection owned by its seller.
// Dead connections are dropped.
func (h *Hub) BroadcastOrder(order models.Order) {
	data, err := json.Marshal(struct {
		Type  string       `json:"type"`
		Order models.Order `json:"order"`
	}{Type: "order.settled", Order: order})
	if err != nil {
		return
	}

	var dead []*wsClient
	h.clientsMu.RLock()
	for client := range h.clients {
		if client.sellerID != order.SellerID {
			continue
		}
		client.mu.Lock()
		err := client.conn.WriteMessage(websocket.TextMessage, data)
		client.mu.Unlock()
		if err != nil {
			dead = append(dead, client)
		}
	}
	h.clientsMu.RUnlock()

	if len(dead) > 0 {
		h.clientsMu.Lock()
		for _, client := range dead {
			delete(h.clients, client)
		}
		h.clientsMu.Unlock()
	}
}

// HandleWebSocket upgrades the connection and registers it for the
// authenticated seller's order feed.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(ctxUserID).(uuid.UUID)
	if !ok {
		http.Error(w, `{"error": "Unauthorized"}`, http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Error("failed to upgrade connection", "error", err)
		return
	}

	client := &wsClient{conn: conn, sellerID: userID}
	h.Hub.clientsMu.Lock()
	h.Hub.clients[client] = true
	h.Hub.clientsMu.Unlock()

	// Keep connection alive and handle disconnection
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.Hub.clientsMu.Lock()
			delete(h.Hub.clients, client)
			h.Hub.clientsMu.Unlock()
			conn.Close()
			break
		}
	}
}
