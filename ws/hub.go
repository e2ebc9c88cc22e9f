package ws

import (
	"context"
	"sync"

	"teamtask/common"

	"go.uber.org/zap"
)

type Client struct {
	Conn   *common.WSConn
	UserID int64
	Send   chan []byte
}

// Hub tracks live connections per user. One user may hold several tabs.
type Hub struct {
	mu         sync.RWMutex
	clients    map[int64]map[*Client]struct{}
	Register   chan *Client
	Unregister chan *Client
	done       chan struct{}
	logger     *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[int64]map[*Client]struct{}),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return
		case client := <-h.Register:
			h.mu.Lock()
			if h.clients[client.UserID] == nil {
				h.clients[client.UserID] = make(map[*Client]struct{})
			}
			h.clients[client.UserID][client] = struct{}{}
			h.mu.Unlock()
			h.logger.Debug("ws client registered", zap.Int64("user_id", client.UserID))
		case client := <-h.Unregister:
			h.remove(client)
		}
	}
}

// Push queues data for every connection of userID and reports whether any
// connection took it. Slow connections are skipped.
func (h *Hub) Push(userID int64, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := false
	for client := range h.clients[userID] {
		select {
		case client.Send <- data:
			delivered = true
		default:
			h.logger.Warn("ws send buffer full", zap.Int64("user_id", userID))
		}
	}
	return delivered
}

func (h *Hub) Online(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// leave unregisters client unless the hub has already shut down.
func (h *Hub) leave(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.clients[client.UserID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.Send)
	if len(conns) == 0 {
		delete(h.clients, client.UserID)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, conns := range h.clients {
		for client := range conns {
			close(client.Send)
		}
		delete(h.clients, userID)
	}
}
