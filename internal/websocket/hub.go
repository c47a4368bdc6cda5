package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"portfolio-be/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

// clusterChannel carries session-ended notices between instances.
const clusterChannel = "live_preview_events"

// Hub tracks the open live preview sockets, grouped by preview session.
type Hub struct {
	// Registered clients: preview session id -> sockets (one per open tab)
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client
	// closed when Run returns
	done chan struct{}

	mu sync.RWMutex

	// Redis connection for cross-instance communication, optional
	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.rdb != nil {
		go h.subscribeToRedis(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.SessionID] = append(h.clients[client.SessionID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{
				"session_id": client.SessionID,
				"page":       client.Page,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.SessionID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.SessionID] = append(clients[:i], clients[i+1:]...)
						break
					}
				}
				if len(h.clients[client.SessionID]) == 0 {
					delete(h.clients, client.SessionID)
				}
			}
			h.mu.Unlock()
			client.close()
			h.logger.Info("Hub", "Client unregistered", map[string]interface{}{
				"session_id": client.SessionID,
				"page":       client.Page,
			})
		}
	}
}

// Register and Unregister close the client instead of blocking once the
// hub has stopped.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		client.close()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
		client.close()
	}
}

// Count returns the number of open sockets on this instance.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// EndSession closes every socket of a preview session, here and on the
// other instances.
func (h *Hub) EndSession(sessionID string) {
	if sessionID == "" {
		return
	}
	h.endLocal(sessionID)

	if h.rdb != nil {
		payload, _ := json.Marshal(map[string]string{"session_id": sessionID})
		if err := h.rdb.Publish(context.Background(), clusterChannel, payload).Err(); err != nil {
			h.logger.Warn("Hub", "Failed to publish session end", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (h *Hub) endLocal(sessionID string) {
	h.mu.RLock()
	clients := append([]*Client(nil), h.clients[sessionID]...)
	h.mu.RUnlock()

	for _, client := range clients {
		client.end()
	}
	if len(clients) > 0 {
		h.logger.Info("Hub", "Preview session ended", map[string]interface{}{
			"session_id": sessionID,
			"sockets":    len(clients),
		})
	}
}

func (h *Hub) subscribeToRedis(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var payload struct {
				SessionID string `json:"session_id"`
			}
			if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
				h.logger.Warn("Hub", "Redis message parse error", map[string]interface{}{"error": err.Error()})
				continue
			}
			h.endLocal(payload.SessionID)
		}
	}
}
