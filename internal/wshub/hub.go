// Package wshub broadcasts per-symbol snapshots to websocket clients.
// The hub owns all client state; registration, removal and fan-out run
// on a single goroutine so no client map locking is needed.
package wshub

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"equity-orb-lab/internal/domain"
	"equity-orb-lab/internal/observability"
)

// Hub fans snapshots out to connected clients. New clients receive the
// latest snapshot of every symbol on connect.
type Hub struct {
	log zerolog.Logger

	register   chan *client
	unregister chan *client
	broadcast  chan domain.Snapshot

	clients map[*client]struct{}

	// latest snapshot per symbol, replayed to new clients
	mu     sync.RWMutex
	latest map[string]domain.Snapshot
}

// New creates a Hub. Run must be called before Publish.
func New(log zerolog.Logger) *Hub {
	return &Hub{
		log:        log,
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan domain.Snapshot, 1024),
		clients:    make(map[*client]struct{}),
		latest:     make(map[string]domain.Snapshot),
	}
}

// Publish implements the engine's snapshot sink.
func (h *Hub) Publish(snap domain.Snapshot) {
	h.mu.Lock()
	h.latest[snap.Symbol] = snap
	h.mu.Unlock()

	// Never block the decision path on slow consumers.
	select {
	case h.broadcast <- snap:
	default:
	}
}

// Latest returns the most recent snapshot for a symbol.
func (h *Hub) Latest(symbol string) (domain.Snapshot, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	snap, ok := h.latest[symbol]
	return snap, ok
}

// Run is the hub loop. It exits when ctx is canceled, closing every
// client send channel.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			observability.DefaultMetrics.SnapshotClients.Set(0)
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			observability.DefaultMetrics.SnapshotClients.Set(float64(len(h.clients)))

			// Initial state: latest snapshot of every symbol.
			h.mu.RLock()
			for _, snap := range h.latest {
				select {
				case c.send <- snap:
				default:
				}
			}
			h.mu.RUnlock()

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			observability.DefaultMetrics.SnapshotClients.Set(float64(len(h.clients)))

		case snap := <-h.broadcast:
			observability.DefaultMetrics.SnapshotsPublished.Inc()
			for c := range h.clients {
				select {
				case c.send <- snap:
				default:
					// Client too slow, disconnect to keep the hub moving.
					delete(h.clients, c)
					close(c.send)
				}
			}
			observability.DefaultMetrics.SnapshotClients.Set(float64(len(h.clients)))
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ServeHTTP upgrades the connection and attaches it to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to upgrade snapshot websocket")
		return
	}

	c := &client{
		hub:  h,
		conn: conn,
		send: make(chan domain.Snapshot, 256),
	}
	h.register <- c

	go c.writePump()
	go c.readPump()
}
