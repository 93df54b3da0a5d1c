package ws

import (
	"log"
	"sync"
	"time"

	"limitbook/internal/book"
	"limitbook/internal/metrics"
)

// outbound is a framed message queued for fan-out, typed so sends can be
// counted per event type.
type outbound struct {
	typ  string
	data []byte
}

// Hub maintains the set of active clients and broadcasts book events to
// them. This process serves one instrument, so there are no per-topic
// rooms: every client receives the same stream.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Broadcast message to all clients
	broadcast chan outbound

	// Book to snapshot for newly connected clients
	book *book.Book

	// Instrument label stamped on every event
	instrument string

	// Heartbeat sequence number
	heartbeatSeq int64

	// Heartbeat ticker
	heartbeatTicker *time.Ticker

	// Levels per side in the connect-time snapshot, 0 for full depth
	snapshotLevels int

	// Stop channel for graceful shutdown
	stop chan struct{}

	// Optional metrics, nil when not wired
	metrics *metrics.Metrics

	mu sync.RWMutex
}

// HubConfig holds configuration for the hub.
type HubConfig struct {
	HeartbeatInterval time.Duration
	SnapshotLevels    int
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() *HubConfig {
	return &HubConfig{
		HeartbeatInterval: 30 * time.Second,
		SnapshotLevels:    20,
	}
}

// NewHub creates a new Hub for the given book and instrument.
func NewHub(b *book.Book, instrument string, cfg *HubConfig) *Hub {
	if cfg == nil {
		cfg = DefaultHubConfig()
	}
	if cfg.HeartbeatInterval == 0 {
		cfg.HeartbeatInterval = 30 * time.Second
	}

	return &Hub{
		clients:         make(map[*Client]bool),
		register:        make(chan *Client),
		unregister:      make(chan *Client),
		broadcast:       make(chan outbound, 256),
		book:            b,
		instrument:      instrument,
		heartbeatTicker: time.NewTicker(cfg.HeartbeatInterval),
		snapshotLevels:  cfg.SnapshotLevels,
		stop:            make(chan struct{}),
	}
}

// Run starts the hub's main event loop with heartbeat.
func (h *Hub) Run() {
	for {
		select {
		case <-h.stop:
			h.heartbeatTicker.Stop()
			log.Println("WebSocket hub stopped")
			return

		case <-h.heartbeatTicker.C:
			h.mu.Lock()
			h.heartbeatSeq++
			seq := h.heartbeatSeq
			h.mu.Unlock()
			h.broadcastToAll(EventTypeHeartbeat, ToJSON(NewHeartbeatEvent(seq)))

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			log.Printf("WS client %s registered (total: %d)", client.id, count)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.RecordWSConnections(count)
			}

			// Send initial snapshot to new client
			go h.SendSnapshot(client)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, exists := h.clients[client]; exists {
				delete(h.clients, client)
				close(client.send)
				log.Printf("WS client %s unregistered", client.id)
			}
			count := len(h.clients)
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.RecordWSConnections(count)
			}

		case msg := <-h.broadcast:
			h.broadcastToAll(msg.typ, msg.data)
		}
	}
}

// Stop gracefully stops the hub.
func (h *Hub) Stop() {
	close(h.stop)
}

// SendSnapshot sends a full book snapshot to a client.
func (h *Hub) SendSnapshot(client *Client) {
	if client == nil || h.book == nil {
		return
	}

	h.mu.RLock()
	seq := h.heartbeatSeq
	h.mu.RUnlock()

	bids, asks := h.book.Depth(h.snapshotLevels)
	event := NewSnapshotEvent(h.instrument, book.Snapshot{Bids: bids, Asks: asks}, seq)
	select {
	case client.send <- ToJSON(event):
		if h.metrics != nil {
			h.metrics.RecordWSSent(EventTypeSnapshot)
		}
	default:
		log.Printf("WS client %s send buffer full, snapshot dropped", client.id)
	}
}

// broadcastToAll sends a message to every connected client. Slow clients
// with full buffers are skipped rather than blocking the hub.
func (h *Hub) broadcastToAll(typ string, message []byte) {
	if message == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.send <- message:
			if h.metrics != nil {
				h.metrics.RecordWSSent(typ)
			}
		default:
			log.Printf("WS client %s send buffer full, skipping", client.id)
		}
	}
}

// BroadcastTrade sends a trade event to all clients.
func (h *Hub) BroadcastTrade(trade book.Trade) {
	h.broadcast <- outbound{EventTypeTrade, ToJSON(NewTradeEvent(h.instrument, trade))}
}

// BroadcastBookUpdate sends an aggregated depth update to all clients.
func (h *Hub) BroadcastBookUpdate(bids, asks []book.Level) {
	h.broadcast <- outbound{EventTypeBook, ToJSON(NewBookEvent(h.instrument, bids, asks))}
}

// BroadcastOrderUpdate sends an order lifecycle event to all clients.
func (h *Hub) BroadcastOrderUpdate(orderID int64, status string) {
	h.broadcast <- outbound{EventTypeOrderUpdate, ToJSON(NewOrderUpdateEvent(h.instrument, orderID, status))}
}

// SetMetrics wires optional metrics into the hub. Call before Run.
func (h *Hub) SetMetrics(m *metrics.Metrics) {
	h.metrics = m
}

// Register registers a client.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister unregisters a client.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Instrument returns the instrument label this hub serves.
func (h *Hub) Instrument() string {
	return h.instrument
}
