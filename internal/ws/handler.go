package ws

import (
	"log"

	"github.com/gin-gonic/gin"
)

// Handler provides HTTP handlers for WebSocket connections.
type Handler struct {
	hub *Hub
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *Hub) *Handler {
	return &Handler{hub: hub}
}

// HandleUpgrade upgrades an HTTP connection to WebSocket on /ws. Every
// client receives the single instrument's trade and book stream, starting
// with a full snapshot.
func (h *Handler) HandleUpgrade(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := NewClient(h.hub, conn)
	h.hub.Register(client)

	// Start read and write pumps
	go client.WritePump()
	go client.ReadPump()
}

// HandleStats returns WebSocket connection statistics.
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(200, gin.H{
		"instrument":  h.hub.Instrument(),
		"connections": h.hub.ClientCount(),
	})
}
