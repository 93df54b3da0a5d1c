package ws

import (
	"encoding/json"
	"time"

	"limitbook/internal/book"
)

// Event types pushed to subscribers.
const (
	EventTypeTrade       = "trade"
	EventTypeBook        = "book"
	EventTypeSnapshot    = "snapshot"
	EventTypeOrderUpdate = "order_update"
	EventTypeHeartbeat   = "heartbeat"
)

// Event is the envelope for every message sent to clients.
type Event struct {
	Type       string      `json:"type"`
	Instrument string      `json:"instrument,omitempty"`
	Sequence   int64       `json:"sequence,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	Data       interface{} `json:"data,omitempty"`
}

// TradeData carries one executed trade.
type TradeData struct {
	Trade book.Trade `json:"trade"`
}

// BookData carries an aggregated depth update.
type BookData struct {
	Bids []book.Level `json:"bids"`
	Asks []book.Level `json:"asks"`
}

// OrderUpdateData carries an order lifecycle change.
type OrderUpdateData struct {
	OrderID int64  `json:"order_id"`
	Status  string `json:"status"`
}

// NewTradeEvent creates a trade event.
func NewTradeEvent(instrument string, trade book.Trade) *Event {
	return &Event{
		Type:       EventTypeTrade,
		Instrument: instrument,
		Timestamp:  time.Now(),
		Data:       TradeData{Trade: trade},
	}
}

// NewBookEvent creates a depth update event.
func NewBookEvent(instrument string, bids, asks []book.Level) *Event {
	return &Event{
		Type:       EventTypeBook,
		Instrument: instrument,
		Timestamp:  time.Now(),
		Data:       BookData{Bids: bids, Asks: asks},
	}
}

// NewSnapshotEvent creates the initial full snapshot sent on connect.
func NewSnapshotEvent(instrument string, snap book.Snapshot, sequence int64) *Event {
	return &Event{
		Type:       EventTypeSnapshot,
		Instrument: instrument,
		Sequence:   sequence,
		Timestamp:  time.Now(),
		Data:       BookData{Bids: snap.Bids, Asks: snap.Asks},
	}
}

// NewOrderUpdateEvent creates an order lifecycle event.
func NewOrderUpdateEvent(instrument string, orderID int64, status string) *Event {
	return &Event{
		Type:       EventTypeOrderUpdate,
		Instrument: instrument,
		Timestamp:  time.Now(),
		Data:       OrderUpdateData{OrderID: orderID, Status: status},
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent(sequence int64) *Event {
	return &Event{
		Type:      EventTypeHeartbeat,
		Sequence:  sequence,
		Timestamp: time.Now(),
	}
}

// ToJSON marshals an event, returning nil on failure.
func ToJSON(e *Event) []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return nil
	}
	return data
}
