package book

import (
	"errors"
	"fmt"
)

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) IsValid() bool {
	return s == Buy || s == Sell
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType controls what happens to an order that cannot fully match.
// GoodTilCancel orders rest in the book; FillAndKill orders never rest —
// whatever cannot be matched in the triggering call is discarded.
type OrderType string

const (
	GoodTilCancel OrderType = "gtc"
	FillAndKill   OrderType = "fak"
)

func (t OrderType) IsValid() bool {
	return t == GoodTilCancel || t == FillAndKill
}

// ErrOverfill is returned when a fill exceeds an order's remaining quantity.
// It signals a matching bug, not a data condition: no valid sequence of
// public operations can produce it.
var ErrOverfill = errors.New("fill exceeds remaining quantity")

// Order is a single resting or incoming order. Price is a signed integer;
// negative prices are legal (some instruments trade through zero).
// Remaining starts at Quantity and only ever decreases.
type Order struct {
	ID        int64     `json:"id"`
	Side      Side      `json:"side"`
	Type      OrderType `json:"type"`
	Price     int64     `json:"price"`
	Quantity  int64     `json:"quantity"`
	Remaining int64     `json:"remaining"`
}

// NewOrder creates an unfilled order with caller-assigned ID.
func NewOrder(typ OrderType, id int64, side Side, price, quantity int64) *Order {
	return &Order{
		ID:        id,
		Side:      side,
		Type:      typ,
		Price:     price,
		Quantity:  quantity,
		Remaining: quantity,
	}
}

// Fill reduces the remaining quantity. Overfilling is a contract violation
// and aborts the caller rather than clamping silently.
func (o *Order) Fill(qty int64) error {
	if qty > o.Remaining {
		return fmt.Errorf("order %d: %w (fill %d, remaining %d)", o.ID, ErrOverfill, qty, o.Remaining)
	}
	o.Remaining -= qty
	return nil
}

// IsFilled reports whether the order has no quantity left.
func (o *Order) IsFilled() bool {
	return o.Remaining == 0
}

// Filled returns the executed quantity.
func (o *Order) Filled() int64 {
	return o.Quantity - o.Remaining
}

// Validate checks the caller-supplied fields of an incoming order.
func (o *Order) Validate() error {
	if !o.Side.IsValid() {
		return errors.New("side must be 'buy' or 'sell'")
	}
	if !o.Type.IsValid() {
		return errors.New("type must be 'gtc' or 'fak'")
	}
	if o.Quantity <= 0 {
		return errors.New("quantity must be greater than 0")
	}
	if o.Remaining < 0 || o.Remaining > o.Quantity {
		return errors.New("remaining quantity out of range")
	}
	return nil
}
