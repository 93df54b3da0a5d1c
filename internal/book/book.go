package book

import (
	"container/list"
	"sync"
)

// orderEntry ties an order to its exact position in its price level so
// cancellation never scans a queue. The element is valid only while the
// order rests; both references die together with the index entry.
type orderEntry struct {
	order *Order
	elem  *list.Element
}

// Book is a single-instrument limit order book with strict price-time
// priority. It owns all order and level state exclusively; callers interact
// through the public operations and receive value copies. Every operation
// takes the one mutex, so each call is atomic with respect to every other
// (partial interleavings would break priority ordering and the
// index/ladder consistency invariants).
type Book struct {
	mu      sync.Mutex
	bids    *ladder
	asks    *ladder
	orders  map[int64]*orderEntry
	onTrade func(Trade)
}

// New creates an empty order book.
func New() *Book {
	return &Book{
		bids:   newLadder(Buy),
		asks:   newLadder(Sell),
		orders: make(map[int64]*orderEntry),
	}
}

// SetTradeCallback registers a hook invoked once per executed trade, while
// the book lock is held. The callback must not call back into the book.
func (b *Book) SetTradeCallback(fn func(Trade)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onTrade = fn
}

// AddOrder inserts an order and matches to exhaustion, returning the trades
// produced. Recoverable rejections return no trades and no error: a
// duplicate live ID, a non-positive quantity, and a FillAndKill order the
// current book cannot cross at all (it never enters the ladder or index).
// A non-nil error means an overfill invariant violation aborted matching.
func (b *Book) AddOrder(o *Order) ([]Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addLocked(o)
}

func (b *Book) addLocked(o *Order) ([]Trade, error) {
	if _, exists := b.orders[o.ID]; exists {
		return nil, nil
	}
	if o.Quantity <= 0 {
		return nil, nil
	}
	if o.Type == FillAndKill && !b.canMatch(o.Side, o.Price) {
		return nil, nil
	}

	side := b.asks
	if o.Side == Buy {
		side = b.bids
	}
	elem := side.insert(o)
	b.orders[o.ID] = &orderEntry{order: o, elem: elem}

	trades, err := b.matchOrders()
	if err != nil {
		return trades, err
	}

	// FillAndKill never rests: whatever the crossing loop could not match
	// is discarded in the same call.
	if o.Type == FillAndKill {
		b.cancelLocked(o.ID)
	}

	return trades, nil
}

// CancelOrder removes a resting order. Unknown IDs are a no-op, so the
// operation is idempotent.
func (b *Book) CancelOrder(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cancelLocked(id)
}

func (b *Book) cancelLocked(id int64) {
	entry, ok := b.orders[id]
	if !ok {
		return
	}
	side := b.asks
	if entry.order.Side == Buy {
		side = b.bids
	}
	side.remove(entry.order.Price, entry.elem)
	delete(b.orders, id)
}

// ModifyOrder is cancel-and-replace: the existing order is removed and a
// brand-new order with the same ID and type is submitted with the given
// side, price, and quantity. The replacement loses all fill progress and
// rejoins time priority at the back of its level, even if nothing but the
// quantity changed. Unknown IDs are a no-op with no trades.
func (b *Book) ModifyOrder(id int64, side Side, price, quantity int64) ([]Trade, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.orders[id]
	if !ok {
		return nil, nil
	}
	typ := entry.order.Type
	b.cancelLocked(id)
	return b.addLocked(NewOrder(typ, id, side, price, quantity))
}

// canMatch reports whether an order at the given side and price would cross
// the opposing best at this instant.
func (b *Book) canMatch(side Side, price int64) bool {
	if side == Buy {
		bestAsk, ok := b.asks.bestPrice()
		return ok && price >= bestAsk
	}
	bestBid, ok := b.bids.bestPrice()
	return ok && price <= bestBid
}

// Size returns the number of resting orders.
func (b *Book) Size() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.orders)
}

// BestBid returns the highest resting buy price.
func (b *Book) BestBid() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bids.bestPrice()
}

// BestAsk returns the lowest resting sell price.
func (b *Book) BestAsk() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.asks.bestPrice()
}

// Level is one aggregated price level of a snapshot.
type Level struct {
	Price    int64 `json:"price"`
	Quantity int64 `json:"quantity"`
}

// Snapshot is a read-only aggregate of the resting book: per side, each
// price and the total remaining quantity at it, best-to-worst. It exposes
// no individual orders.
type Snapshot struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// Snapshot aggregates the current book state.
func (b *Book) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		Bids: make([]Level, 0, b.bids.levels.Len()),
		Asks: make([]Level, 0, b.asks.levels.Len()),
	}
	b.bids.ascend(func(lv *level) bool {
		snap.Bids = append(snap.Bids, Level{Price: lv.price, Quantity: lv.totalQuantity()})
		return true
	})
	b.asks.ascend(func(lv *level) bool {
		snap.Asks = append(snap.Asks, Level{Price: lv.price, Quantity: lv.totalQuantity()})
		return true
	})
	return snap
}

// Depth returns up to n best levels per side. n <= 0 means all levels.
func (b *Book) Depth(n int) ([]Level, []Level) {
	snap := b.Snapshot()
	bids, asks := snap.Bids, snap.Asks
	if n > 0 {
		if len(bids) > n {
			bids = bids[:n]
		}
		if len(asks) > n {
			asks = asks[:n]
		}
	}
	return bids, asks
}

// GetOrder returns a copy of a resting order, for read-only inspection.
func (b *Book) GetOrder(id int64) (Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entry, ok := b.orders[id]
	if !ok {
		return Order{}, false
	}
	return *entry.order, true
}
