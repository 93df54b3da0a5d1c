package api

import (
	"net/http"
	"strconv"

	"limitbook/internal/book"
	"limitbook/internal/cache"
	"limitbook/internal/messaging"
	"limitbook/internal/metrics"
	"limitbook/internal/ws"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	book       *book.Book
	cache      *cache.RedisCache
	wsHub      *ws.Hub
	publisher  *messaging.Publisher
	metrics    *metrics.Metrics
	instrument string
}

func NewHandler(b *book.Book, cache *cache.RedisCache, wsHub *ws.Hub, pub *messaging.Publisher, m *metrics.Metrics, instrument string) *Handler {
	return &Handler{
		book:       b,
		cache:      cache,
		wsHub:      wsHub,
		publisher:  pub,
		metrics:    m,
		instrument: instrument,
	}
}

// PlaceOrderRequest carries an ADD request. The order ID is caller-assigned
// and must be unique among live orders. Price is a signed integer and may
// be zero or negative, so it has no binding constraint.
type PlaceOrderRequest struct {
	ID       int64  `json:"id" binding:"required"`
	Side     string `json:"side" binding:"required,oneof=buy sell"`
	Type     string `json:"type" binding:"omitempty,oneof=gtc fak"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

// ModifyOrderRequest carries a MODIFY request. The order type is not
// modifiable; it is carried over from the live order.
type ModifyOrderRequest struct {
	Side     string `json:"side" binding:"required,oneof=buy sell"`
	Price    int64  `json:"price"`
	Quantity int64  `json:"quantity" binding:"required,gt=0"`
}

// PlaceOrder handles POST /api/orders.
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	typ := book.GoodTilCancel
	if req.Type == string(book.FillAndKill) {
		typ = book.FillAndKill
	}

	if _, exists := h.book.GetOrder(req.ID); exists {
		if h.metrics != nil {
			h.metrics.RecordOrderRejected("duplicate_id")
		}
		AbortWithError(c, http.StatusConflict, ErrCodeDuplicateOrder, "an order with this id is already live")
		return
	}

	order := book.NewOrder(typ, req.ID, book.Side(req.Side), req.Price, req.Quantity)
	trades, err := h.book.AddOrder(order)
	if err != nil {
		// Overfill is an engine invariant violation, never a client error.
		AbortWithError(c, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	_, resting := h.book.GetOrder(req.ID)
	admitted := resting || len(trades) > 0
	if h.metrics != nil {
		if admitted {
			h.metrics.RecordOrderAccepted()
		} else {
			h.metrics.RecordOrderRejected("fak_no_match")
		}
	}

	h.afterMutation()

	if admitted {
		h.publishOrderEvent(messaging.RouteOrderAccepted, req.ID, "accepted")
	}

	c.JSON(http.StatusOK, gin.H{
		"order_id":   req.ID,
		"instrument": h.instrument,
		"admitted":   admitted,
		"resting":    resting,
		"trades":     tradesOrEmpty(trades),
	})
}

// CancelOrder handles DELETE /api/orders/:id.
func (h *Handler) CancelOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid order id")
		return
	}

	if _, ok := h.book.GetOrder(orderID); !ok {
		AbortWithError(c, http.StatusNotFound, ErrCodeOrderNotFound, "order not found")
		return
	}

	h.book.CancelOrder(orderID)
	if h.metrics != nil {
		h.metrics.RecordOrderCancelled()
	}

	h.afterMutation()

	if h.wsHub != nil {
		h.wsHub.BroadcastOrderUpdate(orderID, "cancelled")
	}
	h.publishOrderEvent(messaging.RouteOrderCancelled, orderID, "cancelled")

	c.JSON(http.StatusOK, gin.H{
		"message":  "order cancelled",
		"order_id": orderID,
	})
}

// ModifyOrder handles PUT /api/orders/:id with cancel-and-replace
// semantics: the replacement keeps the original type, loses all fill
// progress, and rejoins time priority at the back of its new level.
func (h *Handler) ModifyOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid order id")
		return
	}

	var req ModifyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
		return
	}

	if _, ok := h.book.GetOrder(orderID); !ok {
		AbortWithError(c, http.StatusNotFound, ErrCodeOrderNotFound, "order not found")
		return
	}

	trades, err := h.book.ModifyOrder(orderID, book.Side(req.Side), req.Price, req.Quantity)
	if err != nil {
		AbortWithError(c, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	if h.metrics != nil {
		h.metrics.RecordOrderModified()
	}

	h.afterMutation()
	h.publishOrderEvent(messaging.RouteOrderModified, orderID, "modified")

	_, resting := h.book.GetOrder(orderID)
	c.JSON(http.StatusOK, gin.H{
		"order_id": orderID,
		"resting":  resting,
		"trades":   tradesOrEmpty(trades),
	})
}

// GetOrder handles GET /api/orders/:id.
func (h *Handler) GetOrder(c *gin.Context) {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid order id")
		return
	}

	order, ok := h.book.GetOrder(orderID)
	if !ok {
		AbortWithError(c, http.StatusNotFound, ErrCodeOrderNotFound, "order not found")
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetBook handles GET /api/book. Levels are aggregated per price,
// best-to-worst on each side; individual orders are not exposed.
func (h *Handler) GetBook(c *gin.Context) {
	levels := 0 // all
	if levelsStr := c.Query("levels"); levelsStr != "" {
		if l, err := strconv.Atoi(levelsStr); err == nil && l > 0 && l <= 100 {
			levels = l
		}
	}

	// Full-depth reads are served from the short-TTL cache when one is
	// wired; a miss falls through to the live book.
	if levels == 0 && h.cache != nil {
		if snap, err := h.cache.GetDepth(h.instrument); err == nil && snap != nil {
			c.JSON(http.StatusOK, gin.H{
				"instrument": h.instrument,
				"bids":       snap.Bids,
				"asks":       snap.Asks,
			})
			return
		}
	}

	bids, asks := h.book.Depth(levels)
	c.JSON(http.StatusOK, gin.H{
		"instrument": h.instrument,
		"bids":       bids,
		"asks":       asks,
	})
}

// GetSize handles GET /api/book/size.
func (h *Handler) GetSize(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"instrument": h.instrument,
		"size":       h.book.Size(),
	})
}

// GetTicker handles GET /api/ticker.
func (h *Handler) GetTicker(c *gin.Context) {
	if h.cache != nil {
		if q, err := h.cache.GetBestQuote(h.instrument); err == nil && q != nil {
			c.JSON(http.StatusOK, gin.H{
				"instrument": h.instrument,
				"bid":        q.Bid,
				"bid_ok":     true,
				"ask":        q.Ask,
				"ask_ok":     true,
				"spread":     q.Ask - q.Bid,
			})
			return
		}
	}

	bid, bidOk := h.book.BestBid()
	ask, askOk := h.book.BestAsk()

	var spread int64
	if bidOk && askOk {
		spread = ask - bid
	}

	c.JSON(http.StatusOK, gin.H{
		"instrument": h.instrument,
		"bid":        bid,
		"bid_ok":     bidOk,
		"ask":        ask,
		"ask_ok":     askOk,
		"spread":     spread,
	})
}

// GetTrades handles GET /api/trades. Recent trades are held only in the
// Redis feed; without a cache the tape is empty, never an error.
func (h *Handler) GetTrades(c *gin.Context) {
	limit := int64(50)
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.ParseInt(limitStr, 10, 64); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	trades := []book.Trade{}
	if h.cache != nil {
		if recent, err := h.cache.GetRecentTrades(h.instrument, limit); err == nil {
			trades = recent
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"instrument": h.instrument,
		"trades":     trades,
	})
}

// Health handles GET /health.
func (h *Handler) Health(c *gin.Context) {
	services := map[string]string{"book": "healthy"}
	if h.cache != nil {
		services["redis"] = "healthy"
	}
	c.JSON(http.StatusOK, NewHealthResponse(services))
}

// afterMutation refreshes derived read paths after any mutating call.
func (h *Handler) afterMutation() {
	snap := h.book.Snapshot()

	if h.metrics != nil {
		h.metrics.RecordBookState(h.book.Size(), len(snap.Bids), len(snap.Asks))
	}
	if h.cache != nil {
		h.cache.SetDepth(h.instrument, snap)
		bid, bidOk := h.book.BestBid()
		ask, askOk := h.book.BestAsk()
		if bidOk && askOk {
			h.cache.SetBestQuote(h.instrument, bid, ask)
		}
	}
	if h.wsHub != nil {
		h.wsHub.BroadcastBookUpdate(snap.Bids, snap.Asks)
	}
}

// publishOrderEvent emits an order lifecycle event, dropping it silently
// when no broker is wired.
func (h *Handler) publishOrderEvent(routingKey string, orderID int64, status string) {
	if h.publisher == nil {
		return
	}
	err := h.publisher.Publish(routingKey, messaging.OrderEvent{
		Instrument: h.instrument,
		OrderID:    orderID,
		Status:     status,
	})
	if err == nil && h.metrics != nil {
		h.metrics.RecordMQPublished(routingKey)
	}
}

// tradesOrEmpty keeps the JSON trade list an array, never null.
func tradesOrEmpty(trades []book.Trade) []book.Trade {
	if trades == nil {
		return []book.Trade{}
	}
	return trades
}
