package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"limitbook/internal/api"
	"limitbook/internal/book"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRouter creates a test router backed by a fresh book, without
// Redis, RabbitMQ, WebSocket, or metrics.
func setupTestRouter(t *testing.T) (*gin.Engine, *book.Book) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	b := book.New()
	router := gin.New()
	api.RegisterRoutes(router, api.RouterConfig{
		Instrument:         "BTC-USD",
		AuthEnabled:        false,
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
	}, b, nil, nil, nil, nil)

	return router, b
}

func placeOrder(t *testing.T, router *gin.Engine, req api.PlaceOrderRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

type placeOrderResponse struct {
	OrderID  int64        `json:"order_id"`
	Admitted bool         `json:"admitted"`
	Resting  bool         `json:"resting"`
	Trades   []book.Trade `json:"trades"`
}

func TestPlaceOrder_Rests(t *testing.T) {
	router, b := setupTestRouter(t)

	w := placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "buy", Type: "gtc", Price: 100, Quantity: 10,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp placeOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Admitted)
	assert.True(t, resp.Resting)
	assert.Empty(t, resp.Trades)
	assert.Equal(t, 1, b.Size())
}

func TestPlaceOrder_Match(t *testing.T) {
	router, b := setupTestRouter(t)

	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "buy", Type: "gtc", Price: 100, Quantity: 10,
	})
	w := placeOrder(t, router, api.PlaceOrderRequest{
		ID: 2, Side: "sell", Type: "gtc", Price: 100, Quantity: 10,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp placeOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, int64(10), resp.Trades[0].Quantity())
	assert.Equal(t, int64(1), resp.Trades[0].Bid.OrderID)
	assert.Equal(t, int64(2), resp.Trades[0].Ask.OrderID)
	assert.False(t, resp.Resting)
	assert.Equal(t, 0, b.Size())
}

func TestPlaceOrder_DuplicateID(t *testing.T) {
	router, b := setupTestRouter(t)

	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "buy", Type: "gtc", Price: 100, Quantity: 10,
	})
	w := placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "sell", Type: "gtc", Price: 90, Quantity: 5,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, b.Size())
}

func TestPlaceOrder_NegativePrice(t *testing.T) {
	router, b := setupTestRouter(t)

	w := placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "sell", Type: "gtc", Price: -5, Quantity: 10,
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, b.Size())
}

func TestPlaceOrder_ValidationFailed(t *testing.T) {
	router, _ := setupTestRouter(t)

	w := placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "hold", Price: 100, Quantity: 10,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = placeOrder(t, router, api.PlaceOrderRequest{
		ID: 2, Side: "buy", Price: 100, Quantity: -3,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlaceOrder_FillAndKillNotAdmitted(t *testing.T) {
	router, b := setupTestRouter(t)

	w := placeOrder(t, router, api.PlaceOrderRequest{
		ID: 3, Side: "buy", Type: "fak", Price: 99, Quantity: 10,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp placeOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Admitted)
	assert.False(t, resp.Resting)
	assert.Empty(t, resp.Trades)
	assert.Equal(t, 0, b.Size())
}

func TestCancelOrder(t *testing.T) {
	router, b := setupTestRouter(t)

	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "buy", Type: "gtc", Price: 100, Quantity: 10,
	})

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, b.Size())

	// Second cancel: unknown at the HTTP layer
	req = httptest.NewRequest(http.MethodDelete, "/api/orders/1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCancelOrder_Unknown(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodDelete, "/api/orders/999", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModifyOrder(t *testing.T) {
	router, b := setupTestRouter(t)

	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 9, Side: "sell", Type: "gtc", Price: 105, Quantity: 10,
	})
	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 4, Side: "buy", Type: "gtc", Price: 100, Quantity: 10,
	})

	body, _ := json.Marshal(api.ModifyOrderRequest{Side: "buy", Price: 105, Quantity: 10})
	req := httptest.NewRequest(http.MethodPut, "/api/orders/4", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp placeOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, int64(10), resp.Trades[0].Quantity())
	assert.Equal(t, 0, b.Size())
}

func TestModifyOrder_Unknown(t *testing.T) {
	router, _ := setupTestRouter(t)

	body, _ := json.Marshal(api.ModifyOrderRequest{Side: "buy", Price: 100, Quantity: 10})
	req := httptest.NewRequest(http.MethodPut, "/api/orders/42", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBook(t *testing.T) {
	router, _ := setupTestRouter(t)

	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "buy", Type: "gtc", Price: 100, Quantity: 10,
	})
	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 2, Side: "buy", Type: "gtc", Price: 100, Quantity: 5,
	})
	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 3, Side: "sell", Type: "gtc", Price: 101, Quantity: 3,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/book", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Instrument string       `json:"instrument"`
		Bids       []book.Level `json:"bids"`
		Asks       []book.Level `json:"asks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "BTC-USD", resp.Instrument)
	require.Len(t, resp.Bids, 1)
	assert.Equal(t, book.Level{Price: 100, Quantity: 15}, resp.Bids[0])
	require.Len(t, resp.Asks, 1)
	assert.Equal(t, book.Level{Price: 101, Quantity: 3}, resp.Asks[0])
}

func TestGetSize(t *testing.T) {
	router, _ := setupTestRouter(t)

	for i := 1; i <= 3; i++ {
		placeOrder(t, router, api.PlaceOrderRequest{
			ID: int64(i), Side: "buy", Type: "gtc", Price: int64(90 + i), Quantity: 1,
		})
	}

	req := httptest.NewRequest(http.MethodGet, "/api/book/size", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Size int `json:"size"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Size)
}

func TestGetTicker(t *testing.T) {
	router, _ := setupTestRouter(t)

	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "buy", Type: "gtc", Price: 99, Quantity: 1,
	})
	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 2, Side: "sell", Type: "gtc", Price: 101, Quantity: 1,
	})

	req := httptest.NewRequest(http.MethodGet, "/api/ticker", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Bid    int64 `json:"bid"`
		BidOk  bool  `json:"bid_ok"`
		Ask    int64 `json:"ask"`
		AskOk  bool  `json:"ask_ok"`
		Spread int64 `json:"spread"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.BidOk)
	assert.True(t, resp.AskOk)
	assert.Equal(t, int64(99), resp.Bid)
	assert.Equal(t, int64(101), resp.Ask)
	assert.Equal(t, int64(2), resp.Spread)
}

func TestHealth(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestAuthRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)

	b := book.New()
	router := gin.New()
	api.RegisterRoutes(router, api.RouterConfig{
		Instrument:         "BTC-USD",
		AuthEnabled:        true,
		AuthSecret:         "test-secret",
		RateLimitPerSecond: 1000,
		RateLimitBurst:     1000,
	}, b, nil, nil, nil, nil)

	// Mutating route rejected without a token
	body, _ := json.Marshal(api.PlaceOrderRequest{
		ID: 1, Side: "buy", Type: "gtc", Price: 100, Quantity: 10,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Read-only route stays open
	req = httptest.NewRequest(http.MethodGet, "/api/book", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitExceeded(t *testing.T) {
	gin.SetMode(gin.TestMode)

	b := book.New()
	router := gin.New()
	api.RegisterRoutes(router, api.RouterConfig{
		Instrument:         "BTC-USD",
		AuthEnabled:        false,
		RateLimitPerSecond: 1,
		RateLimitBurst:     2,
	}, b, nil, nil, nil, nil)

	var lastCode int
	for i := 0; i < 5; i++ {
		body, _ := json.Marshal(api.PlaceOrderRequest{
			ID: int64(i + 1), Side: "buy", Type: "gtc", Price: int64(90 + i), Quantity: 1,
		})
		req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		lastCode = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}

// TestScenario_ModifyCreatesCross raises a resting bid's price to cross an
// existing ask, producing a trade the old price could not, with fill
// progress reset first.
func TestScenario_ModifyCreatesCross(t *testing.T) {
	router, b := setupTestRouter(t)

	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 1, Side: "sell", Type: "gtc", Price: 104, Quantity: 4,
	})
	placeOrder(t, router, api.PlaceOrderRequest{
		ID: 2, Side: "buy", Type: "gtc", Price: 100, Quantity: 10,
	})
	require.Equal(t, 2, b.Size())

	body, _ := json.Marshal(api.ModifyOrderRequest{Side: "buy", Price: 105, Quantity: 10})
	req := httptest.NewRequest(http.MethodPut, "/api/orders/2", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp placeOrderResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, int64(4), resp.Trades[0].Quantity())
	assert.True(t, resp.Resting)

	order, ok := b.GetOrder(2)
	require.True(t, ok)
	assert.Equal(t, int64(4), order.Filled())
	assert.Equal(t, int64(6), order.Remaining)
}
