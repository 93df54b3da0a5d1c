package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"limitbook/internal/book"
	"limitbook/internal/config"
)

// RedisCache provides short-TTL read caching for the request layer:
// the recent-trade feed behind WebSocket snapshots and the best-quote
// hash behind the ticker. Everything here is lossy and expiring — the
// book is never reconstructed from it.
type RedisCache struct {
	client     *redis.Client
	ctx        context.Context
	defaultTTL time.Duration
}

// Quote is the cached best bid/ask pair.
type Quote struct {
	Bid int64 `json:"bid"`
	Ask int64 `json:"ask"`
}

// NewRedisCache initializes a Redis connection.
func NewRedisCache(cfg *config.Config) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisCache{
		client:     client,
		ctx:        ctx,
		defaultTTL: time.Second,
	}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// SetBestQuote caches the best bid and ask.
func (c *RedisCache) SetBestQuote(instrument string, bid, ask int64) error {
	key := "book:best:" + instrument

	pipe := c.client.Pipeline()
	pipe.HSet(c.ctx, key, map[string]interface{}{
		"bid": bid,
		"ask": ask,
	})
	pipe.Expire(c.ctx, key, 100*time.Millisecond)
	_, err := pipe.Exec(c.ctx)
	return err
}

// GetBestQuote retrieves the cached best bid and ask, nil on a miss.
func (c *RedisCache) GetBestQuote(instrument string) (*Quote, error) {
	key := "book:best:" + instrument
	result, err := c.client.HGetAll(c.ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, nil
	}

	return &Quote{
		Bid: parseInt(result["bid"]),
		Ask: parseInt(result["ask"]),
	}, nil
}

// SetDepth caches an aggregated depth snapshot.
func (c *RedisCache) SetDepth(instrument string, snap book.Snapshot) error {
	key := "book:depth:" + instrument
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return c.client.Set(c.ctx, key, data, 500*time.Millisecond).Err()
}

// GetDepth retrieves a cached depth snapshot, nil on a miss.
func (c *RedisCache) GetDepth(instrument string) (*book.Snapshot, error) {
	key := "book:depth:" + instrument
	data, err := c.client.Get(c.ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap book.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// AddRecentTrade pushes a trade onto the recent-trades feed.
func (c *RedisCache) AddRecentTrade(instrument string, trade book.Trade) error {
	key := "trades:recent:" + instrument

	data, err := json.Marshal(trade)
	if err != nil {
		return err
	}

	pipe := c.client.Pipeline()
	pipe.LPush(c.ctx, key, data)
	pipe.LTrim(c.ctx, key, 0, 99) // Keep last 100 trades
	pipe.Expire(c.ctx, key, 5*time.Second)
	_, err = pipe.Exec(c.ctx)
	return err
}

// GetRecentTrades retrieves recent trades, newest first.
func (c *RedisCache) GetRecentTrades(instrument string, limit int64) ([]book.Trade, error) {
	key := "trades:recent:" + instrument
	values, err := c.client.LRange(c.ctx, key, 0, limit-1).Result()
	if err != nil {
		return nil, err
	}

	trades := make([]book.Trade, 0, len(values))
	for _, v := range values {
		var trade book.Trade
		if err := json.Unmarshal([]byte(v), &trade); err != nil {
			continue
		}
		trades = append(trades, trade)
	}
	return trades, nil
}

// parseInt safely parses a string to int64.
func parseInt(s string) int64 {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	return 0
}
