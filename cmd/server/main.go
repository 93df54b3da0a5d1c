package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"limitbook/internal/api"
	"limitbook/internal/book"
	"limitbook/internal/cache"
	"limitbook/internal/config"
	"limitbook/internal/messaging"
	"limitbook/internal/metrics"
	"limitbook/internal/ws"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.Load()
	b := book.New()
	appMetrics := metrics.NewMetrics()

	var redisCache *cache.RedisCache
	redisCache, err := cache.NewRedisCache(cfg)
	if err != nil {
		log.Printf("Redis cache not available: %v", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected")
	}
	defer func() {
		if redisCache != nil {
			redisCache.Close()
		}
	}()

	var wsHub *ws.Hub
	if cfg.WSEnabled {
		wsHub = ws.NewHub(b, cfg.Instrument, nil)
		wsHub.SetMetrics(appMetrics)
		go wsHub.Run()
		log.Println("WebSocket hub started")
		defer wsHub.Stop()
	}

	var publisher *messaging.Publisher
	publisher, err = messaging.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	if err != nil {
		log.Printf("RabbitMQ publisher not available: %v", err)
		publisher = nil
	} else {
		log.Println("RabbitMQ publisher connected")
		defer publisher.Close()
	}

	// The engine stays purely computational: every transport observes it
	// through this one callback.
	b.SetTradeCallback(func(trade book.Trade) {
		appMetrics.RecordTrade(trade.Quantity())

		if wsHub != nil {
			wsHub.BroadcastTrade(trade)
		}

		if redisCache != nil {
			redisCache.AddRecentTrade(cfg.Instrument, trade)
		}

		if publisher != nil {
			if err := publisher.Publish(messaging.RouteTradeExecuted, messaging.TradeEvent{
				Instrument: cfg.Instrument,
				Trade:      trade,
			}); err == nil {
				appMetrics.RecordMQPublished(messaging.RouteTradeExecuted)
			}
		}
	})

	router := gin.New()
	api.RegisterRoutes(router, api.RouterConfig{
		Instrument:         cfg.Instrument,
		AuthEnabled:        cfg.AuthEnabled,
		AuthSecret:         cfg.AuthSecret,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	}, b, redisCache, wsHub, publisher, appMetrics)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	log.Printf("Limit order book for %s running on %s", cfg.Instrument, cfg.ServerPort)
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
