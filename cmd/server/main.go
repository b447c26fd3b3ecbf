package main

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmasatrya/farepredict/internal/aggregator"
	"github.com/dharmasatrya/farepredict/internal/airports"
	"github.com/dharmasatrya/farepredict/internal/cache"
	"github.com/dharmasatrya/farepredict/internal/config"
	"github.com/dharmasatrya/farepredict/internal/encoder"
	"github.com/dharmasatrya/farepredict/internal/handler"
	"github.com/dharmasatrya/farepredict/internal/predictor"
	"github.com/dharmasatrya/farepredict/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	rateLimiter := ratelimit.NewUpstreamLimiterWithDefaults()
	predictLimit := ratelimit.Limit{RequestsPerSecond: cfg.Prediction.RPS, BurstSize: cfg.Prediction.Burst}
	rateLimiter.SetLimit(predictor.EndpointFare, predictLimit)
	rateLimiter.SetLimit(predictor.EndpointTrend, predictLimit)
	rateLimiter.SetLimit(airports.Upstream, ratelimit.Limit{
		RequestsPerSecond: cfg.Amadeus.RPS,
		BurstSize:         cfg.Amadeus.Burst,
	})

	var resultCache cache.Cache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host:     cfg.Cache.RedisHost,
			Port:     cfg.Cache.RedisPort,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		resultCache = redisCache
		log.Printf("Redis cache enabled (host: %s:%s, TTL: %v)", cfg.Cache.RedisHost, cfg.Cache.RedisPort, cfg.Cache.TTL)
	} else {
		resultCache = cache.NewNoOpCache()
		log.Println("Cache disabled")
	}
	defer resultCache.Close()

	predictClient := predictor.NewClient(cfg.Prediction.BaseURL, &http.Client{Timeout: cfg.Prediction.Timeout})
	log.Printf("Prediction API at %s", predictClient.BaseURL())

	agg := aggregator.NewAggregator(predictClient, aggregator.Config{
		Timeout:     cfg.Prediction.Timeout,
		MaxRetries:  cfg.Prediction.MaxRetries,
		RetryDelays: cfg.Prediction.RetryDelays,
		RateLimiter: rateLimiter,
		Cache:       resultCache,
	})

	airportClient := airports.NewClient(airports.Config{
		BaseURL:      cfg.Amadeus.BaseURL,
		ClientID:     cfg.Amadeus.APIKey,
		ClientSecret: cfg.Amadeus.APISecret,
		RateLimiter:  rateLimiter,
		Cache:        resultCache,
	})
	if !airportClient.Configured() {
		log.Println("Amadeus credentials missing, airport lookup disabled")
	}

	enc := encoder.New(encoder.WithStrict(cfg.StrictEnums))
	predictHandler := handler.NewPredictHandler(enc, agg, airportClient)

	predictHandler.Register(e.Group("/api/v1"))
	e.GET("/health", handler.HealthHandler)

	log.Printf("Starting fare prediction gateway on port %s", cfg.Port)

	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
