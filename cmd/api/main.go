package main

import (
	"context"
	"fmt"
	"log"

	"github.com/SebJana/ReceiptBud/core"
)

func main() {
	cfg := core.Load()
	ctx := context.Background()

	logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	codec, err := core.NewTokenCodec(cfg.TokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	if err != nil {
		log.Fatalf("failed to build token codec (is TOKEN_SECRET set?): %v", err)
	}

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer db.Close()

	if err := core.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("failed to ensure schema: %v", err)
	}

	var cache *core.ReceiptCache
	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		defer redisClient.Close()
		cache = core.NewReceiptCache(redisClient)
	}

	authService := core.NewAuthService(core.NewPgUserRepository(db), codec)
	receiptService := core.NewReceiptService(core.NewPgReceiptRepository(db), cache)

	router := core.NewRouter(cfg, authService, receiptService, codec)

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("starting api server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
