package main

import (
	"log"

	"clubdev.app/gamify/internal/bootstrap"
	"clubdev.app/gamify/internal/config"
	"clubdev.app/gamify/internal/server"
	"clubdev.app/gamify/pkg/database"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.Connect()
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	if err := bootstrap.SeedRules(db); err != nil {
		log.Fatalf("failed to seed reward rules: %v", err)
	}

	// Redis backs the leaderboard index and the grant pub/sub hook. The
	// ledger in postgres stays authoritative, so the service keeps serving
	// (from SQL) when redis is not configured.
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		redisClient = redis.NewClient(opts)
		log.Println("✅ Redis leaderboard index enabled")
	} else {
		log.Println("⚠️ REDIS_URL not set, leaderboard reads fall back to SQL")
	}

	srv := server.NewServer(db, redisClient, cfg)

	log.Printf("🚀 Gamify engine listening on :%s", cfg.Port)
	if err := srv.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
