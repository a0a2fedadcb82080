package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/yusakuma/feed-service/internal/ads"
	"github.com/yusakuma/feed-service/internal/analytics"
	"github.com/yusakuma/feed-service/internal/cache"
	"github.com/yusakuma/feed-service/internal/catalog"
	"github.com/yusakuma/feed-service/internal/config"
	"github.com/yusakuma/feed-service/internal/feed"
	"github.com/yusakuma/feed-service/internal/handler"
	"github.com/yusakuma/feed-service/internal/recommend"
	"github.com/yusakuma/feed-service/internal/repository"
	"github.com/yusakuma/feed-service/internal/router"
	"github.com/yusakuma/feed-service/internal/service"
	"github.com/yusakuma/feed-service/internal/store"
	"github.com/yusakuma/feed-service/seeds"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config %v", err)
	}

	ctx := context.Background()

	// ------------ PostgreSQL ---------------
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to parse database config %v", err)
	}
	poolConfig.MaxConns = int32(cfg.DBPoolSize)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		log.Fatalf("failed to connect to database %v", err)
	}
	defer pool.Close()

	if err := waitForDB(ctx, pool); err != nil {
		log.Fatalf("database not ready: %v", err)
	}
	log.Println("connected to PostgreSQL")

	// ------------ Run Migrations ---------------
	// for migrate-down using CLI command
	if len(os.Args) > 1 && os.Args[1] == "migrate-down" {
		if err := migrateDown(ctx, pool); err != nil {
			log.Fatalf("failed to migrate down %v", err)
		}
		log.Println("migrations dropped")
		return
	}

	if err := migrateUp(ctx, pool); err != nil {
		log.Fatalf("failed to migrate up %v", err)
	}

	repo := repository.NewRepository(pool)

	// ------------ Catalog ---------------
	// The manifest fetch failing is the one fatal error in this system:
	// without a catalog there is no feed to serve.
	cat, err := loadCatalog(ctx, cfg.ManifestPath, repo)
	if err != nil {
		log.Fatalf("failed to load catalog: %v", err)
	}
	log.Printf("catalog loaded with %d videos", cat.Len())

	if err := checkSeed(ctx, repo, cat); err != nil {
		log.Fatalf("failed to check seed %v", err)
	}

	// ------------ Redis ---------------
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to parse redis url %v", err)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis not ready: %v", err)
	}
	log.Println("connected to Redis")

	// ---------------- Wiring --------------------
	kv := store.NewRedis(redisClient)
	feedCache := cache.NewCache(redisClient, cfg.CacheTTL)
	tracker := recommend.NewTracker(kv)
	engine := recommend.NewEngine(rand.New(rand.NewSource(time.Now().UnixNano())))

	providers := ads.DefaultProviders()
	if len(cfg.AdZones) > 0 {
		providers = ads.QueueProviders(cfg.AdZones)
	}
	composer := feed.NewComposer(cfg.AdEligibleTypes, providers)
	clickout := analytics.NewClient(cfg.AnalyticsEndpoint, cfg.AnalyticsDomain)

	svc := service.NewService(cat, repo, feedCache, tracker, engine, composer, clickout, feed.SessionConfig{
		ActivationThreshold: cfg.ActivationRatio,
		MaxActiveEmbeds:     cfg.MaxActiveEmbeds,
	})
	h := handler.NewHandler(svc)

	// ---------------- Server --------------------
	log.Printf("Server running on %s", cfg.Addr())
	log.Fatal(http.ListenAndServe(cfg.Addr(), router.Setup(h)))
}

func waitForDB(ctx context.Context, pool *pgxpool.Pool) error {
	for i := 0; i < 30; i++ {
		if err := pool.Ping(ctx); err == nil {
			return nil
		}
		log.Printf("waiting for database... (%d/30)", i+1)
		time.Sleep(1 * time.Second)
	}
	return fmt.Errorf("database connection timeout after 30s")
}

func migrateDown(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := os.ReadFile("migrations/create_tables.down.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	log.Println("migrations dropped successfully")
	return nil
}

func migrateUp(ctx context.Context, pool *pgxpool.Pool) error {
	sql, err := os.ReadFile("migrations/create_tables.up.sql")
	if err != nil {
		return fmt.Errorf("read migration file: %w", err)
	}
	if _, err := pool.Exec(ctx, string(sql)); err != nil {
		return fmt.Errorf("execute migration: %w", err)
	}
	log.Println("migrations applied successfully")
	return nil
}

// loadCatalog prefers the manifest file and falls back to the persisted copy.
func loadCatalog(ctx context.Context, manifestPath string, repo *repository.Repository) (*catalog.Catalog, error) {
	cat, err := catalog.Load(manifestPath)
	if err == nil {
		return cat, nil
	}
	log.Printf("manifest %s unavailable (%v), falling back to database", manifestPath, err)

	videos, dbErr := repo.LoadVideos(ctx)
	if dbErr != nil {
		return nil, fmt.Errorf("manifest unavailable and database fallback failed: %w", dbErr)
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("manifest unavailable and database holds no videos: %w", err)
	}
	return catalog.New(videos), nil
}

func checkSeed(ctx context.Context, repo *repository.Repository, cat *catalog.Catalog) error {
	count, err := repo.CountVideos(ctx)
	if err != nil {
		return fmt.Errorf("check videos count: %w", err)
	}
	if count > 0 {
		log.Printf("database already seeded (%d videos), skipping", count)
		return nil
	}
	return seeds.Setup(ctx, repo, cat.Videos())
}
