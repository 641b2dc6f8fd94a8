package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/publihazclick/publihazclick-sub000/internal/config"
	"github.com/publihazclick/publihazclick-sub000/internal/db"
	"github.com/publihazclick/publihazclick-sub000/internal/events"
	"github.com/publihazclick/publihazclick-sub000/internal/handler"
	"github.com/publihazclick/publihazclick-sub000/internal/middleware"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
	"github.com/publihazclick/publihazclick-sub000/internal/router"
	"github.com/publihazclick/publihazclick-sub000/internal/service"
)

const sweepInterval = 15 * time.Minute

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "publihazclick-api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	publisher := events.NewPublisher(cfg.KafkaBrokerURL, cfg.KafkaTopic)
	defer publisher.Close()

	// Repositories
	viewRepo := repository.NewViewRepo(pool)
	adRepo := repository.NewAdRepo(pool)
	viewerRepo := repository.NewViewerRepo(pool)
	claimRepo := repository.NewClaimRepo(pool)
	advertiserRepo := repository.NewAdvertiserRepo(pool)

	// Services
	tracker := service.NewTrackerService(viewRepo, claimRepo)
	trust := service.NewTrustService()
	rewards := service.NewRewardService(adRepo, claimRepo, cache, publisher, cfg.IPHashSalt)
	views := service.NewViewService(tracker, rewards)
	catalog := service.NewCatalogService(adRepo, viewRepo, claimRepo, advertiserRepo, cache)
	viewers := service.NewViewerService(viewerRepo, cache)

	// Background workers
	claimWorker := service.NewClaimWorker(pool, claimRepo, viewerRepo, trust, cache, publisher)
	go claimWorker.Start(ctx)

	sweepWorker := service.NewSweepWorker(viewRepo, views, sweepInterval)
	go sweepWorker.Start(ctx)
	defer sweepWorker.Stop()

	botFilter, err := middleware.NewBotFilter(cfg.GeoIPDBPath, cfg.AllowCountries)
	if err != nil {
		log.Fatalf("failed to open GeoIP database: %v", err)
	}
	defer botFilter.Close()

	handler.InitMetrics(pool)
	cache.InstrumentWith(handler.Metrics.CacheHits, handler.Metrics.CacheMisses)

	app := fiber.New(fiber.Config{
		AppName:      "PubliHazClick API",
		ServerHeader: "PubliHazClick",
	})

	h := &router.Handlers{
		Ad:      handler.NewAdHandler(catalog, adRepo),
		View:    handler.NewViewHandler(views, adRepo),
		Claim:   handler.NewClaimHandler(rewards),
		Session: handler.NewSessionHandler(tracker, cfg.IPHashSalt, cfg.AdminToken),
		Viewer:  handler.NewViewerHandler(viewers),
		Stats:   handler.NewStatsHandler(viewers),
		Admin:   handler.NewAdminHandler(claimRepo, cache, cfg.AdminToken),
		Health:  handler.NewHealthHandler(pool, cache.Client(), publisher),
	}
	router.Setup(app, h, cfg.CORSOrigins, botFilter)

	go func() {
		<-ctx.Done()
		log.Println("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown error: %v", err)
		}
	}()

	log.Printf("PubliHazClick Go backend starting on :%s (env=%s)", cfg.Port, cfg.Environment)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
