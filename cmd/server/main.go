package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/diewo77/go-membership/internal/config"
	"github.com/diewo77/go-membership/internal/db"
	"github.com/diewo77/go-membership/internal/geocode"
	"github.com/diewo77/go-membership/internal/jobs"
	"github.com/diewo77/go-membership/internal/logging"
)

var (
	migrateOnlyFlag    = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag       = flag.Bool("seed-only", false, "Run DB seed and exit")
	geocodePendingFlag = flag.Bool("geocode-pending", false, "Geocode addresses without coordinates and exit")
)

func main() {
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("config: %v", err)
	}
	log := logging.New(cfg.Log)

	dbConn, err := db.Open(cfg.Database, log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg.Database.URL(), cfg.App.Migrations); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Info("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Info("Seeding completed successfully")
		return
	}

	if err := db.Migrate(dbConn, cfg.Database.URL(), cfg.App.Migrations); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if err := db.Seed(dbConn); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	geocoder, closeCache := newGeocoder(cfg, log)
	defer closeCache()

	app, err := NewApp(cfg, dbConn, geocoder, log)
	if err != nil {
		log.Fatalf("setup: %v", err)
	}

	if *geocodePendingFlag {
		n, err := app.addresses.GeocodeAllNeeded(context.Background(), cfg.Jobs.GeocodeBatch, cfg.Jobs.GeocodePause)
		if err != nil {
			log.Fatalf("Geocoding failed after %d addresses: %v", n, err)
		}
		log.WithField("geocoded", n).Info("Pending addresses geocoded")
		return
	}

	scheduler := jobs.NewScheduler(log)
	if err := jobs.RegisterGeocoding(scheduler, app.addresses, cfg.Jobs, log); err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      app,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infof("Server starting on port %s (dev=%v)", cfg.Server.Port, cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutdown signal received")

	scheduler.Stop()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("Error during shutdown: %v", err)
	}
	log.Info("Server stopped gracefully")
}

// newGeocoder builds the Nominatim client behind a cache: Redis when an
// address is configured, memory otherwise. With geocoding disabled every
// address ends up at the country centroid.
func newGeocoder(cfg *config.Config, log logrus.FieldLogger) (geocode.Lookuper, func()) {
	if !cfg.Geocoder.Enabled {
		log.Warn("Geocoding disabled")
		return geocode.LookupFunc(func(context.Context, string) (geocode.Point, error) {
			return geocode.Point{}, geocode.ErrNotFound
		}), func() {}
	}

	client := geocode.NewNominatimClient(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, cfg.Geocoder.Timeout, cfg.Geocoder.RatePerSec)
	if cfg.Redis.Addr == "" {
		return geocode.NewCached(client, geocode.NewMemoryCache(cfg.Geocoder.CacheSize, cfg.Geocoder.CacheTTL), log), func() {}
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.WithError(err).Warn("Redis unreachable, geocode cache kept in memory")
		_ = rdb.Close()
		return geocode.NewCached(client, geocode.NewMemoryCache(cfg.Geocoder.CacheSize, cfg.Geocoder.CacheTTL), log), func() {}
	}
	log.WithField("addr", cfg.Redis.Addr).Info("Geocode cache in Redis")
	return geocode.NewCached(client, geocode.NewRedisCache(rdb, cfg.Geocoder.CacheTTL), log), func() { _ = rdb.Close() }
}
