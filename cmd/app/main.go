package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/sevabooking/config"
	"github.com/Domenick1991/sevabooking/internal/bootstrap"
	"github.com/Domenick1991/sevabooking/internal/cache"
	"github.com/Domenick1991/sevabooking/internal/kafka"
	"github.com/Domenick1991/sevabooking/internal/logger"
	"github.com/Domenick1991/sevabooking/internal/repository"
	"github.com/Domenick1991/sevabooking/internal/service/booking"
	"github.com/Domenick1991/sevabooking/internal/service/offerings"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logg.Sync()

	loc, err := cfg.Seva.Location()
	if err != nil {
		logg.Fatal("load timezone", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logg.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if cfg.Database.Migrate {
		if err := repository.Migrate(ctx, pool); err != nil {
			logg.Fatal("migrate schema", zap.Error(err))
		}
	}

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Seva.SlotCacheDuration())
	defer redisCache.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers, logg)
	defer producer.Close()

	ledger := repository.NewBookingLedger(pool)
	catalog := repository.NewCatalog(pool)

	offeringService := offerings.NewOfferingService(catalog, ledger, redisCache, logg, loc, cfg.Seva.CalendarMaxDays)
	bookingService := booking.NewBookingService(
		ledger,
		catalog,
		logg,
		booking.WithLocation(loc),
		booking.WithRetries(cfg.Seva.ConfirmRetries, cfg.Seva.RetryBackoff()),
		booking.WithCache(redisCache, cfg.Seva.LockDuration()),
		booking.WithProducer(producer, cfg.Kafka.BookingEventsTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	checks := map[string]bootstrap.Check{
		"postgres": pool.Ping,
		"redis":    redisCache.Ping,
		"kafka":    producer.CheckConnection,
	}

	if err := bootstrap.Run(ctx, cfg, logg, offeringService, bookingService, checks); err != nil {
		logg.Fatal("server error", zap.Error(err))
	}
}
