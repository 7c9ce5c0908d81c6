package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pvolkov-dev/skyfare/config"
	"github.com/pvolkov-dev/skyfare/internal/bootstrap"
	"github.com/pvolkov-dev/skyfare/internal/cache"
	"github.com/pvolkov-dev/skyfare/internal/kafka"
	"github.com/pvolkov-dev/skyfare/internal/pnr"
	"github.com/pvolkov-dev/skyfare/internal/pricing"
	"github.com/pvolkov-dev/skyfare/internal/repository"
	"github.com/pvolkov-dev/skyfare/internal/service/booking"
	"github.com/pvolkov-dev/skyfare/internal/service/flights"
	"github.com/pvolkov-dev/skyfare/internal/service/payments"
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CacheTTL())
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	store := repository.NewPGStore(pool, cfg.Booking.LockWait())
	pricer := pricing.NewEngine(rand.New(rand.NewSource(time.Now().UnixNano())))
	codes := pnr.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())))

	flightService := flights.NewFlightService(store.Flights(), redisCache, pricer)
	bookingService := booking.NewBookingService(
		store,
		pricer,
		codes,
		redisCache,
		producer,
		cfg.Kafka.BookingEventsTopic,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)
	settler := payments.NewSimulator(store, producer, cfg.Kafka.NotificationsTopic, cfg.Payment.SuccessRate, nil)

	if err := bootstrap.Run(ctx, cfg, flightService, bookingService, settler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
