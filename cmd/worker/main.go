package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pvolkov-dev/skyfare/config"
	"github.com/pvolkov-dev/skyfare/internal/cache"
	"github.com/pvolkov-dev/skyfare/internal/email"
	"github.com/pvolkov-dev/skyfare/internal/kafka"
	"github.com/pvolkov-dev/skyfare/internal/market"
	"github.com/pvolkov-dev/skyfare/internal/repository"
	"github.com/pvolkov-dev/skyfare/internal/service/payments"
	kafkaGo "github.com/segmentio/kafka-go"
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

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()
	redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CacheTTL())

	store := repository.NewPGStore(pool, cfg.Booking.LockWait())
	settler := payments.NewSimulator(store, producer, cfg.Kafka.NotificationsTopic, cfg.Payment.SuccessRate, nil)

	// Settle freshly created bookings off the event stream.
	bookingConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.BookingEventsTopic)
	defer bookingConsumer.Close()
	go func() {
		err := bookingConsumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode booking event: %v", err)
				return nil
			}
			if event.Type != kafka.EventBookingCreated {
				return nil
			}
			payment, err := settler.Settle(ctx, event.Code)
			if err != nil {
				log.Printf("settle payment for booking %s: %v", event.Code, err)
				return nil
			}
			log.Printf("settled booking %s: %s", event.Code, payment.Status)
			return nil
		})
		if err != nil {
			log.Printf("booking consumer stopped: %v", err)
		}
	}()

	// Email receipts for settlement notifications.
	notifyConsumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID+"-notify", cfg.Kafka.NotificationsTopic)
	defer notifyConsumer.Close()
	sender := email.NewSender()
	go func() {
		err := notifyConsumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			var event kafka.BookingEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				log.Printf("decode notification event: %v", err)
				return nil
			}
			return sender.Send(ctx, event)
		})
		if err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	simulator := market.NewSimulator(store, redisCache, cfg.Market.Interval(), cfg.Market.MaxSeatDelta, nil)
	log.Printf("market simulator running every %s", cfg.Market.Interval())
	if err := simulator.Run(ctx); err != nil {
		log.Printf("market simulator stopped: %v", err)
	}
}
