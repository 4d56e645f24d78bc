package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	"github.com/unclebandit/ad-scheduler/internal/app"
	"github.com/unclebandit/ad-scheduler/internal/config"
	"github.com/unclebandit/ad-scheduler/internal/logging"
	"github.com/unclebandit/ad-scheduler/internal/queue"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on OS environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.App.LogLevel, cfg.App.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()
	logger = logger.Named("worker")

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("worker stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if cfg.AMQP.URL == "" {
		return errors.New("AMQP_URL is required for the worker")
	}

	c := &consumer{Logger: logger}
	// a memory store lives in the server process, so there is nothing to confirm against
	if cfg.Database.Driver != config.DriverMemory {
		store, err := app.OpenStore(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer store.Close()
		c.Campaigns = store.Campaigns
	}

	// Connect to RabbitMQ
	conn, err := amqp.Dial(cfg.AMQP.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	q, err := queue.DeclareQueue(ch, cfg.AMQP.Queue)
	if err != nil {
		return err
	}

	c.Republish = func(ctx context.Context, headers amqp.Table, d amqp.Delivery) error {
		return ch.Publish("", q.Name, false, false, amqp.Publishing{
			Headers:      headers,
			ContentType:  d.ContentType,
			DeliveryMode: amqp.Persistent,
			Type:         d.Type,
			Body:         d.Body,
		})
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	logger.Info("worker running, waiting for messages", zap.String("queue", q.Name))
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker shutting down")
			return nil
		case d, ok := <-msgs:
			if !ok {
				logger.Warn("delivery channel closed")
				return nil
			}
			c.handle(ctx, d)
		}
	}
}
