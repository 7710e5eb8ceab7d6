package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/predictarena/arena-backend/internal/config"
	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/services"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ScoreConsumer subscribes to the external score feed and folds each fixture
// result into participant scores. Delivery is at-least-once; the scoring path
// is idempotent, so redeliveries are harmless.
type ScoreConsumer struct {
	cfg            config.QueueConfig
	scoringService services.ScoringService

	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewScoreConsumer creates a new ScoreConsumer
func NewScoreConsumer(cfg config.QueueConfig, scoringService services.ScoringService) *ScoreConsumer {
	return &ScoreConsumer{
		cfg:            cfg,
		scoringService: scoringService,
	}
}

// Start connects to the broker, declares the queue and begins consuming.
// It returns once the consumer loop is running; the loop stops when ctx is
// cancelled.
func (c *ScoreConsumer) Start(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to queue broker: %w", err)
	}
	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if _, err := channel.QueueDeclare(
		c.cfg.ScoreQueue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to declare score queue: %w", err)
	}
	// Fixture updates for the same fixture must apply in arrival order.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to set prefetch: %w", err)
	}

	deliveries, err := channel.Consume(
		c.cfg.ScoreQueue,
		"arena-score-consumer",
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	c.conn = conn
	c.channel = channel
	go c.run(ctx, deliveries)
	slog.Info("Score consumer started", "queue", c.cfg.ScoreQueue)
	return nil
}

func (c *ScoreConsumer) run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case delivery, ok := <-deliveries:
			if !ok {
				slog.Warn("Score feed channel closed")
				return
			}
			c.handle(ctx, delivery)
		}
	}
}

// handle decodes and applies one fixture result. Transient application errors
// are retried with backoff before the message is requeued.
func (c *ScoreConsumer) handle(ctx context.Context, delivery amqp.Delivery) {
	var event models.FixtureResultEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		slog.Error("Discarding malformed score event", "error", err)
		if err := delivery.Nack(false, false); err != nil {
			slog.Error("Failed to nack malformed score event", "error", err)
		}
		return
	}

	err := retry.Do(
		func() error {
			return c.scoringService.ApplyFixtureResult(ctx, event, false)
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, models.ErrFixtureResultFinal)
		}),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying fixture result application",
				"attempt", n+1, "fixtureId", event.FixtureID, "error", err)
		}),
	)
	if errors.Is(err, models.ErrFixtureResultFinal) {
		// The stored result is already final; requeueing would loop forever.
		slog.Warn("Discarding update for a final fixture result", "fixtureId", event.FixtureID)
		if err := delivery.Nack(false, false); err != nil {
			slog.Error("Failed to nack score event", "error", err)
		}
		return
	}
	if err != nil {
		slog.Error("Failed to apply fixture result, requeueing",
			"fixtureId", event.FixtureID, "error", err)
		if err := delivery.Nack(false, true); err != nil {
			slog.Error("Failed to nack score event", "error", err)
		}
		return
	}
	if err := delivery.Ack(false); err != nil {
		slog.Error("Failed to ack score event", "error", err, "fixtureId", event.FixtureID)
	}
}

// Stop closes the channel and connection
func (c *ScoreConsumer) Stop() {
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			slog.Warn("Failed to close queue channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			slog.Warn("Failed to close queue connection", "error", err)
		}
	}
}
