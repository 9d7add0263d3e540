package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	"github.com/ebukadev08/notification-system/internal/models"
	"github.com/ebukadev08/notification-system/internal/ops"
	"github.com/ebukadev08/notification-system/internal/repository"
	"github.com/ebukadev08/notification-system/pkg/rabbitmq"
)

const reconnectDelay = 5 * time.Second

// MessageProcessor runs one delivery attempt.
type MessageProcessor interface {
	Process(ctx context.Context, req models.DeliveryRequest) models.Outcome
}

// StatusReporter notifies the gateway of a terminal outcome.
type StatusReporter interface {
	Report(ctx context.Context, notificationID, status, errMsg string)
}

// DeliveredMarks suppresses redeliveries of requests that already reached a
// delivered outcome. Best-effort: Seen may always answer false.
type DeliveredMarks interface {
	Seen(ctx context.Context, requestID string) bool
	Mark(ctx context.Context, requestID string) error
}

// brokerOps is the slice of broker side effects one in-flight delivery needs:
// acknowledging the original and publishing copies.
type brokerOps interface {
	Ack() error
	Publish(queue string, body []byte) error
}

// ConsumerConfig names the broker endpoints for one worker.
type ConsumerConfig struct {
	URL             string
	Exchange        string
	Queue           string
	RoutingKey      string
	DeadLetterQueue string
}

// Consumer owns the broker session for one worker: it declares topology,
// consumes with exactly one message in flight, drives the processor, and
// performs the ack/republish the coordinator decides on. The consume loop
// survives connection loss indefinitely; only context cancellation stops it.
type Consumer struct {
	cfg         ConsumerConfig
	processor   MessageProcessor
	coordinator *Coordinator
	reporter    StatusReporter
	marks       DeliveredMarks
	log         *repository.DeliveryLog
	metrics     *ops.Metrics
	logger      *slog.Logger
	tag         string

	// wait sits out the retry backoff; overridable in tests.
	wait func(ctx context.Context, d time.Duration) error
}

// NewConsumer creates a Consumer. marks and log may be nil.
func NewConsumer(
	cfg ConsumerConfig,
	processor MessageProcessor,
	coordinator *Coordinator,
	reporter StatusReporter,
	marks DeliveredMarks,
	log *repository.DeliveryLog,
	metrics *ops.Metrics,
	logger *slog.Logger,
) *Consumer {
	return &Consumer{
		cfg:         cfg,
		processor:   processor,
		coordinator: coordinator,
		reporter:    reporter,
		marks:       marks,
		log:         log,
		metrics:     metrics,
		logger:      logger,
		tag:         cfg.Queue + "-" + uuid.NewString(),
		wait:        waitContext,
	}
}

// Run consumes until ctx is cancelled. Connection failures at startup or
// mid-stream are logged, waited out, and retried forever.
func (c *Consumer) Run(ctx context.Context) {
	for {
		err := c.consume(ctx)
		if ctx.Err() != nil {
			c.logger.Info("consumer stopped", slog.String("queue", c.cfg.Queue))
			return
		}
		c.logger.Error("connection error, retrying in 5s",
			slog.String("queue", c.cfg.Queue),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
			c.logger.Info("consumer stopped", slog.String("queue", c.cfg.Queue))
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (c *Consumer) consume(ctx context.Context) error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	routing := map[string]string{c.cfg.Queue: c.cfg.RoutingKey}
	if err := rabbitmq.Declare(ch, c.cfg.Exchange, routing, c.cfg.DeadLetterQueue); err != nil {
		return err
	}

	// One unacked message per worker: ordering and the blocking backoff
	// both depend on this.
	if err := ch.Qos(1, 0, false); err != nil {
		return err
	}

	deliveries, err := ch.Consume(c.cfg.Queue, c.tag, false, false, false, false, nil)
	if err != nil {
		return err
	}

	c.logger.Info("consumer started, waiting for messages", slog.String("queue", c.cfg.Queue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.handleDelivery(ctx, d.Body, &amqpOps{delivery: d, channel: ch})
		}
	}
}

// handleDelivery processes one message and settles it. The original delivery
// is acknowledged exactly once on every path; republishing is best-effort and
// happens before the ack, so a publish failure after the ack can lose the
// retry record. That gap is inherited behavior, kept on purpose.
func (c *Consumer) handleDelivery(ctx context.Context, body []byte, broker brokerOps) {
	c.metrics.Consumed()

	var req models.DeliveryRequest
	if err := json.Unmarshal(body, &req); err != nil {
		// A body that does not parse carries no usable attempt count,
		// so it bypasses the retry machinery and goes straight to the
		// dead-letter queue.
		c.logger.Error("malformed message body, dead-lettering", slog.Any("error", err))
		if err := broker.Publish(c.cfg.DeadLetterQueue, body); err != nil {
			c.logger.Error("failed to publish to dead-letter queue", slog.Any("error", err))
		}
		c.ack(broker, "")
		c.metrics.DeadLetter()
		return
	}

	c.logger.Info("processing",
		slog.String("request_id", req.RequestID),
		slog.Int("attempt", req.Attempt),
	)

	if c.marks != nil && c.marks.Seen(ctx, req.RequestID) {
		c.logger.Info("duplicate delivery suppressed", slog.String("request_id", req.RequestID))
		c.ack(broker, req.RequestID)
		c.metrics.Duplicate()
		return
	}

	outcome := c.processor.Process(ctx, req)
	decision := c.coordinator.Decide(req.Attempt, outcome)

	switch decision.Action {
	case ActionAck:
		c.recordAttempt(req, models.StatusDelivered, "")
		if c.marks != nil {
			if err := c.marks.Mark(ctx, req.RequestID); err != nil {
				c.logger.Warn("failed to mark delivery", slog.String("request_id", req.RequestID), slog.Any("error", err))
			}
		}
		c.reporter.Report(ctx, req.RequestID, models.StatusDelivered, "")
		c.ack(broker, req.RequestID)
		c.metrics.Delivered()

	case ActionDeadLetter:
		c.logger.Warn("max attempts reached, dead-lettering",
			slog.String("request_id", req.RequestID),
			slog.Int("attempt", req.Attempt),
			slog.String("reason", decision.Reason),
		)
		c.recordAttempt(req, models.StatusFailed, decision.Reason)
		c.republish(broker, c.cfg.DeadLetterQueue, req, decision.NextAttempt)
		c.reporter.Report(ctx, req.RequestID, models.StatusFailed, decision.Reason)
		c.ack(broker, req.RequestID)
		c.metrics.DeadLetter()

	case ActionRetry:
		c.logger.Info("retrying after backoff",
			slog.String("request_id", req.RequestID),
			slog.Int("next_attempt", decision.NextAttempt),
			slog.Duration("backoff", decision.Wait),
			slog.String("reason", decision.Reason),
		)
		c.recordAttempt(req, "retrying", decision.Reason)
		if err := c.wait(ctx, decision.Wait); err != nil {
			// Shutdown during backoff: leave the delivery unacked so
			// the broker redelivers it.
			return
		}
		c.republish(broker, c.cfg.Queue, req, decision.NextAttempt)
		c.ack(broker, req.RequestID)
		c.metrics.Retried()
	}
}

// republish publishes a copy of the request with the incremented attempt.
// Failures are logged and swallowed: the original delivery is still acked, so
// a lost publish here means a lost retry/dead-letter record.
func (c *Consumer) republish(broker brokerOps, queue string, req models.DeliveryRequest, attempt int) {
	req.Attempt = attempt
	body, err := json.Marshal(req)
	if err != nil {
		c.logger.Error("failed to encode message for republish",
			slog.String("request_id", req.RequestID),
			slog.Any("error", err),
		)
		return
	}
	if err := broker.Publish(queue, body); err != nil {
		c.logger.Error("failed to republish message",
			slog.String("request_id", req.RequestID),
			slog.String("queue", queue),
			slog.Any("error", err),
		)
	}
}

func (c *Consumer) ack(broker brokerOps, requestID string) {
	if err := broker.Ack(); err != nil {
		c.logger.Error("failed to ack delivery",
			slog.String("request_id", requestID),
			slog.Any("error", err),
		)
	}
}

func (c *Consumer) recordAttempt(req models.DeliveryRequest, status, reason string) {
	if err := c.log.Record(req.RequestID, req.Attempt, c.cfg.RoutingKey, status, reason); err != nil {
		c.logger.Warn("failed to record delivery attempt",
			slog.String("request_id", req.RequestID),
			slog.Any("error", err),
		)
	}
}

func waitContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// amqpOps settles one amqp delivery and publishes copies on its channel.
// Publishes go through the default exchange with the queue name as routing
// key, persistent.
type amqpOps struct {
	delivery amqp.Delivery
	channel  *amqp.Channel
}

func (o *amqpOps) Ack() error {
	return o.delivery.Ack(false)
}

func (o *amqpOps) Publish(queue string, body []byte) error {
	return o.channel.Publish(
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		})
}
