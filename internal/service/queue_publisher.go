// Package service publishes domain events to the message broker. Every
// publish here is best-effort: errors are logged and returned so callers
// can ignore them without interrupting the request that triggered them.
package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nicofratini/prospeo-bolt/internal/queue"
)

// PublishOnboardingCompleted emits an OnboardingCompletedEvent to the
// onboarding.completed queue. Messages are persistent; the queue declare is
// idempotent so publisher and consumers can start in any order.
func PublishOnboardingCompleted(ctx context.Context, url string, ev queue.OnboardingCompletedEvent, log *zap.Logger) error {
	conn, err := amqp.Dial(url)
	if err != nil {
		log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.OnboardingCompletedQueue, true, false, false, false, nil); err != nil {
		log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		log.Warn("rabbitmq: marshal event failed", zap.Error(err))
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.OnboardingCompletedQueue, false, false, pub); err != nil {
		log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}
