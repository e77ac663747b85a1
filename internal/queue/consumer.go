package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nicofratini/prospeo-bolt/internal/repository"
)

// CallInserter persists one ingested call. Satisfied by repository.CallRepo.
type CallInserter interface {
	Insert(ctx context.Context, c *repository.Call) error
}

// Known call statuses; anything else is rejected at ingestion.
var validStatuses = map[string]bool{
	"completed":   true,
	"missed":      true,
	"failed":      true,
	"in-progress": true,
}

// StartCallConsumer connects to the broker, declares the call.recorded
// queue and consumes it until ctx is cancelled. Connection loss triggers a
// reconnect loop with capped exponential backoff. Malformed messages are
// rejected without requeue so one bad payload cannot wedge the queue.
func StartCallConsumer(ctx context.Context, url string, store CallInserter, log *zap.Logger) {
	backoff := time.Second
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("call-consumer: broker dial failed",
				zap.Error(err), zap.Duration("retry_in", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		if err := consumeLoop(ctx, conn, store, log); err != nil {
			log.Warn("call-consumer: consume loop ended, reconnecting", zap.Error(err))
		}
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		time.Sleep(2 * time.Second)
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, store CallInserter, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("call-consumer: set QoS failed", zap.Error(err))
	}

	if _, err := ch.QueueDeclare(CallRecordedQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(CallRecordedQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := handleMessage(ctx, d.Body, store); err != nil {
				log.Error("call-consumer: message rejected", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func handleMessage(ctx context.Context, body []byte, store CallInserter) error {
	var ev CallRecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	call, err := callFromEvent(ev)
	if err != nil {
		return err
	}
	if err := store.Insert(ctx, call); err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	return nil
}

// callFromEvent validates the payload and maps it onto a call_history row.
func callFromEvent(ev CallRecordedEvent) (*repository.Call, error) {
	if ev.UserID == "" || ev.CallerNumber == "" {
		return nil, errors.New("missing user_id or caller_number")
	}
	if !validStatuses[ev.Status] {
		return nil, fmt.Errorf("unknown call status %q", ev.Status)
	}
	ts, err := time.Parse(time.RFC3339, ev.CallTimestamp)
	if err != nil {
		return nil, fmt.Errorf("bad call_timestamp: %w", err)
	}
	if ev.DurationSeconds < 0 {
		return nil, fmt.Errorf("negative duration %d", ev.DurationSeconds)
	}
	return &repository.Call{
		ID:              ev.CallID,
		UserID:          ev.UserID,
		AgentID:         ev.AgentID,
		PropertyID:      ev.PropertyID,
		CallerNumber:    ev.CallerNumber,
		CallTimestamp:   ts,
		DurationSeconds: ev.DurationSeconds,
		Status:          ev.Status,
		RecordingURL:    ev.RecordingURL,
		Summary:         ev.Summary,
		Transcript:      ev.Transcript,
	}, nil
}
