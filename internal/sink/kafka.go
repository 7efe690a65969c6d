package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"telemon/internal/alert"
	"telemon/internal/logger"
	"telemon/internal/metrics"
)

// Kafka sink errors
var (
	ErrSinkClosed      = errors.New("kafka sink is closed")
	ErrSerializeFailed = errors.New("failed to serialize alert event")
)

const (
	kafkaMaxRetries   = 3
	kafkaRetryBackoff = 100 * time.Millisecond
)

// KafkaSink publishes alert events to a Kafka topic, keyed by channel so
// alerts for one channel stay ordered within a partition.
type KafkaSink struct {
	writer *kafka.Writer
	closed atomic.Bool

	// Metrics
	eventsSent   atomic.Uint64
	eventsFailed atomic.Uint64
}

// NewKafkaSink creates a Kafka-backed alert sink.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic is required")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // Partition by key
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  1, // Retries handled here, with backoff
		Async:        false,
	}

	return &KafkaSink{writer: writer}, nil
}

// Dispatch stamps each alert into an Event and publishes the batch.
func (s *KafkaSink) Dispatch(ctx context.Context, alerts []alert.Alert) error {
	if s.closed.Load() {
		return ErrSinkClosed
	}
	if len(alerts) == 0 {
		return nil
	}

	log := logger.WithComponent("kafka_sink")
	start := time.Now()

	messages := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		event := NewEvent(a)
		data, err := json.Marshal(event)
		if err != nil {
			s.eventsFailed.Add(1)
			metrics.KafkaPublishTotal.WithLabelValues("failed").Inc()
			return fmt.Errorf("%w: %v", ErrSerializeFailed, err)
		}

		messages = append(messages, kafka.Message{
			Key:   []byte(a.ChannelName()),
			Value: data,
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(event.ID)},
				{Key: "severity", Value: []byte(a.Severity)},
			},
			Time: event.EmittedAt,
		})
	}

	err := s.publishWithRetry(ctx, messages)
	duration := time.Since(start)
	metrics.KafkaPublishDuration.Observe(duration.Seconds())

	if err != nil {
		log.Error().
			Err(err).
			Int("batch_size", len(messages)).
			Dur("duration", duration).
			Msg("failed to publish alerts to kafka")
		s.eventsFailed.Add(uint64(len(messages)))
		metrics.KafkaPublishTotal.WithLabelValues("failed").Add(float64(len(messages)))
		return err
	}

	log.Debug().
		Int("batch_size", len(messages)).
		Dur("duration", duration).
		Msg("alerts published to kafka")
	s.eventsSent.Add(uint64(len(messages)))
	metrics.KafkaPublishTotal.WithLabelValues("success").Add(float64(len(messages)))
	return nil
}

// publishWithRetry publishes messages with exponential backoff retry
func (s *KafkaSink) publishWithRetry(ctx context.Context, messages []kafka.Message) error {
	log := logger.WithComponent("kafka_sink")
	var lastErr error
	backoff := kafkaRetryBackoff

	for attempt := 0; attempt <= kafkaMaxRetries; attempt++ {
		if attempt > 0 {
			log.Warn().
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("retrying kafka publish")

			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		err := s.writer.WriteMessages(ctx, messages...)
		if err == nil {
			return nil
		}

		lastErr = err
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
	}

	return fmt.Errorf("failed after %d attempts: %w", kafkaMaxRetries+1, lastErr)
}

// Close closes the underlying writer. Safe to call more than once.
func (s *KafkaSink) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.writer.Close()
}

// Stats returns sink statistics
func (s *KafkaSink) Stats() KafkaStats {
	return KafkaStats{
		EventsSent:   s.eventsSent.Load(),
		EventsFailed: s.eventsFailed.Load(),
	}
}

// KafkaStats holds Kafka sink metrics
type KafkaStats struct {
	EventsSent   uint64 `json:"events_sent"`
	EventsFailed uint64 `json:"events_failed"`
}
