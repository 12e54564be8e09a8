// Package kafka publishes finished extraction results to a Kafka topic so
// downstream indexing and analytics consumers can pick them up.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/MeasureLink/internal/config"
	"github.com/turtacn/MeasureLink/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MeasureLink/pkg/errors"
	mtypes "github.com/turtacn/MeasureLink/pkg/types/measurement"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New(errors.ErrCodeInternal, "kafka publisher is closed")

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the message body published per extraction.
type Event struct {
	ID         string             `json:"id"`
	OccurredAt time.Time          `json:"occurredAt"`
	Extraction *mtypes.Extraction `json:"extraction"`
}

// Publisher writes extraction events to a single topic.
type Publisher struct {
	writer WriterInterface
	topic  string
	logger logging.Logger
	closed atomic.Bool
	sent   atomic.Int64
	failed atomic.Int64
}

// NewPublisher builds a Publisher from the pipeline's Kafka configuration.
func NewPublisher(cfg config.KafkaConfig, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxAttempts:  cfg.MaxRetries + 1,
		RequiredAcks: kafka.RequireOne,
	}
	return &Publisher{
		writer: writer,
		topic:  cfg.Topic,
		logger: logger.Named("kafka"),
	}
}

// NewPublisherWithWriter wires a custom writer; used by tests.
func NewPublisherWithWriter(w WriterInterface, topic string, logger logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{writer: w, topic: topic, logger: logger}
}

// Publish sends one extraction event.  The sentence text keys the message
// so repeated extractions of the same sentence land in the same partition.
func (p *Publisher) Publish(ctx context.Context, extraction *mtypes.Extraction) error {
	if p.closed.Load() {
		return ErrPublisherClosed
	}
	event := Event{
		ID:         uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Extraction: extraction,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to serialize extraction event")
	}

	msg := kafka.Message{
		Key:   []byte(extraction.Sentence),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to publish extraction event")
	}
	p.sent.Add(1)
	return nil
}

// Stats returns the number of sent and failed publishes.
func (p *Publisher) Stats() (sent, failed int64) {
	return p.sent.Load(), p.failed.Load()
}

// Close flushes and shuts down the underlying writer.
func (p *Publisher) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	if err != nil {
		p.logger.Error("failed to close kafka writer", logging.Err(err))
	}
	return err
}
