package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// messageReader is the subset of *kafka.Reader used by KafkaSource.
type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaPublisher writes events as JSON keyed by employee id, so one
// employee's events stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher returns nil when brokers or topic are empty, which leaves
// remote sync disabled.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	return &KafkaPublisher{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	if p == nil || p.writer == nil {
		return nil
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, kafka.Message{
		Key:   []byte(e.EmployeeID),
		Value: payload,
	}); err != nil {
		return fmt.Errorf("writing event to kafka: %w", err)
	}
	return nil
}

// Close closes the writer. Safe on a nil publisher.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// KafkaSource consumes events written by other devices and republishes them
// into a local Publisher, normally a Hub. Events from this device are skipped
// because they were already delivered locally.
type KafkaSource struct {
	reader messageReader
	sink   Publisher
	origin string
	logger *slog.Logger
}

func NewKafkaSource(brokers []string, topic, groupID, origin string, sink Publisher, logger *slog.Logger) *KafkaSource {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	return newKafkaSource(reader, origin, sink, logger)
}

func newKafkaSource(reader messageReader, origin string, sink Publisher, logger *slog.Logger) *KafkaSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaSource{reader: reader, sink: sink, origin: origin, logger: logger}
}

// Run consumes until ctx is cancelled. Malformed messages and read errors are
// logged and skipped.
func (s *KafkaSource) Run(ctx context.Context) error {
	defer s.reader.Close()
	for {
		msg, err := s.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.logger.Warn("broadcast: kafka read failed", "error", err)
			continue
		}
		var e Event
		if err := json.Unmarshal(msg.Value, &e); err != nil {
			s.logger.Warn("broadcast: dropping malformed event", "offset", msg.Offset, "error", err)
			continue
		}
		if e.EmployeeID == "" || (s.origin != "" && e.Origin == s.origin) {
			continue
		}
		if err := s.sink.Publish(ctx, e); err != nil {
			s.logger.Warn("broadcast: local delivery failed", "employee_id", e.EmployeeID, "error", err)
		}
	}
}
