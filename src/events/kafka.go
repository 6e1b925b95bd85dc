package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

type KafkaConfig struct {
	Brokers []string `json:"brokers" yaml:"brokers" validate:"required,min=1,dive,hostname_port"`
	Topic   string   `json:"topic" yaml:"topic" validate:"required"`
	GroupID string   `json:"group_id" yaml:"group_id" validate:"required"`
}

// KafkaBus publishes envelopes to one topic and consumes them through a
// consumer group, committing each message after its handler returns.
type KafkaBus struct {
	cfg    KafkaConfig
	writer *kafka.Writer
	reader *kafka.Reader
	logger *slog.Logger
}

func NewKafkaBus(cfg KafkaConfig, logger *slog.Logger) *KafkaBus {
	if logger == nil {
		logger = slog.Default()
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		BatchTimeout:           10 * time.Millisecond,
		BatchSize:              100,
		AllowAutoTopicCreation: true,
	}
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxAttempts: 10,
		Dialer: &kafka.Dialer{
			Timeout: 10 * time.Second,
		},
	})
	return &KafkaBus{
		cfg:    cfg,
		writer: writer,
		reader: reader,
		logger: logger.With("component", "event_bus", "driver", "kafka", "topic", cfg.Topic),
	}
}

// EnsureTopic creates the topic when the cluster does not have it yet.
func (b *KafkaBus) EnsureTopic(ctx context.Context) error {
	if len(b.cfg.Brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	dialer := &kafka.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", b.cfg.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read kafka partitions: %w", err)
	}
	for _, p := range partitions {
		if p.Topic == b.cfg.Topic {
			return nil
		}
	}

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             b.cfg.Topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		return fmt.Errorf("failed to create topic %s: %w", b.cfg.Topic, err)
	}
	b.logger.Info("topic created")
	return nil
}

func (b *KafkaBus) Publish(ctx context.Context, ev Event) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	err = b.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.Key),
		Value: value,
		Time:  ev.SentAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", ev.Name, err)
	}
	b.logger.Debug("event published", "name", ev.Name, "key", ev.Key)
	return nil
}

func (b *KafkaBus) Consume(ctx context.Context, h Handler) error {
	for {
		msg, err := b.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrBusClosed
			}
			return fmt.Errorf("failed to fetch event: %w", err)
		}

		var ev Event
		if err := json.Unmarshal(msg.Value, &ev); err != nil {
			b.logger.Error("dropping undecodable event", "offset", msg.Offset, "partition", msg.Partition, "error", err)
		} else if err := h(ctx, ev); err != nil {
			b.logger.Error("event handler failed", "name", ev.Name, "key", ev.Key, "error", err)
		}

		if err := b.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to commit offset %d: %w", msg.Offset, err)
		}
	}
}

func (b *KafkaBus) Close() error {
	var errs []error
	if err := b.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close kafka writer: %w", err))
	}
	if err := b.reader.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close kafka reader: %w", err))
	}
	return errors.Join(errs...)
}
