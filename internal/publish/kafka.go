package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/PratikDhanave/factory-events-service/internal/models"
)

// messageWriter is the subset of kafka-go's Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaSink publishes every accepted record as one message keyed by eventId,
// so retransmissions of an event land on the same partition.
type KafkaSink struct {
	writer messageWriter
}

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	Compression  kafkago.Compression
	MaxAttempts  int
}

// NewKafkaSink constructs a KafkaSink from the given configuration.
func NewKafkaSink(cfg KafkaConfig) *KafkaSink {
	return &KafkaSink{
		writer: &kafkago.Writer{
			Addr:         kafkago.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkago.Hash{},
			BatchSize:    cfg.BatchSize,
			BatchTimeout: cfg.BatchTimeout,
			RequiredAcks: kafkago.RequireAll,
			Compression:  cfg.Compression,
			MaxAttempts:  cfg.MaxAttempts,
		},
	}
}

func (k *KafkaSink) Name() string {
	return "kafka"
}

// Publish writes records in one WriteMessages call.
func (k *KafkaSink) Publish(ctx context.Context, batchID string, records []models.StoredRecord) error {
	msgs := make([]kafkago.Message, 0, len(records))
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal event %s: %w", rec.EventID, err)
		}
		msgs = append(msgs, kafkago.Message{
			Key:   []byte(rec.EventID),
			Value: payload,
			Time:  rec.ReceivedTime.UTC(),
			Headers: []kafkago.Header{
				{Key: "batch_id", Value: []byte(batchID)},
				{Key: "machine_id", Value: []byte(rec.MachineID)},
				{Key: "event_type", Value: []byte(eventTypeAccepted)},
			},
		})
	}
	if len(msgs) == 0 {
		return nil
	}
	return k.writer.WriteMessages(ctx, msgs...)
}

// Close flushes and closes the underlying writer.
func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

// CompressionFromString maps textual codec to kafka-go value.
func CompressionFromString(name string) kafkago.Compression {
	switch strings.ToLower(name) {
	case "gzip":
		return kafkago.Gzip
	case "snappy":
		return kafkago.Snappy
	case "lz4":
		return kafkago.Lz4
	case "zstd":
		return kafkago.Zstd
	default:
		return kafkago.Snappy
	}
}
