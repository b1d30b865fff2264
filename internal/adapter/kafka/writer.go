package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/quakewatch/internal/config"
	"github.com/couchcryptid/quakewatch/internal/domain"
	"github.com/couchcryptid/quakewatch/internal/observability"
)

// messageWriter is the subset of *kafkago.Writer used by Writer.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer mirrors fetched features to a Kafka topic, one message per feature.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer  messageWriter
	clock   clockwork.Clock
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a Kafka producer for the configured mirror topic.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return &Writer{writer: w, clock: clockwork.NewRealClock(), metrics: metrics, logger: logger}
}

// LoadBatch publishes the features of one refresh cycle in a single
// WriteMessages call. Messages are keyed by event id so updates to the same
// event land on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, cycleID string, features []domain.Feature) error {
	if len(features) == 0 {
		return nil
	}
	publishedAt := w.clock.Now().UTC()
	msgs := make([]kafkago.Message, len(features))
	for i := range features {
		msg, err := serializeToMessage(features[i], cycleID, publishedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d messages: %w", len(msgs), err)
	}
	w.metrics.MessagesProduced.Add(float64(len(msgs)))
	w.logger.Debug("mirrored features", "count", len(msgs), "cycle_id", cycleID)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Feature into a Kafka message.
func serializeToMessage(f domain.Feature, cycleID string, publishedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize feature %s: %w", f.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(f.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "cycle_id", Value: []byte(cycleID)},
			{Key: "magnitude_bucket", Value: []byte(domain.BucketLabel(f))},
			{Key: "published_at", Value: []byte(publishedAt.Format(time.RFC3339))},
		},
	}, nil
}
