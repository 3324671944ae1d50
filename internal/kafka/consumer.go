package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/carlos-sqds/travel-buddy/internal/logger"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type Consumer struct {
	reader *kafka.Reader
	log    *zap.Logger
}

func NewConsumer(brokers []string, groupID, topic string, log *zap.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		log: logger.OrNop(log),
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

// Consume reads until ctx is cancelled or handler returns an error.
func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, kafka.Message) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		if err := handler(ctx, msg); err != nil {
			return err
		}
	}
}

// PriceEventHandler decodes PriceEvent messages for fn. Undecodable messages
// are logged and skipped.
func PriceEventHandler(log *zap.Logger, fn func(context.Context, PriceEvent) error) func(context.Context, kafka.Message) error {
	log = logger.OrNop(log)
	return func(ctx context.Context, msg kafka.Message) error {
		var event PriceEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Warn("decode price event failed", zap.ByteString("key", msg.Key), zap.Error(err))
			return nil
		}
		return fn(ctx, event)
	}
}
