package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	matchmodels "gavel/internal/match/models"
	"gavel/internal/platform/config"
)

// Consumer reads raw case records from the Kafka feed and hands them to the
// pipeline. Offsets commit automatically with the consumer group; a record
// that fails processing is logged and skipped, the same contract as every
// other upstream-data fault.
type Consumer struct {
	client   *kgo.Client
	pipeline *Pipeline
	logger   *slog.Logger
}

type ConsumerOption func(*Consumer)

func WithConsumerLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) { c.logger = logger }
}

func NewConsumer(cfg config.KafkaConfig, pipeline *Pipeline, opts ...ConsumerOption) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("pipeline is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	c := &Consumer{client: client, pipeline: pipeline}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Run polls until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			if c.logger != nil {
				c.logger.ErrorContext(ctx, "kafka fetch error",
					"topic", topic, "partition", partition, "error", err)
			}
		})
		fetches.EachRecord(func(record *kgo.Record) {
			c.handle(ctx, record)
		})
	}
}

func (c *Consumer) handle(ctx context.Context, record *kgo.Record) {
	var rec matchmodels.RawCaseRecord
	if err := json.Unmarshal(record.Value, &rec); err != nil {
		if c.logger != nil {
			c.logger.WarnContext(ctx, "undecodable record skipped",
				"topic", record.Topic, "offset", record.Offset, "error", err)
		}
		return
	}
	if err := c.pipeline.Process(ctx, rec); err != nil {
		if c.logger != nil {
			c.logger.ErrorContext(ctx, "record processing failed",
				"external_case_id", rec.ExternalCaseID, "offset", record.Offset, "error", err)
		}
	}
}

// Close flushes and releases the Kafka client.
func (c *Consumer) Close() {
	c.client.Close()
}
