// Package report publishes finished run results as JSON events to Kafka so
// downstream consumers (dashboards, CI bookkeeping) can follow runs.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/andrej220/taskrun/internal/engine"
	"github.com/andrej220/taskrun/internal/lg"
)

// messageWriter abstracts kafka.Writer for testing.
type messageWriter interface {
	WriteMessages(context.Context, ...kafka.Message) error
	Close() error
}

type Publisher struct {
	writer messageWriter
	lg     lg.Logger
}

func NewPublisher(brokers []string, topic string, logger lg.Logger) *Publisher {
	if logger == nil {
		logger = lg.Discard
	}
	return &Publisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			Async:                  false,
			AllowAutoTopicCreation: true,
		},
		lg: logger,
	}
}

// Publish writes one run result, keyed by the run UUID.
func (p *Publisher) Publish(ctx context.Context, res *engine.RunResult) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal run result: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   res.RunID[:],
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		p.lg.Error("failed to publish run result",
			lg.String("run_id", res.RunID.String()),
			lg.Err(err))
		return fmt.Errorf("failed to publish run result: %w", err)
	}

	p.lg.Info("run result published",
		lg.String("run_id", res.RunID.String()),
		lg.Bool("ok", res.OK))
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
