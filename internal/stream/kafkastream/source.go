// Package kafkastream adapts the Kafka consumer to the stream.Source port:
// entity.update envelopes in, EntityEvents out.
package kafkastream

import (
	"context"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/internal/stream"
	"github.com/turtacn/riskwatch/pkg/errors"
	"github.com/turtacn/riskwatch/pkg/types/common"
)

// consumer is the slice of the Kafka consumer the source uses.
type consumer interface {
	Subscribe(topic string, handler common.MessageHandler)
	Start(ctx context.Context) error
	Close() error
}

// Source consumes entity.update and forwards decoded events.
type Source struct {
	consumer consumer
	topic    string
	logger   logging.Logger
}

// New wraps a consumer. The topic defaults to TopicEntityUpdate.
func New(c consumer, topic string, logger logging.Logger) (*Source, error) {
	if c == nil {
		return nil, errors.InvalidParam("kafka stream source requires a consumer")
	}
	if topic == "" {
		topic = kafka.TopicEntityUpdate
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Source{consumer: c, topic: topic, logger: logger.Named("kafkastream")}, nil
}

// Run implements stream.Source. Malformed messages are logged and dropped;
// returning an error to the consumer would only dead-letter them after
// useless retries, since a bad envelope never becomes parseable.
func (s *Source) Run(ctx context.Context, handler stream.EventHandler) error {
	s.consumer.Subscribe(s.topic, func(ctx context.Context, msg *common.Message) error {
		env, err := kafka.MessageToEventEnvelope(msg)
		if err != nil {
			s.logger.Warn("dropping undecodable entity event",
				logging.Int64("offset", msg.Offset),
				logging.Err(err))
			return nil
		}
		var payload kafka.EntityUpdatePayload
		if err := env.DecodePayload(&payload); err != nil {
			s.logger.Warn("dropping malformed entity payload",
				logging.String("event_id", string(env.EventID)),
				logging.Err(err))
			return nil
		}
		ev := risk.EntityEvent{
			EntityKey:       payload.EntityKey,
			LookupAttribute: payload.LookupAttribute,
			EventTime:       payload.EventTime,
		}
		if ev.EventTime.IsZero() {
			ev.EventTime = env.Timestamp
		}
		return handler(ctx, ev)
	})

	if err := s.consumer.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

// Close shuts down the consumer.
func (s *Source) Close() error {
	return s.consumer.Close()
}

// interface guard
var _ stream.Source = (*Source)(nil)

//Personal.AI order the ending
