package sink

import (
	"context"

	"github.com/turtacn/riskwatch/internal/domain/risk"
	"github.com/turtacn/riskwatch/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/riskwatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/riskwatch/pkg/errors"
	"github.com/turtacn/riskwatch/pkg/types/common"
)

// publisher is the slice of the Kafka producer the sink needs.
type publisher interface {
	PublishBatch(ctx context.Context, msgs []*common.ProducerMessage) (*common.BatchPublishResult, error)
}

// KafkaSink publishes each alert as an enveloped message on
// risk.alert.validated, keyed by entity so downstream consumers see
// per-entity order.
type KafkaSink struct {
	producer publisher
	topic    string
}

// NewKafkaSink wraps a producer. The topic defaults to TopicAlertValidated.
func NewKafkaSink(producer publisher, topic string) (*KafkaSink, error) {
	if producer == nil {
		return nil, errors.InvalidParam("kafka sink requires a producer")
	}
	if topic == "" {
		topic = kafka.TopicAlertValidated
	}
	return &KafkaSink{producer: producer, topic: topic}, nil
}

// Emit implements risk.AlertSink.
func (s *KafkaSink) Emit(ctx context.Context, alerts []risk.ValidatedAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]*common.ProducerMessage, 0, len(alerts))
	for _, a := range alerts {
		env, err := kafka.NewEventEnvelope(kafka.TopicAlertValidated, "riskwatch", kafka.AlertValidatedPayload{
			EntityKey:       a.EntityKey,
			LookupAttribute: a.LookupAttribute,
			ThreatType:      a.ThreatType,
			Headline:        a.Headline,
			Description:     a.Description,
			Source:          a.Source,
			ValidatedAt:     a.ValidatedAt,
		})
		if err != nil {
			return err
		}
		msg, err := env.ToMessage(s.topic)
		if err != nil {
			return err
		}
		msg.Key = []byte(a.EntityKey)
		msgs = append(msgs, msg)
	}

	result, err := s.producer.PublishBatch(ctx, msgs)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to publish alert batch")
	}
	if result.Failed > 0 {
		return errors.New(errors.ErrCodeSinkWriteFailed, "some alerts failed to publish")
	}
	return nil
}

// singlePublisher is the slice of the producer the reporter needs.
type singlePublisher interface {
	Publish(ctx context.Context, msg *common.ProducerMessage) error
}

// KafkaCycleReporter announces each finished fetch cycle on
// risk.cycle.completed, keyed by attribute. Publish failures are logged and
// swallowed: the cycle outcome is already durable in the cache and the
// completion event is advisory.
type KafkaCycleReporter struct {
	producer singlePublisher
	topic    string
	logger   logging.Logger
}

// NewKafkaCycleReporter wraps a producer. The topic defaults to
// TopicCycleCompleted.
func NewKafkaCycleReporter(producer singlePublisher, topic string, logger logging.Logger) (*KafkaCycleReporter, error) {
	if producer == nil {
		return nil, errors.InvalidParam("cycle reporter requires a producer")
	}
	if topic == "" {
		topic = kafka.TopicCycleCompleted
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &KafkaCycleReporter{producer: producer, topic: topic, logger: logger.Named("cycle-reporter")}, nil
}

// ReportCycle implements risk.CycleReporter.
func (r *KafkaCycleReporter) ReportCycle(ctx context.Context, s risk.CycleSummary) {
	env, err := kafka.NewEventEnvelope(kafka.TopicCycleCompleted, "riskwatch", kafka.CycleCompletedPayload{
		LookupAttribute: s.LookupAttribute,
		Candidates:      s.Candidates,
		Alerts:          s.Alerts,
		CheckedAt:       s.CheckedAt,
	})
	if err != nil {
		r.logger.Error("failed to build cycle event", logging.Err(err))
		return
	}
	msg, err := env.ToMessage(r.topic)
	if err != nil {
		r.logger.Error("failed to encode cycle event", logging.Err(err))
		return
	}
	msg.Key = []byte(s.LookupAttribute)
	if err := r.producer.Publish(ctx, msg); err != nil {
		r.logger.Warn("failed to publish cycle event",
			logging.String("attribute", s.LookupAttribute),
			logging.Err(err))
	}
}

// interface guards
var (
	_ risk.AlertSink     = (*KafkaSink)(nil)
	_ risk.CycleReporter = (*KafkaCycleReporter)(nil)
)

//Personal.AI order the ending
