// Package common holds the small set of cross-cutting types shared between
// the messaging infrastructure and the pipeline layers.  Domain types live in
// internal/domain/risk; only transport-level carriers belong here.
package common

import (
	"context"
	"time"
)

// ID is a string alias for UUID v4.
type ID string

// Message is a consumed message from the event stream.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
	Headers   map[string]string
}

// MessageHandler processes one consumed Message.  A nil return commits the
// message; a non-nil return triggers the consumer's retry/DLQ policy.
type MessageHandler func(ctx context.Context, msg *Message) error

// ProducerMessage is a message to be published.
type ProducerMessage struct {
	Topic     string
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// BatchItemError records a per-message failure within a batch publish.
type BatchItemError struct {
	Index int
	Topic string
	Error error
}

// BatchPublishResult summarizes a batch publish.
type BatchPublishResult struct {
	Succeeded int
	Failed    int
	Errors    []BatchItemError
}

// TopicConfig describes a Kafka topic to be ensured at startup.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
	CleanupPolicy     string
	Configs           map[string]string
}

//Personal.AI order the ending
