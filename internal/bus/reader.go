package bus

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewReader builds a manual-commit kafka.Reader for one of the two topics.
// CommitInterval is pinned to 0 — callers commit explicitly, matching
// cmd/ingester's "Important: We handle commits manually" convention.
func NewReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: 0,
		SessionTimeout: 30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})
}
