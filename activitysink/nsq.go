// Package activitysink publishes edu activity events to NSQ as
// activitymap.Normalized records.
package activitysink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/goliatone/go-edu"
	"github.com/goliatone/go-edu/activitymap"
	"github.com/nsqio/go-nsq"
)

// DefaultTopic receives every activity event
const DefaultTopic = "edu.activity"

// Publisher is the subset of *nsq.Producer the sink needs
type Publisher interface {
	Publish(topic string, body []byte) error
	Stop()
}

// NSQ publishes events as JSON to a single topic.
type NSQ struct {
	publisher Publisher
	topic     string
	mapping   []activitymap.Option
}

var _ edu.ActivitySink = (*NSQ)(nil)

// Dial connects to the nsqd at address and checks it answers.
func Dial(address, topic string) (*NSQ, error) {
	config := nsq.NewConfig()
	producer, err := nsq.NewProducer(address, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create NSQ producer: %w", err)
	}

	if err := producer.Ping(); err != nil {
		producer.Stop()
		return nil, fmt.Errorf("failed to ping NSQ daemon: %w", err)
	}

	producer.SetLoggerLevel(nsq.LogLevelWarning)

	return New(producer, topic), nil
}

// New wraps an existing publisher. opts tune how events are normalized.
func New(publisher Publisher, topic string, opts ...activitymap.Option) *NSQ {
	if topic == "" {
		topic = DefaultTopic
	}
	return &NSQ{publisher: publisher, topic: topic, mapping: opts}
}

// Record implements edu.ActivitySink.
func (s *NSQ) Record(ctx context.Context, event edu.ActivityEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(activitymap.Normalize(event, s.mapping...))
	if err != nil {
		return fmt.Errorf("failed to marshal activity event: %w", err)
	}

	if err := s.publisher.Publish(s.topic, body); err != nil {
		return fmt.Errorf("failed to publish activity event: %w", err)
	}
	return nil
}

// Stop gracefully stops the producer.
func (s *NSQ) Stop() {
	s.publisher.Stop()
}
