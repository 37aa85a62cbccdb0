// Package events publishes notifications about completed cleaning runs.
package events

import (
	"context"
	"fmt"
	"time"

	"contactcleaner/pkg/kafka"
	"contactcleaner/pkg/model"
)

const (
	EventTypeCleaned = "contacts.cleaned"
	SchemaVersion    = "1"

	HeaderUploadFilename = "upload-filename"
)

type CleanedEvent struct {
	UploadID  string               `json:"upload_id"`
	Filename  string               `json:"filename"`
	Report    model.CleaningReport `json:"report"`
	CleanedAt time.Time            `json:"cleaned_at"`
}

type Publisher interface {
	PublishCleaned(ctx context.Context, event CleanedEvent) error
	Close() error
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	producer messagePublisher
	source   string
}

func NewKafkaPublisher(producer *kafka.Producer, source string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, source: source}
}

// PublishCleaned sends event keyed by its upload ID. The request ID in ctx, if any, becomes the correlation ID.
func (p *KafkaPublisher) PublishCleaned(ctx context.Context, event CleanedEvent) error {
	msg, err := kafka.NewMessage().
		WithKey(event.UploadID).
		WithValue(event).
		WithEventID("").
		WithEventType(EventTypeCleaned).
		WithSchemaVersion(SchemaVersion).
		WithSource(p.source).
		WithCorrelationID(correlationID(ctx)).
		WithHeader(HeaderUploadFilename, event.Filename).
		Build()
	if err != nil {
		return fmt.Errorf("build %s event: %w", EventTypeCleaned, err)
	}
	return p.producer.Publish(ctx, msg)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishCleaned(context.Context, CleanedEvent) error { return nil }

func (NoopPublisher) Close() error { return nil }

type correlationKey struct{}

// WithCorrelationID attaches id to ctx for PublishCleaned.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey{}, id)
}

func correlationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}
