package events

import (
	"context"
	"testing"

	"contactcleaner/pkg/kafka"
	"contactcleaner/pkg/model"
)

type fakeProducer struct {
	published []kafka.Message
}

func (f *fakeProducer) Publish(_ context.Context, msg kafka.Message) error {
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeProducer) Close() error { return nil }

func TestKafkaPublisher_PublishCleaned(t *testing.T) {
	producer := &fakeProducer{}
	p := &KafkaPublisher{producer: producer, source: "contactcleaner"}

	ctx := WithCorrelationID(context.Background(), "req-1")
	event := CleanedEvent{
		UploadID: "upload-1",
		Filename: "contacts.csv",
		Report:   model.CleaningReport{RowsBefore: 5, RowsAfter: 3, Applied: []model.StageID{model.StageTrimWhitespace}},
	}

	if err := p.PublishCleaned(ctx, event); err != nil {
		t.Fatalf("PublishCleaned: %v", err)
	}
	if len(producer.published) != 1 {
		t.Fatalf("expected one message, got %d", len(producer.published))
	}

	msg := producer.published[0]
	if msg.Key != "upload-1" {
		t.Errorf("Key = %s, want upload-1", msg.Key)
	}
	if msg.GetEventType() != EventTypeCleaned || msg.GetCorrelationID() != "req-1" {
		t.Errorf("unexpected headers %v", msg.Headers)
	}
	if got := msg.Headers[HeaderUploadFilename]; got != "contacts.csv" {
		t.Errorf("%s header = %q, want contacts.csv", HeaderUploadFilename, got)
	}

	var decoded CleanedEvent
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if decoded.Report.RowsRemoved() != 2 || decoded.Filename != "contacts.csv" {
		t.Errorf("unexpected payload %+v", decoded)
	}
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	if err := p.PublishCleaned(context.Background(), CleanedEvent{}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
