package kafka_middleware

import (
	"context"

	"contactcleaner/pkg/kafka"
)

// PublishObserver records the outcome of a publish attempt.
type PublishObserver interface {
	ObserveEventPublish(err error)
}

// MetricsProducerMiddleware reports every publish result to observer
func MetricsProducerMiddleware(observer PublishObserver) kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		err := next(ctx, msg)
		observer.ObserveEventPublish(err)
		return err
	}
}
