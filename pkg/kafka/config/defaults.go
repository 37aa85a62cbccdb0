package kafka_config

import "time"

const (
	// Publishing is disabled unless brokers are configured
	DefaultKafkaBrokers = ""
	DefaultKafkaTopic   = "contacts.cleaned"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // Require all replicas
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultEnableMiddleware = true
)
