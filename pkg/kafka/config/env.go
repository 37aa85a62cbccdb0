package kafka_config

const (
	EnvKafkaBrokers = "KAFKA_BROKERS"
	EnvKafkaTopic   = "KAFKA_TOPIC"

	EnvKafkaProducerMaxAttempts  = "KAFKA_MAX_ATTEMPTS"
	EnvKafkaProducerBatchTimeout = "KAFKA_BATCH_TIMEOUT"
	EnvKafkaProducerRequireAcks  = "KAFKA_REQUIRE_ACKS"
	EnvKafkaProducerCompression  = "KAFKA_COMPRESSION"
	EnvKafkaProducerAsync        = "KAFKA_ASYNC"

	EnvKafkaEnableMiddleware = "KAFKA_ENABLE_MIDDLEWARE"
)
