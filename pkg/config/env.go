package config

const (
	EnvPort      = "PORT"
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"

	EnvSecretKey = "SECRET_KEY"

	EnvDefaultPhoneRegion = "DEFAULT_PHONE_REGION"

	EnvMaxUploadSize = "MAX_UPLOAD_SIZE"
	EnvUploadTTL     = "UPLOAD_TTL"
	EnvPreviewRows   = "PREVIEW_ROWS"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"
	EnvTrustedProxies    = "TRUSTED_PROXIES"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSessionCookieName   = "SESSION_COOKIE_NAME"
	EnvSessionCookieSecure = "SESSION_COOKIE_SECURE"
)
