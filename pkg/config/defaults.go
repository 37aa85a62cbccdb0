package config

import "time"

const (
	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultPhoneRegion = "US"

	DefaultMaxUploadSize = 16 * 1024 * 1024 // 16MB
	DefaultUploadTTL     = 1 * time.Hour
	DefaultPreviewRows   = 10
	MaxPreviewRows       = 100

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 1 * time.Hour

	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSessionCookieName   = "contactcleaner_session"
	DefaultSessionCookieSecure = false
)
