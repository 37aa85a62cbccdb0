package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	kafka_config "contactcleaner/pkg/kafka/config"
	"contactcleaner/pkg/logger"
	"contactcleaner/pkg/sanitizer"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	SecretKey          string
	secretKeyGenerated bool

	DefaultPhoneRegion string

	MaxUploadSize int
	UploadTTL     time.Duration
	PreviewRows   int

	RateLimitRequests int
	RateLimitWindow   time.Duration
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For header is believed.
	TrustedProxies []string

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SessionCookieName   string
	SessionCookieSecure bool

	Kafka *kafka_config.Config

	ServiceName string
	Log         *logger.Logger
}

func Load(serviceName string) *Config {
	cfg := FromEnv(serviceName)

	cfg.Log = logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   serviceName,
	})

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	if cfg.secretKeyGenerated {
		cfg.Log.Warn("SECRET_KEY is not set, using a random key; sessions will not survive a restart")
	}
	cfg.LogConfiguration()
	return cfg
}

// FromEnv reads every setting without validating or creating the logger.
func FromEnv(serviceName string) *Config {
	cfg := &Config{
		Port:      getEnvStr(EnvPort, DefaultPort),
		LogLevel:  strings.ToLower(getEnvStr(EnvLogLevel, DefaultLogLevel)),
		LogFormat: strings.ToLower(getEnvStr(EnvLogFormat, DefaultLogFormat)),

		SecretKey: getEnvStr(EnvSecretKey, ""),

		DefaultPhoneRegion: strings.ToUpper(getEnvStr(EnvDefaultPhoneRegion, DefaultPhoneRegion)),

		MaxUploadSize: getEnvNum(EnvMaxUploadSize, DefaultMaxUploadSize),
		UploadTTL:     getEnvDuration(EnvUploadTTL, DefaultUploadTTL),
		PreviewRows:   getEnvNum(EnvPreviewRows, DefaultPreviewRows),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),
		TrustedProxies:    getEnvList(EnvTrustedProxies),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SessionCookieName:   getEnvStr(EnvSessionCookieName, DefaultSessionCookieName),
		SessionCookieSecure: getEnvBool(EnvSessionCookieSecure, DefaultSessionCookieSecure),

		Kafka: kafka_config.Load(),

		ServiceName: serviceName,
	}

	if cfg.SecretKey == "" {
		cfg.SecretKey = randomSecret()
		cfg.secretKeyGenerated = true
	}

	return cfg
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if !logger.IsValidLevel(cfg.LogLevel) {
		errors = append(errors, fmt.Sprintf("LogLevel must be one of [debug, info, warn, error], got: %s", cfg.LogLevel))
	}
	if cfg.LogFormat != logger.JSON && cfg.LogFormat != logger.TEXT {
		errors = append(errors, fmt.Sprintf("LogFormat must be json or text, got: %s", cfg.LogFormat))
	}

	if cfg.SecretKey == "" {
		errors = append(errors, "SecretKey cannot be empty")
	}

	if !sanitizer.IsSupportedRegion(cfg.DefaultPhoneRegion) {
		errors = append(errors, fmt.Sprintf("DefaultPhoneRegion must be a known region code, got: %s", cfg.DefaultPhoneRegion))
	}

	if cfg.MaxUploadSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxUploadSize must be positive, got: %d", cfg.MaxUploadSize))
	}
	if cfg.UploadTTL <= 0 {
		errors = append(errors, fmt.Sprintf("UploadTTL must be positive, got: %s", cfg.UploadTTL))
	}
	if cfg.PreviewRows < 0 || cfg.PreviewRows > MaxPreviewRows {
		errors = append(errors, fmt.Sprintf("PreviewRows must be between 0 and %d, got: %d", MaxPreviewRows, cfg.PreviewRows))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	for _, proxy := range cfg.TrustedProxies {
		if !isIPOrCIDR(proxy) {
			errors = append(errors, fmt.Sprintf("TrustedProxies entries must be IPs or CIDRs, got: %s", proxy))
		}
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if strings.TrimSpace(cfg.SessionCookieName) == "" {
		errors = append(errors, "SessionCookieName cannot be empty")
	}

	if cfg.Kafka != nil {
		errors = append(errors, cfg.Kafka.Validate()...)
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"port", cfg.Port,
		"log_level", cfg.LogLevel,
		"log_format", cfg.LogFormat,
		"secret_key_set", !cfg.secretKeyGenerated,
		"default_phone_region", cfg.DefaultPhoneRegion,
		"max_upload_size", cfg.MaxUploadSize,
		"upload_ttl", cfg.UploadTTL,
		"preview_rows", cfg.PreviewRows,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"trusted_proxies", cfg.TrustedProxies,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"session_cookie_name", cfg.SessionCookieName,
		"session_cookie_secure", cfg.SessionCookieSecure,
		"kafka_enabled", cfg.Kafka != nil && cfg.Kafka.Enabled(),
	)
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping blank entries.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func isIPOrCIDR(s string) bool {
	if net.ParseIP(s) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(s)
	return err == nil
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
