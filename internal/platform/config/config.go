// Package config builds runtime configuration from environment variables so
// main stays lean. Missing secrets are not fatal here; the components that
// need them surface a "not configured" error at use time.
package config

import (
	"os"
	"strconv"
	"time"
)

// OAuthProvider holds one provider's client registration.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	// RedirectURL must exactly match the value registered with the provider.
	// When empty, a same-origin callback URL is computed from the request.
	RedirectURL string
}

// RedisConfig captures connection settings for the counter/KV store.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// WebhookConfig captures the payment webhook's verification settings.
type WebhookConfig struct {
	Secret             string
	SignatureHeader    string
	TransactionIDField string
}

// Config is the root configuration for the auth service.
type Config struct {
	Addr          string
	PublicBaseURL string

	SessionSecret string
	SessionTTL    time.Duration

	// Test credentials accepted by the password login endpoint in
	// non-production environments.
	TestEmail    string
	TestPassword string

	Google   OAuthProvider
	Facebook OAuthProvider

	Redis   RedisConfig
	Webhook WebhookConfig

	PostgresURL string

	KafkaBrokers      string
	AuditTopic        string
	RateLimitDisabled bool
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:          getenv("BE_ADDR", ":8080"),
		PublicBaseURL: os.Getenv("BE_PUBLIC_BASE_URL"),

		SessionSecret: os.Getenv("BE_SESSION_SECRET"),
		SessionTTL:    getduration("BE_SESSION_TTL", 7*24*time.Hour),

		TestEmail:    getenv("BE_TEST_EMAIL", "test@betengine.dev"),
		TestPassword: getenv("BE_TEST_PASSWORD", "test123"),

		Google: OAuthProvider{
			ClientID:     os.Getenv("BE_GOOGLE_CLIENT_ID"),
			ClientSecret: os.Getenv("BE_GOOGLE_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("BE_GOOGLE_REDIRECT_URL"),
		},
		Facebook: OAuthProvider{
			ClientID:     os.Getenv("BE_FACEBOOK_CLIENT_ID"),
			ClientSecret: os.Getenv("BE_FACEBOOK_CLIENT_SECRET"),
			RedirectURL:  os.Getenv("BE_FACEBOOK_REDIRECT_URL"),
		},

		Redis: RedisConfig{
			URL:          os.Getenv("BE_REDIS_URL"),
			PoolSize:     getint("BE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("BE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getduration("BE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getduration("BE_REDIS_READ_TIMEOUT", 2*time.Second),
			WriteTimeout: getduration("BE_REDIS_WRITE_TIMEOUT", 2*time.Second),
		},

		Webhook: WebhookConfig{
			Secret:             os.Getenv("BE_WEBHOOK_SECRET"),
			SignatureHeader:    getenv("BE_WEBHOOK_SIGNATURE_HEADER", "X-Webhook-Signature"),
			TransactionIDField: getenv("BE_WEBHOOK_TXN_FIELD", "transactionId"),
		},

		PostgresURL: os.Getenv("BE_POSTGRES_URL"),

		KafkaBrokers:      os.Getenv("BE_KAFKA_BROKERS"),
		AuditTopic:        getenv("BE_AUDIT_TOPIC", "betengine.auth.audit"),
		RateLimitDisabled: os.Getenv("BE_RATELIMIT_DISABLED") == "true",
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
