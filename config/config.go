package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        string `envconfig:"PORT" default:"8090"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Redis
	RedisURL      string `envconfig:"REDIS_URL" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// PIX provider
	PixBaseURL string        `envconfig:"PIX_BASE_URL" required:"true"`
	PixAPIKey  string        `envconfig:"PIX_API_KEY" required:"true"`
	PixTimeout time.Duration `envconfig:"PIX_TIMEOUT" default:"10s"`

	// Payments
	PaymentTTL time.Duration `envconfig:"PAYMENT_TTL" default:"24h"`

	// Ticket issuance. IssuerMode selects the token variant: "plain" or
	// "signed". The signed variant requires a key at one of the candidate
	// paths and refuses to start without one.
	IssuerMode      string   `envconfig:"ISSUER_MODE" default:"plain"`
	SigningKeyPaths []string `envconfig:"SIGNING_KEY_PATHS" default:"./keys/ticket_signing.pem,/etc/ingressohub/ticket_signing.pem"`

	// PubNub push (optional; payments work without it)
	PubNubPublishKey   string `envconfig:"PUBNUB_PUBLISH_KEY" default:""`
	PubNubSubscribeKey string `envconfig:"PUBNUB_SUBSCRIBE_KEY" default:""`
	PubNubSecretKey    string `envconfig:"PUBNUB_SECRET_KEY" default:""`
	PubNubUUID         string `envconfig:"PUBNUB_UUID" default:"ingressohub-server"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if cfg.IssuerMode != "plain" && cfg.IssuerMode != "signed" {
		return nil, fmt.Errorf("config.Load: ISSUER_MODE must be plain or signed, got %q", cfg.IssuerMode)
	}
	return &cfg, nil
}
