// Package config loads service configuration from environment variables.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds every tunable for the progression service. Secrets come from
// the environment (or a .env file in development, loaded by main).
type Config struct {
	// --- HTTP ---
	ListenAddr     string `envconfig:"LISTEN_ADDR" default:":5300"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// --- Database ---
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// --- Gateway / auth ---
	// Token the API gateway presents on every request.
	ServiceToken   string `envconfig:"PROGRESS_SERVICE_TOKEN" required:"true"`
	AuthServiceURL string `envconfig:"AUTH_SERVICE_URL" default:"http://localhost:8400"`

	// --- Notification sink ---
	NotificationServiceURL string `envconfig:"NOTIFICATION_SERVICE_URL" default:"http://localhost:8600"`

	// --- Community service (social artifact mirror source) ---
	CommunityServiceURL string `envconfig:"COMMUNITY_SERVICE_URL" default:"http://localhost:8700"`
	SocialSyncSeconds   int    `envconfig:"SOCIAL_SYNC_SECONDS" default:"60"`

	// --- Badge icon storage (Cloudflare R2) ---
	CloudflareAccountID string `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID       string `envconfig:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret   string `envconfig:"R2_ACCESS_KEY_SECRET"`
	R2BucketName        string `envconfig:"R2_BUCKET_NAME"`
	CDNBaseURL          string `envconfig:"CDN_BASE_URL"`

	// --- Application ---
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`
}

// Load reads the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
