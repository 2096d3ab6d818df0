package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Storage backends
const (
	StorageDynamoDB = "dynamodb"
	StorageMemory   = "memory"
)

type Config struct {
	Port           string   `mapstructure:"PORT"`
	LogLevel       string   `mapstructure:"LOG_LEVEL"`
	LogFormat      string   `mapstructure:"LOG_FORMAT"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`

	StorageBackend      string        `mapstructure:"STORAGE_BACKEND"`
	AWSRegion           string        `mapstructure:"AWS_REGION"`
	DynamoDBTablePrefix string        `mapstructure:"DYNAMODB_TABLE_PREFIX"`
	S3BucketName        string        `mapstructure:"S3_BUCKET_NAME"`
	MediaURLExpiry      time.Duration `mapstructure:"MEDIA_URL_EXPIRY"`

	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	FirebaseWebAPIKey                string `mapstructure:"FIREBASE_WEB_API_KEY"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	ProfileCacheTTL time.Duration `mapstructure:"PROFILE_CACHE_TTL"`

	StripeSecretKey     string `mapstructure:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `mapstructure:"STRIPE_WEBHOOK_SECRET"`

	CallTokenSecret string        `mapstructure:"CALL_TOKEN_SECRET"`
	CallTokenTTL    time.Duration `mapstructure:"CALL_TOKEN_TTL"`

	DiscoveryPageSize      int `mapstructure:"DISCOVERY_PAGE_SIZE"`
	DiscoveryDefaultMaxAge int `mapstructure:"DISCOVERY_DEFAULT_MAX_AGE"`

	ExpirySweepSchedule string `mapstructure:"EXPIRY_SWEEP_SCHEDULE"`
}

// defaults also registers every key with viper, so AutomaticEnv picks each
// one up during Unmarshal. Keys without a default map to "".
var defaults = map[string]interface{}{
	"PORT":            "8080",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "text",
	"ALLOWED_ORIGINS": []string{"*"},

	"STORAGE_BACKEND":       StorageDynamoDB,
	"AWS_REGION":            "us-east-1",
	"DYNAMODB_TABLE_PREFIX": "",
	"S3_BUCKET_NAME":        "",
	"MEDIA_URL_EXPIRY":      5 * time.Minute,

	"FIREBASE_PROJECT_ID":                  "",
	"GOOGLE_APPLICATION_CREDENTIALS":       "",
	"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64": "",
	"FIREBASE_WEB_API_KEY":                 "",

	"REDIS_ADDR":        "",
	"REDIS_PASSWORD":    "",
	"PROFILE_CACHE_TTL": 10 * time.Minute,

	"STRIPE_SECRET_KEY":     "",
	"STRIPE_WEBHOOK_SECRET": "",

	"CALL_TOKEN_SECRET": "",
	"CALL_TOKEN_TTL":    time.Hour,

	"DISCOVERY_PAGE_SIZE":       20,
	"DISCOVERY_DEFAULT_MAX_AGE": 99,

	"EXPIRY_SWEEP_SCHEDULE": "@every 15m",
}

// Load reads configuration from the environment using Viper, after loading a
// .env file if one exists. Malformed numbers or durations are an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.AllowedOrigins = trimList(cfg.AllowedOrigins)
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	if cfg.StorageBackend != StorageDynamoDB && cfg.StorageBackend != StorageMemory {
		return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
	}
	if cfg.DiscoveryPageSize <= 0 {
		return nil, fmt.Errorf("DISCOVERY_PAGE_SIZE must be positive, got %d", cfg.DiscoveryPageSize)
	}
	return &cfg, nil
}

// ConfigureLogging applies LOG_LEVEL and LOG_FORMAT to the standard logger.
func (c *Config) ConfigureLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		log.Warnf("invalid LOG_LEVEL %q, using info", c.LogLevel)
		level = log.InfoLevel
	}
	log.SetLevel(level)
	if strings.EqualFold(c.LogFormat, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

// trimList drops blanks left by comma-separated values such as "a, ,b".
func trimList(in []string) []string {
	var out []string
	for _, part := range in {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
