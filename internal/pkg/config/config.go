package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port               string `env:"PORT,                  default=8080"`
	Env                string `env:"ENV,                   default=development"`
	LogLevel           string `env:"LOG_LEVEL,             default=info"`
	FrontendURL        string `env:"FRONTEND_URL,          default=http://localhost:3000"`
	RateLimitPerMinute int    `env:"RATE_LIMIT_PER_MINUTE, default=30"`
	SnowflakeNode      int64  `env:"SNOWFLAKE_NODE,        default=1"`
	NotifyWorkers      int    `env:"NOTIFY_WORKERS,        default=4"`

	Auth         AuthConfig
	Verification VerificationConfig
	Media        MediaConfig
	Mongo        MongoConfig
	Redis        RedisConfig
	SMTP         SMTPConfig
	SMS          SMSConfig
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,  default=15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL, default=24h"`
	ResetTokenTTL   time.Duration `env:"RESET_TOKEN_TTL,   default=1h"`
}

type VerificationConfig struct {
	OTPTTL          time.Duration `env:"OTP_TTL,          default=5m"`
	VerificationTTL time.Duration `env:"VERIFICATION_TTL, default=30m"`
}

type MediaConfig struct {
	MaxBytes     int64    `env:"MEDIA_MAX_BYTES, default=10485760"`
	AllowedTypes []string `env:"MEDIA_ALLOWED_TYPES"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=personnel_directory"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// SMTPConfig enables email delivery when Host is set.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT,     default=587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM,     default=no-reply@localhost"`
}

// SMSConfig enables SMS delivery when GatewayURL is set.
type SMSConfig struct {
	GatewayURL string        `env:"SMS_GATEWAY_URL"`
	APIKey     string        `env:"SMS_API_KEY"`
	Sender     string        `env:"SMS_SENDER, default=DIRECTORY"`
	Timeout    time.Duration `env:"SMS_TIMEOUT, default=10s"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from the given lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
