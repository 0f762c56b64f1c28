package utils

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RabbitMQ  RabbitMQConfig
	Booking   BookingConfig
	Payment   PaymentConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

type AppConfig struct {
	Name        string
	Port        string
	Debug       bool
	LogPath     string
	CORSOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RabbitMQConfig struct {
	URL string
}

// BookingConfig holds the hold lifecycle and inventory policy.
type BookingConfig struct {
	HoldTTL            time.Duration
	SweepInterval      time.Duration
	ResetInterval      time.Duration
	InitialSeatCount   int
	DefaultSeatPrice   decimal.Decimal
	SeatsPerRow        int
	StrictConfirmation bool
}

type PaymentConfig struct {
	Secret string
}

type RateLimitConfig struct {
	Enabled        bool
	Prefix         string
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	// TrustProxy keys buckets on X-Forwarded-For. Only enable behind a proxy
	// that overwrites the header.
	TrustProxy bool
}

type TelemetryConfig struct {
	CollectorURL string
	Environment  string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	// Set defaults
	viper.SetDefault("APP_NAME", "seat-booking")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("CORS_ORIGINS", "*")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("HOLD_TTL", "6m")
	viper.SetDefault("SWEEP_INTERVAL", "1m")
	viper.SetDefault("CATALOG_RESET_INTERVAL", "5h")
	viper.SetDefault("SEAT_INITIAL_COUNT", 20)
	viper.SetDefault("SEAT_DEFAULT_PRICE", "150.00")
	viper.SetDefault("SEATS_PER_ROW", 10)
	viper.SetDefault("STRICT_CONFIRM", true)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_PREFIX", "rl:hold")
	viper.SetDefault("RATE_LIMIT_CAPACITY", 10)
	viper.SetDefault("RATE_LIMIT_REFILL", 1)
	viper.SetDefault("RATE_LIMIT_INTERVAL", "1s")
	viper.SetDefault("RATE_LIMIT_TTL", "10m")
	viper.SetDefault("RATE_LIMIT_TRUST_PROXY", false)
	viper.SetDefault("APP_ENV", "development")

	viper.AutomaticEnv()

	price, err := decimal.NewFromString(viper.GetString("SEAT_DEFAULT_PRICE"))
	if err != nil {
		return nil, err
	}

	config := &Config{
		App: AppConfig{
			Name:        viper.GetString("APP_NAME"),
			Port:        viper.GetString("PORT"),
			Debug:       viper.GetBool("DEBUG"),
			LogPath:     viper.GetString("LOG_PATH"),
			CORSOrigins: strings.Split(viper.GetString("CORS_ORIGINS"), ","),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: viper.GetString("RABBITMQ_URL"),
		},
		Booking: BookingConfig{
			HoldTTL:            viper.GetDuration("HOLD_TTL"),
			SweepInterval:      viper.GetDuration("SWEEP_INTERVAL"),
			ResetInterval:      viper.GetDuration("CATALOG_RESET_INTERVAL"),
			InitialSeatCount:   viper.GetInt("SEAT_INITIAL_COUNT"),
			DefaultSeatPrice:   price,
			SeatsPerRow:        viper.GetInt("SEATS_PER_ROW"),
			StrictConfirmation: viper.GetBool("STRICT_CONFIRM"),
		},
		Payment: PaymentConfig{
			Secret: viper.GetString("PAYMENT_SECRET"),
		},
		RateLimit: RateLimitConfig{
			Enabled:        viper.GetBool("RATE_LIMIT_ENABLED"),
			Prefix:         viper.GetString("RATE_LIMIT_PREFIX"),
			Capacity:       viper.GetInt("RATE_LIMIT_CAPACITY"),
			RefillTokens:   viper.GetInt("RATE_LIMIT_REFILL"),
			RefillInterval: viper.GetDuration("RATE_LIMIT_INTERVAL"),
			TTL:            viper.GetDuration("RATE_LIMIT_TTL"),
			TrustProxy:     viper.GetBool("RATE_LIMIT_TRUST_PROXY"),
		},
		Telemetry: TelemetryConfig{
			CollectorURL: viper.GetString("OTEL_COLLECTOR_URL"),
			Environment:  viper.GetString("APP_ENV"),
		},
	}

	return config, nil
}
