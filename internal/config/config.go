// Package config lee la configuración del proceso desde el entorno (y un
// .env opcional).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    string
	AppName string

	LogLevel  string
	LogFormat string

	StorageDriver string
	MongoURI      string
	MongoDB       string
	PostgresDSN   string

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieSecure    bool
	AuthDevHeader   bool

	LoginRateLimit  int
	LoginRateWindow time.Duration
	APIRateLimitRPS float64
	RedisURL        string

	BlobDriver  string
	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3PathStyle bool

	NATSURL          string
	TelegramBotToken string
	TelegramChatID   string

	AdminUsername string
	AdminPassword string
}

// Load carga .env si existe y arma la config con defaults de desarrollo.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Config{
		Port:    getString("PORT", "8080"),
		AppName: getString("APP_NAME", "pet-health-tracker"),

		LogLevel:  getString("LOG_LEVEL", "info"),
		LogFormat: getString("LOG_FORMAT", "text"),

		StorageDriver: strings.ToLower(getString("STORAGE_DRIVER", "memory")),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDB:       getString("MONGO_DB", "pet_health"),
		PostgresDSN:   os.Getenv("DB_DSN"),

		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 30*time.Minute),
		RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		CookieSecure:    getBool("COOKIE_SECURE", false),
		AuthDevHeader:   getBool("AUTH_DEV_HEADER", false),

		LoginRateLimit:  getInt("LOGIN_RATE_LIMIT", 5),
		LoginRateWindow: getDuration("LOGIN_RATE_WINDOW", time.Minute),
		APIRateLimitRPS: getFloat("API_RATE_LIMIT_RPS", 20),
		RedisURL:        os.Getenv("REDIS_URL"),

		BlobDriver:  strings.ToLower(getString("BLOB_DRIVER", "memory")),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3Region:    getString("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3PathStyle: getBool("S3_PATH_STYLE", false),

		NATSURL:          os.Getenv("NATS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),

		AdminUsername: os.Getenv("ADMIN_USERNAME"),
		AdminPassword: os.Getenv("ADMIN_PASSWORD"),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Addr() string { return ":" + c.Port }

func (c Config) validate() error {
	switch c.StorageDriver {
	case "memory", "mongo", "postgres":
	default:
		return fmt.Errorf("STORAGE_DRIVER must be memory, mongo or postgres (got %q)", c.StorageDriver)
	}
	switch c.BlobDriver {
	case "memory":
	case "s3":
		if c.S3Bucket == "" {
			return errors.New("S3_BUCKET required when BLOB_DRIVER=s3")
		}
	default:
		return fmt.Errorf("BLOB_DRIVER must be memory or s3 (got %q)", c.BlobDriver)
	}
	// Sin secreto solo se admite modo dev.
	if c.JWTSecret == "" && !c.AuthDevHeader {
		return errors.New("JWT_SECRET required")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return errors.New("token TTLs must be positive")
	}
	if c.LoginRateLimit <= 0 || c.LoginRateWindow <= 0 {
		return errors.New("login rate limit must be positive")
	}
	return nil
}

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return i
}

func getFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return b
}

func getDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}
