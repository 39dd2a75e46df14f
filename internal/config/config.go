package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"product_transactions/internal/domain"
	"product_transactions/internal/logger"

	"github.com/joho/godotenv"
)

// DefaultSeedURL is the published product transaction dataset.
const DefaultSeedURL = "https://s3.amazonaws.com/roxiler.com/product_transaction.json"

type Config struct {
	AppPort string

	// Store
	StoreBackend  string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string
	AutoMigrate   bool

	// Redis (rate limiting + report cache)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Seeding
	SeedURL             string
	SeedOnStart         bool
	SeedEndpointEnabled bool

	// Query behaviour
	FilterMode     domain.FilterMode
	Location       *time.Location
	MaxPerPage     int
	ReportCacheTTL time.Duration

	// HTTP
	APIRateLimit  int
	APIRateWindow time.Duration
	AllowedOrigin string

	LogLevel string
	LogJSON  bool
}

// Load reads the configuration from env (and .env when present)
func Load() *Config {
	_ = godotenv.Load()

	backend := strings.ToLower(getEnv("STORE_BACKEND", "postgres"))

	dbURL := os.Getenv("DATABASE_URL")
	if backend == "postgres" && dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	mongoURI := os.Getenv("MONGO_URI")
	if backend == "mongo" && mongoURI == "" {
		logger.Fatal("MONGO_URI is not set")
	}

	mode, err := domain.ParseFilterMode(getEnv("FILTER_MODE", string(domain.FilterModeStrict)))
	if err != nil {
		logger.Fatal("invalid FILTER_MODE", "error", err)
	}

	// month boundaries are computed in this zone; stores need an IANA name
	tz := getEnv("TIMEZONE", "UTC")
	if tz == "Local" {
		logger.Fatal("TIMEZONE must be an IANA zone name")
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		logger.Fatal("invalid TIMEZONE", "error", err)
	}

	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),

		StoreBackend:  backend,
		DatabaseURL:   dbURL,
		MongoURI:      mongoURI,
		MongoDatabase: getEnv("MONGO_DATABASE", "product_transactions"),
		AutoMigrate:   getEnvBool("AUTO_MIGRATE", true),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SeedURL:             getEnv("SEED_URL", DefaultSeedURL),
		SeedOnStart:         getEnvBool("SEED_ON_START", true),
		SeedEndpointEnabled: getEnvBool("SEED_ENDPOINT_ENABLED", false),

		FilterMode:     mode,
		Location:       loc,
		MaxPerPage:     getEnvInt("MAX_PER_PAGE", 100),
		ReportCacheTTL: time.Duration(getEnvInt("REPORT_CACHE_TTL_SECONDS", 60)) * time.Second,

		APIRateLimit:  getEnvInt("API_RATE_LIMIT", 120),
		APIRateWindow: time.Duration(getEnvInt("API_RATE_WINDOW_SECONDS", 60)) * time.Second,
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  getEnvBool("LOG_JSON", false),
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// getEnvInt ignores unparsable and negative values
func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
