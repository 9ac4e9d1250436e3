package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	ListingBaseURL   string
	ListingTimeoutS  int
	DetailTimeoutS   int
	MaxOffers        int
	MaxRetries       int
	MaxConcurrency   int
	RateLimitMs      int
	TargetMarginPct  float64
	MinComparables   int

	GeminiAPIKey string
	GeminiModel  string

	HTTPAddr      string
	CSVOutputPath string

	// CLI batch mode: cost and current price applied to every product
	// passed on the command line.
	ProductCost  float64
	CurrentPrice float64
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "pricer"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "pricer123"),
		PostgresDB:       getEnv("POSTGRES_DB", "pricing_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		ListingBaseURL:  getEnv("LISTING_BASE_URL", "https://listado.mercadolibre.com.mx"),
		ListingTimeoutS: getEnvInt("LISTING_TIMEOUT_S", 25),
		DetailTimeoutS:  getEnvInt("DETAIL_TIMEOUT_S", 15),
		MaxOffers:       getEnvInt("MAX_OFFERS", 25),
		MaxRetries:      getEnvInt("MAX_RETRIES", 3),
		MaxConcurrency:  getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:     getEnvInt("RATE_LIMIT_MS", 1000),
		TargetMarginPct: getEnvFloat("TARGET_MARGIN_PERCENT", 30.0),
		MinComparables:  getEnvInt("MIN_COMPARABLES", 3),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		HTTPAddr:      getEnv("HTTP_ADDR", ":8080"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_offers.csv"),

		ProductCost:  getEnvFloat("PRODUCT_COST", 0),
		CurrentPrice: getEnvFloat("CURRENT_PRICE", 0),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
