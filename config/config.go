package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Detection modes for the anomaly rule. Fallback is the simplified RSI-only
// variant that scans a capped instrument list when the richer margin fields
// are unavailable or too slow to fetch.
const (
	ModeFull     = "full"
	ModeFallback = "fallback"
)

// Config holds all application configuration
type Config struct {
	FinlabToken      string
	FinlabAPIURL     string
	TelegramBotToken string
	TelegramChatID   int64

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	LogLevel       string
	RequestTimeout int // seconds

	// Margin/short anomaly thresholds
	MarginIncreaseThreshold float64
	ShortIncreaseThreshold  float64

	// Momentum parameters
	RSIPeriod     int
	RSIOversold   float64
	RSIOverbought float64
	MAShort       int
	MAMedium      int
	MALong        int

	// Trade plan defaults
	HoldingDays int
	StopLossPct float64

	// Position management
	MaxPositionSize float64
	InitialCapital  float64

	// Signal filter bounds
	MinStockPrice float64
	MaxStockPrice float64

	// Detection strategy selection
	DetectionMode      string
	FallbackStockLimit int
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.FinlabToken = os.Getenv("FINLAB_TOKEN")
	cfg.FinlabAPIURL = getEnvWithDefault("FINLAB_API_URL", "https://api.finlab.tw")
	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	cfg.DBHost = getEnvWithDefault("DB_HOST", "localhost")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "margin_momentum")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.RequestTimeout = getEnvIntWithDefault("REQUEST_TIMEOUT", 30)

	cfg.MarginIncreaseThreshold = getEnvFloatWithDefault("MARGIN_INCREASE_THRESHOLD", 0.10)
	cfg.ShortIncreaseThreshold = getEnvFloatWithDefault("SHORT_INCREASE_THRESHOLD", 0.10)

	cfg.RSIPeriod = getEnvIntWithDefault("RSI_PERIOD", 14)
	cfg.RSIOversold = getEnvFloatWithDefault("RSI_OVERSOLD", 30)
	cfg.RSIOverbought = getEnvFloatWithDefault("RSI_OVERBOUGHT", 70)
	cfg.MAShort = getEnvIntWithDefault("MA_SHORT", 5)
	cfg.MAMedium = getEnvIntWithDefault("MA_MEDIUM", 20)
	cfg.MALong = getEnvIntWithDefault("MA_LONG", 60)

	cfg.HoldingDays = getEnvIntWithDefault("HOLDING_DAYS", 5)
	cfg.StopLossPct = getEnvFloatWithDefault("STOP_LOSS_PCT", -8)

	cfg.MaxPositionSize = getEnvFloatWithDefault("MAX_POSITION_SIZE", 0.10)
	cfg.InitialCapital = getEnvFloatWithDefault("INITIAL_CAPITAL", 1000000)

	cfg.MinStockPrice = getEnvFloatWithDefault("MIN_STOCK_PRICE", 10)
	cfg.MaxStockPrice = getEnvFloatWithDefault("MAX_STOCK_PRICE", 500)

	cfg.DetectionMode = getEnvWithDefault("DETECTION_MODE", ModeFull)
	cfg.FallbackStockLimit = getEnvIntWithDefault("FALLBACK_STOCK_LIMIT", 20)

	return &cfg, nil
}

// Validate checks that required settings are present. The data token is a
// hard requirement; missing Telegram settings only disable notifications.
func (c *Config) Validate() error {
	if c.FinlabToken == "" {
		return fmt.Errorf("FINLAB_TOKEN is not set")
	}
	if c.TelegramBotToken == "" || c.TelegramChatID == 0 {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN or TELEGRAM_CHAT_ID not set, notifications disabled")
	}
	if c.DetectionMode != ModeFull && c.DetectionMode != ModeFallback {
		return fmt.Errorf("unknown DETECTION_MODE %q", c.DetectionMode)
	}
	return nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatWithDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
