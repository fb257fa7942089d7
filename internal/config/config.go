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

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	Pricing   PricingConfig
	Disbun    DisbunConfig
	PTPN      PTPNConfig
	Asosiasi  AsosiasiConfig
	CustomAPI CustomAPIConfig
	Scheduler SchedulerConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// RedisConfig holds settings for the price cache backend.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PricingConfig selects the default online source and carries the
// simulation parameters.
type PricingConfig struct {
	DefaultSource  string
	DefaultRegion  string
	CacheTTL       time.Duration
	FetchTimeout   time.Duration
	SimBasePrice   float64
	SimYieldRatio  float64
	SimProcessCost float64
}

// DisbunConfig maps region codes to the regional plantation authority's
// published price endpoints, with an optional fallback URL.
type DisbunConfig struct {
	RegionURLs  map[string]string
	FallbackURL string
}

// PTPNConfig holds the state-enterprise board endpoint.
type PTPNConfig struct {
	URL string
}

// AsosiasiConfig holds the industry association endpoint.
type AsosiasiConfig struct {
	URL string
}

// CustomAPIConfig describes an arbitrary keyed HTTP price API: its
// endpoint, an optional bearer credential, and a field-name mapping
// overriding the default payload keys.
type CustomAPIConfig struct {
	URL      string
	APIKey   string
	FieldMap map[string]string
}

// SchedulerConfig holds the online price update schedule.
type SchedulerConfig struct {
	Enabled      bool
	CronSchedule string
}

// Load reads environment variables (optionally from the provided file)
// and materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are acceptable when configuration comes
		// from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:    getenvWithDefault("MONGODB_URI", "mongodb://localhost:27017"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "sawit_mill"),
		},
		Redis: RedisConfig{
			Addr:     getenvWithDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getenvInt("REDIS_DB", 0),
		},
		Pricing: PricingConfig{
			DefaultSource:  getenvWithDefault("PRICE_SOURCE", "simulate"),
			DefaultRegion:  os.Getenv("PRICE_REGION"),
			CacheTTL:       getenvDuration("PRICE_CACHE_TTL", time.Hour),
			FetchTimeout:   getenvDuration("PRICE_FETCH_TIMEOUT", 30*time.Second),
			SimBasePrice:   getenvFloat("SIM_BASE_PRICE", 14000),
			SimYieldRatio:  getenvFloat("SIM_YIELD_RATIO", 0.22),
			SimProcessCost: getenvFloat("SIM_PROCESSING_COST", 200),
		},
		Disbun: DisbunConfig{
			RegionURLs:  parsePairs(os.Getenv("DISBUN_REGION_URLS")),
			FallbackURL: os.Getenv("DISBUN_FALLBACK_URL"),
		},
		PTPN: PTPNConfig{
			URL: os.Getenv("PTPN_PRICE_URL"),
		},
		Asosiasi: AsosiasiConfig{
			URL: os.Getenv("ASOSIASI_PRICE_URL"),
		},
		CustomAPI: CustomAPIConfig{
			URL:      os.Getenv("CUSTOM_API_URL"),
			APIKey:   os.Getenv("CUSTOM_API_KEY"),
			FieldMap: parsePairs(os.Getenv("CUSTOM_API_FIELD_MAP")),
		},
		Scheduler: SchedulerConfig{
			Enabled:      getenvBool("PRICE_UPDATE_ENABLED", true),
			CronSchedule: getenvWithDefault("PRICE_UPDATE_CRON", "0 6 * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
// Source endpoints stay optional: an unconfigured source is a soft
// "no data" condition at resolution time, not a startup failure.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.URI == "" {
		return errors.New("MONGODB_URI must be provided")
	}
	if c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided")
	}

	if c.Pricing.CacheTTL <= 0 {
		return errors.New("PRICE_CACHE_TTL must be positive")
	}
	if c.Pricing.FetchTimeout <= 0 {
		return errors.New("PRICE_FETCH_TIMEOUT must be positive")
	}

	if c.Scheduler.Enabled && c.Scheduler.CronSchedule == "" {
		return errors.New("PRICE_UPDATE_CRON must be provided when the scheduler is enabled")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getenvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

// parsePairs parses "key1=value1,key2=value2" lists used for the region
// URL table and the custom API field mapping.
func parsePairs(raw string) map[string]string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	pairs := make(map[string]string)
	for _, part := range strings.Split(raw, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 || kv[0] == "" || kv[1] == "" {
			continue
		}
		pairs[strings.ToLower(kv[0])] = kv[1]
	}

	if len(pairs) == 0 {
		return nil
	}
	return pairs
}
