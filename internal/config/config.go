package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// SecurityConfig represents security configuration for the HTTP API
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	MaxRequestSize        int64
	EnableRequestID       bool
}

// FeedConfig bounds the prefetch orchestrator
type FeedConfig struct {
	Language        string
	Topics          []string
	PageSize        int
	VisibleBatch    int
	RefillBatch     int
	BufferThreshold int
	AssetInterval   time.Duration
	SeenTTL         time.Duration
}

// RetryConfig bounds the retry executor
type RetryConfig struct {
	BaseDelay   time.Duration
	MaxAttempts int
}

// CacheConfig bounds the item and asset caches
type CacheConfig struct {
	ItemCapacity    int
	AssetByteBudget int64
	AssetMaxEntries int
	AssetMaxDim     int
	AssetDensity    float64
}

type Config struct {
	Port           int
	DataDir        string
	RequestTimeout time.Duration
	SourceKind     string // "wikipedia" or "featured"
	EnableSwagger  bool
	Feed           FeedConfig
	Retry          RetryConfig
	Cache          CacheConfig
	Security       SecurityConfig
}

func Load() *Config {
	return &Config{
		Port:           getEnvAsInt("PORT", 8080),
		DataDir:        getEnv("DATA_DIR", "./data"),
		RequestTimeout: getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		SourceKind:     getEnv("SOURCE_KIND", "wikipedia"),
		EnableSwagger:  getEnvAsBool("ENABLE_SWAGGER", true),
		Feed: FeedConfig{
			Language:        getEnv("FEED_LANGUAGE", "en"),
			Topics:          getEnvAsStringSlice("FEED_TOPICS", nil),
			PageSize:        getEnvAsInt("FEED_PAGE_SIZE", 5),
			VisibleBatch:    getEnvAsInt("FEED_VISIBLE_BATCH", 10),
			RefillBatch:     getEnvAsInt("FEED_REFILL_BATCH", 15),
			BufferThreshold: getEnvAsInt("FEED_BUFFER_THRESHOLD", 20),
			AssetInterval:   getEnvAsDuration("FEED_ASSET_INTERVAL", 100*time.Millisecond),
			SeenTTL:         getEnvAsDuration("FEED_SEEN_TTL", 24*time.Hour),
		},
		Retry: RetryConfig{
			BaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", 2*time.Second),
			MaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		},
		Cache: CacheConfig{
			ItemCapacity:    getEnvAsInt("ITEM_CACHE_CAPACITY", 100),
			AssetByteBudget: getEnvAsInt64("ASSET_CACHE_BYTE_BUDGET", 50<<20),
			AssetMaxEntries: getEnvAsInt("ASSET_CACHE_MAX_ENTRIES", 50),
			AssetMaxDim:     getEnvAsInt("ASSET_MAX_DIMENSION", 800),
			AssetDensity:    getEnvAsFloat("ASSET_DISPLAY_DENSITY", 1.0),
		},
		Security: loadSecurityConfig(),
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 1<<20), // 1MB
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultVal
}
