package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Upstream UpstreamConfig
	Catalog  CatalogConfig
	Staging  StagingConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
}

// UpstreamConfig points the gateway at the PróSiga academic backend.
type UpstreamConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	SubmitTimeout  time.Duration
}

// CatalogConfig tunes catalog search behaviour. StateTTL bounds how long an
// idle user's debounce state and last resolved view stay in memory.
type CatalogConfig struct {
	DebounceWindow time.Duration
	PeriodsTTL     time.Duration
	StateTTL       time.Duration
	ReaperInterval time.Duration
}

// StagingConfig bounds the per-user staging sessions.
type StagingConfig struct {
	SessionTTL     time.Duration
	MaxEntries     int
	ReaperInterval time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig controls bearer token handling. Token issuance lives in the
// external auth provider; when Secret is empty claims are parsed unverified.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Upstream = UpstreamConfig{
		BaseURL:        strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		RequestTimeout: parseDuration(v.GetString("UPSTREAM_REQUEST_TIMEOUT"), 15*time.Second),
		SubmitTimeout:  parseDuration(v.GetString("UPSTREAM_SUBMIT_TIMEOUT"), 30*time.Second),
	}

	cfg.Catalog = CatalogConfig{
		DebounceWindow: parseDuration(v.GetString("CATALOG_DEBOUNCE_WINDOW"), 500*time.Millisecond),
		PeriodsTTL:     parseDuration(v.GetString("CATALOG_PERIODS_TTL"), 10*time.Minute),
		StateTTL:       parseDuration(v.GetString("CATALOG_STATE_TTL"), 2*time.Hour),
		ReaperInterval: parseDuration(v.GetString("CATALOG_REAPER_INTERVAL"), 5*time.Minute),
	}

	maxEntries := v.GetInt("STAGING_MAX_ENTRIES")
	if maxEntries <= 0 {
		maxEntries = 12
	}
	cfg.Staging = StagingConfig{
		SessionTTL:     parseDuration(v.GetString("STAGING_SESSION_TTL"), 2*time.Hour),
		MaxEntries:     maxEntries,
		ReaperInterval: parseDuration(v.GetString("STAGING_REAPER_INTERVAL"), 5*time.Minute),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:8000")
	v.SetDefault("UPSTREAM_REQUEST_TIMEOUT", "15s")
	v.SetDefault("UPSTREAM_SUBMIT_TIMEOUT", "30s")

	v.SetDefault("CATALOG_DEBOUNCE_WINDOW", "500ms")
	v.SetDefault("CATALOG_PERIODS_TTL", "10m")
	v.SetDefault("CATALOG_STATE_TTL", "2h")
	v.SetDefault("CATALOG_REAPER_INTERVAL", "5m")

	v.SetDefault("STAGING_SESSION_TTL", "2h")
	v.SetDefault("STAGING_MAX_ENTRIES", 12)
	v.SetDefault("STAGING_REAPER_INTERVAL", "5m")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
