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

	Backend  BackendConfig
	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
	Uploads  UploadsConfig
	Credits  CreditsConfig
	Map      MapConfig
	Session  SessionConfig
	Audit    AuditConfig
	Realtime RealtimeConfig
}

// BackendConfig points at the remote academic backend.
type BackendConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
	UploadTimeout  time.Duration
	HistoryTimeout time.Duration
}

type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig governs response caching for the composed views.
type CacheConfig struct {
	Enabled     bool
	GradesTTL   time.Duration
	ScheduleTTL time.Duration
	CreditsTTL  time.Duration
}

// UploadsConfig gates kardex uploads before they are forwarded upstream.
type UploadsConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// CreditsConfig carries degree requirements the backend does not report.
type CreditsConfig struct {
	RequiredEnglishLevel int
	EnglishLevelScale    int
}

// MapConfig tunes the degree-map view.
type MapConfig struct {
	MinColumns int
}

// SessionConfig controls the active-expediente session entry. A zero TTL
// keeps the entry until logout.
type SessionConfig struct {
	TTL time.Duration
}

// AuditConfig controls asynchronous upload-audit persistence.
type AuditConfig struct {
	Enabled    bool
	Workers    int
	BufferSize int
}

// RealtimeConfig tunes the SSE relay.
type RealtimeConfig struct {
	HeartbeatInterval time.Duration
	SubscriberBuffer  int
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

	cfg.Backend = BackendConfig{
		BaseURL:        strings.TrimRight(v.GetString("BACKEND_BASE_URL"), "/"),
		RequestTimeout: parseDuration(v.GetString("BACKEND_REQUEST_TIMEOUT"), 15*time.Second),
		UploadTimeout:  parseDuration(v.GetString("BACKEND_UPLOAD_TIMEOUT"), 180*time.Second),
		HistoryTimeout: parseDuration(v.GetString("BACKEND_HISTORY_TIMEOUT"), 60*time.Second),
	}

	cfg.Database = DatabaseConfig{
		Enabled:      v.GetBool("DB_ENABLED"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:     v.GetBool("ENABLE_CACHE"),
		GradesTTL:   parseDuration(v.GetString("CACHE_GRADES_TTL"), time.Minute),
		ScheduleTTL: parseDuration(v.GetString("CACHE_SCHEDULE_TTL"), 5*time.Minute),
		CreditsTTL:  parseDuration(v.GetString("CACHE_CREDITS_TTL"), 5*time.Minute),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 15 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		MaxFileSizeBytes: maxUploadSize,
		AllowedMIMEs:     splitAndTrim(v.GetString("UPLOADS_ALLOWED_MIME_TYPES")),
	}

	cfg.Credits = CreditsConfig{
		RequiredEnglishLevel: v.GetInt("CREDITS_REQUIRED_ENGLISH_LEVEL"),
		EnglishLevelScale:    v.GetInt("CREDITS_ENGLISH_LEVEL_SCALE"),
	}

	cfg.Map = MapConfig{
		MinColumns: v.GetInt("MAP_MIN_COLUMNS"),
	}

	cfg.Session = SessionConfig{
		TTL: parseDuration(v.GetString("SESSION_TTL"), 0),
	}

	cfg.Audit = AuditConfig{
		Enabled:    v.GetBool("ENABLE_UPLOAD_AUDIT"),
		Workers:    v.GetInt("UPLOAD_AUDIT_WORKERS"),
		BufferSize: v.GetInt("UPLOAD_AUDIT_BUFFER"),
	}

	cfg.Realtime = RealtimeConfig{
		HeartbeatInterval: parseDuration(v.GetString("REALTIME_HEARTBEAT_INTERVAL"), 25*time.Second),
		SubscriberBuffer:  v.GetInt("REALTIME_SUBSCRIBER_BUFFER"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("BACKEND_BASE_URL", "http://localhost:5000")
	v.SetDefault("BACKEND_REQUEST_TIMEOUT", "15s")
	v.SetDefault("BACKEND_UPLOAD_TIMEOUT", "180s")
	v.SetDefault("BACKEND_HISTORY_TIMEOUT", "60s")

	v.SetDefault("DB_ENABLED", false)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "portal_alumnos")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_GRADES_TTL", "1m")
	v.SetDefault("CACHE_SCHEDULE_TTL", "5m")
	v.SetDefault("CACHE_CREDITS_TTL", "5m")

	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 15*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_MIME_TYPES", "application/pdf")

	v.SetDefault("CREDITS_REQUIRED_ENGLISH_LEVEL", 5)
	v.SetDefault("CREDITS_ENGLISH_LEVEL_SCALE", 7)

	v.SetDefault("MAP_MIN_COLUMNS", 8)

	v.SetDefault("SESSION_TTL", "0")

	v.SetDefault("ENABLE_UPLOAD_AUDIT", false)
	v.SetDefault("UPLOAD_AUDIT_WORKERS", 1)
	v.SetDefault("UPLOAD_AUDIT_BUFFER", 16)

	v.SetDefault("REALTIME_HEARTBEAT_INTERVAL", "25s")
	v.SetDefault("REALTIME_SUBSCRIBER_BUFFER", 8)
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
