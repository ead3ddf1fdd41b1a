package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultPort    = "8000"
	DefaultWorkers = 2
)

// Config holds application configuration.
type Config struct {
	Port            string
	Workers         int
	AppHandler      string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration
	CORSAllowOrigin []string

	DatabaseURL    string
	GuidelineStore string
	MongoURI       string
	MongoDatabase  string

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	DeepSeekAPIKey string
	OpenAIAPIKey   string
	LLMTimeout     time.Duration

	NotesDir string
	IndexDir string

	RedisAddr      string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Load reads configuration from .env files and environment variables.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", DefaultPort)
	v.SetDefault("WORKERS", DefaultWorkers)
	v.SetDefault("APP_HANDLER", "guidelines")
	v.SetDefault("ENV", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOW_ORIGINS", "*")
	v.SetDefault("MONGODB_DATABASE", "clinical")
	v.SetDefault("OBJECT_STORE", "local")
	v.SetDefault("LOCAL_STORE_DIR", "./clinical_data")
	v.SetDefault("LLM_TIMEOUT_SECONDS", 120)
	v.SetDefault("NOTES_DIR", ".")
	v.SetDefault("INDEX_DIR", "./data/index")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	cfg := Config{
		Port:            strings.TrimSpace(v.GetString("PORT")),
		Workers:         v.GetInt("WORKERS"),
		AppHandler:      strings.TrimSpace(v.GetString("APP_HANDLER")),
		Env:             normalizeEnv(v.GetString("ENV")),
		LogLevel:        strings.ToLower(strings.TrimSpace(v.GetString("LOG_LEVEL"))),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		CORSAllowOrigin: splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:     strings.TrimSpace(v.GetString("DATABASE_URL")),
		MongoURI:        strings.TrimSpace(v.GetString("MONGODB_URI")),
		MongoDatabase:   v.GetString("MONGODB_DATABASE"),
		ObjectStoreType: normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:   v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:       v.GetString("AWS_REGION"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Prefix:        v.GetString("S3_PREFIX"),
		SSEKMSKeyID:     v.GetString("SSE_KMS_KEY_ID"),
		DeepSeekAPIKey:  strings.TrimSpace(v.GetString("DEEPSEEK_API_KEY")),
		OpenAIAPIKey:    strings.TrimSpace(v.GetString("OPENAI_API_KEY")),
		LLMTimeout:      time.Duration(v.GetInt("LLM_TIMEOUT_SECONDS")) * time.Second,
		NotesDir:        v.GetString("NOTES_DIR"),
		IndexDir:        v.GetString("INDEX_DIR"),
		RedisAddr:       strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RateLimitRPS:    v.GetFloat64("RATE_LIMIT_RPS"),
		RateLimitBurst:  v.GetInt("RATE_LIMIT_BURST"),
	}

	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 120 * time.Second
	}
	cfg.GuidelineStore = normalizeGuidelineStore(v.GetString("GUIDELINE_STORE"), cfg.DatabaseURL, cfg.MongoURI)

	return cfg
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// normalizeGuidelineStore picks the guideline backend. An explicit value wins,
// otherwise the first configured database does.
func normalizeGuidelineStore(raw, databaseURL, mongoURI string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "mongo", "mongodb":
		return "mongo"
	case "memory":
		return "memory"
	}
	switch {
	case databaseURL != "":
		return "postgres"
	case mongoURI != "":
		return "mongo"
	default:
		return "memory"
	}
}

// IsDevLike reports whether env allows in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
