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

	Database        DatabaseConfig
	Redis           RedisConfig
	CORS            CORSConfig
	Log             LogConfig
	ClickDimensions ClickDimensionsConfig
	Recaptcha       RecaptchaConfig
	GotoWebinar     GotoWebinarConfig
	Zoom            ZoomConfig
	Notify          NotifyConfig
	Queue           QueueConfig
}

type DatabaseConfig struct {
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

// ClickDimensionsConfig addresses the remote marketing-automation endpoint.
// Frontend-originated submissions use the shorter connect/exec timeouts since
// a visitor is waiting on the response; scheduler retries may wait longer.
type ClickDimensionsConfig struct {
	BaseURL         string
	Token           string
	RefererHost     string
	ConnectTimeout  time.Duration
	FrontendTimeout time.Duration
	RetryTimeout    time.Duration
	SchemaCacheTTL  time.Duration
}

// RecaptchaConfig governs bot-score verification at intake.
type RecaptchaConfig struct {
	Secret    string
	VerifyURL string
	MinScore  float64
	Timeout   time.Duration
}

// GotoWebinarConfig addresses the GotoWebinar registration API.
type GotoWebinarConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// ZoomConfig addresses the Zoom webinar registration API.
type ZoomConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// NotifyConfig points operator error notifications at a webhook.
type NotifyConfig struct {
	WebhookURL    string
	SubjectPrefix string
	Timeout       time.Duration
}

// QueueConfig tunes the retry scheduler and the retention sweeper.
type QueueConfig struct {
	RetryInterval time.Duration
	RetentionDays int
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

	cfg.Database = DatabaseConfig{
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

	cfg.ClickDimensions = ClickDimensionsConfig{
		BaseURL:         strings.TrimRight(v.GetString("CD_BASE_URL"), "/"),
		Token:           v.GetString("CD_TOKEN"),
		RefererHost:     v.GetString("CD_REFERER_HOST"),
		ConnectTimeout:  parseDuration(v.GetString("CD_CONNECT_TIMEOUT"), 5*time.Second),
		FrontendTimeout: parseDuration(v.GetString("CD_FRONTEND_TIMEOUT"), 15*time.Second),
		RetryTimeout:    parseDuration(v.GetString("CD_RETRY_TIMEOUT"), 65*time.Second),
		SchemaCacheTTL:  parseDuration(v.GetString("CD_SCHEMA_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Recaptcha = RecaptchaConfig{
		Secret:    v.GetString("RECAPTCHA_SECRET"),
		VerifyURL: v.GetString("RECAPTCHA_VERIFY_URL"),
		MinScore:  v.GetFloat64("RECAPTCHA_MIN_SCORE"),
		Timeout:   parseDuration(v.GetString("RECAPTCHA_TIMEOUT"), 10*time.Second),
	}

	cfg.GotoWebinar = GotoWebinarConfig{
		BaseURL: strings.TrimRight(v.GetString("GOTOWEBINAR_BASE_URL"), "/"),
		Token:   v.GetString("GOTOWEBINAR_TOKEN"),
		Timeout: parseDuration(v.GetString("GOTOWEBINAR_TIMEOUT"), 30*time.Second),
	}

	cfg.Zoom = ZoomConfig{
		BaseURL: strings.TrimRight(v.GetString("ZOOM_BASE_URL"), "/"),
		Token:   v.GetString("ZOOM_TOKEN"),
		Timeout: parseDuration(v.GetString("ZOOM_TIMEOUT"), 30*time.Second),
	}

	cfg.Notify = NotifyConfig{
		WebhookURL:    v.GetString("NOTIFY_WEBHOOK_URL"),
		SubjectPrefix: v.GetString("NOTIFY_SUBJECT_PREFIX"),
		Timeout:       parseDuration(v.GetString("NOTIFY_TIMEOUT"), 10*time.Second),
	}

	cfg.Queue = QueueConfig{
		RetryInterval: parseDuration(v.GetString("QUEUE_RETRY_INTERVAL"), 30*time.Second),
		RetentionDays: v.GetInt("QUEUE_RETENTION_DAYS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "cd_sync")
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

	v.SetDefault("CD_BASE_URL", "https://analytics-eu.clickdimensions.com")
	v.SetDefault("CD_TOKEN", "")
	v.SetDefault("CD_REFERER_HOST", "localhost")
	v.SetDefault("CD_CONNECT_TIMEOUT", "5s")
	v.SetDefault("CD_FRONTEND_TIMEOUT", "15s")
	v.SetDefault("CD_RETRY_TIMEOUT", "65s")
	v.SetDefault("CD_SCHEMA_CACHE_TTL", "10m")

	v.SetDefault("RECAPTCHA_SECRET", "")
	v.SetDefault("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify")
	v.SetDefault("RECAPTCHA_MIN_SCORE", 0.5)
	v.SetDefault("RECAPTCHA_TIMEOUT", "10s")

	v.SetDefault("GOTOWEBINAR_BASE_URL", "https://api.getgo.com/G2W/rest/v2")
	v.SetDefault("GOTOWEBINAR_TOKEN", "")
	v.SetDefault("GOTOWEBINAR_TIMEOUT", "30s")

	v.SetDefault("ZOOM_BASE_URL", "https://api.zoom.us/v2")
	v.SetDefault("ZOOM_TOKEN", "")
	v.SetDefault("ZOOM_TIMEOUT", "30s")

	v.SetDefault("NOTIFY_WEBHOOK_URL", "")
	v.SetDefault("NOTIFY_SUBJECT_PREFIX", "[cd-sync]")
	v.SetDefault("NOTIFY_TIMEOUT", "10s")

	v.SetDefault("QUEUE_RETRY_INTERVAL", "30s")
	v.SetDefault("QUEUE_RETENTION_DAYS", 30)
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
