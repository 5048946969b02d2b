package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv           string
	Port             string
	GeoIPDBPath      string
	DefaultLocale    string
	CORSOrigins      []string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	Pipeline        string
	PipelineLatency time.Duration
	PipelineBaseURL string
	PipelineAPIKey  string
	PipelineTimeout time.Duration
	FFmpegFPS       int
	FFmpegWidth     int
	FFmpegHeight    int

	StorageDriver string
	StoragePath   string
	S3Bucket      string
	S3Region      string
	S3Profile     string
	S3PathStyle   bool
	S3Prefix      string

	SessionTTL  time.Duration
	CatalogPath string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:           getEnv("APP_ENV", "development"),
		Port:             getEnv("PORT", "8080"),
		GeoIPDBPath:      os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:    strings.ToLower(getEnv("DEFAULT_LOCALE", "ru")),
		CORSOrigins:      getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 60),

		Pipeline:        strings.ToLower(getEnv("PIPELINE", "mock")),
		PipelineLatency: getEnvDuration("PIPELINE_LATENCY_MS", time.Millisecond, 3*time.Second),
		PipelineBaseURL: os.Getenv("PIPELINE_BASE_URL"),
		PipelineAPIKey:  os.Getenv("PIPELINE_API_KEY"),
		PipelineTimeout: getEnvDuration("PIPELINE_TIMEOUT_SECONDS", time.Second, 120*time.Second),
		FFmpegFPS:       getEnvInt("FFMPEG_FPS", 25),
		FFmpegWidth:     getEnvInt("FFMPEG_WIDTH", 1280),
		FFmpegHeight:    getEnvInt("FFMPEG_HEIGHT", 720),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", "fs")),
		StoragePath:   getEnv("STORAGE_PATH", "./data"),
		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Region:      os.Getenv("S3_REGION"),
		S3Profile:     os.Getenv("S3_PROFILE"),
		S3PathStyle:   getEnvBool("S3_PATH_STYLE", false),
		S3Prefix:      os.Getenv("S3_PREFIX"),

		SessionTTL:  getEnvDuration("SESSION_TTL_MINUTES", time.Minute, 30*time.Minute),
		CatalogPath: os.Getenv("CATALOG_PATH"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects combinations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Pipeline {
	case "mock", "ffmpeg":
	case "remote":
		if strings.TrimSpace(c.PipelineBaseURL) == "" {
			errs = append(errs, errors.New("PIPELINE_BASE_URL is required when PIPELINE=remote"))
		}
	default:
		errs = append(errs, fmt.Errorf("PIPELINE %q is not one of mock, remote, ffmpeg", c.Pipeline))
	}
	switch c.StorageDriver {
	case "fs":
		if strings.TrimSpace(c.StoragePath) == "" {
			errs = append(errs, errors.New("STORAGE_PATH is required when STORAGE_DRIVER=fs"))
		}
	case "s3":
		if strings.TrimSpace(c.S3Bucket) == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when STORAGE_DRIVER=s3"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of fs, s3", c.StorageDriver))
	}
	if c.RateLimitPerMin < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must not be negative"))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, unit, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil && i >= 0 {
			return time.Duration(i) * unit
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
