package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv   string
	Port     string
	LogLevel string
	DSN      string
	Storage  StorageConfig
	Upload   UploadConfig
}

type StorageConfig struct {
	Driver        string
	Dir           string
	URLPrefix     string
	S3Region      string
	S3Bucket      string
	S3Prefix      string
	S3PublicBase  string
	CloudinaryURL string
	CloudFolder   string
}

type UploadConfig struct {
	MaxConcurrent    int
	RetryAttempts    int
	RetryDelay       time.Duration
	MaxBytes         int64
	MatchBySignature bool
}

// Load lee la configuración del entorno (y de .env si existe).
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv:   strings.ToLower(getEnv("APP_ENV", "development")),
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		DSN:      dsn(),
		Storage: StorageConfig{
			Driver:        strings.ToLower(getEnv("STORAGE_DRIVER", "local")),
			Dir:           getEnv("STORAGE_DIR", "uploads"),
			URLPrefix:     getEnv("STORAGE_URL_PREFIX", "/uploads"),
			S3Region:      os.Getenv("S3_REGION"),
			S3Bucket:      os.Getenv("S3_BUCKET"),
			S3Prefix:      getEnv("S3_PREFIX", "uploads"),
			S3PublicBase:  os.Getenv("S3_PUBLIC_BASE_URL"),
			CloudinaryURL: os.Getenv("CLOUDINARY_URL"),
			CloudFolder:   getEnv("CLOUDINARY_FOLDER", "catalog"),
		},
		Upload: UploadConfig{
			MaxConcurrent:    getInt("UPLOAD_MAX_CONCURRENT", 3),
			RetryAttempts:    getInt("UPLOAD_RETRY_ATTEMPTS", 0),
			RetryDelay:       getDuration("UPLOAD_RETRY_DELAY", 500*time.Millisecond),
			MaxBytes:         int64(getInt("MAX_UPLOAD_BYTES", 10<<20)),
			MatchBySignature: getEnv("MATCH_BY_SIGNATURE", "false") == "true",
		},
	}
}

func (c *Config) IsDev() bool {
	return c.AppEnv == "" || c.AppEnv == "development" || c.AppEnv == "dev"
}

func dsn() string {
	if v := strings.TrimSpace(os.Getenv("DB_DSN")); v != "" {
		return v
	}
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", getEnv("POSTGRES_USER", "postgres"))
	pass := getEnv("DB_PASSWORD", getEnv("POSTGRES_PASSWORD", "postgres"))
	name := getEnv("DB_NAME", getEnv("POSTGRES_DB", "catalogsync"))
	ssl := getEnv("DB_SSLMODE", "disable")
	return "host=" + host + " user=" + user + " password=" + pass + " dbname=" + name + " port=" + port + " sslmode=" + ssl
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 {
		log.Warn().Str("key", key).Str("value", raw).Int("default", def).Msg("valor inválido, uso el default")
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d < 0 {
		log.Warn().Str("key", key).Str("value", raw).Dur("default", def).Msg("valor inválido, uso el default")
		return def
	}
	return d
}
