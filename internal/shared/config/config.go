package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds application configuration.
type Config struct {
	Port            string   `env:"PORT" envDefault:"8080"`
	Env             string   `env:"ENV" envDefault:"dev"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	CORSAllowOrigin []string `env:"CORS_ALLOW_ORIGINS" envSeparator:"," envDefault:"*"`
	DatabaseURL     string   `env:"DATABASE_URL"`
	DB              DBConfig `envPrefix:"DB_"`

	ObjectStoreType string        `env:"OBJECT_STORE" envDefault:"local"`
	AWSRegion       string        `env:"AWS_REGION"`
	ImagesBucket    string        `env:"IMAGES_BUCKET" envDefault:"images"`
	ProfilesBucket  string        `env:"PROFILES_BUCKET" envDefault:"profiles"`
	SignedURLTTL    time.Duration `env:"SIGNED_URL_TTL" envDefault:"1h"`

	Local LocalStoreConfig `envPrefix:"LOCAL_"`
	S3    S3Config         `envPrefix:"S3_"`
	Minio MinioConfig      `envPrefix:"MINIO_"`
	GCS   GCSConfig        `envPrefix:"GCS_"`

	Upload UploadConfig `envPrefix:"UPLOAD_"`
}

// DBConfig tunes the database/sql pool.
type DBConfig struct {
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME" envDefault:"1h"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME" envDefault:"2m"`
	PingTimeout     time.Duration `env:"PING_TIMEOUT" envDefault:"5s"`
}

// LocalStoreConfig configures the filesystem object store used in development.
type LocalStoreConfig struct {
	Dir           string `env:"STORE_DIR" envDefault:"./data"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080/files"`
}

// S3Config configures the AWS S3 object store.
type S3Config struct {
	Endpoint      string `env:"ENDPOINT"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`
	UsePathStyle  bool   `env:"USE_PATH_STYLE" envDefault:"false"`
}

// MinioConfig configures any S3-compatible endpoint through minio-go.
type MinioConfig struct {
	Endpoint      string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey     string `env:"ACCESS_KEY"`
	SecretKey     string `env:"SECRET_KEY"`
	UseSSL        bool   `env:"USE_SSL" envDefault:"false"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:9000"`
}

// GCSConfig configures the Google Cloud Storage object store.
type GCSConfig struct {
	CredentialsFile string `env:"CREDENTIALS_FILE"`
	PublicBaseURL   string `env:"PUBLIC_BASE_URL" envDefault:"https://storage.googleapis.com"`
}

// UploadConfig controls the temporary upload buffer.
type UploadConfig struct {
	TmpDir        string        `env:"TMP_DIR"`
	MaxBytes      int64         `env:"MAX_BYTES" envDefault:"20971520"`
	MaxAge        time.Duration `env:"MAX_AGE" envDefault:"30m"`
	SweepSchedule string        `env:"SWEEP_SCHEDULE" envDefault:"@every 10m"`
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg, err := Parse()
	if err != nil {
		log.Fatalf("read config: %v", err)
	}
	if cfg.Env == "production" && cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}
	return cfg
}

// Parse reads the environment into a Config without touching env files.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Env = normalizeEnv(cfg.Env)
	cfg.ObjectStoreType = normalizeStoreType(cfg.ObjectStoreType)
	cfg.CORSAllowOrigin = trimAll(cfg.CORSAllowOrigin)
	if strings.TrimSpace(cfg.Upload.TmpDir) == "" {
		cfg.Upload.TmpDir = filepath.Join(os.TempDir(), "image-gateway-uploads")
	}
	return cfg, nil
}

// IsDevLike reports whether in-memory fallbacks are acceptable.
func (c Config) IsDevLike() bool {
	switch c.Env {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func trimAll(raw []string) []string {
	var out []string
	for _, p := range raw {
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
	case "test":
		return "test"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	case "minio":
		return "minio"
	case "gcs":
		return "gcs"
	default:
		return "local"
	}
}
