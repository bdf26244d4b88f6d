package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr         string `yaml:"addr"`
	CORSOrigin   string `yaml:"cors_origin"`
	LogMode      string `yaml:"log_mode"`
	LogRedaction bool   `yaml:"log_redaction"`
	LogHashSalt  string `yaml:"log_hash_salt"`
	TemplatesDir string `yaml:"templates_dir"`
	CatalogPath  string `yaml:"catalog"`
	// PDF conversion
	PDFEnabled bool          `yaml:"pdf_enabled"`
	PDFTimeout time.Duration `yaml:"pdf_timeout"`
	// Generation audit log; disabled when empty
	DatabaseURL   string `yaml:"database_url"`
	MigrationsDir string `yaml:"migrations_dir"`
	// Download links; disabled when empty
	RedisURL string        `yaml:"redis_url"`
	LinkTTL  time.Duration `yaml:"link_ttl"`
	// Artifact storage; disabled when MinioEndpoint is empty
	MinioEndpoint  string `yaml:"minio_endpoint"`
	MinioAccessKey string `yaml:"minio_access_key"`
	MinioSecretKey string `yaml:"minio_secret_key"`
	MinioBucket    string `yaml:"minio_bucket"`
	MinioUseSSL    bool   `yaml:"minio_use_ssl"`
}

func defaults() Config {
	return Config{
		Addr:          ":8787",
		CORSOrigin:    "*",
		LogMode:       "development",
		LogRedaction:  true,
		TemplatesDir:  "./templates",
		PDFEnabled:    false,
		PDFTimeout:    30 * time.Second,
		MigrationsDir: "./db/migrations",
		LinkTTL:       15 * time.Minute,
		MinioBucket:   "proposals",
	}
}

// Load builds the configuration from defaults, then the optional YAML file
// named by PROPOSALKIT_CONFIG, then environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := strings.TrimSpace(os.Getenv("PROPOSALKIT_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Addr = getenv("API_ADDR", cfg.Addr)
	cfg.CORSOrigin = getenv("PROPOSALKIT_CORS_ORIGIN", cfg.CORSOrigin)
	cfg.LogMode = getenv("LOG_MODE", cfg.LogMode)
	cfg.LogRedaction = getenvBool("LOG_REDACTION_ENABLED", cfg.LogRedaction)
	cfg.LogHashSalt = getenv("LOG_HASH_SALT", cfg.LogHashSalt)
	cfg.TemplatesDir = getenv("PROPOSALKIT_TEMPLATES_DIR", cfg.TemplatesDir)
	cfg.CatalogPath = getenv("PROPOSALKIT_CATALOG", cfg.CatalogPath)
	cfg.PDFEnabled = getenvBool("PROPOSALKIT_PDF_ENABLED", cfg.PDFEnabled)
	cfg.PDFTimeout = time.Duration(getenvInt("PROPOSALKIT_PDF_TIMEOUT_SECONDS", int(cfg.PDFTimeout/time.Second))) * time.Second
	cfg.DatabaseURL = getenv("DATABASE_URL", cfg.DatabaseURL)
	cfg.MigrationsDir = getenv("PROPOSALKIT_MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.RedisURL = getenv("REDIS_URL", cfg.RedisURL)
	cfg.LinkTTL = time.Duration(getenvInt("PROPOSALKIT_LINK_TTL_SECONDS", int(cfg.LinkTTL/time.Second))) * time.Second
	cfg.MinioEndpoint = getenv("MINIO_ENDPOINT", cfg.MinioEndpoint)
	cfg.MinioAccessKey = getenv("MINIO_ACCESS_KEY", cfg.MinioAccessKey)
	cfg.MinioSecretKey = getenv("MINIO_SECRET_KEY", cfg.MinioSecretKey)
	cfg.MinioBucket = getenv("MINIO_BUCKET", cfg.MinioBucket)
	cfg.MinioUseSSL = getenvBool("MINIO_USE_SSL", cfg.MinioUseSSL)
}

func getenv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
