// Package config loads service configuration from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the full set of REALVISION_* settings.
type Config struct {
	StorageDriver string `env:"REALVISION_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"REALVISION_SQLITE_PATH" envDefault:"realvision.db"`
	PostgresDSN   string `env:"REALVISION_POSTGRES_DSN"`

	Blob BlobConfig

	SheetPrefix   string `env:"REALVISION_SHEET_PREFIX"`
	OrdersFile    string `env:"REALVISION_ORDERS_FILE"`
	IngestOnStart bool   `env:"REALVISION_INGEST_ON_START" envDefault:"true"`

	// PatternGenes are extra gene hint keys that select reserve white artwork.
	PatternGenes      []string `env:"REALVISION_PATTERN_GENES" envSeparator:","`
	// RoanOverlayBreeds replaces the breeds whose adult roan art adds mane and
	// tail overlays missing from the foal art.
	RoanOverlayBreeds []string `env:"REALVISION_ROAN_OVERLAY_BREEDS" envSeparator:"," envDefault:"brabant_horse"`

	HTTPAddr     string `env:"REALVISION_HTTP_ADDR" envDefault:":8080"`
	LayerBaseURL string `env:"REALVISION_LAYER_BASE_URL" envDefault:"https://www.horsereality.com/upload/"`

	LogMode  string `env:"REALVISION_LOG_MODE" envDefault:"development"`
	LogLevel string `env:"REALVISION_LOG_LEVEL"`
}

// BlobConfig selects and configures the sheet source.
type BlobConfig struct {
	Driver          string `env:"REALVISION_BLOB_DRIVER" envDefault:"fs"`
	FSRoot          string `env:"REALVISION_BLOB_FS_ROOT" envDefault:"./sheets"`
	Bucket          string `env:"REALVISION_BLOB_S3_BUCKET"`
	Region          string `env:"REALVISION_BLOB_S3_REGION"`
	Endpoint        string `env:"REALVISION_BLOB_S3_ENDPOINT"`
	PathStyle       bool   `env:"REALVISION_BLOB_S3_PATH_STYLE"`
	AccessKeyID     string `env:"REALVISION_BLOB_S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"REALVISION_BLOB_S3_SECRET_ACCESS_KEY"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
