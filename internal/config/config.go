package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	points "github.com/phunnicutt1/synapse-app-sub001/internal/points/domain"
)

// CxAlloy holds record source settings.
type CxAlloy struct {
	BaseURL   string `yaml:"base_url"`
	Token     string `yaml:"token"`
	ProjectID string `yaml:"project_id"`
}

// Config is the service configuration.
type Config struct {
	HTTPAddr             string        `yaml:"http_addr"`
	DatabaseURL          string        `yaml:"database_url"`
	JWTSecret            string        `yaml:"-"`
	TokenTTL             time.Duration `yaml:"token_ttl"`
	ReviewHighMin        int           `yaml:"review_high_min"`
	SignatureLibraryPath string        `yaml:"signature_library"`
	EquipmentSeedPath    string        `yaml:"equipment_seed"`
	CxAlloy              CxAlloy       `yaml:"cxalloy"`
}

// Load reads an optional .env file, the environment and the YAML file named
// by SYNAPSE_CONFIG. YAML values override the environment; blanks left by
// the file fall back to it.
func Load() (Config, error) {
	if err := godotenv.Load(getenvDefault("SYNAPSE_ENV_FILE", ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: load env file: %w", err)
	}

	cfg := Config{
		HTTPAddr:             getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:          getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		JWTSecret:            getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		TokenTTL:             getenvDuration("AUTH_TOKEN_TTL", 12*time.Hour),
		ReviewHighMin:        getenvIntDefault("REVIEW_HIGH_MIN", points.ReviewHighMin),
		SignatureLibraryPath: os.Getenv("SIGNATURE_LIBRARY"),
		EquipmentSeedPath:    os.Getenv("EQUIPMENT_SEED"),
		CxAlloy: CxAlloy{
			BaseURL:   getenvDefault("CXALLOY_BASE_URL", "https://api.cxalloy.com"),
			Token:     os.Getenv("CXALLOY_TOKEN"),
			ProjectID: os.Getenv("CXALLOY_PROJECT_ID"),
		},
	}

	if path := os.Getenv("SYNAPSE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.ReviewHighMin == 0 {
		cfg.ReviewHighMin = points.ReviewHighMin
	}
	if cfg.ReviewHighMin < 1 || cfg.ReviewHighMin > 100 {
		return cfg, fmt.Errorf("config: review_high_min %d outside 1..100", cfg.ReviewHighMin)
	}
	return cfg, nil
}

// ValidateServer checks the settings the HTTP service cannot run without.
func (c Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return errors.New("config: AUTH_JWT_SECRET is required")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
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

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
