package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config captures the settings required to boot the sales advisor.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Data    DataConfig    `yaml:"data"`
	Model   ModelConfig   `yaml:"model"`
	Cohort  CohortConfig  `yaml:"cohort"`
	Logging LoggingConfig `yaml:"logging"`
	Cache   CacheConfig   `yaml:"cache"`
}

// ServerConfig controls HTTP listener behaviour.
type ServerConfig struct {
	Address         string        `yaml:"address"`
	MetricsAddress  string        `yaml:"metricsAddress"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	GracefulTimeout time.Duration `yaml:"gracefulTimeout"`
}

// DataConfig selects and configures the historical corpus source.
type DataConfig struct {
	Source string         `yaml:"source"` // "csv" or "http"
	CSV    CSVDataConfig  `yaml:"csv"`
	HTTP   HTTPDataConfig `yaml:"http"`
}

// CSVDataConfig points at Rossmann-format flat files.
type CSVDataConfig struct {
	SalesPath  string `yaml:"salesPath"`
	StoresPath string `yaml:"storesPath"`
}

// HTTPDataConfig configures access to a sales-data service.
type HTTPDataConfig struct {
	BaseURL    string        `yaml:"baseURL"`
	SalesPath  string        `yaml:"salesPath"`
	StoresPath string        `yaml:"storesPath"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ModelConfig locates the trained forecaster artifact.
type ModelConfig struct {
	ArtifactPath string `yaml:"artifactPath"`
}

// CohortConfig controls nearest-neighbor retrieval.
type CohortConfig struct {
	Neighbors int `yaml:"neighbors"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// CacheConfig controls Redis-backed caching of store-profile lookups.
type CacheConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	MaxRetries   int           `yaml:"maxRetries"`
	TLS          bool          `yaml:"tls"`
	ProfileTTL   time.Duration `yaml:"profileTTL"`
}

// Load initialises Config from a YAML file and optional environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("SALES_ADVISOR_CONFIG")
	}

	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file %s not found: %w", path, err)
			}
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Address:         ":8080",
			MetricsAddress:  ":2112",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    15 * time.Second,
			GracefulTimeout: 10 * time.Second,
		},
		Data: DataConfig{
			Source: "csv",
			CSV: CSVDataConfig{
				SalesPath:  "data/train.csv",
				StoresPath: "data/store.csv",
			},
			HTTP: HTTPDataConfig{
				SalesPath:  "/api/v1/data/sales",
				StoresPath: "/api/v1/data/stores",
				Timeout:    10 * time.Second,
			},
		},
		Model:   ModelConfig{ArtifactPath: "models/sales_model.json"},
		Cohort:  CohortConfig{Neighbors: 5},
		Logging: LoggingConfig{Level: "info", JSON: false},
		Cache: CacheConfig{
			Enabled:      false,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
			MaxRetries:   2,
			ProfileTTL:   10 * time.Minute,
		},
	}
}

func validate(cfg *Config) error {
	switch cfg.Data.Source {
	case "csv", "http":
	default:
		return fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
	if cfg.Cohort.Neighbors <= 0 {
		return fmt.Errorf("cohort neighbors must be positive, got %d", cfg.Cohort.Neighbors)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SALES_ADVISOR_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
	}
	if v := os.Getenv("SALES_ADVISOR_METRICS_ADDRESS"); v != "" {
		cfg.Server.MetricsAddress = v
	}
	if v := os.Getenv("SALES_ADVISOR_DATA_SOURCE"); v != "" {
		cfg.Data.Source = v
	}
	if v := os.Getenv("SALES_ADVISOR_SALES_CSV"); v != "" {
		cfg.Data.CSV.SalesPath = v
	}
	if v := os.Getenv("SALES_ADVISOR_STORES_CSV"); v != "" {
		cfg.Data.CSV.StoresPath = v
	}
	if v := os.Getenv("SALES_ADVISOR_DATA_BASE_URL"); v != "" {
		cfg.Data.HTTP.BaseURL = v
	}
	if v := os.Getenv("SALES_ADVISOR_DATA_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Data.HTTP.Timeout = d
		}
	}
	if v := os.Getenv("SALES_ADVISOR_MODEL_PATH"); v != "" {
		cfg.Model.ArtifactPath = v
	}
	if v := os.Getenv("SALES_ADVISOR_COHORT_NEIGHBORS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Cohort.Neighbors = n
		}
	}
	if v := os.Getenv("SALES_ADVISOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SALES_ADVISOR_LOG_FORMAT"); v == "json" {
		cfg.Logging.JSON = true
	}
	if v := os.Getenv("SALES_ADVISOR_CACHE_ENABLED"); v != "" {
		cfg.Cache.Enabled = strings.EqualFold(v, "true") || strings.EqualFold(v, "1")
	}
	if v := os.Getenv("SALES_ADVISOR_CACHE_ADDR"); v != "" {
		cfg.Cache.Addr = v
	}
	if v := os.Getenv("SALES_ADVISOR_CACHE_USERNAME"); v != "" {
		cfg.Cache.Username = v
	}
	if v := os.Getenv("SALES_ADVISOR_CACHE_PASSWORD"); v != "" {
		cfg.Cache.Password = v
	}
	if v := os.Getenv("SALES_ADVISOR_CACHE_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Cache.DB = db
		}
	}
	if v := os.Getenv("SALES_ADVISOR_CACHE_TLS"); strings.EqualFold(v, "true") || strings.EqualFold(v, "1") {
		cfg.Cache.TLS = true
	}
	if v := os.Getenv("SALES_ADVISOR_CACHE_PROFILE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Cache.ProfileTTL = d
		}
	}
}
