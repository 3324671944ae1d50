package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Quotes   QuotesConfig   `yaml:"quotes"`
	Trmnl    TrmnlConfig    `yaml:"trmnl"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address string `yaml:"address"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

// DSN returns the postgres connection string. URL wins over the discrete fields.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Enabled is false when no address is configured; quotes are then cached in memory.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

type KafkaConfig struct {
	Brokers    []string `yaml:"brokers"`
	PriceTopic string   `yaml:"price_topic"`
	GroupID    string   `yaml:"group_id"`
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

type QuotesConfig struct {
	APIKey          string `yaml:"api_key"`
	Endpoint        string `yaml:"endpoint"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	LeadDays        int    `yaml:"lead_days"`
}

type TrmnlConfig struct {
	PushTimeoutSeconds int `yaml:"push_timeout_seconds"`
	PushRetries        int `yaml:"push_retries"`
}

type WorkerConfig struct {
	RefreshIntervalMinutes int `yaml:"refresh_interval_minutes"`
}

type LogConfig struct {
	Env string `yaml:"env"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{Address: ":8080"},
		Database: DatabaseConfig{
			Driver:  DriverSQLite,
			Path:    "data/flights.db",
			Port:    5432,
			SSLMode: "disable",
		},
		Kafka: KafkaConfig{
			PriceTopic: "prices.refreshed",
			GroupID:    "travel-buddy-worker",
		},
		Quotes: QuotesConfig{
			Endpoint:        "https://serpapi.com/search.json",
			CacheTTLSeconds: 3600,
			TimeoutSeconds:  10,
			LeadDays:        30,
		},
		Trmnl: TrmnlConfig{
			PushTimeoutSeconds: 10,
			PushRetries:        3,
		},
		Worker: WorkerConfig{RefreshIntervalMinutes: 360},
		Log:    LogConfig{Env: "development"},
	}
}

// LoadConfig reads the YAML file at path on top of the defaults and applies
// environment overrides. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	set("HTTP_ADDRESS", &c.HTTP.Address)
	set("DATABASE_DRIVER", &c.Database.Driver)
	set("DATABASE_PATH", &c.Database.Path)
	set("DATABASE_URL", &c.Database.URL)
	set("REDIS_ADDR", &c.Redis.Addr)
	set("SERPAPI_KEY", &c.Quotes.APIKey)
	set("APP_ENV", &c.Log.Env)

	if v, ok := lookup("KAFKA_BROKERS"); ok && v != "" {
		c.Kafka.Brokers = c.Kafka.Brokers[:0]
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case DriverPostgres:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	if c.Worker.RefreshIntervalMinutes <= 0 {
		return errors.New("worker.refresh_interval_minutes must be positive")
	}
	if c.Quotes.CacheTTLSeconds <= 0 {
		return errors.New("quotes.cache_ttl_seconds must be positive")
	}
	if c.Trmnl.PushRetries <= 0 {
		return errors.New("trmnl.push_retries must be positive")
	}
	return nil
}
