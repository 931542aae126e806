package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/narwhalmedia/decisionengine/internal/domain/quality"
	pkgconfig "github.com/narwhalmedia/decisionengine/pkg/config"
	pkglogger "github.com/narwhalmedia/decisionengine/pkg/logger"
)

// ServiceName is used for the env prefix and config file lookup.
const ServiceName = "decisiond"

// Config holds all configuration for the decision service
type Config struct {
	Service  ServiceConfig    `koanf:"service"`
	Database DatabaseConfig   `koanf:"database"`
	Decision DecisionConfig   `koanf:"decision"`
	Download DownloadConfig   `koanf:"download"`
	Grab     GrabConfig       `koanf:"grab"`
	NATS     NATSConfig       `koanf:"nats"`
	Kafka    KafkaConfig      `koanf:"kafka"`
	S3       S3Config         `koanf:"s3"`
	Metrics  MetricsConfig    `koanf:"metrics"`
	Logger   pkglogger.Config `koanf:"logger"`
}

// ServiceConfig holds service metadata
type ServiceConfig struct {
	Name        string `koanf:"name" validate:"required"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment" validate:"required"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver       string        `koanf:"driver" validate:"oneof=sqlite postgres"`
	Path         string        `koanf:"path"`
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port" validate:"gte=0,lte=65535"`
	User         string        `koanf:"user"`
	Password     string        `koanf:"password"`
	Database     string        `koanf:"database"`
	SSLMode      string        `koanf:"ssl_mode"`
	MaxOpenConns int           `koanf:"max_open_conns" validate:"gte=0"`
	MaxIdleConns int           `koanf:"max_idle_conns" validate:"gte=0"`
	MaxLifetime  time.Duration `koanf:"max_lifetime"`
	AutoMigrate  bool          `koanf:"auto_migrate"`
}

// DSN returns the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// DecisionConfig holds the flags consulted while evaluating releases
type DecisionConfig struct {
	CompletedDownloadHandling bool          `koanf:"completed_download_handling"`
	ProperDownloadType        string        `koanf:"proper_download_type" validate:"oneof=prefer_and_upgrade do_not_upgrade do_not_prefer"`
	SkipFreeSpaceCheck        bool          `koanf:"skip_free_space_check"`
	GrabTimeout               time.Duration `koanf:"grab_timeout" validate:"gt=0"`
	MaxParallel               int           `koanf:"max_parallel" validate:"gte=1,lte=64"`
	RecentGrabWindow          time.Duration `koanf:"recent_grab_window" validate:"gt=0"`
}

// EnableCompletedDownloadHandling reports whether completed downloads are imported automatically.
func (c DecisionConfig) EnableCompletedDownloadHandling() bool {
	return c.CompletedDownloadHandling
}

// DownloadPropersAndRepacks returns the proper/repack policy.
func (c DecisionConfig) DownloadPropersAndRepacks() quality.ProperDownloadType {
	t, err := quality.ParseProperDownloadType(c.ProperDownloadType)
	if err != nil {
		return quality.PreferAndUpgrade
	}
	return t
}

// SkipFreeSpaceCheckWhenImporting reports whether the free space check is disabled.
func (c DecisionConfig) SkipFreeSpaceCheckWhenImporting() bool {
	return c.SkipFreeSpaceCheck
}

// DownloadConfig holds download client submission settings
type DownloadConfig struct {
	GrabsPerSecond float64 `koanf:"grabs_per_second" validate:"gt=0"`
	GrabBurst      int     `koanf:"grab_burst" validate:"gte=1"`
	DownloadFolder string  `koanf:"download_folder"`
	Subject        string  `koanf:"subject" validate:"required"`
}

// GrabConfig holds the search-to-grab bridge settings
type GrabConfig struct {
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gt=0"`
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url" validate:"required_if=Enabled true"`
	ClientID      string        `koanf:"client_id"`
	MaxReconnect  int           `koanf:"max_reconnect"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// KafkaConfig holds Kafka configuration
type KafkaConfig struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers" validate:"required_if=Enabled true"`
	Topic   string   `koanf:"topic" validate:"required_if=Enabled true"`
}

// S3Config holds decision report archive settings
type S3Config struct {
	Enabled bool   `koanf:"enabled"`
	Bucket  string `koanf:"bucket" validate:"required_if=Enabled true"`
	Prefix  string `koanf:"prefix"`
	Region  string `koanf:"region"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Namespace string `koanf:"namespace"`
}

// Default returns the configuration used before any file or env override
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        ServiceName,
			Environment: "development",
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			Path:         "decisiond.db",
			Host:         "localhost",
			Port:         5432,
			User:         "narwhal",
			Database:     "narwhal",
			SSLMode:      "disable",
			MaxOpenConns: 25,
			MaxIdleConns: 5,
			MaxLifetime:  5 * time.Minute,
			AutoMigrate:  true,
		},
		Decision: DecisionConfig{
			CompletedDownloadHandling: true,
			ProperDownloadType:        string(quality.PreferAndUpgrade),
			GrabTimeout:               30 * time.Second,
			MaxParallel:               4,
			RecentGrabWindow:          12 * time.Hour,
		},
		Download: DownloadConfig{
			GrabsPerSecond: 2,
			GrabBurst:      4,
			Subject:        "download.grab",
		},
		Grab: GrabConfig{
			CacheTTL: 30 * time.Minute,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			ClientID:      ServiceName,
			MaxReconnect:  10,
			ReconnectWait: 2 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: []string{"localhost:9092"},
			Topic:   "decision-events",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "decisiond",
		},
		Logger: pkglogger.DefaultConfig(),
	}
}

// Load reads configuration from defaults, files and DECISIOND_ env vars.
func Load(path string) (*Config, error) {
	cfg := Default()
	if err := pkgconfig.LoadServiceConfig(ServiceName, cfg, pkgconfig.WithConfigFile(path)); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	if err := v.Struct(c); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			msgs := make([]string, 0, len(validationErrs))
			for _, e := range validationErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return err
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	case "postgres":
		if c.Database.Host == "" || c.Database.Database == "" {
			return errors.New("database.host and database.database are required for postgres")
		}
	}

	if _, err := quality.ParseProperDownloadType(c.Decision.ProperDownloadType); err != nil {
		return err
	}

	return nil
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return pkgconfig.IsProduction(c.Service.Environment)
}
