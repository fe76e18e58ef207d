package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	API      APIConfig      `yaml:"api"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Extract  ExtractConfig  `yaml:"extract"`
	LogLevel string         `yaml:"log_level"`
}

type APIConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Key      string        `yaml:"key"`
	PageSize int           `yaml:"page_size"`
	Timeout  time.Duration `yaml:"timeout"`
}

type StorageConfig struct {
	Endpoint          string `yaml:"endpoint"`
	AccessKey         string `yaml:"access_key"`
	SecretKey         string `yaml:"secret_key"`
	UseSSL            bool   `yaml:"use_ssl"`
	RawBucket         string `yaml:"raw_bucket"`
	TransformedBucket string `yaml:"transformed_bucket"`
	RawPrefix         string `yaml:"raw_prefix"`
	TransformedPrefix string `yaml:"transformed_prefix"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Enabled reports whether the run ledger is configured. The pipeline works
// without it; runs are simply not recorded.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type ExtractConfig struct {
	Channels  []string      `yaml:"channels"`
	MaxVideos int           `yaml:"max_videos"`
	Interval  time.Duration `yaml:"interval"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = "https://www.googleapis.com/youtube/v3"
	}
	if c.API.PageSize == 0 || c.API.PageSize > 50 {
		c.API.PageSize = 50
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = 30 * time.Second
	}
	if c.Storage.RawBucket == "" {
		c.Storage.RawBucket = "channel-metrics"
	}
	if c.Storage.TransformedBucket == "" {
		c.Storage.TransformedBucket = c.Storage.RawBucket
	}
	if c.Storage.RawPrefix == "" {
		c.Storage.RawPrefix = "raw"
	}
	if c.Storage.TransformedPrefix == "" {
		c.Storage.TransformedPrefix = "transform"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "channel_metrics"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "runs"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "extraction_runs"
	}
	if c.Extract.MaxVideos == 0 {
		c.Extract.MaxVideos = 100
	}
	if c.Extract.Interval == 0 {
		c.Extract.Interval = 24 * time.Hour
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
