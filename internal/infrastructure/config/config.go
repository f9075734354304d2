package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Name               string `yaml:"name"`
	ReadTimeout        int    `yaml:"read_timeout"`
	WriteTimeout       int    `yaml:"write_timeout"`
	ProcessingInterval int    `yaml:"processing_interval"`
}

type HTTPConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// ProxyConfig — один CORS-прокси цепочки. Envelope определяет формат ответа:
// "json" для обёртки {"contents": ...}, "raw" для тела как есть.
type ProxyConfig struct {
	Name     string `yaml:"name"`
	Prefix   string `yaml:"prefix"`
	Envelope string `yaml:"envelope"`
}

type FeedConfig struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Active bool   `yaml:"active"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type AISearchConfig struct {
	Model          string `yaml:"model"`
	Endpoint       string `yaml:"endpoint"`
	SearchEndpoint string `yaml:"search_endpoint"`
	EmbedModel     string `yaml:"embed_model"`
}

type Config struct {
	App      AppConfig      `yaml:"app"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
	Proxies  []ProxyConfig  `yaml:"proxies"`
	Feeds    []FeedConfig   `yaml:"feeds"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	AISearch AISearchConfig `yaml:"ai_search"`
}

func (c *Config) GetAppName() string {
	return c.App.Name
}

func (c *Config) GetAppProcessingInterval() time.Duration {
	return time.Duration(c.App.ProcessingInterval) * time.Second
}

func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config file is empty")
	}

	raw, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(raw))

	var cfg Config
	if err = yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config yaml: %w", err)
	}

	if len(cfg.Proxies) == 0 {
		return nil, fmt.Errorf("config must declare at least one proxy")
	}
	if len(cfg.Feeds) == 0 {
		return nil, fmt.Errorf("config must declare at least one feed")
	}

	return &cfg, nil
}
