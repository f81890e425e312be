package config

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Redis    RedisConfig    `yaml:"redis"`
	Relay    RelayConfig    `yaml:"relay"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DBName   string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

type KafkaConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	FailureTopicName   string `yaml:"failure_topic_name"`
	ForwardedTopicName string `yaml:"forwarded_topic_name"`
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type RelayConfig struct {
	HTTPAddr    string `yaml:"http_addr"`
	SwaggerPath string `yaml:"swagger_path"`

	PassIntervalSeconds int `yaml:"pass_interval_seconds"`

	CarrierBaseURL            string `yaml:"carrier_base_url"`
	CarrierAccessKey          string `yaml:"carrier_access_key"`
	CarrierThrottleSeconds    int    `yaml:"carrier_throttle_seconds"`
	CarrierRateLimitPerMinute int    `yaml:"carrier_rate_limit_per_minute"`

	PartnerBaseURL string `yaml:"partner_base_url"`

	MessageSettleSeconds int `yaml:"message_settle_seconds"`
	DispatchRetrySeconds int `yaml:"dispatch_retry_seconds"`

	RequestCacheTTLSeconds int `yaml:"request_cache_ttl_seconds"`

	// Test-only: fabricate a fixed carrier status sequence instead of
	// calling the real Pegas API.
	GenerateTestStatuses bool `yaml:"generate_test_statuses"`
}

func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	return &config, nil
}
