// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Aggregator AggregatorConfig `mapstructure:"aggregator"`
	Deribit    VenueConfig      `mapstructure:"deribit"`
	Okex       VenueConfig      `mapstructure:"okex"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
}

// AggregatorConfig holds the core's one external knob (spec §6) plus the
// resubscription throttle every venue adapter shares.
type AggregatorConfig struct {
	// Assets is the list of instrument symbols. Only the first entry is
	// subscribed on startup, and it is sent unchanged to every venue; the
	// remaining entries are not subscribed.
	Assets []string `mapstructure:"assets"`
	// ResubscribePerMinute bounds how often a flapping venue may resend its
	// subscription template.
	ResubscribePerMinute int `mapstructure:"resubscribe_per_minute"`
}

// VenueConfig holds per-venue connection settings.
type VenueConfig struct {
	URL              string        `mapstructure:"url"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	KeepAliveEvery   time.Duration `mapstructure:"keep_alive_every"`
	ReconnectMinWait time.Duration `mapstructure:"reconnect_min_wait"`
	ReconnectMaxWait time.Duration `mapstructure:"reconnect_max_wait"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("OBA")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.name", "OBA_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "OBA_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "OBA_LOG_LEVEL", "LOG_LEVEL")

	v.BindEnv("aggregator.assets", "OBA_ASSETS")
	v.BindEnv("aggregator.resubscribe_per_minute", "OBA_RESUBSCRIBE_PER_MINUTE")

	v.BindEnv("deribit.url", "OBA_DERIBIT_URL")
	v.BindEnv("okex.url", "OBA_OKEX_URL")

	v.BindEnv("telemetry.enabled", "OBA_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "OBA_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "OBA_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "optionbook-aggregator")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("aggregator.assets", []string{"BTC-27APR24-56000-C"})
	v.SetDefault("aggregator.resubscribe_per_minute", 6)

	v.SetDefault("deribit.url", "wss://www.deribit.com/ws/api/v2")
	v.SetDefault("deribit.handshake_timeout", "10s")
	v.SetDefault("deribit.keep_alive_every", "30s")
	v.SetDefault("deribit.reconnect_min_wait", "1s")
	v.SetDefault("deribit.reconnect_max_wait", "30s")

	v.SetDefault("okex.url", "wss://ws.okx.com:8443/ws/v5/public")
	v.SetDefault("okex.handshake_timeout", "10s")
	v.SetDefault("okex.keep_alive_every", "30s")
	v.SetDefault("okex.reconnect_min_wait", "1s")
	v.SetDefault("okex.reconnect_max_wait", "30s")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "optionbook-aggregator")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if len(c.Aggregator.Assets) == 0 {
		return fmt.Errorf("aggregator.assets cannot be empty")
	}
	if c.Deribit.URL == "" {
		return fmt.Errorf("deribit.url is required")
	}
	if c.Okex.URL == "" {
		return fmt.Errorf("okex.url is required")
	}
	return nil
}
