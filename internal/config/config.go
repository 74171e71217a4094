package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Cloud     CloudConfig     `yaml:"cloud"`
	Guacamole GuacamoleConfig `yaml:"guacamole"`
	Events    EventsConfig    `yaml:"events"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	ReadTimeout    int      `yaml:"read_timeout"`
	WriteTimeout   int      `yaml:"write_timeout"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type CloudConfig struct {
	GCPDefaultZone     string `yaml:"gcp_default_zone"`
	LXDDefaultEndpoint string `yaml:"lxd_default_endpoint"`
	CredentialDir      string `yaml:"credential_dir"`
}

type GuacamoleConfig struct {
	BaseURL    string `yaml:"base_url"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	DataSource string `yaml:"data_source"`
	Timeout    int    `yaml:"timeout"`
}

type EventsConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8000,
			ReadTimeout:    30,
			WriteTimeout:   30,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Cloud: CloudConfig{
			GCPDefaultZone:     "us-central1-a",
			LXDDefaultEndpoint: "https://localhost:8443",
		},
		Guacamole: GuacamoleConfig{
			BaseURL:    "http://localhost:8080/guacamole",
			Username:   "guacadmin",
			Password:   "guacadmin",
			DataSource: "postgresql",
			Timeout:    10,
		},
		Events: EventsConfig{
			Subject: "cloud.events",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the config from defaults, the optional YAML file named by
// CONFIG_FILE, and finally environment variables.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Server.Host = getEnvAsString("SERVER_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Server.ReadTimeout = getEnvAsInt("READ_TIMEOUT", c.Server.ReadTimeout)
	c.Server.WriteTimeout = getEnvAsInt("WRITE_TIMEOUT", c.Server.WriteTimeout)
	c.Server.AllowedOrigins = getEnvAsList("CORS_ALLOWED_ORIGINS", c.Server.AllowedOrigins)

	c.Cloud.GCPDefaultZone = getEnvAsString("GCP_DEFAULT_ZONE", c.Cloud.GCPDefaultZone)
	c.Cloud.LXDDefaultEndpoint = getEnvAsString("LXD_DEFAULT_ENDPOINT", c.Cloud.LXDDefaultEndpoint)
	c.Cloud.CredentialDir = getEnvAsString("CREDENTIAL_DIR", c.Cloud.CredentialDir)

	c.Guacamole.BaseURL = getEnvAsString("GUACAMOLE_URL", c.Guacamole.BaseURL)
	c.Guacamole.Username = getEnvAsString("GUACAMOLE_USERNAME", c.Guacamole.Username)
	c.Guacamole.Password = getEnvAsString("GUACAMOLE_PASSWORD", c.Guacamole.Password)
	c.Guacamole.DataSource = getEnvAsString("GUACAMOLE_DATA_SOURCE", c.Guacamole.DataSource)
	c.Guacamole.Timeout = getEnvAsInt("GUACAMOLE_TIMEOUT", c.Guacamole.Timeout)

	c.Events.NATSURL = getEnvAsString("NATS_URL", c.Events.NATSURL)
	c.Events.Subject = getEnvAsString("NATS_SUBJECT", c.Events.Subject)

	c.Metrics.Enabled = getEnvAsBool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Path = getEnvAsString("METRICS_PATH", c.Metrics.Path)

	c.Logging.Level = getEnvAsString("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnvAsString("LOG_FORMAT", c.Logging.Format)
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnvAsString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
