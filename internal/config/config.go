// Package config loads the skill configuration from a YAML or JSON file,
// applies CHECKLIST_* environment overrides and validates the result.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/checklist/internal/dialogue"
	"github.com/aretw0/checklist/pkg/adapters/mqtt"
	"github.com/aretw0/checklist/pkg/adapters/process"
	"gopkg.in/yaml.v3"
)

// Supported transports.
const (
	TransportMQTT   = "mqtt"
	TransportRedis  = "redis"
	TransportMemory = "memory"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "CHECKLIST_"

// Config is the complete skill configuration.
type Config struct {
	Transport string      `yaml:"transport" json:"transport"`
	MQTT      MQTTConfig  `yaml:"mqtt" json:"mqtt"`
	Redis     RedisConfig `yaml:"redis" json:"redis"`
	SiteIDs   []string    `yaml:"site_ids" json:"site_ids"`
	Teardown  string      `yaml:"teardown" json:"teardown"`
	// ClaimTTL is a Go duration string bounding how long a replica holds a checklist.
	ClaimTTL string     `yaml:"claim_ttl" json:"claim_ttl"`
	HTTP     HTTPConfig `yaml:"http" json:"http"`
	Log      LogConfig  `yaml:"log" json:"log"`
	// Notify lists commands run with each finished report.
	Notify []process.Command `yaml:"notify" json:"notify"`
}

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker   string `yaml:"broker" json:"broker"`
	ClientID string `yaml:"client_id" json:"client_id"`
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
	QoS      int    `yaml:"qos" json:"qos"`
}

// RedisConfig describes the Redis server used for Pub/Sub and replica claims.
type RedisConfig struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	// Claims enables replica claims even when the bus is MQTT.
	Claims bool `yaml:"claims" json:"claims"`
}

// HTTPConfig controls the HTTP surface. An empty Addr disables it.
type HTTPConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	Metrics bool   `yaml:"metrics" json:"metrics"`
	Events  bool   `yaml:"events" json:"events"`
}

// LogConfig selects the log level and handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Transport: TransportMQTT,
		MQTT: MQTTConfig{
			Broker:   "tcp://localhost:1883",
			ClientID: "checklist-skill",
		},
		Redis: RedisConfig{
			Addr:   "localhost:6379",
			Prefix: "checklist:",
		},
		Teardown: string(dialogue.TeardownRepeat),
		ClaimTTL: "30m",
		HTTP: HTTPConfig{
			Metrics: true,
			Events:  true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from path, then applies environment overrides.
// An empty or missing path yields the defaults.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// not found is fine, using defaults
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := decode(path, data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return json.Unmarshal(data, cfg)
	}
	// Default to YAML
	return yaml.Unmarshal(data, cfg)
}

// applyEnv overlays CHECKLIST_* variables on top of file values.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TRANSPORT":      &c.Transport,
		"MQTT_BROKER":    &c.MQTT.Broker,
		"MQTT_CLIENT_ID": &c.MQTT.ClientID,
		"MQTT_USERNAME":  &c.MQTT.Username,
		"MQTT_PASSWORD":  &c.MQTT.Password,
		"REDIS_ADDR":     &c.Redis.Addr,
		"REDIS_PASSWORD": &c.Redis.Password,
		"REDIS_PREFIX":   &c.Redis.Prefix,
		"TEARDOWN":       &c.Teardown,
		"CLAIM_TTL":      &c.ClaimTTL,
		"HTTP_ADDR":      &c.HTTP.Addr,
		"LOG_LEVEL":      &c.Log.Level,
		"LOG_FORMAT":     &c.Log.Format,
	}
	for key, dst := range strs {
		if v, ok := lookup(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := map[string]*int{
		"MQTT_QOS": &c.MQTT.QoS,
		"REDIS_DB": &c.Redis.DB,
	}
	for key, dst := range ints {
		v, ok := lookup(EnvPrefix + key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
		}
		*dst = n
	}

	if v, ok := lookup(EnvPrefix + "SITE_IDS"); ok {
		c.SiteIDs = splitList(v)
	}
	return nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Transport == "" {
		c.Transport = defaults.Transport
	}
	if c.Teardown == "" {
		c.Teardown = defaults.Teardown
	}
	if c.ClaimTTL == "" {
		c.ClaimTTL = defaults.ClaimTTL
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = defaults.MQTT.ClientID
	}
	if c.Log.Format == "" {
		c.Log.Format = defaults.Log.Format
	}
}

// ClaimTimeout returns the parsed ClaimTTL. Validate guarantees it parses.
func (c *Config) ClaimTimeout() time.Duration {
	d, _ := time.ParseDuration(c.ClaimTTL)
	return d
}

// TeardownPolicy returns the parsed teardown policy.
func (c *Config) TeardownPolicy() dialogue.TeardownPolicy {
	p, _ := dialogue.ParseTeardownPolicy(c.Teardown)
	return p
}

// MQTTOptions converts the MQTT section into adapter settings.
func (c *Config) MQTTOptions() mqtt.Config {
	return mqtt.Config{
		Broker:   c.MQTT.Broker,
		ClientID: c.MQTT.ClientID,
		Username: c.MQTT.Username,
		Password: c.MQTT.Password,
		QoS:      byte(c.MQTT.QoS),
	}
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Transport == TransportRedis || c.Redis.Claims
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
