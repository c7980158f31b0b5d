package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const envPrefix = "QUOTAGATE_"

// Config defines server configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Transport    TransportConfig    `yaml:"transport"`
	Auth         AuthConfig         `yaml:"auth"`
	DB           DBConfig           `yaml:"db"`
	Store        StoreConfig        `yaml:"store"`
	Log          LogConfig          `yaml:"log"`
	Quota        QuotaConfig        `yaml:"quota"`
	Generation   GenerationConfig   `yaml:"generation"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"` // "stdio" or "http"
}

type AuthConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type StoreConfig struct {
	Backend   string `yaml:"backend"` // "sqlite" or "redis"
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	Prefix    string `yaml:"prefix"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type QuotaConfig struct {
	Tier  string `yaml:"tier"`
	Limit int    `yaml:"limit"` // 0 selects the tier default
}

type GenerationConfig struct {
	Delay           time.Duration `yaml:"delay"`
	ChallengeRounds int           `yaml:"challenge_rounds"`
	Seed            uint64        `yaml:"seed"` // 0 seeds from the clock
}

type ProvisioningConfig struct {
	SuccessRate float64       `yaml:"success_rate"`
	Latency     time.Duration `yaml:"latency"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
		DB: DBConfig{
			Path: "quotagate.db",
		},
		Store: StoreConfig{
			Backend:   "sqlite",
			RedisAddr: "localhost:6379",
			Prefix:    "quotagate",
		},
		Log: LogConfig{
			Level: "info",
		},
		Quota: QuotaConfig{
			Tier: "FREE",
		},
		Generation: GenerationConfig{
			Delay:           2 * time.Second,
			ChallengeRounds: 1,
		},
		Provisioning: ProvisioningConfig{
			SuccessRate: 0.8,
			Latency:     3 * time.Second,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(envPrefix + "CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and ranged fields.
func (c Config) Validate() error {
	switch c.Transport.Mode {
	case "stdio", "http":
	default:
		return fmt.Errorf("invalid transport mode %q", c.Transport.Mode)
	}
	switch c.Store.Backend {
	case "sqlite", "redis":
	default:
		return fmt.Errorf("invalid store backend %q", c.Store.Backend)
	}
	if c.Auth.Enabled && c.Auth.Token == "" {
		return fmt.Errorf("auth enabled without a token")
	}
	if c.Provisioning.SuccessRate < 0 || c.Provisioning.SuccessRate > 1 {
		return fmt.Errorf("provisioning success rate %v outside [0,1]", c.Provisioning.SuccessRate)
	}
	if c.Generation.ChallengeRounds < 0 {
		return fmt.Errorf("negative challenge rounds")
	}
	if c.Quota.Limit < 0 {
		return fmt.Errorf("negative quota limit")
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString("SERVER_HOST", &cfg.Server.Host)
	setString("TRANSPORT_MODE", &cfg.Transport.Mode)
	setString("AUTH_TOKEN", &cfg.Auth.Token)
	setString("DB_PATH", &cfg.DB.Path)
	setString("STORE_BACKEND", &cfg.Store.Backend)
	setString("REDIS_ADDR", &cfg.Store.RedisAddr)
	setString("STORE_PREFIX", &cfg.Store.Prefix)
	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_PATH", &cfg.Log.Path)
	setString("QUOTA_TIER", &cfg.Quota.Tier)

	ints := map[string]*int{
		"SERVER_PORT":                 &cfg.Server.Port,
		"REDIS_DB":                    &cfg.Store.RedisDB,
		"QUOTA_LIMIT":                 &cfg.Quota.Limit,
		"GENERATION_CHALLENGE_ROUNDS": &cfg.Generation.ChallengeRounds,
	}
	for name, dst := range ints {
		if err := setInt(name, dst); err != nil {
			return err
		}
	}

	durations := map[string]*time.Duration{
		"GENERATION_DELAY":     &cfg.Generation.Delay,
		"PROVISIONING_LATENCY": &cfg.Provisioning.Latency,
	}
	for name, dst := range durations {
		if err := setDuration(name, dst); err != nil {
			return err
		}
	}

	if v := os.Getenv(envPrefix + "AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sAUTH_ENABLED: %w", envPrefix, err)
		}
		cfg.Auth.Enabled = enabled
	}
	if v := os.Getenv(envPrefix + "GENERATION_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %sGENERATION_SEED: %w", envPrefix, err)
		}
		cfg.Generation.Seed = seed
	}
	if v := os.Getenv(envPrefix + "PROVISIONING_SUCCESS_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sPROVISIONING_SUCCESS_RATE: %w", envPrefix, err)
		}
		cfg.Provisioning.SuccessRate = rate
	}
	return nil
}

func setString(name string, dst *string) {
	if v := os.Getenv(envPrefix + name); v != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(name string, dst *int) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = n
	return nil
}

func setDuration(name string, dst *time.Duration) error {
	v := os.Getenv(envPrefix + name)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s%s: %w", envPrefix, name, err)
	}
	*dst = d
	return nil
}
