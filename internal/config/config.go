package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const insecureDefaultSecret = "supersecretkey"

type Config struct {
	Addr          string        `yaml:"addr"`
	Env           string        `yaml:"env"`
	JWTSecret     string        `yaml:"jwt_secret"`
	APITimeout    time.Duration `yaml:"timeout"`
	DatabasePath  string        `yaml:"database_path"`
	TokenDuration time.Duration `yaml:"token_duration"`
	Notify        NotifyConfig  `yaml:"notify"`
}

type NotifyConfig struct {
	Workers     int `yaml:"workers"`
	MaxAttempts int `yaml:"max_attempts"`
}

// LoadConfig builds the config from defaults, then FIXBOARD_* environment
// variables, then the optional YAML file at path (file wins).
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{
		Addr:          getEnv("FIXBOARD_ADDR", ":8080"),
		Env:           getEnv("FIXBOARD_ENV", "development"),
		JWTSecret:     getEnv("FIXBOARD_JWT_SECRET", insecureDefaultSecret),
		APITimeout:    15 * time.Second,
		DatabasePath:  getEnv("FIXBOARD_DATABASE_PATH", "fixboard.db"),
		TokenDuration: 24 * time.Hour,
		Notify: NotifyConfig{
			Workers:     getEnvInt("FIXBOARD_NOTIFY_WORKERS", 2),
			MaxAttempts: getEnvInt("FIXBOARD_NOTIFY_MAX_ATTEMPTS", 3),
		},
	}
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Validate rejects configurations that must never reach production.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("addr is required")
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}
	if c.TokenDuration <= 0 {
		return fmt.Errorf("token_duration must be positive")
	}
	if c.JWTSecret == "" || c.JWTSecret == insecureDefaultSecret {
		if c.Env != "development" {
			return fmt.Errorf("jwt_secret must be set outside development")
		}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}

	return def
}
