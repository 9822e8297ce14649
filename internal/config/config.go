package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port        string   `yaml:"port"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Database struct {
		Driver       string `yaml:"driver" validate:"omitempty,oneof=postgres sqlite"`
		DSN          string `yaml:"dsn" validate:"required"`
		MaxOpenConns int    `yaml:"max_open_conns" validate:"gte=0"`
		Migrate      bool   `yaml:"migrate"`
	} `yaml:"database"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db" validate:"gte=0"`
	} `yaml:"redis"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Auth struct {
		JWTSecret string `yaml:"jwt_secret" validate:"required,min=16"`
		TokenTTL  string `yaml:"token_ttl"`
	} `yaml:"auth"`
	Points struct {
		Policy           string `yaml:"policy" validate:"omitempty,oneof=per_submission best_score"`
		PerCorrectAnswer int    `yaml:"per_correct_answer" validate:"gte=0"`
	} `yaml:"points"`
	Submission struct {
		TxTimeout   string `yaml:"tx_timeout"`
		EvalTimeout string `yaml:"eval_timeout"`
	} `yaml:"submission"`
}

// Load reads YAML config from path, applies environment overrides and validates the result.
// A .env file in the working directory, if present, is loaded into the environment first.
func Load(path string) (Config, error) {
	cfg := Config{}
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if err := applyEnv(&cfg); err != nil {
		return cfg, err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("POINTS_POLICY"); v != "" {
		cfg.Points.Policy = v
	}
	if v := os.Getenv("DATABASE_MIGRATE"); v != "" {
		migrate, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("DATABASE_MIGRATE: %w", err)
		}
		cfg.Database.Migrate = migrate
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
