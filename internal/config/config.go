package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"gopkg.in/yaml.v3"
)

// Config is loaded from YAML, then overridden by environment variables.
type Config struct {
	App      App      `yaml:"app"`
	Server   Server   `yaml:"server"`
	Log      Log      `yaml:"log"`
	Redis    Redis    `yaml:"redis"`
	Postgres Postgres `yaml:"postgres"`
	Quiz     Quiz     `yaml:"quiz"`
	Scoring  Scoring  `yaml:"scoring"`
	Auth     Auth     `yaml:"auth"`
	Session  Session  `yaml:"session"`
}

type App struct {
	Name string `yaml:"name" env:"APP_NAME"`
	Env  string `yaml:"env" env:"APP_ENV"`
}

type Server struct {
	Port string `yaml:"port" env:"SERVER_PORT"`
}

type Log struct {
	Level string `yaml:"level" env:"LOG_LEVEL"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB"`
	TTL      string `yaml:"ttl" env:"REDIS_TTL"`
}

type Postgres struct {
	URL string `yaml:"url" env:"POSTGRES_URL"`
}

type Quiz struct {
	TTL string `yaml:"ttl" env:"QUIZ_CACHE_TTL"`
}

// Scoring points at the remote results API. Empty URL means results are kept locally.
type Scoring struct {
	URL     string `yaml:"url" env:"SCORING_URL"`
	Timeout string `yaml:"timeout" env:"SCORING_TIMEOUT"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer    string `yaml:"issuer" env:"JWT_ISSUER"`
}

type Session struct {
	SubmitTimeout string `yaml:"submit_timeout" env:"SUBMIT_TIMEOUT"`
}

// Load reads YAML config from path and applies environment overrides.
// A missing file is not an error; the environment alone can configure the service.
func Load(path string) (Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func defaults() Config {
	var cfg Config
	cfg.App.Name = "quiz-session"
	cfg.App.Env = "development"
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	return cfg
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
