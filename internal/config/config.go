package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// Config holds the whole server configuration.
// Values come from an optional YAML file named by CONFIG_FILE; environment
// variables always win. Secrets are only read from the environment.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	Auth     AuthConfig     `yaml:"auth"`
	AI       AIConfig       `yaml:"ai"`
	Realtime RealtimeConfig `yaml:"realtime"`

	// GeneratedJWTSecret is set when no JWT secret was configured and a
	// random one was generated for this process.
	GeneratedJWTSecret bool `yaml:"-"`
}

type ServerConfig struct {
	Port     string `yaml:"port" env:"PORT" env-default:"5000"`
	GinMode  string `yaml:"gin_mode" env:"GIN_MODE" env-default:"debug"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver" env:"DB_DRIVER" env-default:"mysql"`
	Host       string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port       string `yaml:"port" env:"DB_PORT" env-default:"3306"`
	User       string `yaml:"user" env:"DB_USER" env-default:"projectuser"`
	Password   string `yaml:"-" env:"DB_PASSWORD" env-default:"projectpassword"`
	Name       string `yaml:"name" env:"DB_NAME" env-default:"project_tracker"`
	SQLitePath string `yaml:"sqlite_path" env:"DB_SQLITE_PATH" env-default:"project_tracker.db"`
}

type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

type SessionConfig struct {
	Secret string `yaml:"-" env:"SESSION_SECRET" env-default:"default-secret-key-change-me"`
	// Store is "redis" or "cookie".
	Store string `yaml:"store" env:"SESSION_STORE" env-default:"redis"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"-" env:"JWT_SECRET"`
	JWTTTL    time.Duration `yaml:"jwt_ttl" env:"JWT_TTL" env-default:"24h"`
}

type AIConfig struct {
	OpenAIAPIKey string `yaml:"-" env:"OPENAI_API_KEY"`
	OpenAIModel  string `yaml:"openai_model" env:"OPENAI_MODEL" env-default:"gpt-4o"`
}

// Enabled reports whether task suggestions can be served.
func (a AIConfig) Enabled() bool {
	return a.OpenAIAPIKey != ""
}

type RealtimeConfig struct {
	RequireAuth bool `yaml:"require_auth" env:"REALTIME_REQUIRE_AUTH" env-default:"false"`
	// AllowedOrigins is a comma separated list. Empty allows any origin.
	AllowedOrigins string `yaml:"allowed_origins" env:"REALTIME_ALLOWED_ORIGINS"`
}

// Origins returns AllowedOrigins split and trimmed.
func (r RealtimeConfig) Origins() []string {
	var origins []string
	for _, o := range strings.Split(r.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.Server.GinMode == "release"
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	cfg := &Config{}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Auth.JWTSecret == "" {
		secret, err := utils.RandomHex(32)
		if err != nil {
			return nil, err
		}
		cfg.Auth.JWTSecret = secret
		cfg.GeneratedJWTSecret = true
	}

	return cfg, nil
}

// Validate checks values that cleanenv cannot check on its own.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Session.Store {
	case "redis", "cookie":
	default:
		return fmt.Errorf("unsupported SESSION_STORE %q", c.Session.Store)
	}

	if c.Auth.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive")
	}

	if c.IsRelease() {
		if c.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is required in release mode")
		}
		if c.Session.Secret == "" || c.Session.Secret == "default-secret-key-change-me" {
			return fmt.Errorf("SESSION_SECRET must be set in release mode")
		}
	}

	return nil
}
