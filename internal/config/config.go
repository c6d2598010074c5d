package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

// Config holds application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Slack    SlackConfig    `mapstructure:"slack"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains HTTP server options
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPConfig contains per-request settings
type HTTPConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// SlackConfig holds the secrets used to authenticate slash commands
type SlackConfig struct {
	VerificationToken string `mapstructure:"verification_token"`
	SigningSecret     string `mapstructure:"signing_secret"`
}

// TelegramConfig enables the Telegram transport when Token is set
type TelegramConfig struct {
	Token string `mapstructure:"token"`
}

// StorageConfig selects and configures the presence store
type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	MongoURI      string `mapstructure:"mongo_uri"`
	MongoDatabase string `mapstructure:"mongo_database"`
}

// LoggingConfig contains logger preferences
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from the environment, merging a .env file if present.
// Only the storage section is validated here; servers call Validate.
func Load() (*Config, error) {
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Storage.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("http.request_timeout", 3*time.Second)

	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.sqlite_path", "./whoshere.db")
	v.SetDefault("storage.mongo_database", "whoshere")
}

// bindEnvs maps keys to their environment variables. The short names match the
// variables the bot was historically deployed with.
func bindEnvs(v *viper.Viper) {
	bindings := map[string][]string{
		"logging.level":            {"LOGGING_LEVEL", "LOG_LEVEL"},
		"server.host":              {"SERVER_HOST"},
		"server.port":              {"SERVER_PORT", "PORT"},
		"server.shutdown_timeout":  {"SERVER_SHUTDOWN_TIMEOUT"},
		"http.request_timeout":     {"HTTP_REQUEST_TIMEOUT"},
		"slack.verification_token": {"SLACK_VERIFICATION_TOKEN", "VERIFICATION_TOKEN"},
		"slack.signing_secret":     {"SLACK_SIGNING_SECRET"},
		"telegram.token":           {"TELEGRAM_TOKEN", "TELEGRAM_BOT_TOKEN"},
		"storage.backend":          {"STORAGE_BACKEND"},
		"storage.sqlite_path":      {"STORAGE_SQLITE_PATH", "DATABASE_PATH"},
		"storage.mongo_uri":        {"STORAGE_MONGO_URI", "MONGOLAB_URI"},
		"storage.mongo_database":   {"STORAGE_MONGO_DATABASE"},
	}

	for key, envs := range bindings {
		_ = v.BindEnv(append([]string{key}, envs...)...)
	}
}

// Validate ensures the fields needed to serve requests are present
func (c Config) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("server.port is required")
	}
	if c.Slack.VerificationToken == "" && c.Slack.SigningSecret == "" {
		return errors.New("slack.verification_token or slack.signing_secret is required")
	}

	return c.Storage.Validate()
}

// Validate ensures the selected backend is configured
func (s StorageConfig) Validate() error {
	switch s.Backend {
	case "sqlite":
		if s.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required")
		}
	case "mongo":
		if s.MongoURI == "" {
			return errors.New("storage.mongo_uri is required")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", s.Backend)
	}

	return nil
}

// ServerAddr returns host:port for HTTP server binding
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
