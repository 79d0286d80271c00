package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "GO_QUILL"

// Config is the full application configuration.
type Config struct {
	Server ServerConfig
	Data   DataConfig
	Cache  CacheConfig
	AI     AIConfig
	Auth   AuthConfig
	Misc   MiscConfig
}

type ServerConfig struct {
	Port               int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	ShutDownTimeout    time.Duration
	RequestTimeout     time.Duration
	AIRequestTimeout   time.Duration
	CORSAllowedOrigins string
}

type DataConfig struct {
	DatabasePath     string
	SettingsFilePath string
	PersistInterval  time.Duration
}

// CacheConfig holds the query cache windows used by API clients (quillctl).
type CacheConfig struct {
	StaleTime     time.Duration
	GCTime        time.Duration
	SweepInterval time.Duration
}

type AIConfig struct {
	APIKey        string
	SuggestModel  string
	GenerateModel string
	Temperature   float64
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
}

type MiscConfig struct {
	GinMode   string
	LogLevel  string
	LogFormat string
}

// LoadConfig reads config.yaml (if any), .env (if any) and the environment.
// Environment variables like GO_QUILL_SERVER_PORT override server.port.
func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables always win over it.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(getEnvOrDefault(envPrefix+"_CONFIG_PATH", "./config"))
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file error: %w", err)
		}
	}

	port, err := getEnvOrViperPort(v, "PORT", "server.port")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:               port,
			ReadTimeout:        v.GetDuration("server.read_timeout"),
			WriteTimeout:       v.GetDuration("server.write_timeout"),
			IdleTimeout:        v.GetDuration("server.idle_timeout"),
			ShutDownTimeout:    v.GetDuration("server.shutdown_timeout"),
			RequestTimeout:     v.GetDuration("server.request_timeout"),
			AIRequestTimeout:   v.GetDuration("server.ai_request_timeout"),
			CORSAllowedOrigins: v.GetString("server.cors_allowed_origins"),
		},
		Data: DataConfig{
			DatabasePath:     v.GetString("data.database_path"),
			SettingsFilePath: v.GetString("data.settings_file_path"),
			PersistInterval:  v.GetDuration("data.persist_interval"),
		},
		Cache: CacheConfig{
			StaleTime:     v.GetDuration("cache.stale_time"),
			GCTime:        v.GetDuration("cache.gc_time"),
			SweepInterval: v.GetDuration("cache.sweep_interval"),
		},
		AI: AIConfig{
			APIKey:        getEnvOrDefault("GEMINI_API_KEY", v.GetString("ai.api_key")),
			SuggestModel:  v.GetString("ai.suggest_model"),
			GenerateModel: v.GetString("ai.generate_model"),
			Temperature:   v.GetFloat64("ai.temperature"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			Issuer:    v.GetString("auth.issuer"),
		},
		Misc: MiscConfig{
			GinMode:   v.GetString("misc.gin_mode"),
			LogLevel:  v.GetString("misc.log_level"),
			LogFormat: v.GetString("misc.log_format"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := ensureSettingsFile(cfg.Data.SettingsFilePath); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.request_timeout", 2*time.Second)
	v.SetDefault("server.ai_request_timeout", 30*time.Second)
	v.SetDefault("server.cors_allowed_origins", "*")

	v.SetDefault("data.database_path", "./data/quill.db")
	v.SetDefault("data.settings_file_path", "./data/settings.json")
	v.SetDefault("data.persist_interval", 5*time.Second)

	v.SetDefault("cache.stale_time", 5*time.Second)
	v.SetDefault("cache.gc_time", 10*time.Minute)
	v.SetDefault("cache.sweep_interval", time.Minute)

	v.SetDefault("ai.suggest_model", "gemini-2.0-flash")
	v.SetDefault("ai.generate_model", "gemini-2.5-flash")
	v.SetDefault("ai.temperature", 0.7)

	v.SetDefault("auth.issuer", "")

	v.SetDefault("misc.gin_mode", "release")
	v.SetDefault("misc.log_level", "info")
	v.SetDefault("misc.log_format", "text")
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 {
		return errors.New("server read timeout must be positive")
	}
	if c.Server.WriteTimeout <= 0 {
		return errors.New("server write timeout must be positive")
	}
	if c.Server.IdleTimeout <= 0 {
		return errors.New("server idle timeout must be positive")
	}
	if c.Server.ShutDownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server request timeout must be positive")
	}
	if c.Server.AIRequestTimeout <= 0 {
		return errors.New("server ai request timeout must be positive")
	}
	if strings.TrimSpace(c.Data.DatabasePath) == "" {
		return errors.New("database path is required")
	}
	if strings.TrimSpace(c.Data.SettingsFilePath) == "" {
		return errors.New("settings file path is required")
	}
	if c.Data.PersistInterval <= 0 {
		return errors.New("persist interval must be positive")
	}
	if c.Cache.StaleTime < 0 {
		return errors.New("cache stale time must not be negative")
	}
	if c.Cache.GCTime <= c.Cache.StaleTime {
		return fmt.Errorf("cache gc time (%v) must be greater than stale time (%v)", c.Cache.GCTime, c.Cache.StaleTime)
	}
	if c.Cache.SweepInterval <= 0 {
		return errors.New("cache sweep interval must be positive")
	}
	switch c.Misc.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("invalid gin mode: %q", c.Misc.GinMode)
	}
	switch c.Misc.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid log format: %q", c.Misc.LogFormat)
	}
	return nil
}

// ensureSettingsFile creates an empty settings document when none exists yet.
func ensureSettingsFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat settings file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		return fmt.Errorf("create settings file: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, def string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return def
}

func getEnvOrViperPort(v *viper.Viper, envKey, viperKey string) (int, error) {
	if raw, ok := os.LookupEnv(envKey); ok && raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", envKey, err)
		}
		return port, nil
	}
	return v.GetInt(viperKey), nil
}
