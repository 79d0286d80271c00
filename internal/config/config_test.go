package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			ReadTimeout:        10 * time.Second,
			WriteTimeout:       10 * time.Second,
			IdleTimeout:        120 * time.Second,
			ShutDownTimeout:    5 * time.Second,
			RequestTimeout:     1000 * time.Millisecond,
			AIRequestTimeout:   30 * time.Second,
			CORSAllowedOrigins: "*",
		},
		Data: DataConfig{
			DatabasePath:     "/tmp/quill.db",
			SettingsFilePath: "/tmp/settings.json",
			PersistInterval:  5 * time.Second,
		},
		Cache: CacheConfig{
			StaleTime:     5 * time.Second,
			GCTime:        10 * time.Minute,
			SweepInterval: time.Minute,
		},
		Misc: MiscConfig{
			GinMode:   "release",
			LogLevel:  "info",
			LogFormat: "text",
		},
	}
}

func TestConfig_Validate_Valid(t *testing.T) {
	if err := validConfig().validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestConfig_Validate_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port int
	}{
		{"zero port", 0},
		{"negative port", -1},
		{"too high port", 65536},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.Server.Port = tt.port
			if err := cfg.validate(); err == nil {
				t.Errorf("expected error for port %d", tt.port)
			}
		})
	}
}

func TestConfig_Validate_InvalidTimeouts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }},
		{"zero idle timeout", func(c *Config) { c.Server.IdleTimeout = 0 }},
		{"zero shutdown timeout", func(c *Config) { c.Server.ShutDownTimeout = 0 }},
		{"zero request timeout", func(c *Config) { c.Server.RequestTimeout = 0 }},
		{"zero ai request timeout", func(c *Config) { c.Server.AIRequestTimeout = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.validate(); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestConfig_Validate_DataPaths(t *testing.T) {
	cfg := validConfig()
	cfg.Data.DatabasePath = "  "
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty database path")
	}

	cfg = validConfig()
	cfg.Data.SettingsFilePath = ""
	if err := cfg.validate(); err == nil {
		t.Error("expected error for empty settings file path")
	}

	cfg = validConfig()
	cfg.Data.PersistInterval = 0
	if err := cfg.validate(); err == nil {
		t.Error("expected error for zero persist interval")
	}
}

func TestConfig_Validate_CacheWindows(t *testing.T) {
	cfg := validConfig()
	cfg.Cache.GCTime = cfg.Cache.StaleTime
	if err := cfg.validate(); err == nil {
		t.Error("expected error when gc time does not exceed stale time")
	}

	cfg = validConfig()
	cfg.Cache.StaleTime = -time.Second
	if err := cfg.validate(); err == nil {
		t.Error("expected error for negative stale time")
	}

	cfg = validConfig()
	cfg.Cache.SweepInterval = 0
	if err := cfg.validate(); err == nil {
		t.Error("expected error for zero sweep interval")
	}
}

func TestConfig_Validate_GinMode(t *testing.T) {
	for _, mode := range []string{"debug", "release", "test"} {
		cfg := validConfig()
		cfg.Misc.GinMode = mode
		if err := cfg.validate(); err != nil {
			t.Errorf("expected gin mode %q to be valid, got %v", mode, err)
		}
	}

	cfg := validConfig()
	cfg.Misc.GinMode = "verbose"
	if err := cfg.validate(); err == nil {
		t.Error("expected error for unknown gin mode")
	}
}

func TestConfig_Validate_LogFormat(t *testing.T) {
	cfg := validConfig()
	cfg.Misc.LogFormat = "json"
	if err := cfg.validate(); err != nil {
		t.Errorf("expected json log format to be valid, got %v", err)
	}

	cfg.Misc.LogFormat = "xml"
	if err := cfg.validate(); err == nil {
		t.Error("expected error for unknown log format")
	}
}

func TestGetEnvOrDefault(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "custom_value")

	if result := getEnvOrDefault("TEST_ENV_VAR", "default_value"); result != "custom_value" {
		t.Errorf("expected 'custom_value', got '%s'", result)
	}
	if result := getEnvOrDefault("NONEXISTENT_VAR_QUILL", "default_value"); result != "default_value" {
		t.Errorf("expected 'default_value', got '%s'", result)
	}
}

func TestGetEnvOrDefault_EmptyValue(t *testing.T) {
	t.Setenv("TEST_EMPTY_VAR", "")

	if result := getEnvOrDefault("TEST_EMPTY_VAR", "fallback"); result != "fallback" {
		t.Errorf("expected 'fallback' for empty env var, got '%s'", result)
	}
}

func TestGetEnvOrViperPort(t *testing.T) {
	v := viper.New()
	v.Set("server.port", 7070)

	port, err := getEnvOrViperPort(v, "TEST_PORT_UNSET_QUILL", "server.port")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != 7070 {
		t.Errorf("expected 7070 from viper, got %d", port)
	}

	t.Setenv("TEST_PORT", "9090")
	port, err = getEnvOrViperPort(v, "TEST_PORT", "server.port")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if port != 9090 {
		t.Errorf("expected 9090 from env, got %d", port)
	}

	t.Setenv("TEST_PORT_INVALID", "not_a_number")
	if _, err := getEnvOrViperPort(v, "TEST_PORT_INVALID", "server.port"); err == nil {
		t.Error("expected error for invalid port")
	}
}

func TestLoadConfig_WithValidDefaults(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("GO_QUILL_CONFIG_PATH", tempDir)
	t.Setenv("GO_QUILL_DATA_DATABASE_PATH", filepath.Join(tempDir, "quill.db"))
	t.Setenv("GO_QUILL_DATA_SETTINGS_FILE_PATH", filepath.Join(tempDir, "data", "settings.json"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Cache.StaleTime != 5*time.Second {
		t.Errorf("expected 5s stale time, got %v", cfg.Cache.StaleTime)
	}
	if cfg.Cache.GCTime != 10*time.Minute {
		t.Errorf("expected 10m gc time, got %v", cfg.Cache.GCTime)
	}
	if cfg.Data.PersistInterval <= 0 {
		t.Errorf("expected positive persist interval, got %v", cfg.Data.PersistInterval)
	}
}

func TestLoadConfig_WithCustomPort(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("GO_QUILL_CONFIG_PATH", tempDir)
	t.Setenv("GO_QUILL_DATA_SETTINGS_FILE_PATH", filepath.Join(tempDir, "settings.json"))
	t.Setenv("PORT", "9999")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Server.Port)
	}
}

func TestLoadConfig_WithInvalidPort(t *testing.T) {
	tempDir := t.TempDir()
	t.Setenv("GO_QUILL_CONFIG_PATH", tempDir)
	t.Setenv("PORT", "not_a_port")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for invalid PORT")
	}
}

func TestLoadConfig_FromYAML(t *testing.T) {
	tempDir := t.TempDir()
	yaml := []byte("server:\n  port: 8181\n  request_timeout: 3s\ncache:\n  stale_time: 1s\n  gc_time: 2m\n")
	if err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), yaml, 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	t.Setenv("GO_QUILL_CONFIG_PATH", tempDir)
	t.Setenv("GO_QUILL_DATA_SETTINGS_FILE_PATH", filepath.Join(tempDir, "settings.json"))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if cfg.Server.Port != 8181 {
		t.Errorf("expected port 8181, got %d", cfg.Server.Port)
	}
	if cfg.Server.RequestTimeout != 3*time.Second {
		t.Errorf("expected 3s request timeout, got %v", cfg.Server.RequestTimeout)
	}
	if cfg.Cache.StaleTime != time.Second || cfg.Cache.GCTime != 2*time.Minute {
		t.Errorf("unexpected cache windows: %+v", cfg.Cache)
	}
}

func TestLoadConfig_CreatesSettingsFile(t *testing.T) {
	tempDir := t.TempDir()
	settingsPath := filepath.Join(tempDir, "data", "settings.json")
	t.Setenv("GO_QUILL_CONFIG_PATH", tempDir)
	t.Setenv("GO_QUILL_DATA_SETTINGS_FILE_PATH", settingsPath)

	if _, err := os.Stat(settingsPath); !os.IsNotExist(err) {
		t.Fatal("expected settings file to not exist initially")
	}

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	content, err := os.ReadFile(settingsPath)
	if err != nil {
		t.Fatalf("failed to read settings file: %v", err)
	}
	if string(content) != "{}" {
		t.Errorf("expected '{}', got '%s'", string(content))
	}
}

func TestLoadConfig_UsesExistingSettingsFile(t *testing.T) {
	tempDir := t.TempDir()
	settingsPath := filepath.Join(tempDir, "settings.json")
	existingContent := `{"settings":[]}`
	if err := os.WriteFile(settingsPath, []byte(existingContent), 0o644); err != nil {
		t.Fatalf("failed to write settings file: %v", err)
	}
	t.Setenv("GO_QUILL_CONFIG_PATH", tempDir)
	t.Setenv("GO_QUILL_DATA_SETTINGS_FILE_PATH", settingsPath)

	if _, err := LoadConfig(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	content, err := os.ReadFile(settingsPath)
	if err != nil {
		t.Fatalf("failed to read settings file: %v", err)
	}
	if string(content) != existingContent {
		t.Errorf("expected '%s', got '%s'", existingContent, string(content))
	}
}
