package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:            "8081",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    10 * time.Second,
		WritesPerMinute: 120,
		SQLiteDBPath:    "./test.db",
		LogLevel:        "info",
		LogFormat:       "text",
		ShutdownTimeout: 5 * time.Second,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "json format and debug level",
			mutate:  func(c *Config) { c.LogFormat = "JSON"; c.LogLevel = "DEBUG" },
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range low",
			mutate:      func(c *Config) { c.Port = "0" },
			wantErr:     true,
			errorString: "invalid port 0: must be between 1 and 65535",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "empty sqlite path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "verbose" },
			wantErr:     true,
			errorString: "invalid log level 'verbose'",
		},
		{
			name:        "invalid log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml': must be 'text' or 'json'",
		},
		{
			name:    "rate limit disabled",
			mutate:  func(c *Config) { c.WritesPerMinute = 0 },
			wantErr: false,
		},
		{
			name:        "negative rate limit",
			mutate:      func(c *Config) { c.WritesPerMinute = -1 },
			wantErr:     true,
			errorString: "invalid write rate limit -1: must not be negative",
		},
		{
			name:        "zero shutdown timeout",
			mutate:      func(c *Config) { c.ShutdownTimeout = 0 },
			wantErr:     true,
			errorString: "invalid shutdown timeout 0s: must be positive",
		},
		{
			name:        "read timeout too long",
			mutate:      func(c *Config) { c.ReadTimeout = time.Hour },
			wantErr:     true,
			errorString: "invalid read timeout 1h0m0s: must be at most 10 minutes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Config.Validate() error = nil, wantErr %v", tt.wantErr)
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Config.Validate() error = %v, want error containing %v", err.Error(), tt.errorString)
				}
			} else {
				if err != nil {
					t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
				}
			}
		})
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.LogFormat = "xml"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("Config.Validate() error = nil, want aggregated error")
	}
	if n := strings.Count(err.Error(), "\n- "); n != 2 {
		t.Errorf("Config.Validate() reported %d problems, want 2: %v", n, err)
	}
}

func TestConfig_ValidateWithFiles(t *testing.T) {
	tmpDir := t.TempDir()

	notADir := filepath.Join(tmpDir, "file")
	if err := os.WriteFile(notADir, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"missing directory is fine", filepath.Join(tmpDir, "nested", "ledger.db"), false},
		{"existing directory", filepath.Join(tmpDir, "ledger.db"), false},
		{"path is a directory", tmpDir, true},
		{"parent is a file", filepath.Join(notADir, "ledger.db"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			cfg.SQLiteDBPath = tt.path
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	for _, key := range []string{"PORT", "SQLITE_DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT", "READ_TIMEOUT", "WRITE_TIMEOUT", "RATE_LIMIT_WRITES_PER_MINUTE"} {
		t.Setenv(key, "")
	}

	t.Run("default values", func(t *testing.T) {
		cfg := Load()

		if cfg.Port != "8081" {
			t.Errorf("Load() Port = %v, want 8081", cfg.Port)
		}
		if cfg.SQLiteDBPath != "./data/moneytrack.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want ./data/moneytrack.db", cfg.SQLiteDBPath)
		}
		if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
			t.Errorf("Load() log = %v/%v, want info/text", cfg.LogLevel, cfg.LogFormat)
		}
		if cfg.ShutdownTimeout != 5*time.Second {
			t.Errorf("Load() ShutdownTimeout = %v, want 5s", cfg.ShutdownTimeout)
		}
		if cfg.WritesPerMinute != 120 {
			t.Errorf("Load() WritesPerMinute = %v, want 120", cfg.WritesPerMinute)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("defaults should validate: %v", err)
		}
	})

	t.Run("environment variables", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("SQLITE_DB_PATH", "/tmp/test.db")
		t.Setenv("LOG_FORMAT", "json")
		t.Setenv("READ_TIMEOUT", "3s")

		cfg := Load()

		if cfg.Addr() != ":9090" {
			t.Errorf("Load() Addr = %v, want :9090", cfg.Addr())
		}
		if cfg.SQLiteDBPath != "/tmp/test.db" {
			t.Errorf("Load() SQLiteDBPath = %v, want /tmp/test.db", cfg.SQLiteDBPath)
		}
		if cfg.LogFormat != "json" {
			t.Errorf("Load() LogFormat = %v, want json", cfg.LogFormat)
		}
		if cfg.ReadTimeout != 3*time.Second {
			t.Errorf("Load() ReadTimeout = %v, want 3s", cfg.ReadTimeout)
		}
	})

	t.Run("invalid environment variables use defaults", func(t *testing.T) {
		t.Setenv("SHUTDOWN_TIMEOUT", "invalid")
		t.Setenv("RATE_LIMIT_WRITES_PER_MINUTE", "many")

		cfg := Load()

		if cfg.ShutdownTimeout != 5*time.Second {
			t.Errorf("Load() ShutdownTimeout = %v, want 5s (default for invalid input)", cfg.ShutdownTimeout)
		}
		if cfg.WritesPerMinute != 120 {
			t.Errorf("Load() WritesPerMinute = %v, want 120 (default for invalid input)", cfg.WritesPerMinute)
		}
	})
}
