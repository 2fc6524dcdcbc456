// Package config provides configuration loading and structs for the C2 demo server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool           `yaml:"debug"`
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Scenario ScenarioConfig `yaml:"scenario"`
	Chat     ChatConfig     `yaml:"chat"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// StorageConfig selects and parameterizes the entity store.
// Driver "sqlite" uses DatabasePath; driver "postgres" uses DatabaseURL.
type StorageConfig struct {
	Driver       string `yaml:"driver"`
	DatabasePath string `yaml:"database_path"`
	DatabaseURL  string `yaml:"database_url"`
}

// ScenarioConfig holds the restore pipeline settings.
type ScenarioConfig struct {
	SeedPath     string `yaml:"seed_path"`
	BackupDir    string `yaml:"backup_dir"`
	RestoreScope string `yaml:"restore_scope"`
	WatchSeed    bool   `yaml:"watch_seed"`
}

// ChatConfig holds the conversational endpoint settings.
type ChatConfig struct {
	MediaRef string  `yaml:"media_ref"`
	RefLat   float64 `yaml:"ref_lat"`
	RefLon   float64 `yaml:"ref_lon"`
}

// Load reads and parses the config file at path, applies environment
// overrides and defaults, and expands paths. An empty path skips the file
// and builds the config from defaults and environment alone.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	ApplyDefaults(&cfg)

	configDir := "."
	if path != "" {
		configDir = filepath.Dir(path)
	}
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	cfg.Scenario.SeedPath = expandPath(cfg.Scenario.SeedPath, configDir)
	cfg.Scenario.BackupDir = expandPath(cfg.Scenario.BackupDir, configDir)

	return &cfg, nil
}

// applyEnv overrides file-provided values from the environment. Environment
// wins over the file so deployments can reconfigure without editing YAML.
func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		cfg.Server.CORSOrigins = cfg.Server.CORSOrigins[:0]
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				cfg.Server.CORSOrigins = append(cfg.Server.CORSOrigins, o)
			}
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Storage.DatabaseURL = v
		cfg.Storage.Driver = "postgres"
	}
	if v := os.Getenv("C2_SEED_PATH"); v != "" {
		cfg.Scenario.SeedPath = v
	}
	if v := os.Getenv("C2_BACKUP_DIR"); v != "" {
		cfg.Scenario.BackupDir = v
	}
	if v := os.Getenv("COMINT_MEDIA_REF"); v != "" {
		cfg.Chat.MediaRef = v
	}
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
