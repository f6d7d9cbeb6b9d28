package server

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig defines application configuration loaded from files and environment.
type AppConfig struct {
	Env      string         `koanf:"env"`
	Database DatabaseConfig `koanf:"database"`
	Valkey   ValkeyConfig   `koanf:"valkey"`
	Audit    AuditConfig    `koanf:"audit"`
	Auth     AuthConfig     `koanf:"auth"`
}

type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

type ValkeyConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
}

type AuditConfig struct {
	// Path of the embedded decision journal; ":memory:" keeps it in-process.
	Path string `koanf:"path"`
}

type AuthConfig struct {
	JWTSecret       string `koanf:"jwt_secret"`
	TokenTTLMinutes int    `koanf:"token_ttl_minutes"`
}

var (
	cfgOnce sync.Once
	cfgInst *AppConfig
)

// GetConfig loads and returns the singleton AppConfig. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix CONTRACT_ mapped using __ as nested
//    separator, e.g. CONTRACT_DATABASE__DSN
func GetConfig() *AppConfig {
	cfgOnce.Do(func() {
		k := koanf.New(".")
		configDir := os.Getenv("CONFIG_DIR")
		if configDir == "" {
			configDir = "config"
		}
		// File loading is opt-in to keep tests isolated.
		loadFiles := strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "1") || strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "true")
		if loadFiles {
			base := filepath.Join(configDir, "config.yaml")
			if _, err := os.Stat(base); err == nil {
				if err := k.Load(file.Provider(base), yaml.Parser()); err != nil {
					log.Printf("config: failed loading base: %v", err)
				}
			}
		}
		envName := os.Getenv("APP_ENV")
		if envName == "" {
			envName = "local"
		}
		if loadFiles {
			envFile := filepath.Join(configDir, "config."+envName+".yaml")
			if _, err := os.Stat(envFile); err == nil {
				if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil {
					log.Printf("config: failed loading env file: %v", err)
				}
			}
		}
		// CONTRACT_DATABASE__DSN -> database.dsn
		_ = k.Load(env.Provider("CONTRACT_", "__", func(s string) string {
			return s
		}), nil)

		var c AppConfig
		if err := k.Unmarshal("", &c); err != nil {
			log.Printf("config: unmarshal error: %v", err)
		}
		if c.Env == "" {
			c.Env = envName
		}
		cfgInst = &c
	})
	return cfgInst
}

// DatabaseDSN returns the effective primary DSN (config first, then env).
func (c *AppConfig) DatabaseDSN() string {
	if c != nil && c.Database.DSN != "" {
		return strings.TrimSpace(c.Database.DSN)
	}
	dsn := strings.TrimSpace(os.Getenv("DATABASE_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("MIGRATE_DSN"))
	}
	return dsn
}

// JWTSecret returns the signing secret (config first, then env).
func (c *AppConfig) JWTSecret() string {
	if c != nil && c.Auth.JWTSecret != "" {
		return c.Auth.JWTSecret
	}
	return strings.TrimSpace(os.Getenv("JWT_SECRET"))
}
