package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration for the application
type Config struct {
	// WhatsApp configuration
	WhatsApp WhatsAppConfig `json:"whatsapp" envPrefix:"WHATSAPP_"`

	// Database configuration
	Database DatabaseConfig `json:"database" envPrefix:"DATABASE_"`

	// Game configuration
	Game GameConfig `json:"game" envPrefix:"GAME_"`

	// Server configuration
	Server ServerConfig `json:"server" envPrefix:"SERVER_"`

	// Token configuration
	Auth AuthConfig `json:"auth" envPrefix:"AUTH_"`

	// Cloud sync configuration
	Sync SyncConfig `json:"sync" envPrefix:"SYNC_"`
}

// WhatsAppConfig holds WhatsApp specific configuration
type WhatsAppConfig struct {
	// Relay notifications and commands over WhatsApp
	Enabled bool `json:"enabled" env:"ENABLED"`

	// Path to store WhatsApp session data
	StoreDir string `json:"store_dir" env:"STORE_DIR"`

	// Client device name
	ClientName string `json:"client_name" env:"CLIENT_NAME"`

	// Auto-reply timeout in seconds
	AutoReplyTimeout int `json:"auto_reply_timeout" env:"AUTO_REPLY_TIMEOUT"`
}

// DatabaseConfig holds the cloud save database configuration
type DatabaseConfig struct {
	// Database driver (sqlite, pgx)
	Driver string `json:"driver" env:"DRIVER"`

	// Database connection string
	DSN string `json:"dsn" env:"DSN"`
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Directory of local save slots
	SaveDir string `json:"save_dir" env:"SAVE_DIR"`

	// Optional directory of content table overrides
	ContentDir string `json:"content_dir" env:"CONTENT_DIR"`

	// Optional YAML tuning overrides
	TuningPath string `json:"tuning_path" env:"TUNING_PATH"`

	// Minutes between auto-turn sweeps, 0 disables
	AutoTurnInterval int `json:"auto_turn_interval" env:"AUTO_TURN_INTERVAL"`

	// Minutes of inactivity before the day advances on its own
	IdleAfter int `json:"idle_after" env:"IDLE_AFTER"`

	// Autosave quiet period in milliseconds
	AutosaveDelay int `json:"autosave_delay_ms" env:"AUTOSAVE_DELAY_MS"`

	// Dice seed, 0 seeds from the clock
	Seed int64 `json:"seed" env:"SEED"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port" env:"PORT"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" env:"LOG_LEVEL"`

	// Allowed RPC calls per second per player
	RateLimit float64 `json:"rate_limit" env:"RATE_LIMIT"`

	// Burst of RPC calls allowed above the rate
	RateBurst int `json:"rate_burst" env:"RATE_BURST"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	// HMAC secret for player tokens
	JWTSecret string `json:"jwt_secret" env:"JWT_SECRET"`

	// Token lifetime in hours
	TokenTTL int `json:"token_ttl_hours" env:"TOKEN_TTL_HOURS"`
}

// SyncConfig holds client side backend settings
type SyncConfig struct {
	// Backend base URL, empty means offline
	BackendURL string `json:"backend_url" env:"BACKEND_URL"`

	// Seconds between periodic cloud pushes
	Interval int `json:"interval_seconds" env:"INTERVAL_SECONDS"`

	// Per-request timeout in seconds
	Timeout int `json:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		WhatsApp: WhatsAppConfig{
			Enabled:          false,
			StoreDir:         "./whatsapp-store",
			ClientName:       "VIDA LOKA EMPIRE",
			AutoReplyTimeout: 300,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "./vida-loka.db",
		},
		Game: GameConfig{
			SaveDir:          "./data/saves",
			AutoTurnInterval: 0,
			IdleAfter:        60,
			AutosaveDelay:    2000,
		},
		Server: ServerConfig{
			Port:      "8080",
			LogLevel:  "info",
			RateLimit: 10,
			RateBurst: 20,
		},
		Auth: AuthConfig{
			JWTSecret: "change-me",
			TokenTTL:  24 * 30,
		},
		Sync: SyncConfig{
			Interval: 30,
			Timeout:  10,
		},
	}
}

// TokenTTL returns the bearer token lifetime
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTL) * time.Hour
}

// SyncInterval returns the periodic push interval
func (c Config) SyncInterval() time.Duration {
	return time.Duration(c.Sync.Interval) * time.Second
}

// RequestTimeout returns the backend request timeout
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Sync.Timeout) * time.Second
}

// AutosaveDelay returns the autosave quiet period
func (c Config) AutosaveDelay() time.Duration {
	return time.Duration(c.Game.AutosaveDelay) * time.Millisecond
}

// ParseEnv overlays VIDALOKA_* environment variables onto config
func ParseEnv(config *Config) error {
	if err := env.ParseWithOptions(config, env.Options{Prefix: "VIDALOKA_"}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from a file, then applies the environment
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Create default config file
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return config, ParseEnv(&config)
	}

	// Read config file
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, fmt.Errorf("failed to decode config: %w", err)
	}

	return config, ParseEnv(&config)
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write config to file
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return err
	}

	return nil
}
