package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for taleloom.
type Config struct {
	BaseDir string                `toml:"base_dir"`
	LogDir  string                `toml:"log_dir"`
	Store   StoreConfig           `toml:"store"`
	Sender  SenderConfig          `toml:"sender"`
	Auth    AuthConfig            `toml:"auth"`
	Command CommandConfig         `toml:"command"`
	Plans   map[string]PlanConfig `toml:"plans"`
}

// StoreConfig selects the domain store backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type StoreConfig struct {
	Type    string `toml:"type"`               // "memory" or "sqlite"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// SenderConfig selects the verification code sender backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type SenderConfig struct {
	Type string `toml:"type"` // "simulated" or "ses"

	// Simulated-specific fields (only used when Type == "simulated")
	LatencyMS int `toml:"latency_ms,omitempty"`

	// SES-specific fields (only used when Type == "ses")
	Region    string `toml:"region,omitempty"`
	FromEmail string `toml:"from_email,omitempty"`
	FromName  string `toml:"from_name,omitempty"`
}

// AuthConfig holds session token and code throttling settings.
type AuthConfig struct {
	TokenSecret      string `toml:"token_secret"`
	TokenTTLMinutes  int    `toml:"token_ttl_minutes"`  // default 10080 (7 days)
	CodeEverySeconds int    `toml:"code_every_seconds"` // default 30
	CodeBurst        int    `toml:"code_burst"`         // default 3
}

// CommandConfig holds the timeout policy for long-running commands.
type CommandConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"` // default 10
}

// PlanConfig overrides a built-in plan catalog entry, keyed by plan id.
type PlanConfig struct {
	Name              string  `toml:"name"`
	MonthlyPrice      float64 `toml:"monthly_price"`
	AnnualPrice       float64 `toml:"annual_price"`
	HasTrial          bool    `toml:"has_trial"`
	MonthlyStoryLimit int     `toml:"monthly_story_limit"`
	DailyStoryLimit   int     `toml:"daily_story_limit"`
	RetentionHours    int     `toml:"retention_hours"`
}

// NewConfig creates a new Config with the provided base directory and defaults.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Store: StoreConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Sender: SenderConfig{
			Type:      "simulated",
			LatencyMS: 400,
		},
		Auth: AuthConfig{
			TokenTTLMinutes:  7 * 24 * 60,
			CodeEverySeconds: 30,
			CodeBurst:        3,
		},
		Command: CommandConfig{
			TimeoutSeconds: 10,
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
