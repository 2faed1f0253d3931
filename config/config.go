// Package config provides configuration loading for Requote using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quote settings
type Quote struct {
	Template string `json:"template"` // citation template, must contain {quote} exactly once
}

// Timing settings, all in milliseconds
type Timings struct {
	SelectionSettleMs int `json:"selectionSettleMs"` // wait after pointer-up before reading the selection
	FocusSettleMs     int `json:"focusSettleMs"`     // wait after intercepting a send before composing
	SendDispatchMs    int `json:"sendDispatchMs"`    // wait after injection before the synthesized send
	BypassClearMs     int `json:"bypassClearMs"`     // how long the interception bypass stays set
	LocationPollMs    int `json:"locationPollMs"`    // between location checks
}

// Extraction settings
type Extract struct {
	LatexEnabled  bool `json:"latexEnabled"`
	TablesEnabled bool `json:"tablesEnabled"`
}

// HTTP fetching settings
type Fetcher struct {
	UserAgent      string `json:"userAgent"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
	ChromePath     string `json:"chromePath"`
}

// Site rule settings
type Rules struct {
	ProfileDir string `json:"profileDir"` // directory of per-site YAML profiles, empty = config dir
}

// Store settings
type Store struct {
	Path string `json:"path"` // sqlite database path, empty = config dir
}

// Config is the main configuration struct
type Config struct {
	Quote   Quote   `json:"quote"`
	Timings Timings `json:"timings"`
	Extract Extract `json:"extract"`
	Fetcher Fetcher `json:"fetcher"`
	Rules   Rules   `json:"rules"`
	Store   Store   `json:"store"`
}

// DefaultTemplate is the built-in citation template used when the user
// has not configured one.
const DefaultTemplate = "Regarding the following selected content:\n------\n{quote}\n------"

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Quote: Quote{
			Template: DefaultTemplate,
		},
		Timings: Timings{
			SelectionSettleMs: 50,
			FocusSettleMs:     50,
			SendDispatchMs:    100,
			BypassClearMs:     300,
			LocationPollMs:    500,
		},
		Extract: Extract{
			LatexEnabled:  true,
			TablesEnabled: true,
		},
		Fetcher: Fetcher{
			UserAgent:      "Requote/1.0",
			TimeoutSeconds: 30,
			ChromePath:     "",
		},
		Rules: Rules{
			ProfileDir: "",
		},
		Store: Store{
			Path: "",
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "requote"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// StorePath resolves the sqlite database path, falling back to the
// config directory when unset.
func (c *Config) StorePath() (string, error) {
	if c.Store.Path != "" {
		return c.Store.Path, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "requote.db"), nil
}

// ProfileDir resolves the site profile directory, falling back to the
// config directory when unset.
func (c *Config) ProfileDir() (string, error) {
	if c.Rules.ProfileDir != "" {
		return c.Rules.ProfileDir, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sites"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err != nil {
		return cfg, nil // Return defaults if we can't determine path
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil // Return defaults if no user config
	}

	userCfg, err := loadFromTOML(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	return merge(cfg, userCfg), nil
}

// loadFromTOML loads a TOML config file and returns the config.
func loadFromTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, nil
}

// merge layers user config on top of defaults.
// Only non-zero values from user config override defaults.
func merge(defaults, user *Config) *Config {
	result := *defaults

	// Quote
	if user.Quote.Template != "" {
		result.Quote.Template = user.Quote.Template
	}

	// Timings
	mergeMs(&result.Timings.SelectionSettleMs, user.Timings.SelectionSettleMs)
	mergeMs(&result.Timings.FocusSettleMs, user.Timings.FocusSettleMs)
	mergeMs(&result.Timings.SendDispatchMs, user.Timings.SendDispatchMs)
	mergeMs(&result.Timings.BypassClearMs, user.Timings.BypassClearMs)
	mergeMs(&result.Timings.LocationPollMs, user.Timings.LocationPollMs)

	// Fetcher
	if user.Fetcher.UserAgent != "" {
		result.Fetcher.UserAgent = user.Fetcher.UserAgent
	}
	if user.Fetcher.TimeoutSeconds != 0 {
		result.Fetcher.TimeoutSeconds = user.Fetcher.TimeoutSeconds
	}
	if user.Fetcher.ChromePath != "" {
		result.Fetcher.ChromePath = user.Fetcher.ChromePath
	}

	// Rules
	if user.Rules.ProfileDir != "" {
		result.Rules.ProfileDir = user.Rules.ProfileDir
	}

	// Store
	if user.Store.Path != "" {
		result.Store.Path = user.Store.Path
	}

	return &result
}

func mergeMs(dst *int, src int) {
	if src != 0 {
		*dst = src
	}
}

// Validate reports configuration values that cannot work at runtime.
func (c *Config) Validate() error {
	if strings.Count(c.Quote.Template, "{quote}") != 1 {
		return fmt.Errorf("quote.template must contain {quote} exactly once")
	}
	if c.Timings.BypassClearMs < c.Timings.SendDispatchMs {
		return fmt.Errorf("timings.bypassClearMs must be >= timings.sendDispatchMs")
	}
	return nil
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for --init-config to generate a user config file.
func DefaultTOML() string {
	return `# Requote configuration
# Save to ~/.config/requote/config.toml and customize
# Only include settings you want to change from defaults

# Quote settings
[quote]
# Citation template wrapped around the captured quote.
# Must contain {quote} exactly once.
template = """
Regarding the following selected content:
------
{quote}
------"""

# Timing settings, all in milliseconds
[timings]
selectionSettleMs = 50        # Wait after pointer-up before reading the selection
focusSettleMs = 50            # Wait after intercepting a send before composing
sendDispatchMs = 100          # Wait after injection before the synthesized send
bypassClearMs = 300           # How long the interception bypass stays set
locationPollMs = 500          # Between location checks

# Extraction settings
[extract]
latexEnabled = true           # Recover LaTeX source from rendered math
tablesEnabled = true          # Serialize tables as markdown grids

# HTTP fetching settings
[fetcher]
userAgent = "Requote/1.0"
timeoutSeconds = 30
chromePath = ""               # Path to Chrome/Chromium for JS rendering (empty = auto-detect)

# Site rule settings
[rules]
profileDir = ""               # Directory of per-site YAML profiles (empty = ~/.config/requote/sites)

# Store settings
[store]
path = ""                     # Sqlite database path (empty = ~/.config/requote/requote.db)
`
}

// FormatError formats a configuration error for user display.
func FormatError(err error) string {
	return fmt.Sprintf("Configuration error:\n\n%s", err.Error())
}
