// Package config loads persistent explorer settings from the user's config
// file and overlays environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// MaxRecent bounds the recent folder list (1-9 shortcuts in the upload form).
const MaxRecent = 9

// Config is the persisted configuration.
type Config struct {
	BaseURL           string        `json:"base_url"`
	Token             string        `json:"token,omitempty"`
	UserID            string        `json:"user_id"`
	Role              string        `json:"role"`
	DownloadDir       string        `json:"download_dir"`
	EmulatorHost      string        `json:"emulator_host,omitempty"`
	LogLevel          string        `json:"log_level"`
	LogPath           string        `json:"log_path"`
	LedgerPath        string        `json:"ledger_path"`
	MetricsAddr       string        `json:"metrics_addr,omitempty"`
	Timeout           time.Duration `json:"timeout"`
	PreserveExpansion bool          `json:"preserve_expansion"`
	RecentFolders     []string      `json:"recent_folders"`
	LastUploadDir     string        `json:"last_upload_dir,omitempty"`

	path    string
	file    *Config         // values before environment overrides
	fromEnv map[string]bool // environment keys that were applied
}

// Path returns the default config file location.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docexplorer_config.json")
}

// Defaults returns the configuration used when no file exists.
func Defaults() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".docexplorer")
	return &Config{
		BaseURL:       "http://localhost:8080",
		DownloadDir:   filepath.Join(home, "Downloads"),
		LogLevel:      "info",
		LogPath:       filepath.Join(dataDir, "docexplorer.log"),
		LedgerPath:    filepath.Join(dataDir, "downloads.db"),
		Timeout:       30 * time.Second,
		RecentFolders: []string{},
	}
}

// Load reads path (Path() when empty) and applies environment overrides. A
// missing or corrupt file yields defaults.
func Load(path string) *Config {
	if path == "" {
		path = Path()
	}
	cfg := Defaults()
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				cfg = Defaults()
			}
		}
	}
	cfg.path = path
	if cfg.RecentFolders == nil {
		cfg.RecentFolders = []string{}
	}
	file := *cfg
	cfg.file = &file
	cfg.applyEnv()
	return cfg
}

// stringVars maps environment variables onto string fields.
var stringVars = []struct {
	key   string
	field func(*Config) *string
}{
	{"DOCEXPLORER_BASE_URL", func(c *Config) *string { return &c.BaseURL }},
	{"DOCEXPLORER_TOKEN", func(c *Config) *string { return &c.Token }},
	{"DOCEXPLORER_USER_ID", func(c *Config) *string { return &c.UserID }},
	{"DOCEXPLORER_ROLE", func(c *Config) *string { return &c.Role }},
	{"DOCEXPLORER_DOWNLOAD_DIR", func(c *Config) *string { return &c.DownloadDir }},
	{"DOCEXPLORER_EMULATOR_HOST", func(c *Config) *string { return &c.EmulatorHost }},
	{"DOCEXPLORER_LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
	{"DOCEXPLORER_LOG_PATH", func(c *Config) *string { return &c.LogPath }},
	{"DOCEXPLORER_LEDGER_PATH", func(c *Config) *string { return &c.LedgerPath }},
	{"DOCEXPLORER_METRICS_ADDR", func(c *Config) *string { return &c.MetricsAddr }},
}

const (
	envTimeout           = "DOCEXPLORER_TIMEOUT"
	envPreserveExpansion = "DOCEXPLORER_PRESERVE_EXPANSION"
)

// applyEnv overlays the environment and remembers which keys it applied so
// Save can leave them out of the file.
func (c *Config) applyEnv() {
	c.fromEnv = make(map[string]bool)
	for _, v := range stringVars {
		if val, ok := envString(v.key); ok {
			*v.field(c) = val
			c.fromEnv[v.key] = true
		}
	}
	if d, ok := envDuration(envTimeout); ok {
		c.Timeout = d
		c.fromEnv[envTimeout] = true
	}
	if b, ok := envBool(envPreserveExpansion); ok {
		c.PreserveExpansion = b
		c.fromEnv[envPreserveExpansion] = true
	}
}

// persisted returns c with environment overrides replaced by the values the
// file (or the defaults) had.
func (c *Config) persisted() Config {
	out := *c
	if c.file == nil {
		return out
	}
	for _, v := range stringVars {
		if c.fromEnv[v.key] {
			*v.field(&out) = *v.field(c.file)
		}
	}
	if c.fromEnv[envTimeout] {
		out.Timeout = c.file.Timeout
	}
	if c.fromEnv[envPreserveExpansion] {
		out.PreserveExpansion = c.file.PreserveExpansion
	}
	return out
}

// Save writes the configuration back to the file it was loaded from.
// Environment overrides are not persisted.
func (c *Config) Save() error {
	path := c.path
	if path == "" {
		path = Path()
	}
	if path == "" {
		return fmt.Errorf("unable to determine config path")
	}

	out := c.persisted()
	data, err := json.MarshalIndent(&out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// MarshalJSON writes the timeout as a duration string ("30s").
func (c Config) MarshalJSON() ([]byte, error) {
	type Alias Config
	return json.Marshal(struct {
		Alias
		Timeout string `json:"timeout"`
	}{Alias(c), c.Timeout.String()})
}

// UnmarshalJSON accepts the timeout as a duration string or as integer
// nanoseconds. An unparsable timeout keeps the current value.
func (c *Config) UnmarshalJSON(data []byte) error {
	type Alias Config
	aux := struct {
		*Alias
		Timeout json.RawMessage `json:"timeout"`
	}{Alias: (*Alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.Timeout) == 0 {
		return nil
	}
	var text string
	if err := json.Unmarshal(aux.Timeout, &text); err == nil {
		if d, err := time.ParseDuration(text); err == nil {
			c.Timeout = d
		}
		return nil
	}
	var nanos int64
	if err := json.Unmarshal(aux.Timeout, &nanos); err == nil {
		c.Timeout = time.Duration(nanos)
	}
	return nil
}

// RememberFolder moves folder to the front of the recent list.
func (c *Config) RememberFolder(folder string) {
	c.RecentFolders = AddRecent(c.RecentFolders, folder, MaxRecent)
}

// AddRecent puts item at the front of list, removing duplicates and keeping
// at most max entries.
func AddRecent(list []string, item string, max int) []string {
	if item == "" {
		return list
	}

	filtered := make([]string, 0, len(list))
	for _, p := range list {
		if p != item {
			filtered = append(filtered, p)
		}
	}
	result := append([]string{item}, filtered...)
	if len(result) > max {
		result = result[:max]
	}
	return result
}

func envString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func envBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

func envDuration(key string) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, false
	}
	return d, true
}
