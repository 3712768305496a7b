// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting application configuration.
package appconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const (
	// DefaultConfigPath is the default path to the application's configuration file.
	DefaultConfigPath = "config/config.json"
	// defaultStoreTimeout bounds the completion-wait poll loop.
	defaultStoreTimeout = 30 * time.Second
	// defaultSettleDelay is the defensive wait after an indeterminate store
	// completion. A heuristic, not a contract; tune via settleDelaySeconds.
	defaultSettleDelay = 2 * time.Second
	// defaultCooldown separates consecutive sweep tuples.
	defaultCooldown = 1 * time.Second
)

// Config represents the top-level application configuration.
type Config struct {
	ChunkSizes            []int  `json:"chunkSizes"`
	TokenCounts           []int  `json:"tokenCounts"`
	Iterations            int    `json:"iterations"`
	NumLayers             int    `json:"numLayers"`
	EnableProfiling       bool   `json:"enableProfiling"`
	ProfilerType          string `json:"profilerType,omitempty"`
	Output                string `json:"output,omitempty"`
	CachePath             string `json:"cachePath,omitempty"`
	UseMemory             bool   `json:"useMemory"`
	ClearCache            bool   `json:"clearCache"`
	SaveHTMLReports       bool   `json:"saveHtmlReports"`
	Device                int    `json:"device"`
	ProfilingSleepSeconds int    `json:"profilingSleepSeconds,omitempty"`
	SettleDelaySeconds    int    `json:"settleDelaySeconds,omitempty"`
	StoreTimeoutSeconds   int    `json:"storeTimeoutSeconds,omitempty"`
	CooldownSeconds       int    `json:"cooldownSeconds,omitempty"`
	Debug                 bool   `json:"debug"`
	TUI                   bool   `json:"tui"`
	LogFile               string `json:"logFile,omitempty"`
	ConfigPath            string `json:"-"`
}

// Default returns the configuration used when no file or flags override it.
// The sweep axes match the original profiling campaign's defaults.
func Default() Config {
	return Config{
		ChunkSizes:   []int{64, 128, 256, 512, 1024},
		TokenCounts:  []int{256, 512, 1024, 2048},
		Iterations:   3,
		NumLayers:    2,
		ProfilerType: "cpu",
		Output:       "chunkbench_results.json",
		CachePath:    "chunkbench-cache",
	}
}

// StoreTimeout returns the completion-wait timeout, with fallback.
func (c Config) StoreTimeout() time.Duration {
	if c.StoreTimeoutSeconds <= 0 {
		return defaultStoreTimeout
	}
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

// SettleDelay returns the post-indeterminate settle delay, with fallback.
func (c Config) SettleDelay() time.Duration {
	if c.SettleDelaySeconds <= 0 {
		return defaultSettleDelay
	}
	return time.Duration(c.SettleDelaySeconds) * time.Second
}

// Cooldown returns the between-tuple cooldown, with fallback.
func (c Config) Cooldown() time.Duration {
	if c.CooldownSeconds <= 0 {
		return defaultCooldown
	}
	return time.Duration(c.CooldownSeconds) * time.Second
}

// ProfilingSleep returns the pre-profile coordination sleep (may be zero).
func (c Config) ProfilingSleep() time.Duration {
	if c.ProfilingSleepSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ProfilingSleepSeconds) * time.Second
}

// LogFilePath returns the path to the application log file, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return "chunkbench.log"
}

// Validate checks the semantic constraints a decoded config must satisfy.
func (c Config) Validate() error {
	if len(c.ChunkSizes) == 0 {
		return fmt.Errorf("config must list at least one chunk size")
	}
	for _, cs := range c.ChunkSizes {
		if cs <= 0 {
			return fmt.Errorf("chunk sizes must be positive, got %d", cs)
		}
	}
	if len(c.TokenCounts) == 0 {
		return fmt.Errorf("config must list at least one token count")
	}
	for _, tc := range c.TokenCounts {
		if tc <= 0 {
			return fmt.Errorf("token counts must be positive, got %d", tc)
		}
	}
	if c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", c.Iterations)
	}
	if c.NumLayers < 1 {
		return fmt.Errorf("numLayers must be at least 1, got %d", c.NumLayers)
	}
	return nil
}

// Load reads the application configuration from the specified path. A
// missing file at the default path is not an error: defaults apply.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultConfigPath {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
	}

	if err := validateSchema(data); err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", path, err)
	}

	config := Default()
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("could not parse config file %q: %w", path, err)
	}
	config.ConfigPath = path

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("config file %q: %w", path, err)
	}
	return config, nil
}

// validateSchema checks the raw document against the embedded JSON schema,
// catching type mistakes before they silently decode to zero values.
func validateSchema(data []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("config failed validation: %s", strings.Join(details, "; "))
}

const configSchema = `{
  "type": "object",
  "properties": {
    "chunkSizes":            {"type": "array", "items": {"type": "integer", "minimum": 1}},
    "tokenCounts":           {"type": "array", "items": {"type": "integer", "minimum": 1}},
    "iterations":            {"type": "integer", "minimum": 1},
    "numLayers":             {"type": "integer", "minimum": 1},
    "enableProfiling":       {"type": "boolean"},
    "profilerType":          {"type": "string", "enum": ["cpu", "trace"]},
    "output":                {"type": "string"},
    "cachePath":             {"type": "string"},
    "useMemory":             {"type": "boolean"},
    "clearCache":            {"type": "boolean"},
    "saveHtmlReports":       {"type": "boolean"},
    "device":                {"type": "integer", "minimum": 0},
    "profilingSleepSeconds": {"type": "integer", "minimum": 0},
    "settleDelaySeconds":    {"type": "integer", "minimum": 0},
    "storeTimeoutSeconds":   {"type": "integer", "minimum": 0},
    "cooldownSeconds":       {"type": "integer", "minimum": 0},
    "debug":                 {"type": "boolean"},
    "tui":                   {"type": "boolean"},
    "logFile":               {"type": "string"}
  },
  "additionalProperties": false
}`
