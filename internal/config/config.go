package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/asheshgoplani/ctxmon/internal/logging"
)

var cfgLog = logging.ForComponent(logging.CompConfig)

// Default values applied before any config file is merged in.
const (
	DefaultThreshold    = 0.80
	DefaultOutputFile   = "claude.md"
	DefaultMaxCapacity  = 200000
	DefaultInstructions = "Update with current progress, successes, failures, and handoff notes for the next session"
	DefaultLogFile      = "~/.claude/context-monitor.log"
)

// Config is the resolved monitor configuration. Resolved once per
// invocation and immutable afterwards.
type Config struct {
	// Threshold is the context fraction (0,1] at which the alert fires
	Threshold float64 `json:"threshold" toml:"threshold"`

	// OutputFile is the handoff note target, relative to the hook cwd
	OutputFile string `json:"output_file" toml:"output_file"`

	// Instructions is the text embedded in each handoff note block
	Instructions string `json:"instructions" toml:"instructions"`

	// NotificationEnabled controls desktop notification dispatch
	NotificationEnabled bool `json:"notification_enabled" toml:"notification_enabled"`

	// MaxCapacity is the model context window size in tokens
	MaxCapacity int `json:"max_context_tokens" toml:"max_context_tokens"`

	// LogEnabled controls the monitor log file
	LogEnabled bool `json:"log_enabled" toml:"log_enabled"`

	// LogFile is the monitor log path, ~-expanded on resolve
	LogFile string `json:"log_file" toml:"log_file"`
}

// Defaults returns the hard default configuration.
func Defaults() Config {
	return Config{
		Threshold:           DefaultThreshold,
		OutputFile:          DefaultOutputFile,
		Instructions:        DefaultInstructions,
		NotificationEnabled: true,
		MaxCapacity:         DefaultMaxCapacity,
		LogEnabled:          true,
		LogFile:             DefaultLogFile,
	}
}

// candidateNames are the file names probed at each search location, in
// precedence order. JSON is the primary format; TOML is accepted alongside.
func candidateNames(base string) []string {
	return []string{base + ".json", base + ".toml"}
}

// SearchPaths returns the candidate config files in precedence order:
// explicit override, current working directory, the directory containing
// the executable, then ~/.claude.
func SearchPaths(override string) []string {
	var paths []string
	if override != "" {
		paths = append(paths, override)
	}

	if cwd, err := os.Getwd(); err == nil {
		for _, name := range candidateNames("config") {
			paths = append(paths, filepath.Join(cwd, name))
		}
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		for _, name := range candidateNames("config") {
			paths = append(paths, filepath.Join(exeDir, name))
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		for _, name := range candidateNames("context-monitor-config") {
			paths = append(paths, filepath.Join(home, ".claude", name))
		}
	}

	return paths
}

// Resolve loads the configuration from the first parseable candidate,
// merged over Defaults(). A malformed candidate is logged and skipped;
// finding no file at all is not an error. The returned path names the file
// that was used, or "" for pure defaults.
func Resolve(override string) (Config, string) {
	return resolveFrom(SearchPaths(override))
}

func resolveFrom(paths []string) (Config, string) {
	cfg := Defaults()

	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		merged := Defaults()
		if err := loadInto(path, &merged); err != nil {
			cfgLog.Warn("config_parse_failed",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		merged.validate(path)
		merged.LogFile = ExpandHome(merged.LogFile)
		return merged, path
	}

	cfg.LogFile = ExpandHome(cfg.LogFile)
	return cfg, ""
}

// loadInto parses path into cfg by extension. Unknown fields are ignored;
// fields missing from the file keep whatever cfg already holds.
func loadInto(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse toml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return fmt.Errorf("parse json: %w", err)
		}
	}
	return nil
}

// validate clamps out-of-range values back to defaults with a warning.
func (c *Config) validate(source string) {
	if c.Threshold <= 0 || c.Threshold > 1 {
		cfgLog.Warn("config_threshold_out_of_range",
			slog.Float64("threshold", c.Threshold),
			slog.String("path", source),
		)
		c.Threshold = DefaultThreshold
	}
	if c.MaxCapacity <= 0 {
		cfgLog.Warn("config_capacity_invalid",
			slog.Int("max_context_tokens", c.MaxCapacity),
			slog.String("path", source),
		)
		c.MaxCapacity = DefaultMaxCapacity
	}
	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile
	}
}

// ExpandHome expands a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
