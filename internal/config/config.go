package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/watchmirror/config.yaml"

// Config holds all watchmirror configuration.
type Config struct {
	Classifier ClassifierConfig `yaml:"classifier"`
	Oracle     OracleConfig     `yaml:"oracle"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Storage    StorageConfig    `yaml:"storage"`
	Logging    LoggingConfig    `yaml:"logging"`
	Export     ExportConfig     `yaml:"export"`
}

type ClassifierConfig struct {
	Threshold      int                 `yaml:"threshold"`
	ConsensusRatio float64             `yaml:"consensus_ratio"`
	SmoothingGap   time.Duration       `yaml:"smoothing_gap"`
	ExtraPatterns  map[string][]string `yaml:"extra_patterns"`
}

type OracleConfig struct {
	Provider         string        `yaml:"provider"`
	BatchSize        int           `yaml:"batch_size"`
	Pacing           time.Duration `yaml:"pacing"`
	BatchTimeout     time.Duration `yaml:"batch_timeout"`
	FailureThreshold int           `yaml:"failure_threshold"`
	OllamaURL        string        `yaml:"ollama_url"`
	OllamaModel      string        `yaml:"ollama_model"`
	GeminiKeyEnv     string        `yaml:"gemini_key_env"`
	GeminiModel      string        `yaml:"gemini_model"`
}

type AnalysisConfig struct {
	// Timezone is an IANA name or "Local".
	Timezone   string        `yaml:"timezone"`
	SessionGap time.Duration `yaml:"session_gap"`
	Period     string        `yaml:"period"`
}

type IngestConfig struct {
	ExcludeChannels []string `yaml:"exclude_channels"`
	ExcludeRegex    []string `yaml:"exclude_regex"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
	RetentionDays     int    `yaml:"retention_days"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ExportConfig struct {
	Format string `yaml:"format"`
}

var validProviders = map[string]bool{"": true, "none": true, "ollama": true, "gemini": true}

var validPeriods = map[string]bool{"": true, "all": true, "month": true, "year": true, "5years": true}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Classifier.Threshold < 0 {
		errs = append(errs, fmt.Errorf("classifier.threshold must not be negative, got %d", c.Classifier.Threshold))
	}
	if r := c.Classifier.ConsensusRatio; r <= 0 || r > 1 {
		errs = append(errs, fmt.Errorf("classifier.consensus_ratio must be in (0,1], got %g", r))
	}
	if c.Classifier.SmoothingGap < 0 {
		errs = append(errs, errors.New("classifier.smoothing_gap must not be negative"))
	}
	if !validProviders[c.Oracle.Provider] {
		errs = append(errs, fmt.Errorf("oracle.provider %q is not one of none, ollama, gemini", c.Oracle.Provider))
	}
	if c.Oracle.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("oracle.batch_size must be positive, got %d", c.Oracle.BatchSize))
	}
	if c.Oracle.Pacing < 0 || c.Oracle.BatchTimeout < 0 {
		errs = append(errs, errors.New("oracle.pacing and oracle.batch_timeout must not be negative"))
	}
	if c.Oracle.FailureThreshold <= 0 {
		errs = append(errs, fmt.Errorf("oracle.failure_threshold must be positive, got %d", c.Oracle.FailureThreshold))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Analysis.SessionGap <= 0 {
		errs = append(errs, errors.New("analysis.session_gap must be positive"))
	}
	if !validPeriods[c.Analysis.Period] {
		errs = append(errs, fmt.Errorf("analysis.period %q is not one of all, month, year, 5years", c.Analysis.Period))
	}
	if f := c.Export.Format; f != "json" && f != "csv" {
		errs = append(errs, fmt.Errorf("export.format %q is not json or csv", f))
	}
	if _, err := c.Ingest.ChannelFilter(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves analysis.timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Analysis.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Analysis.Timezone)
	if err != nil {
		return nil, fmt.Errorf("analysis.timezone: %w", err)
	}
	return loc, nil
}

// DBPath returns the expanded SQLite database path.
func (c *Config) DBPath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ExpandPath is expandPath for callers outside the package.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
