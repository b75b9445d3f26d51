package config

import "time"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Classifier: ClassifierConfig{
			Threshold:      10,
			ConsensusRatio: 0.6,
			SmoothingGap:   10 * time.Minute,
			ExtraPatterns:  map[string][]string{},
		},
		Oracle: OracleConfig{
			Provider:         "none",
			BatchSize:        20,
			Pacing:           1200 * time.Millisecond,
			BatchTimeout:     60 * time.Second,
			FailureThreshold: 3,
			OllamaURL:        "http://localhost:11434",
			OllamaModel:      "llama3.2",
			GeminiKeyEnv:     "GEMINI_API_KEY",
			GeminiModel:      "gemini-2.0-flash",
		},
		Analysis: AnalysisConfig{
			Timezone:   "Local",
			SessionGap: 2 * time.Hour,
			Period:     "all",
		},
		Ingest: IngestConfig{
			ExcludeChannels: []string{},
			ExcludeRegex:    []string{},
		},
		Storage: StorageConfig{
			Path:              "~/.config/watchmirror",
			SQLiteFile:        "watchmirror.db",
			SQLiteJournalMode: "wal",
			RetentionDays:     365,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Export: ExportConfig{
			Format: "json",
		},
	}
}
