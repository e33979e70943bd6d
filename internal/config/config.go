package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for a matassign run.
// Values are populated from .matassign.yaml, MATASSIGN_* env vars, and CLI
// flags.
type Config struct {
	// MaterialDir is the directory scanned for material definition files.
	MaterialDir string `mapstructure:"material_dir"`
	// MaterialExt filters material files by extension.
	MaterialExt string `mapstructure:"material_ext"`
	// GroupsFile is a .bdf set file snapshotting the model's groups.
	GroupsFile string `mapstructure:"groups_file"`
	// Output is the .ffj command script written by an assign run.
	Output string `mapstructure:"output"`
	// MergedGroup overrides the consolidation group name.
	MergedGroup string `mapstructure:"merged_group"`
	// HistoryDB is the sqlite run-history database path.
	HistoryDB string `mapstructure:"history_db"`
	// TelemetryPath is the JSONL event stream file; empty disables it.
	TelemetryPath string `mapstructure:"telemetry_path"`
	Verbose       bool   `mapstructure:"verbose"`
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	viper.SetDefault("material_dir", ".")
	viper.SetDefault("material_ext", ".ffd")
	viper.SetDefault("groups_file", "")
	viper.SetDefault("output", "matassign.ffj")
	viper.SetDefault("merged_group", "")
	viper.SetDefault("history_db", ".matassign.db")
	viper.SetDefault("telemetry_path", "")
	viper.SetDefault("verbose", false)

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}
