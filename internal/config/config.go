package config

import (
	"github.com/komodo-ops/change-detector/internal/adapters/desired"
	"github.com/komodo-ops/change-detector/internal/adapters/komodo"
	"github.com/komodo-ops/change-detector/internal/log"
	"github.com/komodo-ops/change-detector/internal/reporting/text"
)

type Config struct {
	Settings    SettingsConfig `yaml:"settings"`
	API         komodo.Config  `yaml:"api" validate:"required"`
	Desired     desired.Config `yaml:"desired"`
	Environment string         `yaml:"environment" validate:"required"`
	// OutputPath is the automation output file, normally bound from
	// GITHUB_OUTPUT. Empty means print pairs to stdout.
	OutputPath string `yaml:"output_path"`
}

type SettingsConfig struct {
	LogLevel    log.Level       `yaml:"log_level"`
	LogFormat   log.Format      `yaml:"log_format"`
	Concurrency int             `yaml:"concurrency"`
	Reporter    ReporterConfigs `yaml:"reporter_config"`
}

type ReporterConfigs struct {
	Text *text.Config `yaml:"text,omitempty"`
}

func DefaultConfig() *Config {
	return &Config{
		Settings: SettingsConfig{
			LogLevel:    log.LevelInfo,
			LogFormat:   log.FormatText,
			Concurrency: 5,
			Reporter: ReporterConfigs{
				Text: &text.Config{NoColor: false},
			},
		},
		API:     komodo.Config{},
		Desired: desired.DefaultConfig(),
	}
}
