package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/komodo-ops/change-detector/internal/adapters/desired"
	"github.com/komodo-ops/change-detector/internal/adapters/komodo"
	"github.com/komodo-ops/change-detector/internal/config"
	"github.com/komodo-ops/change-detector/internal/core/service"
	"github.com/komodo-ops/change-detector/internal/errors"
	"github.com/komodo-ops/change-detector/internal/log"
	"github.com/komodo-ops/change-detector/internal/reporting/output"
	"github.com/komodo-ops/change-detector/internal/reporting/text"
)

// BuildApplicationFromViper wires the full application: config, logger,
// API client, resolver, fetcher, desired-state provider, reporter, output
// sink, and the engine.
func BuildApplicationFromViper(ctx context.Context, v *viper.Viper) (*Application, error) {
	cfg := config.DefaultConfig()
	err := v.Unmarshal(cfg, func(dc *mapstructure.DecoderConfig) { dc.TagName = "yaml" })
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeConfigParseError, "failed to unmarshal configuration")
	}

	logCfg := log.Config{Level: cfg.Settings.LogLevel, Format: cfg.Settings.LogFormat}
	logger, err := log.NewLogger(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		return nil, errors.Wrap(err, errors.CodeInternal, "logger initialization failed")
	}
	logger.Infof(ctx, "Logger initialized (Level: %s, Format: %s)", cfg.Settings.LogLevel, cfg.Settings.LogFormat)
	if v.ConfigFileUsed() != "" {
		logger.Debugf(ctx, "Using configuration file: %s", v.ConfigFileUsed())
	} else {
		logger.Debugf(ctx, "No configuration file found, using defaults/env/flags.")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	err = validate.StructCtx(ctx, cfg)
	if err != nil {
		var errorDetails strings.Builder
		errorDetails.WriteString("Configuration validation failed:")
		validationErrors := err.(validator.ValidationErrors)
		for _, fe := range validationErrors {
			errorDetails.WriteString(fmt.Sprintf("\n - Field '%s': Failed on '%s' validation (value: '%v')", fe.Namespace(), fe.Tag(), fe.Value()))
		}
		wrappedErr := errors.NewUserFacing(errors.CodeConfigValidation, errorDetails.String(),
			"Set KOMODO_API_URL, KOMODO_API_KEY, KOMODO_API_SECRET and ENVIRONMENT, or provide a config file.")
		logger.Errorf(ctx, wrappedErr, "Configuration validation failed")
		return nil, wrappedErr
	}
	logger.Debugf(ctx, "Configuration validated successfully")

	client := komodo.NewClient(&cfg.API, logger.WithFields(map[string]any{"component": "api_client"}))
	logger.Infof(ctx, "Using Komodo read API at %s", cfg.API.BaseURL)

	resolver := komodo.NewResolver(client, logger.WithFields(map[string]any{"component": "resolver"}))
	fetcher := service.NewFetcher(client, logger.WithFields(map[string]any{"component": "fetcher"}), cfg.Settings.Concurrency)

	desiredProvider := desired.NewProvider(cfg.Desired, cfg.Environment, logger.WithFields(map[string]any{"component": "desired"}))

	reporterCfg := cfg.Settings.Reporter.Text
	if reporterCfg == nil {
		reporterCfg = config.DefaultConfig().Settings.Reporter.Text
	}
	reporter, err := text.NewReporter(*reporterCfg, logger.WithFields(map[string]any{"component": "reporter"}))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize text reporter")
	}

	sink := output.NewSink(cfg.OutputPath, logger.WithFields(map[string]any{"component": "output"}))
	if cfg.OutputPath == "" {
		logger.Warnf(ctx, "GITHUB_OUTPUT not set, printing output pairs to stdout")
	}

	logger.Debugf(ctx, "Initializing reconciliation engine")
	engine, err := service.NewReconciliationEngine(
		desiredProvider, fetcher, resolver, reporter, sink,
		logger.WithFields(map[string]any{"component": "engine"}),
		cfg.Environment,
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to initialize reconciliation engine")
	}

	logger.Infof(ctx, "Application bootstrap complete")
	return NewApplication(engine, logger), nil
}
