package config

import (
	"context"
	stderrors "errors"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/mrz1836/ally/internal/errors"
)

// newViperInstance creates a new Viper instance with standard ally configuration.
// This includes environment variable prefix (ALLY_), key replacer, and defaults.
func newViperInstance() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("ALLY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// isConfigNotFoundError returns true if the error is a viper config file not found error.
func isConfigNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	var configNotFoundErr viper.ConfigFileNotFoundError
	return stderrors.As(err, &configNotFoundErr)
}

// unmarshalAndValidate unmarshals viper config into Config struct and validates it.
func unmarshalAndValidate(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return &cfg, nil
}

// Load reads configuration from all available sources with proper precedence.
// Configuration is loaded in the following order (highest precedence first):
//  1. Environment variables (ALLY_* prefix)
//  2. Project config (.ally/config.yaml)
//  3. Global config (~/.ally/config.yaml)
//  4. Built-in defaults
//
// For CLI flag overrides, use LoadWithOverrides instead.
//
// Missing config files are not an error.
func Load(ctx context.Context) (*Config, error) {
	v := newViperInstance()

	if err := loadGlobalConfig(v); err != nil {
		return nil, err
	}

	if err := loadProjectConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viperDecoderOption()); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	logger := zerolog.Ctx(ctx).With().Str("component", "config").Logger()
	logger.Debug().
		Str("scan.standard", cfg.Scan.Standard).
		Int("scan.batch_size", cfg.Scan.BatchSize).
		Str("browser.backend", cfg.Browser.Backend).
		Str("engine.kind", cfg.Engine.Kind).
		Bool("cache.enabled", cfg.Cache.Enabled).
		Msg("configuration loaded and unmarshaled")

	if err := Validate(&cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &cfg, nil
}

// loadGlobalConfig attempts to load the global config file (~/.ally/config.yaml).
// Returns nil if the file doesn't exist or home directory cannot be determined.
func loadGlobalConfig(v *viper.Viper) error {
	globalConfigPath, err := GlobalConfigPath()
	if err != nil || !fileExists(globalConfigPath) {
		return nil
	}

	v.SetConfigFile(globalConfigPath)
	if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read global config file")
	}
	return nil
}

// loadProjectConfig attempts to load the project config file (.ally/config.yaml).
// Returns nil if the file doesn't exist.
func loadProjectConfig(v *viper.Viper) error {
	projectConfigPath := ProjectConfigPath()
	if !fileExists(projectConfigPath) {
		return nil
	}

	v.SetConfigFile(projectConfigPath)
	if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) {
		return errors.Wrap(err, "failed to read project config file")
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// LoadWithOverrides loads configuration and applies CLI flag overrides.
// The overrides parameter contains values from CLI flags which have the
// highest precedence in the configuration hierarchy.
//
// Only non-zero values in overrides are applied. Zero values are ignored
// to allow partial overrides.
func LoadWithOverrides(ctx context.Context, overrides *Config) (*Config, error) {
	cfg, err := Load(ctx)
	if err != nil {
		return nil, err
	}

	if overrides != nil {
		applyOverrides(cfg, overrides)
	}

	if err := Validate(cfg); err != nil {
		return nil, errors.Wrap(err, "invalid configuration after overrides")
	}

	return cfg, nil
}

// LoadFromPaths loads configuration from specific file paths.
// projectConfigPath is the path to project-level config (higher priority).
// globalConfigPath is the path to global config (lower priority).
// Either path can be empty to skip that level.
func LoadFromPaths(_ context.Context, projectConfigPath, globalConfigPath string) (*Config, error) {
	v := newViperInstance()

	if globalConfigPath != "" {
		v.SetConfigFile(globalConfigPath)
		if err := v.ReadInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read global config: %s", globalConfigPath)
		}
	}

	if projectConfigPath != "" {
		v.SetConfigFile(projectConfigPath)
		if err := v.MergeInConfig(); err != nil && !isConfigNotFoundError(err) && !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to read project config: %s", projectConfigPath)
		}
	}

	return unmarshalAndValidate(v)
}

// setDefaults configures all default values on the Viper instance.
// These defaults match the values from DefaultConfig().
// IMPORTANT: Keys must match the YAML tag names exactly for proper mapping.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("scan.standard", d.Scan.Standard)
	v.SetDefault("scan.batch_size", d.Scan.BatchSize)
	v.SetDefault("scan.timeout", d.Scan.Timeout.String())
	v.SetDefault("scan.wait_until", d.Scan.WaitUntil)
	v.SetDefault("scan.rate_limit", d.Scan.RateLimit)
	v.SetDefault("scan.screenshot_dir", d.Scan.ScreenshotDir)
	v.SetDefault("scan.report_path", d.Scan.ReportPath)
	v.SetDefault("scan.history_path", d.Scan.HistoryPath)

	v.SetDefault("browser.backend", d.Browser.Backend)
	v.SetDefault("browser.exec_path", d.Browser.ExecPath)
	v.SetDefault("browser.headless", d.Browser.Headless)
	v.SetDefault("browser.no_sandbox", d.Browser.NoSandbox)
	v.SetDefault("browser.download", d.Browser.Download)
	v.SetDefault("browser.viewport_width", d.Browser.ViewportWidth)
	v.SetDefault("browser.viewport_height", d.Browser.ViewportHeight)
	v.SetDefault("browser.disable_animations", d.Browser.DisableAnimations)

	v.SetDefault("engine.kind", d.Engine.Kind)
	v.SetDefault("engine.axe_path", d.Engine.AxePath)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.urls", d.Cache.URLs)

	v.SetDefault("retry.max_retries", d.Retry.MaxRetries)
	v.SetDefault("retry.base_delay", d.Retry.BaseDelay.String())

	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
}

// applyOverrides merges non-zero override values into the config.
//
// IMPORTANT: Boolean fields cannot be overridden to false using this function
// because Go's zero value for bool is false. CLI implementations handle
// boolean flags separately with cmd.Flags().Changed.
func applyOverrides(cfg, overrides *Config) {
	applyScanOverrides(&cfg.Scan, &overrides.Scan)

	if overrides.Browser.Backend != "" {
		cfg.Browser.Backend = overrides.Browser.Backend
	}
	if overrides.Browser.ExecPath != "" {
		cfg.Browser.ExecPath = overrides.Browser.ExecPath
	}
	if overrides.Browser.ViewportWidth != 0 {
		cfg.Browser.ViewportWidth = overrides.Browser.ViewportWidth
	}
	if overrides.Browser.ViewportHeight != 0 {
		cfg.Browser.ViewportHeight = overrides.Browser.ViewportHeight
	}

	if overrides.Engine.Kind != "" {
		cfg.Engine.Kind = overrides.Engine.Kind
	}
	if overrides.Engine.AxePath != "" {
		cfg.Engine.AxePath = overrides.Engine.AxePath
	}

	if overrides.Cache.Backend != "" {
		cfg.Cache.Backend = overrides.Cache.Backend
	}
	if overrides.Cache.Dir != "" {
		cfg.Cache.Dir = overrides.Cache.Dir
	}
	if overrides.Cache.URLs != "" {
		cfg.Cache.URLs = overrides.Cache.URLs
	}

	if overrides.Retry.MaxRetries != 0 {
		cfg.Retry.MaxRetries = overrides.Retry.MaxRetries
	}
	if overrides.Retry.BaseDelay != 0 {
		cfg.Retry.BaseDelay = overrides.Retry.BaseDelay
	}

	if overrides.Metrics.Textfile != "" {
		cfg.Metrics.Textfile = overrides.Metrics.Textfile
	}
}

// applyScanOverrides applies scan-related overrides to the config.
// This is extracted from applyOverrides to reduce cognitive complexity.
func applyScanOverrides(cfg, overrides *ScanConfig) {
	if overrides.Standard != "" {
		cfg.Standard = overrides.Standard
	}
	if overrides.BatchSize != 0 {
		cfg.BatchSize = overrides.BatchSize
	}
	if overrides.Timeout != 0 {
		cfg.Timeout = overrides.Timeout
	}
	if overrides.WaitUntil != "" {
		cfg.WaitUntil = overrides.WaitUntil
	}
	if overrides.RateLimit != 0 {
		cfg.RateLimit = overrides.RateLimit
	}
	if overrides.ScreenshotDir != "" {
		cfg.ScreenshotDir = overrides.ScreenshotDir
	}
	if overrides.ReportPath != "" {
		cfg.ReportPath = overrides.ReportPath
	}
	if overrides.HistoryPath != "" {
		cfg.HistoryPath = overrides.HistoryPath
	}
}

// viperDecoderOption returns the decoder options for Viper unmarshal.
// This configures mapstructure to handle time.Duration conversion from strings.
func viperDecoderOption() viper.DecoderConfigOption {
	return viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	)
}
