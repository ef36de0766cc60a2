// Package config loads pipeline configuration from file, environment and
// defaults via viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the recognized configuration surface of the pipeline.
type Config struct {
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Render     RenderConfig     `mapstructure:"render"`
	Model      ModelConfig      `mapstructure:"model"`
}

// ClassifierConfig controls raster-dominance detection.
type ClassifierConfig struct {
	// ImagePixelThreshold: a page whose largest embedded image exceeds this
	// pixel area renders as a split high-detail scan.
	ImagePixelThreshold int64 `mapstructure:"image_pixel_threshold"`
}

// RenderConfig controls page rasterization.
type RenderConfig struct {
	VectorScale       float64 `mapstructure:"vector_scale"`
	MaxImageDimension int     `mapstructure:"max_image_dimension"`
}

// ModelConfig controls the vision model client.
type ModelConfig struct {
	Name            string `mapstructure:"name"`
	APIKey          string `mapstructure:"api_key"`
	MaxOutputTokens int    `mapstructure:"max_output_tokens"`
	MaxRetries      int    `mapstructure:"max_retries"`
	RetryDelayMS    int    `mapstructure:"retry_delay_ms"`
	TimeoutSeconds  int    `mapstructure:"timeout_seconds"`
}

// RetryDelay returns the base backoff delay.
func (m ModelConfig) RetryDelay() time.Duration {
	return time.Duration(m.RetryDelayMS) * time.Millisecond
}

// Timeout returns the per-request timeout.
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// Load reads configuration from cfgFile (or ./config.yaml, ~/.tahlil) with
// TAHLIL_* environment overrides applied on top of defaults.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("classifier.image_pixel_threshold", defaults.Classifier.ImagePixelThreshold)
	v.SetDefault("render.vector_scale", defaults.Render.VectorScale)
	v.SetDefault("render.max_image_dimension", defaults.Render.MaxImageDimension)
	v.SetDefault("model.name", defaults.Model.Name)
	v.SetDefault("model.api_key", defaults.Model.APIKey)
	v.SetDefault("model.max_output_tokens", defaults.Model.MaxOutputTokens)
	v.SetDefault("model.max_retries", defaults.Model.MaxRetries)
	v.SetDefault("model.retry_delay_ms", defaults.Model.RetryDelayMS)
	v.SetDefault("model.timeout_seconds", defaults.Model.TimeoutSeconds)

	v.SetEnvPrefix("TAHLIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.tahlil")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Model.APIKey = resolveEnvVars(cfg.Model.APIKey)
	return &cfg, nil
}

var envVarRe = regexp.MustCompile(`\$\{(\w+)\}`)

// resolveEnvVars expands ${ENV_VAR} references in a config value.
func resolveEnvVars(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := envVarRe.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
