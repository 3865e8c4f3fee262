package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	ChartsDir     string  `mapstructure:"charts_dir" yaml:"charts_dir"`
	ChartDPI      float64 `mapstructure:"chart_dpi" yaml:"chart_dpi"`
	FontPath      string  `mapstructure:"font_path" yaml:"font_path"`
	RenderWorkers int     `mapstructure:"render_workers" yaml:"render_workers"`

	OutlierMultiplier float64 `mapstructure:"outlier_multiplier" yaml:"outlier_multiplier"`
	DropIncomplete    bool    `mapstructure:"drop_incomplete" yaml:"drop_incomplete"`

	// Run history (SQLite) and Prometheus textfile output
	DBPath      string `mapstructure:"db_path" yaml:"db_path"`
	MetricsPath string `mapstructure:"metrics_path" yaml:"metrics_path"`

	LogFormat string `mapstructure:"log_format" yaml:"log_format"`
}

// Dir returns ~/.claimlens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".claimlens"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.claimlens/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CLAIMLENS")
	v.AutomaticEnv()

	v.SetDefault("charts_dir", "charts")
	v.SetDefault("chart_dpi", 100.0)
	v.SetDefault("font_path", "")
	v.SetDefault("render_workers", 4)
	v.SetDefault("outlier_multiplier", 1.5)
	v.SetDefault("drop_incomplete", false)
	v.SetDefault("db_path", "")
	v.SetDefault("metrics_path", "")
	v.SetDefault("log_format", "console")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// The file is optional; a malformed one is not.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DBPath == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.DBPath = filepath.Join(dir, "history.db")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects settings no command can run with.
func (c *Global) Validate() error {
	if c.OutlierMultiplier < 0 {
		return fmt.Errorf("outlier_multiplier must be >= 0, got %v", c.OutlierMultiplier)
	}
	if c.ChartDPI <= 0 {
		return fmt.Errorf("chart_dpi must be > 0, got %v", c.ChartDPI)
	}
	if c.RenderWorkers < 1 {
		return fmt.Errorf("render_workers must be >= 1, got %d", c.RenderWorkers)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}
