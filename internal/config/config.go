// Package config loads application configuration from a carddex.yaml file and
// CARDDEX_-prefixed environment variables, with development-friendly defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	WorkingDir string    `mapstructure:"working_dir"`
	LogLevel   string    `mapstructure:"log_level"`
	OCR        OCRConfig `mapstructure:"ocr"`
	Export     Export    `mapstructure:"export"`
}

// OCRConfig controls the Tesseract engine and the per-card budget.
type OCRConfig struct {
	// Languages are Tesseract trained-data codes, e.g. "eng", "deu".
	Languages []string `mapstructure:"languages"`
	// DPI is passed to the engine for scaling heuristics; zero means unknown.
	DPI int `mapstructure:"dpi"`
	// PSM is the Tesseract page segmentation mode. Mode 6 (single uniform
	// block) works well for business cards; zero keeps the engine default.
	PSM int `mapstructure:"psm"`
	// Timeout bounds one card's OCR pass. On expiry the card is marked as a
	// recognition failure instead of hanging the run.
	Timeout time.Duration `mapstructure:"timeout"`
	// Workers bounds concurrent OCR when scanning a batch of files.
	Workers int `mapstructure:"workers"`
}

// Export controls the default export target.
type Export struct {
	// Path is the default destination for the export command, relative to
	// the working directory unless absolute. The extension picks the format.
	Path string `mapstructure:"path"`
}

// ContactsFile is the session's persistent CSV inside the working directory.
const ContactsFile = "contacts.csv"

// ImagesDir holds copies of scanned card images inside the working directory.
const ImagesDir = "card_images"

// Load reads carddex.yaml (if present) from the given directory and the
// environment, then validates the result. An empty dir means the current
// working directory.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("carddex")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")

	v.SetEnvPrefix("CARDDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if dir != "" {
		cfg.WorkingDir = dir
	}
	if cfg.WorkingDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working dir: %w", err)
		}
		cfg.WorkingDir = wd
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("ocr.languages", []string{"eng"})
	v.SetDefault("ocr.dpi", 300)
	v.SetDefault("ocr.psm", 6)
	v.SetDefault("ocr.timeout", 30*time.Second)
	v.SetDefault("ocr.workers", 2)
	v.SetDefault("export.path", "contacts_export.csv")
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.OCR.Timeout <= 0 {
		return errors.New("ocr.timeout must be positive")
	}
	if c.OCR.Workers < 1 {
		return errors.New("ocr.workers must be at least 1")
	}
	if len(c.OCR.Languages) == 0 {
		return errors.New("ocr.languages must not be empty")
	}
	return nil
}

// ContactsPath returns the session CSV path under the working directory.
func (c *Config) ContactsPath() string {
	return filepath.Join(c.WorkingDir, ContactsFile)
}

// ExportPath returns the default export destination. Relative paths land in
// the working directory.
func (c *Config) ExportPath() string {
	if filepath.IsAbs(c.Export.Path) {
		return c.Export.Path
	}
	return filepath.Join(c.WorkingDir, c.Export.Path)
}

// ImagesPath returns the card image folder, creating it if needed.
func (c *Config) ImagesPath() (string, error) {
	dir := filepath.Join(c.WorkingDir, ImagesDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	return dir, nil
}
