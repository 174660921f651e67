package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gwlsn/cutscan/internal/scene"
)

type Config struct {
	// FFmpegPath is the path to ffmpeg binary (default: "ffmpeg")
	FFmpegPath string `yaml:"ffmpeg_path"`

	// FFprobePath is the path to ffprobe binary (default: "ffprobe")
	FFprobePath string `yaml:"ffprobe_path"`

	// DumpDir holds one numbered sub-directory per candidate with the
	// encoded field clip and its images (default: "dump")
	DumpDir string `yaml:"dump_dir"`

	// MaxParallel bounds concurrent ffmpeg encodes. Each encode holds a
	// decoded window in memory; 30 in parallel needs 6-8GB (default 16)
	MaxParallel int `yaml:"max_parallel"`

	// EncodeThreads is passed to ffmpeg -threads for each clip (default 4)
	EncodeThreads int `yaml:"encode_threads"`

	// ImageWidth and ImageHeight are the dumped field image size (default 480x270)
	ImageWidth  int `yaml:"image_width"`
	ImageHeight int `yaml:"image_height"`

	// Filter is the periodic time filter "<start>,<duration>", empty to disable
	Filter string `yaml:"filter"`

	// LogLevel is one of debug, info, warn, error (default: info)
	LogLevel string `yaml:"log_level"`

	// StorePath is the SQLite run history database. Empty disables history.
	StorePath string `yaml:"store_path"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		FFmpegPath:    "ffmpeg",
		FFprobePath:   "ffprobe",
		DumpDir:       "dump",
		MaxParallel:   DefaultParallel,
		EncodeThreads: 4,
		ImageWidth:    480,
		ImageHeight:   270,
		LogLevel:      "info",
	}
}

// Load reads config from a YAML file, applying defaults for missing values
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// No config file - use defaults
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.FFmpegPath == "" {
		c.FFmpegPath = def.FFmpegPath
	}
	if c.FFprobePath == "" {
		c.FFprobePath = def.FFprobePath
	}
	if c.DumpDir == "" {
		c.DumpDir = def.DumpDir
	}
	if c.MaxParallel == 0 {
		c.MaxParallel = def.MaxParallel
	}
	c.MaxParallel = ClampParallel(c.MaxParallel)
	if c.EncodeThreads < 1 {
		c.EncodeThreads = def.EncodeThreads
	}
	if c.ImageWidth <= 0 || c.ImageHeight <= 0 {
		c.ImageWidth = def.ImageWidth
		c.ImageHeight = def.ImageHeight
	}
	c.LogLevel = ValidateLogLevel(c.LogLevel)
}

// Validate checks values that cannot be defaulted. An unusable periodic
// filter is a configuration error.
func (c *Config) Validate() error {
	if _, err := scene.ParseFilter(c.Filter); err != nil {
		return err
	}
	return nil
}

// PeriodicFilter returns the parsed filter, or nil when none is configured.
func (c *Config) PeriodicFilter() (*scene.Filter, error) {
	return scene.ParseFilter(c.Filter)
}

// Save writes the config to a YAML file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// CandidateDir returns the dump directory for candidate index i.
func (c *Config) CandidateDir(i int) string {
	return filepath.Join(c.DumpDir, fmt.Sprintf("%03d", i))
}
