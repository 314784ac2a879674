package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config.yaml"

	DefaultTickInterval       = 250 * time.Millisecond
	DefaultSoundAsset         = "sounds/rotate.wav"
	DefaultAvatarProbeTimeout = 3 * time.Second
)

type Config struct {
	HomePath     string
	SnapshotPath string
	DBPath       string
	LogPath      string
	PluginsPath  string

	TickInterval       time.Duration
	SoundAsset         string
	LogLevel           string
	LogFormat          string
	AvatarProbeTimeout time.Duration
}

type yamlConfig struct {
	TickInterval       string `yaml:"tick_interval"`
	SoundAsset         string `yaml:"sound_asset"`
	LogLevel           string `yaml:"log_level"`
	LogFormat          string `yaml:"log_format"`
	AvatarProbeTimeout string `yaml:"avatar_probe_timeout"`
}

// New derives file locations below homePath and overlays config.yaml when
// present. A missing file yields defaults.
func New(homePath string) (Config, error) {
	if homePath == "" {
		return Config{}, fmt.Errorf("home path is required")
	}
	cfg := Config{
		HomePath:           homePath,
		SnapshotPath:       filepath.Join(homePath, "state.json"),
		DBPath:             filepath.Join(homePath, "mobtime.db"),
		LogPath:            filepath.Join(homePath, "mobtime.log"),
		PluginsPath:        filepath.Join(homePath, "plugins"),
		TickInterval:       DefaultTickInterval,
		SoundAsset:         filepath.Join(homePath, DefaultSoundAsset),
		LogLevel:           "info",
		LogFormat:          "text",
		AvatarProbeTimeout: DefaultAvatarProbeTimeout,
	}

	raw, err := os.ReadFile(filepath.Join(homePath, configFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	var fileData yamlConfig
	if err := yaml.Unmarshal(raw, &fileData); err != nil {
		return Config{}, fmt.Errorf("parse config yaml: %w", err)
	}
	if err := applyYaml(&cfg, fileData); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultHome returns the per-user config directory for mobtime.
func DefaultHome() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".mobtime"
	}
	return filepath.Join(dir, "mobtime")
}

func applyYaml(cfg *Config, fileData yamlConfig) error {
	if fileData.TickInterval != "" {
		d, err := time.ParseDuration(fileData.TickInterval)
		if err != nil || d <= 0 {
			return fmt.Errorf("tick_interval must be a positive duration: %q", fileData.TickInterval)
		}
		cfg.TickInterval = d
	}
	if fileData.AvatarProbeTimeout != "" {
		d, err := time.ParseDuration(fileData.AvatarProbeTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("avatar_probe_timeout must be a positive duration: %q", fileData.AvatarProbeTimeout)
		}
		cfg.AvatarProbeTimeout = d
	}
	if fileData.SoundAsset != "" {
		asset := fileData.SoundAsset
		if !filepath.IsAbs(asset) {
			asset = filepath.Join(cfg.HomePath, asset)
		}
		cfg.SoundAsset = asset
	}
	switch fileData.LogLevel {
	case "":
	case "debug", "info", "warn", "error":
		cfg.LogLevel = fileData.LogLevel
	default:
		return fmt.Errorf("log_level must be one of debug|info|warn|error: %q", fileData.LogLevel)
	}
	switch fileData.LogFormat {
	case "":
	case "text", "json":
		cfg.LogFormat = fileData.LogFormat
	default:
		return fmt.Errorf("log_format must be text or json: %q", fileData.LogFormat)
	}
	return nil
}
