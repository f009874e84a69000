package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Audio      AudioConfig      `mapstructure:"audio" yaml:"audio"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Permission PermissionConfig `mapstructure:"permission" yaml:"permission"`
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Display    DisplayConfig    `mapstructure:"display" yaml:"display"`
}

type AudioConfig struct {
	Backend    string `mapstructure:"backend" yaml:"backend"` // "auto", "pulse", "alsa", "pipewire", "avfoundation"
	Source     string `mapstructure:"source" yaml:"source"`   // backend-specific input, "default" for the system microphone
	Format     string `mapstructure:"format" yaml:"format"`   // ffmpeg muxer
	Codec      string `mapstructure:"codec" yaml:"codec"`     // ffmpeg audio encoder
	Extension  string `mapstructure:"extension" yaml:"extension"`
	SampleRate int    `mapstructure:"sample_rate" yaml:"sample_rate"`
	Channels   int    `mapstructure:"channels" yaml:"channels"`
}

type StorageConfig struct {
	Directory      string `mapstructure:"directory" yaml:"directory"`
	StateDirectory string `mapstructure:"state_directory" yaml:"state_directory"`
}

type PermissionConfig struct {
	AutoGrant bool `mapstructure:"auto_grant" yaml:"auto_grant"`
}

type ServerConfig struct {
	Port string `mapstructure:"port" yaml:"port"`
}

type DisplayConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
}

var supportedBackends = map[string]bool{
	"auto":         true,
	"pulse":        true,
	"alsa":         true,
	"pipewire":     true,
	"avfoundation": true,
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Audio: AudioConfig{
			Backend:    "auto",
			Source:     "default",
			Format:     "3gp",
			Codec:      "libopencore_amrnb",
			Extension:  ".3gp",
			SampleRate: 8000,
			Channels:   1,
		},
		Storage: StorageConfig{
			Directory:      filepath.Join(dataHome(), "vrec", "recordings"),
			StateDirectory: filepath.Join(stateHome(), "vrec"),
		},
		Server: ServerConfig{
			Port: "8080",
		},
		Display: DisplayConfig{
			Interval: time.Second,
		},
	}
}

// DefaultPath is where the configuration file lives unless --config is given
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "vrec.yaml")
	}
	return os.ExpandEnv("$HOME/.config/vrec.yaml")
}

// New returns a viper instance with defaults, env binding and the config file set
func New(configFile string) *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VREC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	return v
}

// Load reads configFile (a missing file is not an error) and validates the result
func Load(configFile string) (*Config, error) {
	return LoadFrom(New(configFile))
}

// LoadFrom reads and decodes the configuration held by v
func LoadFrom(v *viper.Viper) (*Config, error) {
	if file := v.ConfigFileUsed(); file != "" {
		if _, err := os.Stat(file); err == nil {
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", file, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.Storage.Directory = expandPath(cfg.Storage.Directory)
	cfg.Storage.StateDirectory = expandPath(cfg.Storage.StateDirectory)
	if cfg.Audio.Extension != "" && !strings.HasPrefix(cfg.Audio.Extension, ".") {
		cfg.Audio.Extension = "." + cfg.Audio.Extension
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks every field that the recorder depends on
func (c *Config) Validate() error {
	backend := strings.ToLower(c.Audio.Backend)
	if !supportedBackends[backend] {
		return fmt.Errorf("audio.backend must be one of auto, pulse, alsa, pipewire, avfoundation, got: %s", c.Audio.Backend)
	}
	c.Audio.Backend = backend

	if strings.TrimSpace(c.Audio.Source) == "" {
		return fmt.Errorf("audio.source is required")
	}
	if c.Audio.Format == "" {
		return fmt.Errorf("audio.format is required")
	}
	if c.Audio.Codec == "" {
		return fmt.Errorf("audio.codec is required")
	}
	if c.Audio.Extension == "" || c.Audio.Extension == "." {
		return fmt.Errorf("audio.extension is required")
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be > 0, got: %d", c.Audio.SampleRate)
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got: %d", c.Audio.Channels)
	}

	if c.Storage.Directory == "" {
		return fmt.Errorf("storage.directory is required")
	}
	if c.Storage.StateDirectory == "" {
		return fmt.Errorf("storage.state_directory is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Display.Interval <= 0 {
		return fmt.Errorf("display.interval must be > 0, got: %s", c.Display.Interval)
	}

	return nil
}

// Set updates a single key in the config file, creating the file when needed
func Set(configFile, key, value string) error {
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	// Separate instance so defaults are not written back
	v := viper.New()
	v.SetConfigFile(configFile)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configFile); statErr == nil {
			return fmt.Errorf("error reading config file %s: %w", configFile, err)
		}
		if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	v.Set(key, value)

	// Check the result decodes and validates before touching the file
	check := New("")
	if err := check.MergeConfigMap(v.AllSettings()); err != nil {
		return fmt.Errorf("error merging settings: %w", err)
	}
	if _, err := LoadFrom(check); err != nil {
		return err
	}

	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configFile, err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("audio.backend", d.Audio.Backend)
	v.SetDefault("audio.source", d.Audio.Source)
	v.SetDefault("audio.format", d.Audio.Format)
	v.SetDefault("audio.codec", d.Audio.Codec)
	v.SetDefault("audio.extension", d.Audio.Extension)
	v.SetDefault("audio.sample_rate", d.Audio.SampleRate)
	v.SetDefault("audio.channels", d.Audio.Channels)
	v.SetDefault("storage.directory", d.Storage.Directory)
	v.SetDefault("storage.state_directory", d.Storage.StateDirectory)
	v.SetDefault("permission.auto_grant", d.Permission.AutoGrant)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("display.interval", d.Display.Interval)
}

// ResolveBackend turns "auto" into the capture backend for the running OS
func (c *Config) ResolveBackend() string {
	if c.Audio.Backend != "" && c.Audio.Backend != "auto" {
		return c.Audio.Backend
	}
	if runtime.GOOS == "darwin" {
		return "avfoundation"
	}
	return "pulse"
}

func dataHome() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return xdg
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}

func stateHome() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return xdg
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state")
	}
	return "."
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
