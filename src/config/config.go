// Package config loads chatkit settings from a YAML/JSON file, a .env file and
// environment variables, and turns every missing optional field into an explicit
// default.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"chatkit/src/models"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

const (
	DefaultConfigFile    = "chatkit.yaml"
	DefaultStoragePrefix = "chatkit"
	DefaultExportPrefix  = "chatkit-chat"
	DefaultEndpoint      = "https://api.moorcheh.ai/v1/answer"
	DefaultTheme         = "slate"
	SystemTheme          = "system"

	DefaultTransitionDuration = 200
	DefaultHistoryWindow      = 20
)

// Storage backends understood by storage.Open.
const (
	BackendFile   = "file"
	BackendPebble = "pebble"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the validated descriptor every component is built from.
type Config struct {
	Branding     Branding             `yaml:"branding"`
	Theme        ThemeSettings        `yaml:"theme"`
	Fonts        FontSettings         `yaml:"fonts"`
	API          APISettings          `yaml:"api"`
	Storage      StorageSettings      `yaml:"storage"`
	History      HistorySettings      `yaml:"history"`
	Log          LogSettings          `yaml:"log"`
	Connectivity ConnectivitySettings `yaml:"connectivity"`

	// Path is the settings file this config was read from, empty when defaults only.
	Path string `yaml:"-"`
}

type Branding struct {
	AppName       string `yaml:"appName"`
	Subtitle      string `yaml:"subtitle,omitempty"`
	StoragePrefix string `yaml:"storagePrefix"`
	ExportPrefix  string `yaml:"exportPrefix"`
}

type ThemeSettings struct {
	DefaultTheme       string                            `yaml:"defaultTheme"`
	PersistTheme       *bool                             `yaml:"persistTheme,omitempty"`
	EnableSystemTheme  *bool                             `yaml:"enableSystemTheme,omitempty"`
	TransitionDuration *int                              `yaml:"transitionDuration,omitempty"`
	Custom             map[string]models.ThemeDefinition `yaml:"custom,omitempty"`
	Labels             map[string]string                 `yaml:"labels,omitempty"`
}

// Persist reports whether the theme preference is stored between runs.
func (t ThemeSettings) Persist() bool { return t.PersistTheme == nil || *t.PersistTheme }

// TrackSystem reports whether OS colour-scheme changes are followed live.
func (t ThemeSettings) TrackSystem() bool { return t.EnableSystemTheme == nil || *t.EnableSystemTheme }

// Transition returns the theme transition in milliseconds, 0 meaning none.
func (t ThemeSettings) Transition() int {
	if t.TransitionDuration == nil {
		return DefaultTransitionDuration
	}
	return *t.TransitionDuration
}

type FontSettings struct {
	Primary           string                           `yaml:"primary"`
	Heading           string                           `yaml:"heading"`
	Mono              string                           `yaml:"mono"`
	EnableGoogleFonts *bool                            `yaml:"enableGoogleFonts,omitempty"`
	Custom            map[string]models.FontDefinition `yaml:"custom,omitempty"`
}

// Set returns the configured font triple.
func (f FontSettings) Set() models.FontSet {
	return models.FontSet{Primary: f.Primary, Heading: f.Heading, Mono: f.Mono}
}

// GoogleFonts reports whether remote font loading is enabled.
func (f FontSettings) GoogleFonts() bool { return f.EnableGoogleFonts == nil || *f.EnableGoogleFonts }

type APISettings struct {
	Endpoint          string   `yaml:"endpoint"`
	APIKey            string   `yaml:"apiKey,omitempty"`
	Namespace         string   `yaml:"namespace"`
	AIModel           string   `yaml:"aiModel"`
	Temperature       *float64 `yaml:"temperature,omitempty"`
	TopK              int      `yaml:"topK"`
	Threshold         *float64 `yaml:"threshold,omitempty"`
	KioskMode         bool     `yaml:"kioskMode"`
	Type              string   `yaml:"type"`
	HeaderPrompt      string   `yaml:"headerPrompt,omitempty"`
	FooterPrompt      string   `yaml:"footerPrompt,omitempty"`
	HistoryWindow     *int     `yaml:"historyWindow,omitempty"`
	TimeoutSeconds    int      `yaml:"timeoutSeconds"`
	RequestsPerSecond float64  `yaml:"requestsPerSecond"`
}

// Window returns how many earlier messages go with a request, 0 meaning all.
func (a APISettings) Window() int {
	if a.HistoryWindow == nil {
		return DefaultHistoryWindow
	}
	return *a.HistoryWindow
}

type StorageSettings struct {
	Backend string `yaml:"backend"`
	Dir     string `yaml:"dir"`
}

type HistorySettings struct {
	MaxSessions *int `yaml:"maxSessions,omitempty"`
}

// Limit returns the session cap, 0 meaning unlimited.
func (h HistorySettings) Limit() int {
	if h.MaxSessions == nil {
		return 100
	}
	return *h.MaxSessions
}

type LogSettings struct {
	Level string `yaml:"level"`
}

type ConnectivitySettings struct {
	ProbeIntervalSeconds *int `yaml:"probeIntervalSeconds,omitempty"`
}

// LoadOptions controls where Load looks for settings.
type LoadOptions struct {
	// Path of the settings file. Empty means DefaultConfigFile in the working directory.
	Path string
	// Explicit makes a missing settings file an error.
	Explicit bool
	// EnvFile is loaded before reading the environment; missing files are ignored.
	EnvFile string
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Load reads the settings file, applies .env and environment overrides, then defaults.
func Load(opts LoadOptions) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	path := opts.Path
	if path == "" {
		path = DefaultConfigFile
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		cfg.Path = path
	case os.IsNotExist(err) && !opts.Explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.applyEnv()
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("CHATKIT_API_KEY"); v != "" {
		c.API.APIKey = v
	}
	if v := os.Getenv("CHATKIT_ENDPOINT"); v != "" {
		c.API.Endpoint = v
	}
	if v := os.Getenv("CHATKIT_NAMESPACE"); v != "" {
		c.API.Namespace = v
	}
	if v := os.Getenv("CHATKIT_AI_MODEL"); v != "" {
		c.API.AIModel = v
	}
	if v := os.Getenv("CHATKIT_STORAGE_PREFIX"); v != "" {
		c.Branding.StoragePrefix = v
	}
	if v := os.Getenv("CHATKIT_STORAGE_BACKEND"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("CHATKIT_DATA_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("CHATKIT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// ApplyDefaults fills every unset optional field.
func (c *Config) ApplyDefaults() {
	if c.Branding.AppName == "" {
		c.Branding.AppName = "chatkit"
	}
	if c.Branding.StoragePrefix == "" {
		c.Branding.StoragePrefix = DefaultStoragePrefix
	}
	if c.Branding.ExportPrefix == "" {
		c.Branding.ExportPrefix = DefaultExportPrefix
	}

	if c.Theme.DefaultTheme == "" {
		c.Theme.DefaultTheme = DefaultTheme
	}
	if c.Theme.PersistTheme == nil {
		c.Theme.PersistTheme = boolPtr(true)
	}
	if c.Theme.EnableSystemTheme == nil {
		c.Theme.EnableSystemTheme = boolPtr(true)
	}
	if c.Theme.TransitionDuration == nil {
		c.Theme.TransitionDuration = intPtr(DefaultTransitionDuration)
	}

	if c.Fonts.Primary == "" {
		c.Fonts.Primary = "Roboto"
	}
	if c.Fonts.Heading == "" {
		c.Fonts.Heading = "Inter"
	}
	if c.Fonts.Mono == "" {
		c.Fonts.Mono = "Fira Code"
	}
	if c.Fonts.EnableGoogleFonts == nil {
		c.Fonts.EnableGoogleFonts = boolPtr(true)
	}

	if c.API.Endpoint == "" {
		c.API.Endpoint = DefaultEndpoint
	}
	if c.API.Temperature == nil {
		t := 0.7
		c.API.Temperature = &t
	}
	if c.API.TopK == 0 {
		c.API.TopK = 3
	}
	if c.API.Type == "" {
		c.API.Type = "text"
	}
	if c.API.HistoryWindow == nil {
		c.API.HistoryWindow = intPtr(DefaultHistoryWindow)
	}
	if c.API.TimeoutSeconds == 0 {
		c.API.TimeoutSeconds = 60
	}
	if c.API.RequestsPerSecond == 0 {
		c.API.RequestsPerSecond = 2
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendFile
	}
	if c.Storage.Dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			c.Storage.Dir = filepath.Join(home, ".chatkit")
		} else {
			c.Storage.Dir = ".chatkit"
		}
	}
	c.Storage.Dir = expandHome(c.Storage.Dir)

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Connectivity.ProbeIntervalSeconds == nil {
		n := 15
		c.Connectivity.ProbeIntervalSeconds = &n
	}
}

// Save writes cfg to path as YAML.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func boolPtr(b bool) *bool { return &b }

func intPtr(n int) *int { return &n }
