// Package config loads studyplan settings from .studyplan.yaml, the
// environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"tableflip.dev/studyplan/pkg/logging"
)

const (
	// FileName is the config file name without extension.
	FileName = ".studyplan"
	// EnvPrefix prefixes every environment override, e.g. STUDYPLAN_DATABASE_URL.
	EnvPrefix = "STUDYPLAN"
	// PathEnv names an extra directory searched for the config file.
	PathEnv = "STUDYPLAN_CONFIG_PATH"
)

// OAuthProvider holds the client credentials of one OAuth provider.
type OAuthProvider struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RedirectURL  string `yaml:"redirect_url"`
}

// Configured reports whether the provider has a client id.
func (p OAuthProvider) Configured() bool {
	return p.ClientID != ""
}

// Blob locates attachment storage.
type Blob struct {
	Path    string `yaml:"path"`
	BaseURL string `yaml:"base_url"`
}

// Lockout tunes the sign-in lockout.
type Lockout struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Window      time.Duration `yaml:"window"`
	Duration    time.Duration `yaml:"duration"`
}

// Config is the resolved configuration.
type Config struct {
	Path         string                   `yaml:"path"`
	DatabaseURL  string                   `yaml:"database_url"`
	Debounce     time.Duration            `yaml:"debounce"`
	LogLevel     string                   `yaml:"log_level"`
	LogPath      string                   `yaml:"log_path"`
	Timezone     string                   `yaml:"timezone"`
	PullSchedule string                   `yaml:"pull_schedule"`
	Stepper      int                      `yaml:"stepper"`
	OAuth        map[string]OAuthProvider `yaml:"oauth"`
	Blob         Blob                     `yaml:"blob"`
	Lockout      Lockout                  `yaml:"lockout"`

	// File is the config file that was read, if any.
	File string `yaml:"-"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Path:         "~/.studyplan/db",
		Debounce:     3 * time.Second,
		LogLevel:     "info",
		LogPath:      "~/.studyplan/studyplan.log",
		Timezone:     "Local",
		PullSchedule: "*/15 * * * *",
		Stepper:      5,
		OAuth:        map[string]OAuthProvider{},
		Blob:         Blob{Path: "~/.studyplan/files"},
		Lockout: Lockout{
			MaxAttempts: 5,
			Window:      15 * time.Minute,
			Duration:    15 * time.Minute,
		},
	}
}

// BasePath is where device storage lives.
func (c *Config) BasePath() string {
	return c.Path
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Load reads the configuration. file, when set, is used instead of searching
// $STUDYPLAN_CONFIG_PATH, ./ and $HOME for .studyplan.yaml. A .env file in
// the working directory is loaded first; existing variables win.
func Load(file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(FileName) // .yaml is implicit
		if override := os.Getenv(PathEnv); override != "" {
			v.AddConfigPath(override)
		}
		v.AddConfigPath("./")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	cfg := &Config{
		DatabaseURL:  v.GetString("database_url"),
		Debounce:     v.GetDuration("debounce"),
		LogLevel:     v.GetString("log_level"),
		Timezone:     v.GetString("timezone"),
		PullSchedule: v.GetString("pull_schedule"),
		Stepper:      v.GetInt("stepper"),
		OAuth:        map[string]OAuthProvider{},
		Blob:         Blob{BaseURL: v.GetString("blob.base_url")},
		Lockout: Lockout{
			MaxAttempts: v.GetInt("lockout.max_attempts"),
			Window:      v.GetDuration("lockout.window"),
			Duration:    v.GetDuration("lockout.duration"),
		},
		File: v.ConfigFileUsed(),
	}
	for _, provider := range []string{"google", "github"} {
		p := OAuthProvider{
			ClientID:     v.GetString("oauth." + provider + ".client_id"),
			ClientSecret: v.GetString("oauth." + provider + ".client_secret"),
			RedirectURL:  v.GetString("oauth." + provider + ".redirect_url"),
		}
		if p.Configured() {
			cfg.OAuth[provider] = p
		}
	}

	var err error
	if cfg.Path, err = homedir.Expand(v.GetString("path")); err != nil {
		return nil, fmt.Errorf("config: path: %w", err)
	}
	if cfg.LogPath, err = homedir.Expand(v.GetString("log_path")); err != nil {
		return nil, fmt.Errorf("config: log_path: %w", err)
	}
	if cfg.Blob.Path, err = homedir.Expand(v.GetString("blob.path")); err != nil {
		return nil, fmt.Errorf("config: blob.path: %w", err)
	}

	return cfg, cfg.Validate()
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("path", d.Path)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("debounce", d.Debounce.String())
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_path", d.LogPath)
	v.SetDefault("timezone", d.Timezone)
	v.SetDefault("pull_schedule", d.PullSchedule)
	v.SetDefault("stepper", d.Stepper)
	v.SetDefault("blob.path", d.Blob.Path)
	v.SetDefault("blob.base_url", d.Blob.BaseURL)
	v.SetDefault("lockout.max_attempts", d.Lockout.MaxAttempts)
	v.SetDefault("lockout.window", d.Lockout.Window.String())
	v.SetDefault("lockout.duration", d.Lockout.Duration.String())
}

// Validate checks ranges, durations and schedules.
func (c *Config) Validate() error {
	var errs []error
	if c.Path == "" {
		errs = append(errs, errors.New("path must be set"))
	}
	if c.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("debounce must be positive, got %s", c.Debounce))
	}
	if c.Stepper <= 0 {
		errs = append(errs, fmt.Errorf("stepper must be positive, got %d", c.Stepper))
	}
	if c.Lockout.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("lockout.max_attempts must be positive, got %d", c.Lockout.MaxAttempts))
	}
	if c.Lockout.Window <= 0 || c.Lockout.Duration <= 0 {
		errs = append(errs, errors.New("lockout.window and lockout.duration must be positive"))
	}
	if level := strings.ToLower(c.LogLevel); level != "" && logging.ParseLevel(level).String() != level && level != "warning" {
		errs = append(errs, fmt.Errorf("log_level %q is not one of debug, info, warn, error", c.LogLevel))
	}
	if c.PullSchedule != "" {
		if _, err := cron.ParseStandard(c.PullSchedule); err != nil {
			errs = append(errs, fmt.Errorf("pull_schedule: %w", err))
		}
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %w", errors.Join(errs...))
	}
	return nil
}
