// Package config resolves credentials and settings for a sync run.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/naka-gawa/github-stats-sync/internal/domain"
	"github.com/naka-gawa/github-stats-sync/internal/gateway"
	"github.com/naka-gawa/github-stats-sync/internal/usecase"
)

// Sentinel validation errors.
var (
	ErrMissingToken     = errors.New("GITHUB_TOKEN environment variable is not set")
	ErrMissingUsername  = errors.New("github username must not be empty")
	ErrInvalidPinned    = errors.New("pinned repository should be in format owner/name")
	ErrInvalidLimit     = errors.New("limit must be positive")
	ErrInvalidPause     = errors.New("pause must not be negative")
	ErrInvalidOutput    = errors.New("output path must not be empty")
	ErrInvalidLogFormat = errors.New("log format must be text or json")
)

// Default configuration values.
const (
	DefaultUsername   = "SwordFaith"
	DefaultUserAgent  = "LLM-Engineer-Blog-Daily-Sync"
	DefaultOutputPath = "src/data/github-stats.json"

	defaultConfigName = "github-stats-sync"
)

// dotenvPath is the optional .env file read before the environment.
var dotenvPath = ".env"

// Config holds all configuration for a sync run.
type Config struct {
	GitHub  GitHubConfig  `mapstructure:"github"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Output  OutputConfig  `mapstructure:"output"`
	Logging LoggingConfig `mapstructure:"logging"`

	pinned []domain.PinnedTarget
}

// GitHubConfig holds API access settings.
type GitHubConfig struct {
	Username  string        `mapstructure:"username"`
	Token     string        `mapstructure:"token"`
	BaseURL   string        `mapstructure:"base_url"`
	UserAgent string        `mapstructure:"user_agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// SyncConfig holds pipeline limits and pauses.
type SyncConfig struct {
	PageSize           int           `mapstructure:"page_size"`
	MaxRepositories    int           `mapstructure:"max_repositories"`
	LanguageSampleSize int           `mapstructure:"language_sample_size"`
	TopRepositories    int           `mapstructure:"top_repositories"`
	SiteSuffix         string        `mapstructure:"site_suffix"`
	PagePause          time.Duration `mapstructure:"page_pause"`
	LanguagePause      time.Duration `mapstructure:"language_pause"`
	PinnedPause        time.Duration `mapstructure:"pinned_pause"`
	Pinned             []string      `mapstructure:"pinned"`
	Contributions      bool          `mapstructure:"contributions"`
}

// CacheConfig controls the in-memory response cache. A zero TTL disables it.
// Entries only pay off when one gateway serves repeated calls.
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// OutputConfig holds the snapshot destination.
type OutputConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load builds the configuration from defaults, an optional config file, a .env
// file, the environment and flags, in increasing order of precedence.
// A missing token fails before any client is constructed.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	// Values already present in the environment win over the .env file.
	_ = godotenv.Load(dotenvPath)

	viperCfg := viper.New()
	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(defaultConfigName)
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
	}

	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	_ = viperCfg.BindEnv("github.username", "GITHUB_USERNAME")
	_ = viperCfg.BindEnv("github.token", "GITHUB_TOKEN")
	_ = viperCfg.BindEnv("github.base_url", "GITHUB_API_URL")

	if err := bindFlags(viperCfg, flags); err != nil {
		return nil, err
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config
	if err := viperCfg.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.GitHub.Token == "" {
		return nil, ErrMissingToken
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// GitHub defaults.
	viperCfg.SetDefault("github.username", DefaultUsername)
	viperCfg.SetDefault("github.base_url", "")
	viperCfg.SetDefault("github.user_agent", DefaultUserAgent)
	viperCfg.SetDefault("github.timeout", "30s")

	// Sync defaults.
	viperCfg.SetDefault("sync.page_size", usecase.DefaultPageSize)
	viperCfg.SetDefault("sync.max_repositories", usecase.DefaultMaxRepositories)
	viperCfg.SetDefault("sync.language_sample_size", usecase.DefaultLanguageSampleSize)
	viperCfg.SetDefault("sync.top_repositories", usecase.DefaultTopRepositories)
	viperCfg.SetDefault("sync.site_suffix", usecase.DefaultSiteSuffix)
	viperCfg.SetDefault("sync.page_pause", usecase.DefaultPagePause)
	viperCfg.SetDefault("sync.language_pause", usecase.DefaultLanguagePause)
	viperCfg.SetDefault("sync.pinned_pause", usecase.DefaultPinnedPause)
	viperCfg.SetDefault("sync.pinned", []string{"OpenBMB/MiniCPM", "volcengine/verl"})
	viperCfg.SetDefault("sync.contributions", false)

	viperCfg.SetDefault("cache.ttl", "0s")
	viperCfg.SetDefault("output.path", DefaultOutputPath)

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")
}

// bindFlags maps command-line flags onto configuration keys.
func bindFlags(viperCfg *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	bindings := map[string]string{
		"username": "github.username",
		"output":   "output.path",
	}
	for name, key := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := viperCfg.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag %q: %w", name, err)
		}
	}
	return nil
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if strings.TrimSpace(config.GitHub.Username) == "" {
		return ErrMissingUsername
	}

	limits := map[string]int{
		"sync.page_size":            config.Sync.PageSize,
		"sync.max_repositories":     config.Sync.MaxRepositories,
		"sync.language_sample_size": config.Sync.LanguageSampleSize,
		"sync.top_repositories":     config.Sync.TopRepositories,
	}
	for key, value := range limits {
		if value <= 0 {
			return fmt.Errorf("%w: %s=%d", ErrInvalidLimit, key, value)
		}
	}

	pauses := map[string]time.Duration{
		"sync.page_pause":     config.Sync.PagePause,
		"sync.language_pause": config.Sync.LanguagePause,
		"sync.pinned_pause":   config.Sync.PinnedPause,
		"cache.ttl":           config.Cache.TTL,
	}
	for key, value := range pauses {
		if value < 0 {
			return fmt.Errorf("%w: %s=%s", ErrInvalidPause, key, value)
		}
	}

	if config.Output.Path == "" {
		return ErrInvalidOutput
	}

	switch strings.ToLower(config.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, config.Logging.Format)
	}

	pinned := make([]domain.PinnedTarget, 0, len(config.Sync.Pinned))
	for _, entry := range config.Sync.Pinned {
		target, err := ParsePinned(entry)
		if err != nil {
			return err
		}
		pinned = append(pinned, target)
	}
	config.pinned = pinned

	return nil
}

// ParsePinned takes a string in the format owner/name and returns the target.
func ParsePinned(repo string) (domain.PinnedTarget, error) {
	parts := strings.Split(strings.TrimSpace(repo), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return domain.PinnedTarget{}, fmt.Errorf("%w: %q", ErrInvalidPinned, repo)
	}
	return domain.PinnedTarget{Owner: parts[0], Name: parts[1]}, nil
}

// GatewayOptions returns the options for the GitHub gateway.
func (c *Config) GatewayOptions() gateway.Options {
	return gateway.Options{
		Token:     c.GitHub.Token,
		BaseURL:   c.GitHub.BaseURL,
		UserAgent: c.GitHub.UserAgent,
		Timeout:   c.GitHub.Timeout,
	}
}

// Settings returns the pipeline settings. Clock, jitter and sleeper are left
// to the syncer's defaults.
func (c *Config) Settings() usecase.Settings {
	settings := usecase.DefaultSettings(c.GitHub.Username)
	settings.PageSize = c.Sync.PageSize
	settings.MaxRepositories = c.Sync.MaxRepositories
	settings.LanguageSampleSize = c.Sync.LanguageSampleSize
	settings.TopRepositories = c.Sync.TopRepositories
	settings.SiteSuffix = c.Sync.SiteSuffix
	settings.PagePause = c.Sync.PagePause
	settings.LanguagePause = c.Sync.LanguagePause
	settings.PinnedPause = c.Sync.PinnedPause
	settings.Pinned = c.pinned
	settings.Contributions = c.Sync.Contributions
	return settings
}
