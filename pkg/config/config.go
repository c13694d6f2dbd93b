package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Attach policies for the feed scanner
const (
	AttachStrict = "strict"
	AttachAlways = "always"
)

// Config holds all configuration options for weibodl
type Config struct {
	// Weibo API and session settings
	Weibo WeiboConfig `yaml:"weibo" json:"weibo"`

	// Feed scanning configuration
	Feed FeedConfig `yaml:"feed" json:"feed"`

	// Download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Notification preferences
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Metrics endpoint
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// WeiboConfig holds Weibo-specific configuration
type WeiboConfig struct {
	APIBase      string        `yaml:"api_base" json:"api_base"`
	Referer      string        `yaml:"referer" json:"referer"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent"`
	Cookie       string        `yaml:"cookie" json:"cookie"`
	Account      string        `yaml:"account" json:"account"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
}

// FeedConfig controls how feed pages are scanned for posts
type FeedConfig struct {
	AnchorSelector string        `yaml:"anchor_selector" json:"anchor_selector"`
	ScanInterval   time.Duration `yaml:"scan_interval" json:"scan_interval"`
	AttachPolicy   string        `yaml:"attach_policy" json:"attach_policy"`
	ExcludedBadges []string      `yaml:"excluded_badges" json:"excluded_badges"`
	ControlLabel   string        `yaml:"control_label" json:"control_label"`
	AutoActivate   bool          `yaml:"auto_activate" json:"auto_activate"`
}

// DownloadConfig holds download-specific configuration
type DownloadConfig struct {
	// ConcurrentDownloads bounds parallel saves per activation (0 means unbounded)
	ConcurrentDownloads int `yaml:"concurrent_downloads" json:"concurrent_downloads"`
	// Timeout applies to a single save attempt
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
	// MaxAttempts bounds retries of timed out saves (0 means unlimited)
	MaxAttempts int `yaml:"max_attempts" json:"max_attempts"`
	// RetryDelay is the pause before re-issuing a timed out save
	RetryDelay time.Duration `yaml:"retry_delay" json:"retry_delay"`
	SkipVideos bool          `yaml:"skip_videos" json:"skip_videos"`
	SkipImages bool          `yaml:"skip_images" json:"skip_images"`
}

// OutputConfig holds output directory configuration
type OutputConfig struct {
	BaseDirectory     string `yaml:"base_directory" json:"base_directory"`
	Timezone          string `yaml:"timezone" json:"timezone"`
	OverwriteExisting bool   `yaml:"overwrite_existing" json:"overwrite_existing"`
	SaveMetadata      bool   `yaml:"save_metadata" json:"save_metadata"`
}

// RateLimitConfig holds rate limiting configuration for metadata fetches
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
}

// NotificationConfig holds notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	ListenAddress string `yaml:"listen_address" json:"listen_address"`
	Path          string `yaml:"path" json:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Weibo: WeiboConfig{
			APIBase:      "https://weibo.com/ajax",
			Referer:      "https://weibo.com/",
			UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
			FetchTimeout: 8 * time.Second,
		},
		Feed: FeedConfig{
			AnchorSelector: `.WB_from > a[node-type="feed_list_item_date"]`,
			ScanInterval:   5 * time.Second,
			AttachPolicy:   AttachStrict,
			ExcludedBadges: []string{"li_birthday", "li_oly"},
			ControlLabel:   "下载",
			AutoActivate:   false,
		},
		Download: DownloadConfig{
			ConcurrentDownloads: 0,
			Timeout:             5 * time.Minute,
			MaxAttempts:         0,
			RetryDelay:          0,
		},
		Output: OutputConfig{
			BaseDirectory:     "./downloads",
			Timezone:          "Local",
			OverwriteExisting: true,
			SaveMetadata:      false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
		},
		Notifications: NotificationConfig{
			Enabled:    false,
			OnComplete: true,
			OnError:    true,
		},
		Metrics: MetricsConfig{
			ListenAddress: "",
			Path:          "/metrics",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if cookie := os.Getenv("WEIBODL_COOKIE"); cookie != "" {
		c.Weibo.Cookie = cookie
	}
	if userAgent := os.Getenv("WEIBODL_USER_AGENT"); userAgent != "" {
		c.Weibo.UserAgent = userAgent
	}
	if account := os.Getenv("WEIBODL_ACCOUNT"); account != "" {
		c.Weibo.Account = account
	}

	if outputDir := os.Getenv("WEIBODL_OUTPUT_DIR"); outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if tz := os.Getenv("WEIBODL_TIMEZONE"); tz != "" {
		c.Output.Timezone = tz
	}

	if policy := os.Getenv("WEIBODL_ATTACH_POLICY"); policy != "" {
		c.Feed.AttachPolicy = strings.ToLower(policy)
	}
	if interval := os.Getenv("WEIBODL_SCAN_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return fmt.Errorf("invalid WEIBODL_SCAN_INTERVAL: %w", err)
		}
		c.Feed.ScanInterval = d
	}

	if rpm := os.Getenv("WEIBODL_REQUESTS_PER_MINUTE"); rpm != "" {
		val, err := strconv.Atoi(rpm)
		if err != nil {
			return fmt.Errorf("invalid WEIBODL_REQUESTS_PER_MINUTE: %w", err)
		}
		c.RateLimit.RequestsPerMinute = val
	}

	if attempts := os.Getenv("WEIBODL_MAX_ATTEMPTS"); attempts != "" {
		val, err := strconv.Atoi(attempts)
		if err != nil {
			return fmt.Errorf("invalid WEIBODL_MAX_ATTEMPTS: %w", err)
		}
		c.Download.MaxAttempts = val
	}

	if notifEnabled := os.Getenv("WEIBODL_NOTIFICATIONS_ENABLED"); notifEnabled != "" {
		c.Notifications.Enabled = strings.ToLower(notifEnabled) == "true"
	}

	if addr := os.Getenv("WEIBODL_METRICS_ADDR"); addr != "" {
		c.Metrics.ListenAddress = addr
	}

	if logLevel := os.Getenv("WEIBODL_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".weibodl.yaml",
		".weibodl.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "weibodl", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "weibodl", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".weibodl.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Location resolves the configured output timezone
func (c *Config) Location() (*time.Location, error) {
	switch c.Output.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	case "UTC", "utc":
		return time.UTC, nil
	}
	return time.LoadLocation(c.Output.Timezone)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Weibo.APIBase == "" {
		errs = append(errs, errors.New("weibo api base is required"))
	}
	if c.Weibo.FetchTimeout <= 0 {
		errs = append(errs, errors.New("fetch timeout must be positive"))
	}

	if c.Feed.AnchorSelector == "" {
		errs = append(errs, errors.New("feed anchor selector is required"))
	}
	if c.Feed.ScanInterval <= 0 {
		errs = append(errs, errors.New("scan interval must be positive"))
	}
	switch strings.ToLower(c.Feed.AttachPolicy) {
	case AttachStrict, AttachAlways:
	default:
		errs = append(errs, fmt.Errorf("invalid attach policy %q", c.Feed.AttachPolicy))
	}

	if c.Download.ConcurrentDownloads < 0 {
		errs = append(errs, errors.New("concurrent downloads cannot be negative"))
	}
	if c.Download.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}
	if c.Download.Timeout < 0 {
		errs = append(errs, errors.New("download timeout cannot be negative"))
	}
	if c.Download.RetryDelay < 0 {
		errs = append(errs, errors.New("retry delay cannot be negative"))
	}
	if c.Download.SkipImages && c.Download.SkipVideos {
		errs = append(errs, errors.New("skipping both images and videos leaves nothing to download"))
	}

	if c.Output.BaseDirectory == "" {
		errs = append(errs, errors.New("output directory is required"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Errorf("invalid timezone: %w", err))
	}

	if c.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if outputDir, ok := flags["output"].(string); ok && outputDir != "" {
		c.Output.BaseDirectory = outputDir
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Weibo.Account = account
	}
	if policy, ok := flags["attach-policy"].(string); ok && policy != "" {
		c.Feed.AttachPolicy = strings.ToLower(policy)
	}
	if interval, ok := flags["interval"].(time.Duration); ok && interval > 0 {
		c.Feed.ScanInterval = interval
	}
	if auto, ok := flags["auto"].(bool); ok {
		c.Feed.AutoActivate = auto
	}
	if concurrent, ok := flags["concurrent"].(int); ok && concurrent >= 0 {
		c.Download.ConcurrentDownloads = concurrent
	}
	if attempts, ok := flags["max-attempts"].(int); ok && attempts >= 0 {
		c.Download.MaxAttempts = attempts
	}
	if saveMeta, ok := flags["save-metadata"].(bool); ok {
		c.Output.SaveMetadata = saveMeta
	}
	if addr, ok := flags["metrics-addr"].(string); ok && addr != "" {
		c.Metrics.ListenAddress = addr
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".weibodl.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
