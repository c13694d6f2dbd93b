package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Weibo.FetchTimeout != 8*time.Second {
		t.Errorf("Expected default fetch timeout to be 8s, got %v", config.Weibo.FetchTimeout)
	}

	if config.Feed.ScanInterval != 5*time.Second {
		t.Errorf("Expected default scan interval to be 5s, got %v", config.Feed.ScanInterval)
	}

	if config.Feed.AttachPolicy != AttachStrict {
		t.Errorf("Expected default attach policy to be strict, got %s", config.Feed.AttachPolicy)
	}

	if config.Download.MaxAttempts != 0 {
		t.Errorf("Expected unlimited download attempts by default, got %d", config.Download.MaxAttempts)
	}

	if config.Output.BaseDirectory != "./downloads" {
		t.Errorf("Expected default output directory to be ./downloads, got %s", config.Output.BaseDirectory)
	}

	require.NoError(t, config.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("WEIBODL_COOKIE", "SUB=abc")
	t.Setenv("WEIBODL_OUTPUT_DIR", "/tmp/test-downloads")
	t.Setenv("WEIBODL_ATTACH_POLICY", "ALWAYS")
	t.Setenv("WEIBODL_SCAN_INTERVAL", "2s")
	t.Setenv("WEIBODL_REQUESTS_PER_MINUTE", "30")
	t.Setenv("WEIBODL_MAX_ATTEMPTS", "4")
	t.Setenv("WEIBODL_NOTIFICATIONS_ENABLED", "true")
	t.Setenv("WEIBODL_LOG_LEVEL", "debug")

	config := DefaultConfig()
	require.NoError(t, config.LoadFromEnv())

	assert.Equal(t, "SUB=abc", config.Weibo.Cookie)
	assert.Equal(t, "/tmp/test-downloads", config.Output.BaseDirectory)
	assert.Equal(t, AttachAlways, config.Feed.AttachPolicy)
	assert.Equal(t, 2*time.Second, config.Feed.ScanInterval)
	assert.Equal(t, 30, config.RateLimit.RequestsPerMinute)
	assert.Equal(t, 4, config.Download.MaxAttempts)
	assert.True(t, config.Notifications.Enabled)
	assert.Equal(t, "debug", config.Logging.Level)
}

func TestLoadFromEnvRejectsBadNumbers(t *testing.T) {
	t.Setenv("WEIBODL_REQUESTS_PER_MINUTE", "lots")

	config := DefaultConfig()
	assert.Error(t, config.LoadFromEnv())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantError bool
	}{
		{
			name:      "defaults",
			mutate:    func(c *Config) {},
			wantError: false,
		},
		{
			name:      "unknown attach policy",
			mutate:    func(c *Config) { c.Feed.AttachPolicy = "sometimes" },
			wantError: true,
		},
		{
			name:      "always policy",
			mutate:    func(c *Config) { c.Feed.AttachPolicy = AttachAlways },
			wantError: false,
		},
		{
			name:      "negative max attempts",
			mutate:    func(c *Config) { c.Download.MaxAttempts = -1 },
			wantError: true,
		},
		{
			name:      "zero scan interval",
			mutate:    func(c *Config) { c.Feed.ScanInterval = 0 },
			wantError: true,
		},
		{
			name:      "bad timezone",
			mutate:    func(c *Config) { c.Output.Timezone = "Mars/Olympus_Mons" },
			wantError: true,
		},
		{
			name: "nothing to download",
			mutate: func(c *Config) {
				c.Download.SkipImages = true
				c.Download.SkipVideos = true
			},
			wantError: true,
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Logging.Level = "invalid" },
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	flags := map[string]interface{}{
		"output":        "/flag/output",
		"attach-policy": "always",
		"interval":      10 * time.Second,
		"auto":          true,
		"concurrent":    2,
		"max-attempts":  5,
		"log-level":     "error",
	}

	config.MergeCommandLineFlags(flags)

	assert.Equal(t, "/flag/output", config.Output.BaseDirectory)
	assert.Equal(t, AttachAlways, config.Feed.AttachPolicy)
	assert.Equal(t, 10*time.Second, config.Feed.ScanInterval)
	assert.True(t, config.Feed.AutoActivate)
	assert.Equal(t, 2, config.Download.ConcurrentDownloads)
	assert.Equal(t, 5, config.Download.MaxAttempts)
	assert.Equal(t, "error", config.Logging.Level)
}

func TestSaveAndLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nested", "weibodl.yaml")

	config := DefaultConfig()
	config.Weibo.Account = "main"
	config.Feed.ExcludedBadges = []string{"li_birthday"}
	config.Download.MaxAttempts = 9

	require.NoError(t, config.Save(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(configPath))

	assert.Equal(t, "main", loaded.Weibo.Account)
	assert.Equal(t, []string{"li_birthday"}, loaded.Feed.ExcludedBadges)
	assert.Equal(t, 9, loaded.Download.MaxAttempts)
	assert.Equal(t, 8*time.Second, loaded.Weibo.FetchTimeout)
}

func TestLoadFromFileWithYAMLDurations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
feed:
  scan_interval: 3s
  attach_policy: always
weibo:
  fetch_timeout: 2s
output:
  timezone: UTC
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	config := DefaultConfig()
	require.NoError(t, config.LoadFromFile(path))

	assert.Equal(t, 3*time.Second, config.Feed.ScanInterval)
	assert.Equal(t, AttachAlways, config.Feed.AttachPolicy)
	assert.Equal(t, 2*time.Second, config.Weibo.FetchTimeout)

	loc, err := config.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}
