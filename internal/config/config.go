package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	DefaultPollInterval     = time.Second
	DefaultBatchWindow      = 50 * time.Millisecond
	DefaultOrchBinary       = "orch"
	DefaultListenAddr       = "127.0.0.1:7421"
	DefaultSubscriberBuffer = 64
)

// Config holds everything the dashboard needs to locate session records,
// watch them and talk to the orch CLI.
type Config struct {
	SessionsDir      string        `yaml:"sessions_dir"`
	PollInterval     time.Duration `yaml:"poll_interval"`
	BatchWindow      time.Duration `yaml:"batch_window"`
	ForcePoll        bool          `yaml:"poll"`
	OrchBinary       string        `yaml:"orch_binary"`
	ListenAddr       string        `yaml:"listen"`
	DistinguishAdds  bool          `yaml:"distinguish_adds"`
	SubscriberBuffer int           `yaml:"subscriber_buffer"`
}

// Default returns the built-in configuration rooted at the user's home.
func Default() *Config {
	return &Config{
		SessionsDir:      DefaultSessionsDir(),
		PollInterval:     DefaultPollInterval,
		BatchWindow:      DefaultBatchWindow,
		OrchBinary:       DefaultOrchBinary,
		ListenAddr:       DefaultListenAddr,
		SubscriberBuffer: DefaultSubscriberBuffer,
	}
}

// DefaultSessionsDir is ~/.orchestration/ppds-orchestration/sessions
func DefaultSessionsDir() string {
	return filepath.Join(orchestrationDir(), "ppds-orchestration", "sessions")
}

// DefaultConfigPath is ~/.orchestration/orchdash.yaml
func DefaultConfigPath() string {
	return filepath.Join(orchestrationDir(), "orchdash.yaml")
}

func orchestrationDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.Getenv("HOME")
		if homeDir == "" {
			homeDir = "."
		}
	}
	return filepath.Join(homeDir, ".orchestration")
}

// Load builds a Config from defaults, the YAML file at path (if it exists)
// and ORCHDASH_* environment variables, in that order of precedence.
// An empty path means DefaultConfigPath.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultConfigPath()
	}
	if err := cfg.mergeFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.Normalize()

	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if dir := os.Getenv("ORCHDASH_SESSIONS_DIR"); dir != "" {
		c.SessionsDir = dir
	}
	if d, ok := envMillis("ORCHDASH_POLL_MS"); ok {
		c.PollInterval = d
	}
	if d, ok := envMillis("ORCHDASH_BATCH_MS"); ok {
		c.BatchWindow = d
	}
	if v, ok := envBool("ORCHDASH_FORCE_POLL"); ok {
		c.ForcePoll = v
	}
	if v, ok := envBool("ORCHDASH_DISTINGUISH_ADDS"); ok {
		c.DistinguishAdds = v
	}
	if bin := os.Getenv("ORCHDASH_ORCH_BIN"); bin != "" {
		c.OrchBinary = bin
	}
	if addr := os.Getenv("ORCHDASH_LISTEN"); addr != "" {
		c.ListenAddr = addr
	}
}

// Normalize fills in anything the file, environment or flags zeroed out
// and expands a leading ~ in SessionsDir.
func (c *Config) Normalize() {
	if c.SessionsDir == "" {
		c.SessionsDir = DefaultSessionsDir()
	}
	c.SessionsDir = expandHome(c.SessionsDir)
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.BatchWindow < 0 {
		c.BatchWindow = DefaultBatchWindow
	}
	if c.OrchBinary == "" {
		c.OrchBinary = DefaultOrchBinary
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.SubscriberBuffer <= 0 {
		c.SubscriberBuffer = DefaultSubscriberBuffer
	}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func envMillis(key string) (time.Duration, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, false
	}
	ms, err := strconv.Atoi(raw)
	if err != nil || ms < 0 {
		return 0, false
	}
	return time.Duration(ms) * time.Millisecond, true
}

func envBool(key string) (bool, bool) {
	raw := os.Getenv(key)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

// EnsureDir creates a directory if it doesn't exist
func EnsureDir(path string) error {
	if path == "" {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
