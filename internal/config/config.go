package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// Config holds service configuration.
type Config struct {
	Port         string `toml:"port"`
	Env          string `toml:"env"`
	TemplatesDir string `toml:"templates_dir"`

	AI      AIConfig      `toml:"ai"`
	Browser BrowserConfig `toml:"browser"`

	GenerationsDatabaseURL string `toml:"generations_database_url"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// AIConfig configures the external content enhancer. Durations are only
// read from the environment.
type AIConfig struct {
	Enabled        bool          `toml:"enabled"`
	APIKey         string        `toml:"api_key"`
	Model          string        `toml:"model"`
	Endpoint       string        `toml:"endpoint"`
	Attempts       int           `toml:"attempts"`
	AttemptTimeout time.Duration `toml:"-"`
	BaseDelay      time.Duration `toml:"-"`
	MaxDelay       time.Duration `toml:"-"`
}

// BrowserConfig configures executable discovery and rendering windows.
type BrowserConfig struct {
	// ExecPath is an explicit executable override; it wins over discovery.
	ExecPath      string        `toml:"exec_path"`
	KnownPaths    []string      `toml:"known_paths"`
	CacheDir      string        `toml:"cache_dir"`
	LaunchTimeout time.Duration `toml:"-"`
	IdleTimeout   time.Duration `toml:"-"`
}

// DefaultKnownBrowserPaths are the well-known installation locations probed
// in order when no explicit executable is configured.
var DefaultKnownBrowserPaths = []string{
	"/usr/bin/google-chrome-stable",
	"/usr/bin/google-chrome",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
}

// DefaultBrowserCacheDir is where puppeteer's installer puts managed
// browsers for the current user, or "" when there is no home directory.
func DefaultBrowserCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".cache", "puppeteer")
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:         "3000",
		Env:          "dev",
		TemplatesDir: "templates",
		AI: AIConfig{
			Enabled:        true,
			Model:          "gemini-2.5-flash",
			Endpoint:       "https://generativelanguage.googleapis.com/",
			Attempts:       2,
			AttemptTimeout: 20 * time.Second,
			BaseDelay:      time.Second,
			MaxDelay:       16 * time.Second,
		},
		Browser: BrowserConfig{
			KnownPaths:    append([]string(nil), DefaultKnownBrowserPaths...),
			CacheDir:      DefaultBrowserCacheDir(),
			LaunchTimeout: 30 * time.Second,
			IdleTimeout:   60 * time.Second,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Load reads configuration from, in increasing precedence: built-in defaults,
// the TOML file named by RESUME_CONFIG_FILE, .env files and the environment.
func Load() (Config, error) {
	// Best-effort; godotenv never overrides variables already set.
	_ = godotenv.Load(".env")

	cfg := Default()
	if path := os.Getenv("RESUME_CONFIG_FILE"); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.Env = normalizeEnv(cfg.Env)
	return cfg, nil
}

// IsProduction reports whether diagnostic details must be withheld from
// callers.
func (c Config) IsProduction() bool { return c.Env == "production" }

func loadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Port, "PORT")
	setString(&cfg.Env, "ENV")
	setString(&cfg.TemplatesDir, "TEMPLATES_DIR")
	setString(&cfg.GenerationsDatabaseURL, "GENERATIONS_DATABASE_URL")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.LogFormat, "LOG_FORMAT")

	setString(&cfg.AI.APIKey, "GEMINI_API_KEY")
	setString(&cfg.AI.Model, "GEMINI_MODEL")
	setString(&cfg.AI.Endpoint, "GEMINI_ENDPOINT")

	// PUPPETEER_EXECUTABLE_PATH is honoured for deployments migrated from the
	// node service; CHROME_PATH wins when both are set.
	setString(&cfg.Browser.ExecPath, "PUPPETEER_EXECUTABLE_PATH")
	setString(&cfg.Browser.ExecPath, "CHROME_PATH")
	setString(&cfg.Browser.CacheDir, "PUPPETEER_CACHE_DIR")
	setString(&cfg.Browser.CacheDir, "BROWSER_CACHE_DIR")

	if err := setBool(&cfg.AI.Enabled, "AI_ENABLED"); err != nil {
		return err
	}
	if err := setInt(&cfg.AI.Attempts, "AI_ATTEMPTS"); err != nil {
		return err
	}
	for key, dst := range map[string]*time.Duration{
		"AI_ATTEMPT_TIMEOUT":     &cfg.AI.AttemptTimeout,
		"AI_BASE_DELAY":          &cfg.AI.BaseDelay,
		"AI_MAX_DELAY":           &cfg.AI.MaxDelay,
		"BROWSER_LAUNCH_TIMEOUT": &cfg.Browser.LaunchTimeout,
		"RENDER_IDLE_TIMEOUT":    &cfg.Browser.IdleTimeout,
	} {
		if err := setDuration(dst, key); err != nil {
			return err
		}
	}
	if cfg.AI.Attempts < 1 {
		slog.Warn("AI_ATTEMPTS below 1, using 1", "value", cfg.AI.Attempts)
		cfg.AI.Attempts = 1
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = b
	return nil
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	default:
		return "dev"
	}
}
