// File: internal/config/config.go
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type BotConfig struct {
	Token string `yaml:"token"`
	Mode  string `yaml:"mode"` // webhook | polling
	Port  int    `yaml:"port"`
	// PublicURL is the externally reachable base URL of this deployment.
	// On Render it is derived from RENDER_APP_NAME automatically.
	PublicURL     string  `yaml:"public_url"`
	WebhookSecret string  `yaml:"webhook_secret"`
	Workers       int     `yaml:"workers"`    // update processor goroutines
	QueueSize     int     `yaml:"queue_size"` // buffered updates before 503
	AdminIDs      []int64 `yaml:"admin_ids"`
}

// WebhookURL returns the full public webhook endpoint, or "" when no public
// URL can be derived.
func (b BotConfig) WebhookURL() string {
	if b.PublicURL == "" {
		return ""
	}
	u := strings.TrimSuffix(b.PublicURL, "/")
	if strings.HasSuffix(u, "/webhook") {
		return u
	}
	return u + "/webhook"
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	StateTTL time.Duration `yaml:"state_ttl"` // dialog state lifetime
}

type PortalConfig struct {
	BaseURL  string `yaml:"base_url"`
	Login    string `yaml:"login"`
	Password string `yaml:"password"`
}

type ScheduleConfig struct {
	Source          string        `yaml:"source"` // auto | static | portal
	StaticJSON      string        `yaml:"static_json"`
	StaticFile      string        `yaml:"static_file"`
	Portal          PortalConfig  `yaml:"portal"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RefreshInterval time.Duration `yaml:"refresh_interval"` // negative disables the warm loop
	ParityAnchor    string        `yaml:"parity_anchor"`    // YYYY-MM-DD, a Monday starting an even week
}

type AdminConfig struct {
	Key        string        `yaml:"key"`
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type SecurityConfig struct {
	EncryptionKey string `yaml:"encryption_key"`
}

type Config struct {
	Bot      BotConfig      `yaml:"bot"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Admin    AdminConfig    `yaml:"admin"`
	Security SecurityConfig `yaml:"security"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig parses command-line flags and loads the configuration for the
// service entrypoint.
func LoadConfig() (*Config, error) {
	var configPath string
	var dev bool
	flag.StringVar(&configPath, "config", "config.yaml", "path to config yaml")
	flag.BoolVar(&dev, "dev", false, "development mode")
	flag.Parse()

	cfg, err := Load(configPath)
	if err != nil {
		return nil, err
	}
	cfg.Runtime.Dev = dev
	return cfg, nil
}

// Load reads the YAML file at path, overlays environment variables, fills in
// defaults and validates the result. A missing file is not an error: Render
// deployments are configured through the environment alone.
func Load(path string) (*Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err):
		// env-only deployment
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Bot.Token = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Bot.Port = p
		}
	}
	if v := os.Getenv("RENDER_APP_NAME"); v != "" {
		c.Bot.PublicURL = "https://" + v + ".onrender.com"
	} else if v := os.Getenv("RENDER_SERVICE_NAME"); v != "" {
		c.Bot.PublicURL = "https://" + v + ".onrender.com"
	} else if v := os.Getenv("WEBHOOK_URL"); v != "" {
		c.Bot.PublicURL = v
	}
	if v := os.Getenv("WEBHOOK_SECRET"); v != "" {
		c.Bot.WebhookSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		c.Redis.URL = v
	}
	if v := os.Getenv("SCHEDULE_JSON"); v != "" {
		c.Schedule.StaticJSON = v
	}
	if v := os.Getenv("ITMO_LOGIN"); v != "" {
		c.Schedule.Portal.Login = v
	}
	if v := os.Getenv("ITMO_PASSWORD"); v != "" {
		c.Schedule.Portal.Password = v
	}
	if v := os.Getenv("ADMIN_KEY"); v != "" {
		c.Admin.Key = v
	}
	if v := os.Getenv("SESSION_ENCRYPTION_KEY"); v != "" {
		c.Security.EncryptionKey = v
	}
}

func (c *Config) setDefaults() {
	if c.Bot.Mode == "" {
		c.Bot.Mode = "webhook"
	}
	if c.Bot.Port <= 0 {
		c.Bot.Port = 10000
	}
	if c.Bot.Workers <= 0 {
		c.Bot.Workers = 2
	}
	if c.Bot.QueueSize <= 0 {
		c.Bot.QueueSize = 128
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Redis.StateTTL <= 0 {
		c.Redis.StateTTL = 15 * time.Minute
	}
	if c.Schedule.Source == "" {
		c.Schedule.Source = "auto"
	}
	if c.Schedule.CacheTTL <= 0 {
		c.Schedule.CacheTTL = 30 * time.Minute
	}
	if c.Schedule.RefreshInterval == 0 {
		c.Schedule.RefreshInterval = 15 * time.Minute
	}
	if c.Schedule.Portal.BaseURL == "" {
		c.Schedule.Portal.BaseURL = "https://my.itmo.ru"
	}
	if c.Schedule.ParityAnchor == "" {
		c.Schedule.ParityAnchor = "2025-10-06"
	}
	if c.Admin.SessionTTL <= 0 {
		c.Admin.SessionTTL = 24 * time.Hour
	}
	if c.Admin.JWTSecret == "" {
		c.Admin.JWTSecret = c.Admin.Key
	}
}

func (c *Config) validate() error {
	if c.Bot.Token == "" {
		return errors.New("bot.token is required (TELEGRAM_BOT_TOKEN)")
	}
	switch c.Bot.Mode {
	case "webhook":
		if c.Bot.WebhookURL() == "" {
			return errors.New("webhook mode needs a public URL: set RENDER_APP_NAME, WEBHOOK_URL or bot.public_url")
		}
	case "polling":
	default:
		return fmt.Errorf("bot.mode must be webhook or polling, got %q", c.Bot.Mode)
	}
	switch c.Schedule.Source {
	case "auto":
	case "static":
		if c.Schedule.StaticJSON == "" && c.Schedule.StaticFile == "" {
			return errors.New("static schedule source needs SCHEDULE_JSON or schedule.static_file")
		}
	case "portal":
		if c.Schedule.Portal.Login == "" || c.Schedule.Portal.Password == "" {
			return errors.New("portal schedule source needs ITMO_LOGIN and ITMO_PASSWORD")
		}
	default:
		return fmt.Errorf("schedule.source must be auto, static or portal, got %q", c.Schedule.Source)
	}
	if _, err := c.ParityAnchorDate(); err != nil {
		return err
	}
	return nil
}

// ParityAnchorDate parses the configured even-week anchor Monday.
func (c *Config) ParityAnchorDate() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.Schedule.ParityAnchor)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule.parity_anchor must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}
