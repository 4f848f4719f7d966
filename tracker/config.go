package tracker

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config configures the tracker service. Loaded from YAML with environment
// overrides for secrets.
type Config struct {
	DBPath     string `yaml:"db_path"`
	ListenAddr string `yaml:"listen_addr"`
	LogLevel   string `yaml:"log_level"`

	Fetch   FetchSettings   `yaml:"fetch"`
	Browser BrowserSettings `yaml:"browser"`
	Extract ExtractSettings `yaml:"extract"`
	SMTP    SMTPSettings    `yaml:"smtp"`

	// SchedulerPollSeconds is how often the scheduler checks whether a
	// run is due.
	SchedulerPollSeconds int `yaml:"scheduler_poll_seconds"`
}

// FetchSettings tunes the plain HTTP strategy.
type FetchSettings struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MaxBytes       int64  `yaml:"max_bytes"`
	UserAgent      string `yaml:"user_agent"`
}

// BrowserSettings tunes the headless-browser strategy.
type BrowserSettings struct {
	Enabled   bool   `yaml:"enabled"`
	RemoteURL string `yaml:"remote_url"` // external Chrome; empty = launch local
}

// ExtractSettings configures the AI structuring service.
type ExtractSettings struct {
	APIKey            string `yaml:"api_key"`
	Model             string `yaml:"model"`
	MaxContentBytes   int    `yaml:"max_content_bytes"`
	RequestsPerMinute int    `yaml:"requests_per_minute"`
}

// SMTPSettings configures outbound notification mail.
type SMTPSettings struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Sender    string `yaml:"sender"`
	Password  string `yaml:"password"`
	Recipient string `yaml:"recipient"`
}

func (c *Config) defaults() {
	if c.DBPath == "" {
		c.DBPath = "data/jobtrack.db"
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = 30
	}
	if c.Fetch.MaxBytes <= 0 {
		c.Fetch.MaxBytes = 5 * 1024 * 1024
	}
	if c.Fetch.UserAgent == "" {
		c.Fetch.UserAgent = "jobtrack/1.0"
	}
	if c.Extract.Model == "" {
		c.Extract.Model = "gemini-2.5-flash-lite"
	}
	if c.Extract.MaxContentBytes <= 0 {
		c.Extract.MaxContentBytes = 100_000
	}
	if c.Extract.RequestsPerMinute <= 0 {
		c.Extract.RequestsPerMinute = 10
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.SchedulerPollSeconds <= 0 {
		c.SchedulerPollSeconds = 30
	}
}

// FetchTimeout returns the configured HTTP timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// SchedulerPoll returns the configured scheduler poll interval.
func (c *Config) SchedulerPoll() time.Duration {
	return time.Duration(c.SchedulerPollSeconds) * time.Second
}

// LoadConfig reads a YAML config file, applies environment overrides and
// defaults. A missing file is not an error; env and defaults still apply.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.defaults()
	return cfg, nil
}

// applyEnv overrides config fields from the environment. Secrets are
// expected here rather than in the YAML file.
func (c *Config) applyEnv() {
	if v := os.Getenv("JOBTRACK_DB"); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv("JOBTRACK_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("JOBTRACK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Extract.APIKey = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		c.SMTP.Host = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SMTP.Port = n
		}
	}
	if v := os.Getenv("EMAIL_SENDER"); v != "" {
		c.SMTP.Sender = v
	}
	if v := os.Getenv("EMAIL_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("EMAIL_RECIPIENT"); v != "" {
		c.SMTP.Recipient = v
	}
}
