// Package config loads the app-level YAML configuration. The domain JSON
// files (database, rules, settings) are the pipeline's contract surface and
// live in internal/store; this file only points at them and configures the
// oracles, inbox, mailer, and web server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/mailmind-app/mailmind/internal/store"
)

func checkFilePermissions(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		return fmt.Errorf("config file %s has insecure permissions %04o; should be 0600", path, perm)
	}
	return nil
}

type Config struct {
	Store   StoreConfig  `yaml:"store,omitempty"`
	Oracle  OracleConfig `yaml:"oracle,omitempty"`
	Inbox   InboxConfig  `yaml:"inbox,omitempty"`
	Mailer  MailerConfig `yaml:"mailer,omitempty"`
	Web     WebConfig    `yaml:"web,omitempty"`
	History string       `yaml:"history,omitempty"` // run journal sqlite path
}

// StoreConfig overrides the fixed working-directory filenames.
type StoreConfig struct {
	Database string `yaml:"database,omitempty"`
	Rules    string `yaml:"rules,omitempty"`
	Settings string `yaml:"settings,omitempty"`
}

// OracleConfig selects and configures the model backend.
type OracleConfig struct {
	Provider string `yaml:"provider,omitempty"` // "local" or "openai"
	BaseURL  string `yaml:"base_url,omitempty"` // local inference gateway
	Model    string `yaml:"model,omitempty"`

	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"`
	OpenAIModel  string `yaml:"openai_model,omitempty"`
}

// InboxConfig holds IMAP settings for syncing emails into the store.
type InboxConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider,omitempty"` // "gmail", "outlook", "imap"
	Server   string `yaml:"server,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	Email    string `yaml:"email,omitempty"`
	Password string `yaml:"password,omitempty"` // app password
	Folder   string `yaml:"folder,omitempty"`
	Days     int    `yaml:"days,omitempty"` // how far back to fetch
}

// MailerConfig holds reply delivery settings.
type MailerConfig struct {
	Provider string     `yaml:"provider,omitempty"` // "smtp", "resend", "sendgrid"
	From     string     `yaml:"from,omitempty"`
	SMTP     SMTPConfig `yaml:"smtp,omitempty"`
	APIKey   string     `yaml:"api_key,omitempty"` // resend/sendgrid
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UseTLS   bool   `yaml:"use_tls"`
}

type WebConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// DefaultConfigPath prefers a config next to the data files, then the home
// directory.
func DefaultConfigPath() string {
	if _, err := os.Stat("mailmind.yaml"); err == nil {
		return "mailmind.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "mailmind.yaml"
	}
	return filepath.Join(home, ".mailmind", "config.yaml")
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "history.db"
	}
	return filepath.Join(home, ".mailmind", "history.db")
}

// Default is the configuration used when no file exists: everything in the
// working directory, local oracle gateway.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the config file. A missing file is not an error; the defaults
// apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := checkFilePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: %v\n", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Store.Database == "" {
		c.Store.Database = store.DefaultDatabasePath
	}
	if c.Store.Rules == "" {
		c.Store.Rules = store.DefaultRulesPath
	}
	if c.Store.Settings == "" {
		c.Store.Settings = store.DefaultSettingsPath
	}
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = "local"
	}
	if c.History == "" {
		c.History = defaultHistoryPath()
	}
	if c.Web.Addr == "" {
		c.Web.Addr = "127.0.0.1:8080"
	}
	if c.Inbox.Folder == "" {
		c.Inbox.Folder = "INBOX"
	}
	if c.Inbox.Days == 0 {
		c.Inbox.Days = 7
	}
	if c.Inbox.Provider == "gmail" && c.Inbox.Server == "" {
		c.Inbox.Server = "imap.gmail.com"
		c.Inbox.Port = 993
	}
	if c.Inbox.Provider == "outlook" && c.Inbox.Server == "" {
		c.Inbox.Server = "outlook.office365.com"
		c.Inbox.Port = 993
	}
}

// Save writes the config with restrictive permissions; it can hold
// credentials.
func Save(path string, cfg *Config) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}

// ValidateInbox checks the IMAP settings before an ingest run.
func (c *Config) ValidateInbox() error {
	if !c.Inbox.Enabled {
		return fmt.Errorf("inbox: sync is not enabled in config")
	}
	if c.Inbox.Email == "" {
		return fmt.Errorf("inbox: email address is required")
	}
	if c.Inbox.Password == "" {
		return fmt.Errorf("inbox: password (app password) is required")
	}
	if c.Inbox.Server == "" {
		return fmt.Errorf("inbox: IMAP server is required")
	}
	if c.Inbox.Port == 0 {
		return fmt.Errorf("inbox: IMAP port is required")
	}
	return nil
}

// ValidateMailer checks reply delivery settings before a send.
func (c *Config) ValidateMailer() error {
	if c.Mailer.From == "" {
		return fmt.Errorf("mailer: from address is required")
	}
	switch c.Mailer.Provider {
	case "", "smtp":
		if c.Mailer.SMTP.Host == "" {
			return fmt.Errorf("mailer.smtp: host is required")
		}
		if c.Mailer.SMTP.Port == 0 {
			return fmt.Errorf("mailer.smtp: port is required")
		}
	case "resend", "sendgrid":
		if c.Mailer.APIKey == "" {
			return fmt.Errorf("mailer: api_key is required for %s", c.Mailer.Provider)
		}
	default:
		return fmt.Errorf("mailer: unknown provider %q", c.Mailer.Provider)
	}
	return nil
}
