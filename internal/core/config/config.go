// Package config handles configuration loading and validation for markreview.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in TUI actions that keys can be bound to.
const (
	ActionNextThread  = "next-thread"
	ActionPrevThread  = "prev-thread"
	ActionNextComment = "next-comment"
	ActionPrevComment = "prev-comment"
	ActionReply       = "reply"
	ActionEdit        = "edit"
	ActionDelete      = "delete"
	ActionFocus       = "focus"
	ActionSubmit      = "submit"
	ActionCancel      = "cancel"
	ActionReview      = "review"
	ActionUnreview    = "unreview"
	ActionHelp        = "help"
	ActionQuit        = "quit"
)

var actions = []string{
	ActionNextThread, ActionPrevThread, ActionNextComment, ActionPrevComment,
	ActionReply, ActionEdit, ActionDelete, ActionFocus, ActionSubmit,
	ActionCancel, ActionReview, ActionUnreview, ActionHelp, ActionQuit,
}

// defaultKeybindings maps keys to actions. Users can override single keys.
var defaultKeybindings = map[string]string{
	"tab":       ActionNextThread,
	"shift+tab": ActionPrevThread,
	"j":         ActionNextComment,
	"down":      ActionNextComment,
	"k":         ActionPrevComment,
	"up":        ActionPrevComment,
	"r":         ActionReply,
	"e":         ActionEdit,
	"d":         ActionDelete,
	"i":         ActionFocus,
	"ctrl+s":    ActionSubmit,
	"esc":       ActionCancel,
	"v":         ActionReview,
	"u":         ActionUnreview,
	"?":         ActionHelp,
	"q":         ActionQuit,
	"ctrl+c":    ActionQuit,
}

// Config holds the application configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	HTTP          HTTPConfig          `yaml:"http"`
	Jobs          JobsConfig          `yaml:"jobs"`
	TUI           TUIConfig           `yaml:"tui"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Database      DatabaseConfig      `yaml:"database"`
	Keybindings   map[string]string   `yaml:"keybindings"`
	DataDir       string              `yaml:"-"` // set by caller, not from config file
}

// ServerConfig identifies the report server.
type ServerConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	// SessionTTL bounds how long a saved sign-in is reused.
	SessionTTL time.Duration `yaml:"session_ttl"`
}

// HTTPConfig tunes the HTTP client.
type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// JobsConfig tunes job actions.
type JobsConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// TUIConfig holds terminal UI settings.
type TUIConfig struct {
	Theme    string        `yaml:"theme"`
	ToastTTL time.Duration `yaml:"toast_ttl"`
}

// NotificationsConfig controls notification history.
type NotificationsConfig struct {
	// Persist is nil when unset so the default can apply.
	Persist   *bool         `yaml:"persist"`
	Retention time.Duration `yaml:"retention"`
}

// DatabaseConfig tunes the local SQLite database.
type DatabaseConfig struct {
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	BusyTimeout  time.Duration `yaml:"busy_timeout"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	persist := true
	return Config{
		Server: ServerConfig{
			SessionTTL: 14 * 24 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
		},
		Jobs: JobsConfig{
			PollInterval: 3 * time.Second,
		},
		TUI: TUIConfig{
			Theme:    "tokyo-night",
			ToastTTL: 5 * time.Second,
		},
		Notifications: NotificationsConfig{
			Persist:   &persist,
			Retention: 30 * 24 * time.Hour,
		},
		Database: DatabaseConfig{
			MaxOpenConns: 4,
			MaxIdleConns: 2,
			BusyTimeout:  5 * time.Second,
		},
		Keybindings: map[string]string{},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.DataDir = dataDir
	cfg.Keybindings = mergeKeybindings(defaultKeybindings, cfg.Keybindings)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = defaults.Server.SessionTTL
	}
	if c.HTTP.Timeout == 0 {
		c.HTTP.Timeout = defaults.HTTP.Timeout
	}
	if c.Jobs.PollInterval == 0 {
		c.Jobs.PollInterval = defaults.Jobs.PollInterval
	}
	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}
	if c.TUI.ToastTTL == 0 {
		c.TUI.ToastTTL = defaults.TUI.ToastTTL
	}
	if c.Notifications.Persist == nil {
		c.Notifications.Persist = defaults.Notifications.Persist
	}
	if c.Notifications.Retention == 0 {
		c.Notifications.Retention = defaults.Notifications.Retention
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
	}
	if c.Database.BusyTimeout == 0 {
		c.Database.BusyTimeout = defaults.Database.BusyTimeout
	}
}

// mergeKeybindings merges user keybindings into defaults.
// User keybindings override defaults for the same key; an empty action
// unbinds the key.
func mergeKeybindings(defaults, user map[string]string) map[string]string {
	result := make(map[string]string, len(defaults)+len(user))
	for k, v := range defaults {
		result[k] = v
	}
	for k, v := range user {
		if v == "" {
			delete(result, k)
			continue
		}
		result[k] = v
	}
	return result
}

// PersistNotifications reports whether notification history is kept.
func (c *Config) PersistNotifications() bool {
	return c.Notifications.Persist == nil || *c.Notifications.Persist
}

// KeysFor returns the keys bound to action in sorted order.
func (c *Config) KeysFor(action string) []string {
	var keys []string
	for k, a := range c.Keybindings {
		if a == action {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

func isValidAction(action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
