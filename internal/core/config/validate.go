package config

import (
	"fmt"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/markreview/internal/core/styles"
)

// Validate checks that the configuration is valid. All problems are
// reported together as criterio.FieldErrors.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if c.DataDir == "" {
		errs = errs.Append("data_dir", fmt.Errorf("cannot be empty"))
	}

	errs = appendDuration(errs, "http.timeout", c.HTTP.Timeout)
	errs = appendDuration(errs, "jobs.poll_interval", c.Jobs.PollInterval)
	errs = appendDuration(errs, "tui.toast_ttl", c.TUI.ToastTTL)
	errs = appendDuration(errs, "notifications.retention", c.Notifications.Retention)
	errs = appendDuration(errs, "server.session_ttl", c.Server.SessionTTL)
	errs = appendDuration(errs, "database.busy_timeout", c.Database.BusyTimeout)

	if c.Database.MaxOpenConns < 1 {
		errs = errs.Append("database.max_open_conns", fmt.Errorf("must be at least 1"))
	}
	if c.Database.MaxIdleConns < 0 {
		errs = errs.Append("database.max_idle_conns", fmt.Errorf("must not be negative"))
	}

	keys := make([]string, 0, len(c.Keybindings))
	for k := range c.Keybindings {
		keys = append(keys, k)
	}
	sortKeys(keys)
	for _, k := range keys {
		if action := c.Keybindings[k]; !isValidAction(action) {
			errs = errs.Append(fmt.Sprintf("keybindings[%q]", k), fmt.Errorf("unknown action %q", action))
		}
	}

	if err := validBaseURL(c.Server.BaseURL); err != nil {
		errs = errs.Append("server.base_url", err)
	}
	if err := knownTheme(c.TUI.Theme); err != nil {
		errs = errs.Append("tui.theme", err)
	}

	return errs.ToError()
}

// ValidateDeep runs Validate plus checks that touch the filesystem.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

// RequireServer reports an error when no server is configured.
func (c *Config) RequireServer() error {
	if c.Server.BaseURL == "" {
		return criterio.NewFieldErrors("server.base_url", fmt.Errorf("is required; set it in the config file or pass --server"))
	}
	return nil
}

func appendDuration(errs criterio.FieldErrorsBuilder, field string, d time.Duration) criterio.FieldErrorsBuilder {
	if d <= 0 {
		return errs.Append(field, fmt.Errorf("must be positive, got %s", d))
	}
	return errs
}

func validBaseURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("host is required")
	}
	return nil
}

func knownTheme(name string) error {
	if _, ok := styles.GetPalette(name); !ok {
		return fmt.Errorf("unknown theme %q (available: %v)", name, styles.ThemeNames())
	}
	return nil
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", path)
	}
	return nil
}

func sortKeys(keys []string) { sort.Strings(keys) }
