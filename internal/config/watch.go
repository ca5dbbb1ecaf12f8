package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// ErrNoConfigFile is returned by Watch when configuration was loaded without a file.
var ErrNoConfigFile = errors.New("no config file in use")

// Watch follows the config file cfg was loaded from and calls onLevel with the
// new logging level whenever the file changes. Only the logging level is
// reloadable; every other setting needs a restart. An environment override of
// logging.level keeps precedence over the file.
func Watch(cfg *Config, onLevel func(level string)) error {
	path := cfg.ConfigFileUsed()
	if path == "" {
		return ErrNoConfigFile
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("HOOKLINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := v.BindEnv("logging.level"); err != nil {
		return fmt.Errorf("failed to bind env var %q: %w", "logging.level", err)
	}
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		level := strings.ToLower(v.GetString("logging.level"))
		if !validLevels[level] {
			slog.Warn("ignoring invalid logging level from config file", "file", e.Name, "level", level)
			return
		}
		slog.Info("config file changed", "file", e.Name, "logging_level", level)
		onLevel(level)
	})
	v.WatchConfig()
	return nil
}
