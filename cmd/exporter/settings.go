// cmd/exporter/settings.go
package main

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tamzrod/bridge-vaults-exporter/internal/config"
)

// settings are process-level knobs that live outside the YAML file.
// Precedence: flag > EXPORTER_* env > default.
type settings struct {
	ConfigPath string
	LogLevel   string
	StatePath  string
}

func parseSettings(args []string) (settings, error) {
	fs := pflag.NewFlagSet("exporter", pflag.ContinueOnError)
	fs.StringP("config", "c", "config.yaml", "path to the YAML config")
	fs.String("log-level", "", "override logger_settings.level")
	fs.String("state-path", "", "override state.path")

	if err := fs.Parse(args); err != nil {
		return settings{}, err
	}

	v := viper.New()
	v.SetEnvPrefix("EXPORTER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return settings{}, fmt.Errorf("bind flags: %w", err)
	}

	return settings{
		ConfigPath: v.GetString("config"),
		LogLevel:   v.GetString("log-level"),
		StatePath:  v.GetString("state-path"),
	}, nil
}

// apply overrides file values. Called before Validate.
func (s settings) apply(cfg *config.Config) {
	if s.LogLevel != "" {
		cfg.Logger.Level = s.LogLevel
	}
	if s.StatePath != "" {
		cfg.State.Path = s.StatePath
	}
}
