package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "MIMI"
	configDirName  = ".mimi"
	configFileName = "config"
)

// Config is the resolved mimi configuration.
type Config struct {
	// Dir is the store directory (snapshot, action log, ui state).
	Dir    string    `mapstructure:"dir"`
	Format string    `mapstructure:"format"`
	Pretty bool      `mapstructure:"pretty"`
	Log    LogConfig `mapstructure:"log"`
	UI     UIConfig  `mapstructure:"ui"`
	API    APIConfig `mapstructure:"api"`
}

type LogConfig struct {
	// Level is one of debug|info|warn|error.
	Level string `mapstructure:"level"`
	// Format is console|json.
	Format string `mapstructure:"format"`
	// Output is "stderr" or a file path.
	Output string `mapstructure:"output"`
}

type UIConfig struct {
	// Role gates the developer sidebar (developer|client).
	Role string `mapstructure:"role"`
	// SidebarWidth is the open sidebar width in columns (min 16, max 60).
	SidebarWidth int `mapstructure:"sidebar_width"`
	// MarkdownStyle is dark|light|auto.
	MarkdownStyle string `mapstructure:"markdown_style"`
}

type APIConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	dir := ""
	if home, err := os.UserHomeDir(); err == nil {
		dir = filepath.Join(home, configDirName, "store")
	}
	return &Config{
		Dir:    dir,
		Format: "json",
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
		},
		UI: UIConfig{
			Role:          "developer",
			SidebarWidth:  28,
			MarkdownStyle: "auto",
		},
		API: APIConfig{Addr: "127.0.0.1:7420"},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dir", d.Dir)
	v.SetDefault("format", d.Format)
	v.SetDefault("pretty", d.Pretty)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)
	v.SetDefault("ui.role", d.UI.Role)
	v.SetDefault("ui.sidebar_width", d.UI.SidebarWidth)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
	v.SetDefault("api.addr", d.API.Addr)
}

// Load resolves configuration from defaults, the config file, MIMI_* env vars
// and (when non-nil) flags, in increasing precedence. configFile may be empty,
// in which case ~/.mimi/config.{yaml,json,toml} is used if present.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(configFileName)
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, configDirName))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if flags != nil {
		for key, name := range map[string]string{"dir": "dir", "format": "format", "pretty": "pretty", "api.addr": "addr"} {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// ValidationError is one invalid setting.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 1 {
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d config errors:", len(e))
	for _, err := range e {
		sb.WriteString("\n  ")
		sb.WriteString(err.Error())
	}
	return sb.String()
}

func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors
	check := func(field, value string, allowed ...string) {
		if !slices.Contains(allowed, strings.ToLower(strings.TrimSpace(value))) {
			errs = append(errs, ValidationError{
				Field:   field,
				Value:   value,
				Message: "must be one of " + strings.Join(allowed, "|"),
			})
		}
	}
	check("format", c.Format, "json", "edn", "tree")
	check("log.level", c.Log.Level, "debug", "info", "warn", "error")
	check("log.format", c.Log.Format, "console", "json")
	check("ui.role", c.UI.Role, "developer", "client")
	check("ui.markdown_style", c.UI.MarkdownStyle, "auto", "dark", "light")
	if c.UI.SidebarWidth < 16 || c.UI.SidebarWidth > 60 {
		errs = append(errs, ValidationError{Field: "ui.sidebar_width", Value: c.UI.SidebarWidth, Message: "must be between 16 and 60"})
	}
	if strings.TrimSpace(c.Log.Output) == "" {
		errs = append(errs, ValidationError{Field: "log.output", Value: c.Log.Output, Message: "must be stderr or a file path"})
	}
	return errs
}

// IsDeveloper reports whether the developer sidebar should be shown.
func (u UIConfig) IsDeveloper() bool {
	return strings.EqualFold(strings.TrimSpace(u.Role), "developer")
}
