package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gregLibert/evrc-reader/pkg/evrc"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// appConfig is the merged configuration: flags over EVRC_* environment variables
// over .evrc.yaml over defaults.
type appConfig struct {
	Reader       string `mapstructure:"reader"`
	Debug        bool   `mapstructure:"debug"`
	Output       string `mapstructure:"output"`
	MaxDepth     int    `mapstructure:"max_depth"`
	CheckFileID  bool   `mapstructure:"check_file_id"`
	AutoResponse bool   `mapstructure:"auto_response"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
}

var configDefaults = map[string]any{
	"reader":        "",
	"debug":         false,
	"output":        "text",
	"max_depth":     0,
	"check_file_id": false,
	"auto_response": false,
	"log_level":     "info",
	"log_format":    "text",
}

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"reader":        "reader",
	"debug":         "debug",
	"output":        "output",
	"max-depth":     "max_depth",
	"check-file-id": "check_file_id",
	"auto-response": "auto_response",
	"log-level":     "log_level",
	"log-format":    "log_format",
}

var errUnknownLogFormat = errors.New("unknown log format")

func loadConfig(cmd *cobra.Command, configFile string) (appConfig, error) {
	var c appConfig
	v := viper.New()

	for key, value := range configDefaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName(".evrc")
	v.SetConfigType("yaml")
	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return c, fmt.Errorf("config file %q: %w", configFile, err)
		}
		v.SetConfigFile(configFile)
	}
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(dir, "evrc"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.SetEnvPrefix("evrc")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return c, err
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}

	if _, ok := formats[strings.ToLower(c.Output)]; !ok {
		return c, fmt.Errorf("%w: %q", errUnknownFormat, c.Output)
	}
	return c, nil
}

func (c appConfig) session(log *logrus.Entry) evrc.Config {
	return evrc.Config{
		Debug:        c.Debug,
		AutoResponse: c.AutoResponse,
		CheckFileID:  c.CheckFileID,
		MaxDepth:     c.MaxDepth,
		Logger:       log,
	}
}

// setupLogging configures the standard logrus logger. --debug forces the debug
// level whatever log_level says.
func setupLogging(c appConfig) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	if c.Debug {
		level = logrus.DebugLevel
	}

	switch strings.ToLower(c.LogFormat) {
	case "text":
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("%w: %q", errUnknownLogFormat, c.LogFormat)
	}

	logrus.SetOutput(os.Stderr)
	logrus.SetLevel(level)
	return nil
}
