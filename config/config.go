// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

// Package config holds the settings of the odatad server.  Settings
// come from built-in defaults, then an optional YAML file, then
// ODATA_* environment variables, each overriding the one before.
package config

import (
	"errors"
	"fmt"
	"io/ioutil"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes the environment variable of every setting, as
// in ODATA_LISTEN.
const EnvPrefix = "ODATA"

// Config is the complete server configuration.
type Config struct {
	// Listen is the [ip]:port the HTTP server binds.
	Listen string `mapstructure:"listen" envconfig:"LISTEN"`

	// Backend selects the service implementation, as
	// "impl[:address]".
	Backend string `mapstructure:"backend" envconfig:"BACKEND"`

	// ServicePath is the URL path of the service root.
	ServicePath string `mapstructure:"service_path" envconfig:"SERVICE_PATH"`

	// MetricsPath is the URL path of the Prometheus endpoint;
	// empty disables it.
	MetricsPath string `mapstructure:"metrics_path" envconfig:"METRICS_PATH"`

	LogLevel    string `mapstructure:"log_level" envconfig:"LOG_LEVEL"`
	LogFormat   string `mapstructure:"log_format" envconfig:"LOG_FORMAT"`
	LogRequests bool   `mapstructure:"log_requests" envconfig:"LOG_REQUESTS"`

	// MaxDataServiceVersion is the highest protocol version the
	// service answers with.
	MaxDataServiceVersion string `mapstructure:"max_data_service_version" envconfig:"MAX_DATA_SERVICE_VERSION"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Listen:                ":8080",
		Backend:               "reference",
		ServicePath:           "/odata.svc",
		MetricsPath:           "/metrics",
		LogLevel:              "info",
		LogFormat:             "text",
		MaxDataServiceVersion: "2.0",
	}
}

// Load builds the configuration from the defaults, the YAML file
// filename if it is not empty, and the environment.
func Load(filename string) (Config, error) {
	c := Default()
	if filename != "" {
		settings, err := loadConfigYaml(filename)
		if err != nil {
			return c, err
		}
		if err = c.apply(settings); err != nil {
			return c, fmt.Errorf("%v: %w", filename, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func loadConfigYaml(filename string) (map[string]interface{}, error) {
	var result map[string]interface{}
	bytes, err := ioutil.ReadFile(filename)
	if err == nil {
		err = yaml.Unmarshal(bytes, &result)
	}
	return result, err
}

// apply overwrites the settings named in a decoded YAML document.
// Unknown keys are an error.
func (c *Config) apply(settings map[string]interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(settings)
}

// Validate checks that every setting is usable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("listen address must not be empty")
	}
	if c.Backend == "" {
		return errors.New("backend must not be empty")
	}
	if !strings.HasPrefix(c.ServicePath, "/") {
		return fmt.Errorf("service path %q must start with /", c.ServicePath)
	}
	if c.MetricsPath != "" {
		if !strings.HasPrefix(c.MetricsPath, "/") {
			return fmt.Errorf("metrics path %q must start with /", c.MetricsPath)
		}
		if strings.HasPrefix(c.MetricsPath+"/", strings.TrimSuffix(c.ServicePath, "/")+"/") {
			return fmt.Errorf("metrics path %q is inside the service path %q", c.MetricsPath, c.ServicePath)
		}
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := c.formatter(); err != nil {
		return err
	}
	if _, err := semver.NewVersion(c.MaxDataServiceVersion); err != nil {
		return fmt.Errorf("max data service version %q: %w", c.MaxDataServiceVersion, err)
	}
	return nil
}

func (c *Config) formatter() (logrus.Formatter, error) {
	switch strings.ToLower(c.LogFormat) {
	case "", "text":
		return &logrus.TextFormatter{}, nil
	case "json":
		return &logrus.JSONFormatter{}, nil
	}
	return nil, fmt.Errorf("unknown log format %q", c.LogFormat)
}

// ConfigureLogging sets the level and format of logger.
func (c *Config) ConfigureLogging(logger *logrus.Logger) error {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	formatter, err := c.formatter()
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetFormatter(formatter)
	return nil
}
