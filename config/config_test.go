// Copyright 2017 Diffeo, Inc.
// This software is released under an MIT/X11 open source license.

package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	filename := filepath.Join(t.TempDir(), "odatad.yaml")
	require.NoError(t, ioutil.WriteFile(filename, []byte(contents), 0644))
	return filename
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadFile(t *testing.T) {
	filename := writeConfig(t, `
listen: 127.0.0.1:9000
service_path: /svc
log_level: debug
log_format: json
log_requests: yes
max_data_service_version: 1.0
`)
	c, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", c.Listen)
	assert.Equal(t, "/svc", c.ServicePath)
	assert.Equal(t, "/metrics", c.MetricsPath)
	assert.Equal(t, "debug", c.LogLevel)
	assert.Equal(t, "json", c.LogFormat)
	assert.True(t, c.LogRequests)
	assert.Equal(t, "1", c.MaxDataServiceVersion)
	assert.Equal(t, "reference", c.Backend)
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	filename := writeConfig(t, "listen: :9000\nlog_level: debug\n")
	t.Setenv("ODATA_LISTEN", ":9100")
	t.Setenv("ODATA_LOG_REQUESTS", "true")
	t.Setenv("ODATA_METRICS_PATH", "")

	c, err := Load(filename)
	require.NoError(t, err)
	assert.Equal(t, ":9100", c.Listen)
	assert.Equal(t, "debug", c.LogLevel)
	assert.True(t, c.LogRequests)
	assert.Empty(t, c.MetricsPath)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "listen: [unclosed"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "no_such_setting: 1\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "log_level: chatty\n"))
	assert.Error(t, err)

	t.Setenv("ODATA_LOG_REQUESTS", "sometimes")
	_, err = Load("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		Name   string
		Modify func(*Config)
		OK     bool
	}{
		{"default", func(c *Config) {}, true},
		{"no listen", func(c *Config) { c.Listen = "" }, false},
		{"no backend", func(c *Config) { c.Backend = "" }, false},
		{"relative service path", func(c *Config) { c.ServicePath = "odata" }, false},
		{"root service path", func(c *Config) { c.ServicePath = "/"; c.MetricsPath = "" }, true},
		{"metrics below root service", func(c *Config) { c.ServicePath = "/" }, false},
		{"metrics inside service", func(c *Config) { c.MetricsPath = "/odata.svc/metrics" }, false},
		{"metrics beside service", func(c *Config) { c.MetricsPath = "/odata.svc.metrics" }, true},
		{"relative metrics path", func(c *Config) { c.MetricsPath = "metrics" }, false},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, false},
		{"upper case format", func(c *Config) { c.LogFormat = "JSON" }, true},
		{"bad version", func(c *Config) { c.MaxDataServiceVersion = "two" }, false},
	}
	for _, test := range tests {
		c := Default()
		test.Modify(&c)
		err := c.Validate()
		if test.OK {
			assert.NoError(t, err, test.Name)
		} else {
			assert.Error(t, err, test.Name)
		}
	}
}

func TestConfigureLogging(t *testing.T) {
	c := Default()
	c.LogLevel = "warning"
	c.LogFormat = "json"
	logger := logrus.New()
	require.NoError(t, c.ConfigureLogging(logger))
	assert.Equal(t, logrus.WarnLevel, logger.Level)
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	c.LogLevel = "loud"
	assert.Error(t, c.ConfigureLogging(logger))
}
