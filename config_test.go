package main

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	v := newViper()
	v.Set("report.path", "s3://billing-bucket/reports")

	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "s3://billing-bucket/reports", cfg.ReportPath)
	assert.Equal(t, "us-west-1", cfg.ReportRegion)
	assert.Equal(t, DefaultMetricPrefix, cfg.MetricPrefix)
	assert.Equal(t, outputGraphite, cfg.Output)
	assert.Equal(t, "awsbill", cfg.ESIndexPrefix)
	assert.Equal(t, 2, cfg.ESWorkers)
	assert.Equal(t, FailOnUnknownRDSStorage, cfg.RDSStorageFallback)
	assert.Empty(t, cfg.Pushgateway)
	assert.Empty(t, cfg.Schedule)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
report:
  path: file:///var/lib/billing
graphite:
  host: graphite.example.com
metric:
  prefix: billing
classify:
  rds_storage_fallback: unknown
log:
  level: debug
`), 0644))

	v := newViper()
	require.NoError(t, readConfigFile(v, path))
	assert.Equal(t, "debug", v.GetString("log.level"))
	cfg, err := loadConfig(v)
	require.NoError(t, err)
	assert.Equal(t, "file:///var/lib/billing", cfg.ReportPath)
	assert.Equal(t, "graphite.example.com", cfg.GraphiteHost)
	assert.Equal(t, "billing", cfg.MetricPrefix)
	assert.Equal(t, DegradeUnknownRDSStorage, cfg.RDSStorageFallback)
}

func TestLoadConfigEnv(t *testing.T) {
	os.Setenv("AWSBILL_REPORT_PATH", "s3://env-bucket/hourly")
	os.Setenv("AWSBILL_GRAPHITE_HOST", "stdout")
	defer os.Unsetenv("AWSBILL_REPORT_PATH")
	defer os.Unsetenv("AWSBILL_GRAPHITE_HOST")

	cfg, err := loadConfig(newViper())
	require.NoError(t, err)
	assert.Equal(t, "s3://env-bucket/hourly", cfg.ReportPath)
	assert.Equal(t, graphiteStdout, cfg.GraphiteHost)
	assert.NoError(t, cfg.checkOutput())
}

func TestApplyLogLevel(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	v := newViper()
	require.NoError(t, applyLogLevel(v))
	assert.Equal(t, log.InfoLevel, log.GetLevel())

	v.Set("log.level", "debug")
	require.NoError(t, applyLogLevel(v))
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	v.Set("log.level", "loud")
	err := applyLogLevel(v)
	cfgErr, ok := err.(*ConfigurationError)
	require.True(t, ok, "unexpected error %v", err)
	assert.Equal(t, "log.level", cfgErr.Key)
	assert.Equal(t, log.DebugLevel, log.GetLevel())
}

func TestReadConfigFile(t *testing.T) {
	assert.NoError(t, readConfigFile(newViper(), ""))

	err := readConfigFile(newViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.IsType(t, &ConfigurationError{}, err)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := map[string]struct {
		settings map[string]interface{}
		key      string
	}{
		"missing report path": {
			settings: map[string]interface{}{},
			key:      "report.path",
		},
		"unsupported scheme": {
			settings: map[string]interface{}{"report.path": "http://example.com/report.csv"},
			key:      "report.path",
		},
		"s3 path without bucket": {
			settings: map[string]interface{}{"report.path": "s3:///reports"},
			key:      "report.path",
		},
		"bad rds storage fallback": {
			settings: map[string]interface{}{"report.path": "file://report.csv", "classify.rds_storage_fallback": "guess"},
			key:      "classify.rds_storage_fallback",
		},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			v := newViper()
			for key, value := range tt.settings {
				v.Set(key, value)
			}
			_, err := loadConfig(v)
			require.Error(t, err)
			cfgErr, ok := err.(*ConfigurationError)
			require.True(t, ok, "unexpected error type %T", err)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}

func TestCheckOutput(t *testing.T) {
	tests := map[string]struct {
		cfg Config
		key string
	}{
		"graphite host":           {cfg: Config{Output: outputGraphite, GraphiteHost: "localhost"}},
		"stdout":                  {cfg: Config{Output: outputGraphite, GraphiteHost: graphiteStdout}},
		"missing graphite host":   {cfg: Config{Output: outputGraphite}, key: "graphite.host"},
		"elasticsearch":           {cfg: Config{Output: outputElasticsearch, ESServer: "http://es:9200", ESWorkers: 1}},
		"missing es server":       {cfg: Config{Output: outputElasticsearch, ESWorkers: 1}, key: "es.server"},
		"no elasticsearch worker": {cfg: Config{Output: outputElasticsearch, ESServer: "http://es:9200"}, key: "es.workers"},
		"unknown output":          {cfg: Config{Output: "influxdb"}, key: "output"},
	}
	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			err := tt.cfg.checkOutput()
			if tt.key == "" {
				assert.NoError(t, err)
				return
			}
			cfgErr, ok := err.(*ConfigurationError)
			require.True(t, ok, "unexpected error %v", err)
			assert.Equal(t, tt.key, cfgErr.Key)
		})
	}
}
