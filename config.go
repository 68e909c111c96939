package main

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	outputGraphite      = "graphite"
	outputElasticsearch = "elasticsearch"
	graphiteStdout      = "stdout"
)

// Config holds the settings of a billing run.
type Config struct {
	ReportPath         string
	ReportRegion       string
	GraphiteHost       string
	MetricPrefix       string
	Output             string
	ESServer           string
	ESIndexPrefix      string
	ESWorkers          int
	RDSStorageFallback RDSStorageFallback
	Pushgateway        string
	Schedule           string
}

// newViper creates the configuration registry. Every key can be overridden
// by an AWSBILL_ prefixed environment variable, e.g. report.path by
// AWSBILL_REPORT_PATH.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath("/etc/aws-billing-metrics/")
	v.AddConfigPath("$HOME/.aws-billing-metrics")
	v.AddConfigPath(".")
	v.SetEnvPrefix("awsbill")
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()
	v.SetDefault("report.region", "us-west-1")
	v.SetDefault("metric.prefix", DefaultMetricPrefix)
	v.SetDefault("output", outputGraphite)
	v.SetDefault("es.server", "http://localhost:9200")
	v.SetDefault("es.index_prefix", "awsbill")
	v.SetDefault("es.workers", 2)
	v.SetDefault("classify.rds_storage_fallback", "fail")
	v.SetDefault("log.level", "info")
	return v
}

// readConfigFile reads configFile, or the first config file found on the
// search path if configFile is empty. Not finding one on the search path
// is fine.
func readConfigFile(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	}
	err := v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok && configFile == "" {
		return nil
	}
	if err != nil {
		return &ConfigurationError{Key: "config", Reason: err.Error()}
	}
	log.WithField("file", v.ConfigFileUsed()).Debug("Read configuration")
	return nil
}

// applyLogLevel sets the logrus level from log.level.
func applyLogLevel(v *viper.Viper) error {
	level, err := log.ParseLevel(v.GetString("log.level"))
	if err != nil {
		return &ConfigurationError{Key: "log.level", Reason: err.Error()}
	}
	log.SetLevel(level)
	return nil
}

// loadConfig validates the settings in v.
func loadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ReportPath:    v.GetString("report.path"),
		ReportRegion:  v.GetString("report.region"),
		GraphiteHost:  v.GetString("graphite.host"),
		MetricPrefix:  v.GetString("metric.prefix"),
		Output:        v.GetString("output"),
		ESServer:      v.GetString("es.server"),
		ESIndexPrefix: v.GetString("es.index_prefix"),
		ESWorkers:     v.GetInt("es.workers"),
		Pushgateway:   v.GetString("metrics.pushgateway"),
		Schedule:      v.GetString("schedule"),
	}
	if cfg.MetricPrefix == "" {
		cfg.MetricPrefix = DefaultMetricPrefix
	}

	fallback, ok := ParseRDSStorageFallback(v.GetString("classify.rds_storage_fallback"))
	if !ok {
		return nil, &ConfigurationError{Key: "classify.rds_storage_fallback", Reason: `must be "fail" or "unknown"`}
	}
	cfg.RDSStorageFallback = fallback

	switch {
	case cfg.ReportPath == "":
		return nil, &ConfigurationError{Key: "report.path", Reason: "must be set"}
	case !strings.HasPrefix(cfg.ReportPath, "file://") && !strings.HasPrefix(cfg.ReportPath, "s3://"):
		return nil, &ConfigurationError{Key: "report.path", Reason: "must start with 'file://' or 's3://'"}
	}
	if strings.HasPrefix(cfg.ReportPath, "s3://") {
		if _, _, err := parseS3Path(cfg.ReportPath); err != nil {
			return nil, &ConfigurationError{Key: "report.path", Reason: err.Error()}
		}
	}

	return cfg, nil
}

// checkOutput validates the settings of the configured sink.
func (c *Config) checkOutput() error {
	switch c.Output {
	case outputGraphite:
		if c.GraphiteHost == "" {
			return &ConfigurationError{Key: "graphite.host", Reason: "must specify the output destination; use 'stdout' to print metrics"}
		}
	case outputElasticsearch:
		if c.ESServer == "" {
			return &ConfigurationError{Key: "es.server", Reason: "must be set"}
		}
		if c.ESWorkers < 1 {
			return &ConfigurationError{Key: "es.workers", Reason: "must be at least 1"}
		}
	default:
		return &ConfigurationError{Key: "output", Reason: fmt.Sprintf("unknown output %q", c.Output)}
	}
	return nil
}
