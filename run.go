package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Calculate billing metrics and send them to the configured output",
	RunE:  runRun,
}

func init() {
	flags := runCmd.Flags()
	flags.String("graphite-host", "", "Graphite server as host[:port], or 'stdout'")
	flags.String("prefix", "", "first component of every metric name")
	flags.String("output", "", "where to send metrics: graphite or elasticsearch")
	flags.String("schedule", "", "cron expression; run repeatedly on this schedule instead of once")
	bindFlag(flags.Lookup("graphite-host"), "graphite.host")
	bindFlag(flags.Lookup("prefix"), "metric.prefix")
	bindFlag(flags.Lookup("output"), "output")
	bindFlag(flags.Lookup("schedule"), "schedule")
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}
	if err := cfg.checkOutput(); err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Schedule == "" {
		if err := runBilling(ctx, cfg); err != nil {
			return err
		}
		log.Info("Mission complete")
		return nil
	}

	c := cron.New()
	err = c.AddFunc(cfg.Schedule, func() {
		if err := runBilling(ctx, cfg); err != nil {
			log.WithError(err).Error("Billing run failed")
		}
	})
	if err != nil {
		return &ConfigurationError{Key: "schedule", Reason: err.Error()}
	}
	log.WithField("schedule", cfg.Schedule).Info("Running on schedule")
	c.Start()
	defer c.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info("Shutting down")
	return nil
}

// runBilling reads the billing reports, builds the ledger and only then
// opens the sink, so nothing is sent if any record fails.
func runBilling(ctx context.Context, cfg *Config) error {
	start := time.Now()
	metrics := newRunMetrics()

	src, err := openRowSource(ctx, cfg)
	if err != nil {
		return err
	}
	ledger, err := BuildLedger(ctx, src, Classifier{RDSStorageFallback: cfg.RDSStorageFallback})
	if err != nil {
		return err
	}
	points := len(ledger.Points())

	sink, err := openSink(ctx, cfg)
	if err != nil {
		return err
	}
	defer logDeferredError(sink.Close)
	if err := sink.Send(ctx, ledger); err != nil {
		return err
	}
	log.WithFields(log.Fields{
		"series": len(ledger.Timeseries()),
		"points": points,
	}).Info("Finished writing metrics")

	metrics.observe(ledger.Stats(), points, time.Since(start))
	if cfg.Pushgateway != "" {
		if err := metrics.push(cfg.Pushgateway); err != nil {
			log.WithError(err).WithField("pushgateway", cfg.Pushgateway).Warn("Couldn't push run metrics")
		}
	}
	return nil
}

// openRowSource opens the reports at cfg.ReportPath. A file:// path may name
// a single CSV or a directory laid out like the report bucket.
func openRowSource(ctx context.Context, cfg *Config) (RowSource, error) {
	return openReportSource(ctx, cfg, false)
}

func openReportSource(ctx context.Context, cfg *Config, allCycles bool) (RowSource, error) {
	if strings.HasPrefix(cfg.ReportPath, "file://") {
		path := strings.TrimPrefix(cfg.ReportPath, "file://")
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't open billing report")
		}
		if !info.IsDir() {
			return csvFile(path), nil
		}
		return NewReportSource(NewFileStore(path), "", allCycles), nil
	}

	bucket, prefix, err := parseS3Path(cfg.ReportPath)
	if err != nil {
		return nil, &ConfigurationError{Key: "report.path", Reason: err.Error()}
	}
	sess, err := session.NewSession()
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create an AWS session")
	}
	store, err := NewS3Store(ctx, sess, bucket, cfg.ReportRegion)
	if err != nil {
		return nil, err
	}
	return NewReportSource(store, prefix, allCycles), nil
}

func openSink(ctx context.Context, cfg *Config) (Sink, error) {
	f := Formatter{Prefix: cfg.MetricPrefix}
	switch {
	case cfg.Output == outputElasticsearch:
		return NewElasticSink(ctx, cfg.ESServer, cfg.ESWorkers, cfg.ESIndexPrefix, f)
	case cfg.GraphiteHost == graphiteStdout:
		return NewStdoutSink(f), nil
	default:
		return NewGraphiteSink(cfg.GraphiteHost, f), nil
	}
}
