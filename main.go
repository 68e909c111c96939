package main

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var (
	cfgFile string
	v       = newViper()
)

var rootCmd = &cobra.Command{
	Use:   "aws-billing-metrics",
	Short: "Turns AWS hourly billing reports into Graphite cost metrics",
	Long: "aws-billing-metrics reads the AWS Cost & Usage Report of the two most recent billing cycles, " +
		"breaks hourly costs out per region and resource type and sends them to Graphite.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := readConfigFile(v, cfgFile); err != nil {
			return err
		}
		return applyLogLevel(v)
	},
}

func init() {
	time.Local = time.UTC
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: config.yaml in /etc/aws-billing-metrics, $HOME/.aws-billing-metrics or .)")
	flags.String("report-path", "", "billing report location, s3://bucket/prefix or file:///path")
	flags.String("region", "", "region used to look up the report bucket's region")
	flags.String("log-level", "", "log level")
	bindFlag(flags.Lookup("report-path"), "report.path")
	bindFlag(flags.Lookup("region"), "report.region")
	bindFlag(flags.Lookup("log-level"), "log.level")

	rootCmd.AddCommand(runCmd, printCSVsCmd, redactCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.WithError(err).Fatal("aws-billing-metrics failed")
	}
}

func bindFlag(flag *pflag.Flag, key string) {
	if err := v.BindPFlag(key, flag); err != nil {
		log.WithError(err).WithField("flag", flag.Name).Fatal("Couldn't bind flag")
	}
}
