package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var printCSVsCmd = &cobra.Command{
	Use:   "print-csvs",
	Short: "Print the billing reports of every billing cycle as one CSV",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(v)
		if err != nil {
			return err
		}
		ctx := context.Background()
		src, err := openReportSource(ctx, cfg, true)
		if err != nil {
			return err
		}
		return ConcatCSV(ctx, src, os.Stdout)
	},
}
