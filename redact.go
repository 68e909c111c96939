package main

import (
	"encoding/csv"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var redactCmd = &cobra.Command{
	Use:   "redact <billing.csv>",
	Short: "Print a copy of a billing report that is safe to use as test data",
	Long: "redact removes anything proprietary from a billing report: tag names, costs, instance types, " +
		"resource, line item and account IDs. Only the columns needed to calculate metrics are kept.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return errors.Wrap(err, "couldn't open billing report")
		}
		defer logDeferredError(f.Close)
		rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
		return Redact(f, os.Stdout, rnd)
	},
}

const userTagPrefix = "resourceTags/user:"

// redactKeptColumns are copied unchanged.
var redactKeptColumns = map[string]bool{
	ColTimeInterval:        true,
	ColLineItemType:        true,
	ColLineItemDescription: true,
	ColAvailabilityZone:    true,
	ColLocation:            true,
	ColVolumeType:          true,
}

// Redact copies the billing report CSV in r to w. Tag names are replaced by
// random ones, costs by random amounts and instance types in usage types by
// random instance types of the same family. Other columns are blanked.
func Redact(r io.Reader, w io.Writer, rnd *rand.Rand) error {
	csvReader := csv.NewReader(r)
	csvReader.FieldsPerRecord = -1
	csvWriter := csv.NewWriter(w)

	header, err := csvReader.Read()
	if err != nil {
		return err
	}
	redactedHeader := make([]string, len(header))
	for i, name := range header {
		if strings.HasPrefix(name, userTagPrefix) {
			name = userTagPrefix + randomAlpha(rnd, 10)
		}
		redactedHeader[i] = name
	}
	if err := csvWriter.Write(redactedHeader); err != nil {
		return err
	}

	for {
		row, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		out := make([]string, len(row))
		for i, value := range row {
			if i < len(header) {
				out[i] = redactValue(rnd, header[i], value)
			}
		}
		if err := csvWriter.Write(out); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}

func redactValue(rnd *rand.Rand, column, value string) string {
	switch {
	case redactKeptColumns[column]:
		return value
	case strings.HasSuffix(column, "Cost"):
		return strconv.FormatFloat(rnd.Float64()*10, 'f', 8, 64)
	case strings.HasPrefix(column, userTagPrefix):
		return value
	case column == ColUsageType && strings.Contains(value, "Usage:"):
		i := strings.LastIndexByte(value, ':')
		return value[:i+1] + randomInstanceType(rnd, value[i+1:])
	case column == ColUsageType:
		return value
	}
	return ""
}

// randomInstanceType returns a random instance type shaped like the given
// one, e.g. "db.r3.large" becomes "db.m4.medium".
func randomInstanceType(rnd *rand.Rand, instanceType string) string {
	parts := strings.Split(instanceType, ".")
	if len(parts) < 2 {
		return instanceType
	}
	families := []string{"t2", "c4", "m4"}
	sizes := []string{"medium", "large", "2xlarge"}
	parts[len(parts)-2] = families[rnd.Intn(len(families))]
	parts[len(parts)-1] = sizes[rnd.Intn(len(sizes))]
	return strings.Join(parts, ".")
}

func randomAlpha(rnd *rand.Rand, n int) string {
	const alpha = "abcdefghijklmnopqrstuvwxyz"
	b := make([]byte, n)
	for i := range b {
		b[i] = alpha[rnd.Intn(len(alpha))]
	}
	return string(b)
}
