package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testHeader = []string{
	ColTimeInterval,
	ColLineItemType,
	ColUsageType,
	ColLineItemDescription,
	ColBlendedCost,
	ColAvailabilityZone,
	ColLocation,
	ColVolumeType,
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2016-04-04T01:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1459731600), got.Unix())
	assert.Equal(t, time.UTC, got.Location())

	got, err = ParseTimestamp("2016-04-04T01:00Z")
	require.NoError(t, err)
	assert.Equal(t, int64(1459731600), got.Unix())

	_, err = ParseTimestamp("2016-04-04 01:00:00")
	assert.Error(t, err)
}

func TestNewRecord(t *testing.T) {
	row := []string{
		"2016-04-04T00:00:00Z/2016-04-04T01:00:00Z",
		"Usage",
		"APN1-BoxUsage:t2.medium",
		"$0.08 per On Demand Linux t2.medium Instance Hour",
		"0.08",
		"ap-northeast-1c",
		"Asia Pacific (Tokyo)",
		"",
	}
	r, err := NewRecord(testHeader, row, Classifier{})
	require.NoError(t, err)

	usageType, err := r.UsageType()
	require.NoError(t, err)
	assert.Equal(t, "ec2-instance.t2-medium", usageType)
	assert.Equal(t, "ap-northeast-1", r.Region())
	assert.Equal(t, time.Hour, r.Interval())
	assert.Equal(t, int64(1459731600), r.EndTime().Unix())
	assert.InDelta(t, 0.08, r.Amount(), 1e-9)
	assert.Equal(t, "Usage", r.LineItemType())
	assert.Equal(t, "APN1-BoxUsage:t2.medium", r.Get(ColUsageType))
	assert.Empty(t, r.Get("bill/PayerAccountId"))
}

func TestNewRecordShortRow(t *testing.T) {
	row := []string{"2016-04-01T00:00:00Z/2016-05-01T00:00:00Z", "Tax"}
	r, err := NewRecord(testHeader, row, Classifier{})
	require.NoError(t, err)
	assert.Equal(t, NoRegion, r.Region())
	assert.Equal(t, 0.0, r.Amount())
	assert.Equal(t, 30*24*time.Hour, r.Interval())
}

func TestNewRecordErrors(t *testing.T) {
	tests := map[string][]string{
		"missing interval":   {"", "Usage", "BoxUsage:m4.large", "", "0.1"},
		"interval one end":   {"2016-04-04T00:00:00Z", "Usage", "BoxUsage:m4.large", "", "0.1"},
		"malformed interval": {"yesterday/today", "Usage", "BoxUsage:m4.large", "", "0.1"},
		"malformed cost":     {"2016-04-04T00:00:00Z/2016-04-04T01:00:00Z", "Usage", "BoxUsage:m4.large", "", "$0.10"},
	}
	for name, row := range tests {
		_, err := NewRecord(testHeader, row, Classifier{})
		assert.Error(t, err, name)
	}
}

func TestNewRecordKeepsClassificationError(t *testing.T) {
	row := []string{
		"2016-04-04T00:00:00Z/2016-04-04T01:00:00Z",
		"Usage",
		"RDS:GP2-Storage",
		"storage of some other kind",
		"0.01",
		"",
		"US West (Oregon)",
		"",
	}
	r, err := NewRecord(testHeader, row, Classifier{})
	require.NoError(t, err)
	_, err = r.UsageType()
	assert.IsType(t, &ClassificationError{}, err)
}
