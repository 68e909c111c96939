package main

import (
	"bytes"
	"encoding/csv"
	"math/rand"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const redactInput = `identity/LineItemId,identity/TimeInterval,lineItem/UsageAccountId,lineItem/LineItemType,lineItem/UsageType,lineItem/BlendedCost,lineItem/UnblendedCost,product/location,resourceTags/user:team
abc123,2016-04-04T01:00:00Z/2016-04-04T02:00:00Z,826591639284,Usage,USW2-BoxUsage:m4.2xlarge,0.532,0.532,US West (Oregon),billing
def456,2016-04-04T01:00:00Z/2016-04-04T02:00:00Z,826591639284,Usage,USW2-DataTransfer-Out-Bytes,0.02,0.02,US West (Oregon),
`

func TestRedact(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Redact(strings.NewReader(redactInput), &out, rand.New(rand.NewSource(1))))

	rows, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	header := rows[0]
	assert.Equal(t, []string{
		"identity/LineItemId", ColTimeInterval, "lineItem/UsageAccountId", ColLineItemType,
		ColUsageType, ColBlendedCost, "lineItem/UnblendedCost", ColLocation,
	}, header[:8])
	assert.True(t, strings.HasPrefix(header[8], userTagPrefix))
	assert.NotEqual(t, "resourceTags/user:team", header[8])
	assert.Len(t, header[8], len(userTagPrefix)+10)

	first := rows[1]
	assert.Empty(t, first[0])
	assert.Equal(t, "2016-04-04T01:00:00Z/2016-04-04T02:00:00Z", first[1])
	assert.Empty(t, first[2])
	assert.Equal(t, "Usage", first[3])
	assert.Regexp(t, `^USW2-BoxUsage:(t2|c4|m4)\.(medium|large|2xlarge)$`, first[4])
	for _, cost := range first[5:7] {
		assert.Regexp(t, `^\d\.\d{8}$`, cost)
		_, err := strconv.ParseFloat(cost, 64)
		assert.NoError(t, err)
	}
	assert.Equal(t, "US West (Oregon)", first[7])
	assert.Equal(t, "billing", first[8])

	assert.Equal(t, "USW2-DataTransfer-Out-Bytes", rows[2][4])
}

func TestRedactIsDeterministicForSeed(t *testing.T) {
	redact := func() string {
		var out bytes.Buffer
		require.NoError(t, Redact(strings.NewReader(redactInput), &out, rand.New(rand.NewSource(42))))
		return out.String()
	}
	assert.Equal(t, redact(), redact())
}

func TestRandomInstanceType(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	assert.Regexp(t, `^db\.(t2|c4|m4)\.(medium|large|2xlarge)$`, randomInstanceType(rnd, "db.r3.large"))
	assert.Equal(t, "unknown", randomInstanceType(rnd, "unknown"))
}
