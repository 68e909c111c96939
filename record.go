package main

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Columns of the hourly Cost & Usage Report that are looked at.
const (
	ColTimeInterval        = "identity/TimeInterval"
	ColLineItemType        = "lineItem/LineItemType"
	ColUsageType           = "lineItem/UsageType"
	ColLineItemDescription = "lineItem/LineItemDescription"
	ColBlendedCost         = "lineItem/BlendedCost"
	ColAvailabilityZone    = "lineItem/AvailabilityZone"
	ColLocation            = "product/location"
	ColVolumeType          = "product/volumeType"
)

// Layouts of the start and end of identity/TimeInterval. Older reports
// leave out the seconds.
var timestampLayouts = []string{
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04Z",
}

// ParseTimestamp parses one end of a report time interval.
func ParseTimestamp(s string) (time.Time, error) {
	var err error
	for _, layout := range timestampLayouts {
		var t time.Time
		if t, err = time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, errors.Wrapf(err, "malformed timestamp %q", s)
}

// Record is one line item of a billing report. Everything derived from the
// raw columns is computed when the record is created.
type Record struct {
	content map[string]string

	region    string
	usageType string
	usageErr  error
	interval  time.Duration
	endTime   time.Time
	amount    float64
}

// NewRecord builds a Record from a CSV header and one row. Rows may be
// shorter than the header. A usage type the classifier rejects does not
// fail construction; the error is kept and reported by UsageType.
func NewRecord(header, row []string, c Classifier) (*Record, error) {
	content := make(map[string]string, len(header))
	for i, name := range header {
		if i < len(row) {
			content[name] = row[i]
		}
	}
	r := &Record{content: content}

	start, end, err := parseInterval(r.Get(ColTimeInterval))
	if err != nil {
		return nil, err
	}
	r.interval = end.Sub(start)
	r.endTime = end

	if cost := r.Get(ColBlendedCost); cost != "" {
		r.amount, err = strconv.ParseFloat(cost, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "malformed %s", ColBlendedCost)
		}
	}

	r.region = ResolveRegion(r.Get(ColLocation), r.Get(ColAvailabilityZone))
	r.usageType, r.usageErr = c.Classify(r.Get(ColUsageType), r.Get(ColVolumeType), r.Get(ColLineItemDescription))
	return r, nil
}

func parseInterval(s string) (time.Time, time.Time, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, errors.Errorf("malformed %s %q", ColTimeInterval, s)
	}
	start, err := ParseTimestamp(parts[0])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseTimestamp(parts[1])
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

// Get returns the raw value of a column, or "" if the report doesn't have it.
func (r *Record) Get(column string) string {
	return r.content[column]
}

// LineItemType returns lineItem/LineItemType, e.g. "Usage" or "Tax".
func (r *Record) LineItemType() string {
	return r.Get(ColLineItemType)
}

// Region returns a region code such as "us-east-1", or NoRegion.
func (r *Record) Region() string {
	return r.region
}

// UsageType returns the classified usage type, "" if it isn't one we know.
func (r *Record) UsageType() (string, error) {
	return r.usageType, r.usageErr
}

// Interval returns the length of the time interval the line item covers.
func (r *Record) Interval() time.Duration {
	return r.interval
}

// EndTime returns the end of the line item's time interval.
func (r *Record) EndTime() time.Time {
	return r.endTime
}

// Amount returns lineItem/BlendedCost.
func (r *Record) Amount() float64 {
	return r.amount
}
