package main

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"time"
)

// DefaultMetricPrefix is the first component of every metric name unless
// configured otherwise.
const DefaultMetricPrefix = "awsbill"

// hourly is the only line item interval the ledger accepts. Monthly fees,
// taxes and credits cover longer intervals.
const hourly = time.Hour

// Point is the accumulated cost of one series for the hour ending at Time.
type Point struct {
	Name  string
	Time  time.Time
	Value float64
}

// LedgerStats counts what happened to the records given to a Ledger.
type LedgerStats struct {
	Records         int
	Accepted        int
	SkippedType     int
	SkippedInterval int
}

// Ledger accumulates hourly cost per series. It is not safe for concurrent
// use.
type Ledger struct {
	patterns   []Pattern
	timeseries map[string]map[int64]float64
	stats      LedgerStats
}

// NewLedger creates a Ledger that builds the given patterns' series.
func NewLedger(patterns ...Pattern) *Ledger {
	return &Ledger{
		patterns:   patterns,
		timeseries: make(map[string]map[int64]float64),
	}
}

// Process adds a record's amount to every series it belongs to. Only hourly
// "Usage" line items are counted. An error means the record's usage type
// couldn't be classified; nothing is added in that case.
func (l *Ledger) Process(r *Record) error {
	l.stats.Records++
	if r.LineItemType() != "Usage" {
		l.stats.SkippedType++
		return nil
	}
	if r.Interval() != hourly {
		l.stats.SkippedInterval++
		return nil
	}
	usageType, err := r.UsageType()
	if err != nil {
		return err
	}
	l.stats.Accepted++
	ts := r.EndTime().Unix()
	for _, p := range l.patterns {
		if !p.Match(usageType) {
			continue
		}
		for _, name := range p.MetricNames(r.Region(), usageType) {
			series, ok := l.timeseries[name]
			if !ok {
				series = make(map[int64]float64)
				l.timeseries[name] = series
			}
			series[ts] += r.Amount()
		}
	}
	return nil
}

// Stats returns counts of the records processed so far.
func (l *Ledger) Stats() LedgerStats {
	return l.stats
}

// Timeseries returns a copy of the accumulated values keyed by series name
// and Unix timestamp.
func (l *Ledger) Timeseries() map[string]map[int64]float64 {
	out := make(map[string]map[int64]float64, len(l.timeseries))
	for name, series := range l.timeseries {
		s := make(map[int64]float64, len(series))
		for ts, v := range series {
			s[ts] = v
		}
		out[name] = s
	}
	return out
}

// Points returns every accumulated value, ordered by series name and then
// by time.
func (l *Ledger) Points() []Point {
	names := make([]string, 0, len(l.timeseries))
	for name := range l.timeseries {
		names = append(names, name)
	}
	sort.Strings(names)

	var points []Point
	for _, name := range names {
		series := l.timeseries[name]
		stamps := make([]int64, 0, len(series))
		for ts := range series {
			stamps = append(stamps, ts)
		}
		sort.Slice(stamps, func(i, j int) bool { return stamps[i] < stamps[j] })
		for _, ts := range stamps {
			points = append(points, Point{Name: name, Time: time.Unix(ts, 0).UTC(), Value: series[ts]})
		}
	}
	return points
}

// Output writes one Graphite line per point to w, in Points order. Sinks
// that speak the plaintext protocol read the ledger through it.
func (l *Ledger) Output(w io.Writer, f Formatter) error {
	bw := bufio.NewWriter(w)
	for _, p := range l.Points() {
		if _, err := bw.WriteString(f.Format(p)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Formatter renders points in the Graphite plaintext protocol.
type Formatter struct {
	Prefix string
}

// Format returns "<prefix>.<name> <value> <unix timestamp>\n".
func (f Formatter) Format(p Point) string {
	return fmt.Sprintf("%s %.4f %d\n", f.metricName(p.Name), p.Value, p.Time.Unix())
}

func (f Formatter) metricName(name string) string {
	prefix := f.Prefix
	if prefix == "" {
		prefix = DefaultMetricPrefix
	}
	return prefix + "." + name
}
